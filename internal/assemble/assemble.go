// Package assemble turns a committed DigitPos sequence into the decimal
// integer the meter displays: a spacing-jitter check, a digit-count check,
// and digit-character extraction from each matched template's identifier.
// New relative to original_source (the Rust program stopped at printing
// digit/position/score triples), built from SPEC_FULL.md §4.6 in the
// locator's idiom.
package assemble

import (
	"strings"

	"github.com/jblang/meterread/internal/apperr"
	"github.com/jblang/meterread/internal/locate"
)

// JitterTolerance is J from SPEC_FULL.md §4.6: the fraction by which
// consecutive digit spacings may deviate before being rejected.
const JitterTolerance = 0.4

// Identifiers maps a template index (as used by locate.DigitPos) to the
// caller-supplied identifier string that a decimal digit is extracted from.
type Identifiers []string

// Number assembles expectedCount digits from positions, using identifiers
// to recover each matched template's digit character.
func Number(positions []locate.DigitPos, identifiers Identifiers, expectedCount int) (int, error) {
	if len(positions) < 2 {
		return 0, apperr.Pipelinef("too few digits: got %d, need at least 2 to check spacing", len(positions))
	}

	for i := 2; i < len(positions); i++ {
		prevDelta := positions[i-1].X - positions[i-2].X
		delta := positions[i].X - positions[i-1].X
		if prevDelta == 0 {
			return 0, apperr.Pipelinef("spacing jitter between indices %d and %d: zero-width previous gap", i-1, i)
		}
		ratio := float64(delta) / float64(prevDelta)
		if ratio < 1-JitterTolerance || ratio > 1+JitterTolerance {
			return 0, apperr.Pipelinef(
				"spacing jitter between indices %d and %d: delta[%d]=%d delta[%d]=%d ratio=%.3f",
				i-1, i, i-1, prevDelta, i, delta, ratio)
		}
	}

	if len(positions) < expectedCount {
		return 0, apperr.Pipelinef("got %d digits, expected %d", len(positions), expectedCount)
	}

	result := 0
	for i := 0; i < expectedCount; i++ {
		pos := positions[i]
		if pos.TemplateIndex < 0 || pos.TemplateIndex >= len(identifiers) {
			return 0, apperr.Pipelinef("digit %d: template index %d out of range", i, pos.TemplateIndex)
		}
		d, ok := firstDigit(identifiers[pos.TemplateIndex])
		if !ok {
			return 0, apperr.Pipelinef("digit %d: identifier %q has no decimal digit character", i, identifiers[pos.TemplateIndex])
		}
		result = result*10 + d
	}

	return result, nil
}

func firstDigit(s string) (int, bool) {
	idx := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if idx < 0 {
		return 0, false
	}
	return int(s[idx] - '0'), true
}
