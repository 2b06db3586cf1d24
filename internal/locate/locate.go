// Package locate scans per-template column-score vectors left to right and
// commits to a sequence of digit placements. Grounded on
// original_source/src/main.rs::locate_digits.
package locate

import "github.com/jblang/meterread/internal/matcher"

// DefaultThreshold is τ from SPEC_FULL.md §4.5: the conservative floor below
// which no digit is ever emitted.
const DefaultThreshold = 0.6

// DigitPos is one committed match: which template, at which haystack
// column, with what score.
type DigitPos struct {
	TemplateIndex int
	X             int
	Score         float32
}

// Config surfaces the locator's tunables as an explicit struct rather than
// module-level constants (SPEC_FULL.md §9).
type Config struct {
	// Threshold is τ; scores below it are ignored.
	Threshold float32
	// DigitWidth is Dw, the maximum width over all registered templates.
	DigitWidth int
}

// DefaultConfig returns the locator defaults from spec.md §4.5.
func DefaultConfig(digitWidth int) Config {
	return Config{Threshold: DefaultThreshold, DigitWidth: digitWidth}
}

// Locate scans scores (one ColumnScore per template, same indexing as the
// needle store) and returns the committed digit sequence in non-decreasing
// x order.
func Locate(scores []matcher.ColumnScore, cfg Config) []DigitPos {
	if len(scores) == 0 {
		return nil
	}

	width := len(scores[0])
	for _, cs := range scores {
		if len(cs) < width {
			width = len(cs)
		}
	}

	var result []DigitPos
	haveCandidate := false
	var candidate DigitPos

	for x := 0; x < width; x++ {
		for t, cs := range scores {
			s := cs[x]
			if s < cfg.Threshold {
				continue
			}
			if !haveCandidate || s > candidate.Score {
				candidate = DigitPos{TemplateIndex: t, X: x, Score: s}
				haveCandidate = true
			}
		}

		if haveCandidate && x >= candidate.X+cfg.DigitWidth {
			result = append(result, candidate)
			haveCandidate = false
		}
	}

	if haveCandidate {
		result = append(result, candidate)
	}

	return result
}
