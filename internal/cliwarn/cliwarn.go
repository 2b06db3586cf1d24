// Package cliwarn prints startup warnings in red, the way xtaci-kcptun's
// client/main.go flags suspicious QPP/scavenge configuration before it
// starts serving.
package cliwarn

import "github.com/fatih/color"

// Warnf prints a red warning line to stderr.
func Warnf(format string, args ...any) {
	color.Red(format, args...)
}

// TemplateCountf warns when fewer digit templates were supplied than
// --emit-count; a reading then assembles only if some template matches at
// more than one digit position.
func TemplateCountf(templateCount, emitCount int) {
	if templateCount < emitCount {
		color.Red("WARNING: %d digit templates supplied but --emit-count is %d; a reading succeeds only if some template matches more than one digit.", templateCount, emitCount)
	}
}

// MaxPlausibleRatef warns when the plausibility rate limit is non-positive,
// which rejects every later reading that is higher than the last accepted
// one.
func MaxPlausibleRatef(rate float64) {
	if rate <= 0 {
		color.Red("WARNING: --max-plausible-rate is %.4g; every later reading above the last accepted value will be rejected.", rate)
	}
}
