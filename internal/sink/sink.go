// Package sink delivers accepted and rejected readings to their final
// destination. Grounded on original_source/src/sinks.rs's ResultSink trait
// and StdOutSink, extended with the rate/monotonicity limiter from
// SPEC_FULL.md §6.
package sink

import (
	"fmt"
	"os"
	"time"

	"github.com/jblang/meterread/internal/apperr"
)

// ResultSink receives every outcome of a matching pass: an accepted value
// or an error of any apperr kind.
type ResultSink interface {
	LogValue(t time.Time, number int)
	LogError(t time.Time, err error)
}

// StdoutSink prints "<unix_seconds>\t<n>" for values and
// "<unix_seconds> ERROR: <msg>" for errors, matching sinks.rs::StdOutSink's
// Unix-timestamp-prefixed lines.
type StdoutSink struct{}

func (StdoutSink) LogValue(t time.Time, number int) {
	fmt.Printf("%d\t%d\n", t.Unix(), number)
}

func (StdoutSink) LogError(t time.Time, err error) {
	fmt.Fprintf(os.Stderr, "%d ERROR: %v\n", t.Unix(), err)
}

// PlausibilityFilter wraps a downstream sink, rejecting values that go
// backwards relative to the last accepted value or whose implied rate of
// change exceeds MaxRate per second. Rejections are converted into
// apperr.PlausibilityError and delivered to the downstream sink's LogError,
// never interrupting the caller.
type PlausibilityFilter struct {
	Downstream ResultSink
	MaxRate    float64

	have     bool
	lastTime time.Time
	lastVal  int
}

// NewPlausibilityFilter wraps downstream with a rate/monotonicity check.
func NewPlausibilityFilter(downstream ResultSink, maxRate float64) *PlausibilityFilter {
	return &PlausibilityFilter{Downstream: downstream, MaxRate: maxRate}
}

func (f *PlausibilityFilter) LogValue(t time.Time, number int) {
	if f.have {
		if number < f.lastVal {
			f.Downstream.LogError(t, apperr.Plausibilityf("value %d is less than previous value %d", number, f.lastVal))
			return
		}
		elapsed := t.Sub(f.lastTime).Seconds()
		if elapsed > 0 {
			rate := float64(number-f.lastVal) / elapsed
			if rate > f.MaxRate {
				f.Downstream.LogError(t, apperr.Plausibilityf(
					"rate %.4g/s exceeds max plausible rate %.4g/s", rate, f.MaxRate))
				return
			}
		}
	}

	f.have = true
	f.lastTime = t
	f.lastVal = number
	f.Downstream.LogValue(t, number)
}

func (f *PlausibilityFilter) LogError(t time.Time, err error) {
	f.Downstream.LogError(t, err)
}
