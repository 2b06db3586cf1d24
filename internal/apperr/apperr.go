// Package apperr defines the typed error kinds raised across the capture,
// matching, and assembly pipeline so callers can branch on failure class
// instead of matching error strings.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// AcquisitionError wraps a failure reading a frame from an ImageSource.
type AcquisitionError struct {
	Cause error
}

func (e *AcquisitionError) Error() string { return fmt.Sprintf("acquisition: %v", e.Cause) }
func (e *AcquisitionError) Unwrap() error { return e.Cause }

// Format lets log.Printf("%+v", err) print the wrapped stack trace, the way
// pkg/errors's own wrapped errors do.
func (e *AcquisitionError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "acquisition: %+v", e.Cause)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Acquisition wraps cause as an AcquisitionError, attaching a stack trace
// (errors.WithStack) the way xtaci-kcptun/std/comp.go wraps I/O failures so
// %+v at the CLI boundary prints where the failure originated.
func Acquisition(cause error) error { return &AcquisitionError{Cause: errors.WithStack(cause)} }

// GeometryError reports a bad crop or an image too small for the requested op.
type GeometryError struct {
	Msg string
}

func (e *GeometryError) Error() string { return fmt.Sprintf("geometry: %s", e.Msg) }

// Geometryf builds a GeometryError from a format string.
func Geometryf(format string, args ...any) error {
	return &GeometryError{Msg: fmt.Sprintf(format, args...)}
}

// DecodeError reports an unreadable image file.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode: %v", e.Cause) }
func (e *DecodeError) Unwrap() error { return e.Cause }

// Format lets log.Printf("%+v", err) print the wrapped stack trace.
func (e *DecodeError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "decode: %+v", e.Cause)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Decode wraps cause as a DecodeError, attaching a stack trace.
func Decode(cause error) error { return &DecodeError{Cause: errors.WithStack(cause)} }

// PipelineError reports a digit-count mismatch, a spacing-jitter rejection,
// or a template whose identifier carries no recognisable digit.
type PipelineError struct {
	Msg string
}

func (e *PipelineError) Error() string { return fmt.Sprintf("pipeline: %s", e.Msg) }

// Pipelinef builds a PipelineError from a format string.
func Pipelinef(format string, args ...any) error {
	return &PipelineError{Msg: fmt.Sprintf(format, args...)}
}

// PlausibilityError reports a value rejected by the rate/monotonicity filter.
type PlausibilityError struct {
	Msg string
}

func (e *PlausibilityError) Error() string { return fmt.Sprintf("plausibility: %s", e.Msg) }

// Plausibilityf builds a PlausibilityError from a format string.
func Plausibilityf(format string, args ...any) error {
	return &PlausibilityError{Msg: fmt.Sprintf(format, args...)}
}
