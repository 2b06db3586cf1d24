// Package template builds and stores the frequency-domain representation of
// each digit template ("needle") the matcher correlates a haystack against.
// Grounded on original_source/src/cross_correlator.rs's PreparedNeedle /
// CrossCorrelator::add_needle.
package template

import (
	"image"
	"math"

	"github.com/jblang/meterread/internal/fft"
)

// Needle is the prepared, zero-mean frequency-domain form of one digit
// template, built once and reused across every haystack pass.
type Needle struct {
	FreqDomain []complex128
	Width      int
	Height     int
	PixelCount float64
	StdDev     float64

	// Identifier is the caller-supplied name (e.g. a filename) the number
	// assembler later mines for a decimal digit character.
	Identifier string
}

// Store owns the registered needle list and the padded canvas size every
// needle (and every haystack, see internal/matcher) is transformed into.
type Store struct {
	driver     *fft.Driver
	paddedW    int
	paddedH    int
	needles    []*Needle
	maxNeedleW int
	maxNeedleH int
}

// NewStore creates a needle store targeting the given padded FFT canvas.
func NewStore(driver *fft.Driver, paddedW, paddedH int) *Store {
	return &Store{driver: driver, paddedW: paddedW, paddedH: paddedH}
}

// PaddedSize reports the FFT canvas size needles and haystacks share.
func (s *Store) PaddedSize() (int, int) { return s.paddedW, s.paddedH }

// MaxDims reports the largest registered needle width/height, used by the
// locator's moving-window commit rule (Dw in SPEC_FULL.md §4.5).
func (s *Store) MaxDims() (int, int) { return s.maxNeedleW, s.maxNeedleH }

// Needles returns the registered needles in registration order.
func (s *Store) Needles() []*Needle { return s.needles }

// Register prepares img as a new needle with the given identifier and
// appends it to the store, returning its index.
func (s *Store) Register(img *image.Gray, identifier string) (int, error) {
	b := img.Bounds()
	nw, nh := b.Dx(), b.Dy()
	pixelCount := float64(nw * nh)

	var sum float64
	for y := 0; y < nh; y++ {
		rowOff := y * img.Stride
		for x := 0; x < nw; x++ {
			sum += float64(img.Pix[rowOff+x])
		}
	}
	mean := sum / pixelCount

	buf := make([]complex128, s.paddedW*s.paddedH)
	var sqDiffSum float64
	for y := 0; y < nh; y++ {
		rowOff := y * img.Stride
		for x := 0; x < nw; x++ {
			v := float64(img.Pix[rowOff+x]) - mean
			sqDiffSum += v * v
			buf[y*s.paddedW+x] = complex(v, 0)
		}
	}

	if err := s.driver.Transform2D(buf, s.paddedW, s.paddedH, fft.Forward); err != nil {
		return 0, err
	}

	needle := &Needle{
		FreqDomain: buf,
		Width:      nw,
		Height:     nh,
		PixelCount: pixelCount,
		StdDev:     math.Sqrt(sqDiffSum),
		Identifier: identifier,
	}
	s.needles = append(s.needles, needle)

	if nw > s.maxNeedleW {
		s.maxNeedleW = nw
	}
	if nh > s.maxNeedleH {
		s.maxNeedleH = nh
	}

	return len(s.needles) - 1, nil
}
