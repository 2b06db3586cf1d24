// Package matcher implements the NCC engine: per haystack, it builds a
// frequency-domain representation and integral tables once, then for every
// registered needle runs a conjugate-multiplied inverse FFT and reduces the
// normalised score to one maximum per haystack column. Grounded on
// original_source/src/cross_correlator.rs's
// CrossCorrelator::calculate_needle_scores_for.
package matcher

import (
	"fmt"
	"image"
	"math"

	"github.com/jblang/meterread/internal/fft"
	"github.com/jblang/meterread/internal/integral"
	"github.com/jblang/meterread/internal/template"
)

// DenomFloor is the minimum NCC denominator below which a position's score
// degrades to zero rather than dividing by a near-zero variance.
const DenomFloor = 1e-6

// ColumnScore is the per-template, per-haystack-column maximum NCC score.
type ColumnScore []float32

// Engine runs matching passes against a fixed needle store. A single Engine
// owns its workspace buffer and is not safe for concurrent use; concurrent
// passes must use distinct Engines (SPEC_FULL.md §5).
type Engine struct {
	driver    *fft.Driver
	store     *template.Store
	workspace []complex128
}

// New builds a matching engine over the given needle store, sharing its FFT
// plan cache.
func New(driver *fft.Driver, store *template.Store) *Engine {
	pw, ph := store.PaddedSize()
	return &Engine{
		driver:    driver,
		store:     store,
		workspace: make([]complex128, pw*ph),
	}
}

// Score runs one matching pass against haystack and returns one ColumnScore
// per registered needle, in registration order.
func (e *Engine) Score(haystack *image.Gray) ([]ColumnScore, error) {
	pw, ph := e.store.PaddedSize()
	b := haystack.Bounds()
	hw, hh := b.Dx(), b.Dy()

	needles := e.store.Needles()
	if len(needles) == 0 {
		return nil, fmt.Errorf("matcher: no needles registered")
	}
	maxNW, maxNH := e.store.MaxDims()
	if hw > pw-maxNW || hh > ph-maxNH {
		return nil, fmt.Errorf("matcher: haystack %dx%d exceeds padded capacity %dx%d for needles up to %dx%d",
			hw, hh, pw, ph, maxNW, maxNH)
	}

	haystackFFT := make([]complex128, pw*ph)
	for y := 0; y < hh; y++ {
		rowOff := y * haystack.Stride
		for x := 0; x < hw; x++ {
			haystackFFT[y*pw+x] = complex(float64(haystack.Pix[rowOff+x]), 0)
		}
	}
	if err := e.driver.Transform2D(haystackFFT, pw, ph, fft.Forward); err != nil {
		return nil, err
	}

	tables := integral.Build(haystack)
	fftNorm := float64(pw * ph)

	results := make([]ColumnScore, len(needles))
	for i, needle := range needles {
		for k := range e.workspace {
			e.workspace[k] = haystackFFT[k] * cmplxConj(needle.FreqDomain[k])
		}
		if err := e.driver.Transform2D(e.workspace, pw, ph, fft.Inverse); err != nil {
			return nil, err
		}

		nw, nh := needle.Width, needle.Height
		validW := hw - nw
		validH := hh - nh

		score := make(ColumnScore, maxInt(validW, 0))
		for x := 0; x < validW; x++ {
			var colMax float32
			for y := 0; y < validH; y++ {
				numerator := real(e.workspace[y*pw+x]) / fftNorm

				sum, sumSq := tables.WindowStats(x, y, nw, nh)
				variance := sumSq - (sum*sum)/needle.PixelCount
				if variance < 0 {
					variance = 0
				}
				denom := needle.StdDev * math.Sqrt(variance)

				var s float32
				if denom > DenomFloor {
					s = float32(clamp(numerator/denom, -1, 1))
				}
				if s > colMax {
					colMax = s
				}
			}
			score[x] = colMax
		}
		results[i] = score
	}

	return results, nil
}

func cmplxConj(c complex128) complex128 { return complex(real(c), -imag(c)) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
