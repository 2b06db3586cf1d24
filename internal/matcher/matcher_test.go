package matcher

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/jblang/meterread/internal/fft"
	"github.com/jblang/meterread/internal/template"
)

func grayFrom(w, h int, pix []uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img
}

func newEngine(t *testing.T, needleW, needleH, haystackW, haystackH int) (*fft.Driver, *template.Store, *Engine) {
	t.Helper()
	driver := fft.NewDriver()
	store := template.NewStore(driver, haystackW+needleW, haystackH+needleH)
	return driver, store, New(driver, store)
}

func TestScoreAllValuesInZeroOne(t *testing.T) {
	_, store, eng := newEngine(t, 3, 3, 10, 6)
	needle := grayFrom(3, 3, []uint8{10, 200, 30, 40, 255, 60, 70, 80, 90})
	if _, err := store.Register(needle, "d0"); err != nil {
		t.Fatalf("register: %v", err)
	}

	haystack := grayFrom(10, 6, randomPix(10*6, 99))
	scores, err := eng.Score(haystack)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for _, cs := range scores {
		for x, s := range cs {
			if s < 0 || s > 1 {
				t.Fatalf("score at x=%d out of [0,1]: %v", x, s)
			}
		}
	}
}

func TestSelfMatchPeak(t *testing.T) {
	needlePix := []uint8{10, 200, 30, 40, 255, 60, 70, 80, 90}
	_, store, eng := newEngine(t, 3, 3, 3, 3)
	needle := grayFrom(3, 3, needlePix)
	if _, err := store.Register(needle, "d0"); err != nil {
		t.Fatalf("register: %v", err)
	}

	haystack := grayFrom(3, 3, needlePix)
	scores, err := eng.Score(haystack)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	// W - nw == 0, so the only possible column range is empty: exercising
	// this case requires a haystack padded out beyond the needle size.
	if len(scores[0]) != 0 {
		t.Fatalf("expected empty column range when haystack equals needle size, got %d", len(scores[0]))
	}

	// Repeat with a haystack one column/row larger than the needle so x=0
	// is a valid, fully-contained placement and the self-match peak is
	// observable.
	bigPix := make([]uint8, 4*4)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			bigPix[y*4+x] = needlePix[y*3+x]
		}
	}
	_, store2, eng2 := newEngine(t, 3, 3, 4, 4)
	needle2 := grayFrom(3, 3, needlePix)
	if _, err := store2.Register(needle2, "d0"); err != nil {
		t.Fatalf("register: %v", err)
	}
	haystack2 := grayFrom(4, 4, bigPix)
	scores2, err := eng2.Score(haystack2)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(scores2[0]) == 0 {
		t.Fatalf("expected non-empty column range")
	}
	if math.Abs(float64(scores2[0][0])-1.0) > 1e-4 {
		t.Fatalf("self-match score at x=0 = %v, want ~1.0", scores2[0][0])
	}
}

func TestTranslationInvariance(t *testing.T) {
	needlePix := []uint8{10, 200, 30, 40, 255, 60, 70, 80, 90}
	const hw, hh = 20, 6
	const nw, nh = 3, 3
	const x0 = 8

	_, store, eng := newEngine(t, nw, nh, hw, hh)
	needle := grayFrom(nw, nh, needlePix)
	if _, err := store.Register(needle, "d0"); err != nil {
		t.Fatalf("register: %v", err)
	}

	haystack := image.NewGray(image.Rect(0, 0, hw, hh))
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			haystack.SetGray(x0+x, y, needle.GrayAt(x, y))
		}
	}

	scores, err := eng.Score(haystack)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	cs := scores[0]

	peakX, peakV := -1, float32(-1)
	for x, s := range cs {
		if s > peakV {
			peakV = s
			peakX = x
		}
	}
	if peakX != x0 {
		t.Fatalf("peak at x=%d, want x=%d", peakX, x0)
	}
	if peakV < 0.95 {
		t.Fatalf("peak score %v < 0.95", peakV)
	}
}

func TestScenarioDegenerateSingleColumnHaystack(t *testing.T) {
	// Haystack [10, 20, 30] (3x1), needle [1] (1x1): every 1x1 window has
	// zero variance, so denom <= 1e-6 everywhere and every score is 0.
	_, store, eng := newEngine(t, 1, 1, 3, 1)
	needle := grayFrom(1, 1, []uint8{1})
	if _, err := store.Register(needle, "d0"); err != nil {
		t.Fatalf("register: %v", err)
	}

	haystack := grayFrom(3, 1, []uint8{10, 20, 30})
	scores, err := eng.Score(haystack)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(scores[0]) != 2 {
		t.Fatalf("expected column score length 2, got %d", len(scores[0]))
	}
	for i, s := range scores[0] {
		if s != 0 {
			t.Fatalf("expected score 0 at x=%d, got %v", i, s)
		}
	}
}

func TestScenarioReplicatedBlockPeaksAtKnownOffset(t *testing.T) {
	// Haystack 6x3 with a replicated 2x3 block [[5,5],[9,9],[5,5]] at x=2;
	// needle is that same block. The peak must land at x=2 and be strictly
	// higher than the scores at x=0,1,3.
	haystack := image.NewGray(image.Rect(0, 0, 6, 3))
	base := [][]uint8{{1, 1, 5, 5, 2, 2}, {3, 3, 9, 9, 4, 4}, {6, 6, 5, 5, 7, 7}}
	for y, row := range base {
		for x, v := range row {
			haystack.SetGray(x, y, color.Gray{Y: v})
		}
	}
	needle := grayFrom(2, 3, []uint8{5, 5, 9, 9, 5, 5})

	_, store, eng := newEngine(t, 2, 3, 6, 3)
	if _, err := store.Register(needle, "d0"); err != nil {
		t.Fatalf("register: %v", err)
	}
	scores, err := eng.Score(haystack)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	cs := scores[0]
	if len(cs) != 4 {
		t.Fatalf("expected column score length 4, got %d", len(cs))
	}
	if math.Abs(float64(cs[2])-1.0) > 1e-4 {
		t.Fatalf("score at x=2 = %v, want ~1.0", cs[2])
	}
	for _, x := range []int{0, 1, 3} {
		if cs[x] >= cs[2] {
			t.Fatalf("score at x=%d (%v) should be strictly less than peak at x=2 (%v)", x, cs[x], cs[2])
		}
	}
}

func randomPix(n int, seed uint32) []uint8 {
	out := make([]uint8, n)
	x := seed
	for i := range out {
		x = x*1664525 + 1013904223
		out[i] = uint8(x >> 24)
	}
	return out
}
