// Package integral builds the summed-area tables the matcher uses to get
// O(1) window sum / sum-of-squares queries over a haystack, grounded on
// original_source/src/cross_correlator.rs's IntegralImages.
package integral

import "image"

// Tables holds the two (W+1)x(H+1) prefix-sum tables over a grayscale
// image: pixel sums and pixel-squared sums. Row 0 and column 0 are zero.
type Tables struct {
	sum   []uint64
	sumSq []uint64
	// stride is W+1, the row length of sum/sumSq.
	stride int
	w, h   int
}

// Build constructs the prefix-sum tables for img in a single row-major pass.
func Build(img *image.Gray) *Tables {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w + 1
	sum := make([]uint64, stride*(h+1))
	sumSq := make([]uint64, stride*(h+1))

	for y := 0; y < h; y++ {
		var rowSum, rowSumSq uint64
		rowOff := y * img.Stride
		for x := 0; x < w; x++ {
			p := uint64(img.Pix[rowOff+x])
			rowSum += p
			rowSumSq += p * p

			idx := (y+1)*stride + (x + 1)
			above := y*stride + (x + 1)
			sum[idx] = rowSum + sum[above]
			sumSq[idx] = rowSumSq + sumSq[above]
		}
	}

	return &Tables{sum: sum, sumSq: sumSq, stride: stride, w: w, h: h}
}

// WindowStats returns (sum, sum-of-squares) over the half-open rectangle
// [x, x+nw) x [y, y+nh), widened to float64. Callers must keep the rectangle
// within the image bounds used to Build the tables.
func (t *Tables) WindowStats(x, y, nw, nh int) (float64, float64) {
	x2, y2 := x+nw, y+nh

	at := func(data []uint64, px, py int) float64 {
		return float64(data[py*t.stride+px])
	}

	s := at(t.sum, x2, y2) - at(t.sum, x, y2) - at(t.sum, x2, y) + at(t.sum, x, y)
	sSq := at(t.sumSq, x2, y2) - at(t.sumSq, x, y2) - at(t.sumSq, x2, y) + at(t.sumSq, x, y)
	return s, sSq
}
