// Package debugviz renders the composite debug image written by
// --debug-scoring: the captured haystack, one score sparkline per
// registered template, and the recognised digit crops beneath. Grounded on
// original_source/src/debugdigit.rs, restored from spec.md's distillation
// per SPEC_FULL.md §6.1.
package debugviz

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/jblang/meterread/internal/locate"
)

// Sparkline renders values (clamped to [0,1]) as a white trace over a black
// background of the given height, filling solid above threshold. Grounded
// on debugdigit.rs::graph.
func Sparkline(values []float32, height int, threshold float32) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, len(values), height))
	white := color.Gray{Y: 255}
	imgRange := float64(height - 1)

	for ix, v := range values {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		iy := int((1 - float64(v)) * imgRange)
		out.SetGray(ix, iy, white)
		if v > threshold {
			for y := iy; y < height; y++ {
				out.SetGray(ix, y, white)
			}
		}
	}
	return out
}

// Compose stacks the haystack frame, one sparkline row per template (with
// its digit crop alongside), and the recognised digit sequence at the
// bottom. Grounded on debugdigit.rs::debug_print_digits.
func Compose(haystack *image.Gray, templates []*image.Gray, maxWidth, maxHeight int,
	scores [][]float32, positions []locate.DigitPos, threshold float32) *image.Gray {

	sparklineHeight := int(1.5 * float64(maxHeight))
	hb := haystack.Bounds()

	width := maxWidth + hb.Dx()
	height := hb.Dy() + (1+len(templates))*sparklineHeight

	canvas := imaging.New(width, height, color.Black)

	verticalPos := 0
	canvas = imaging.Overlay(canvas, haystack, image.Pt(maxWidth, verticalPos), 1.0)
	verticalPos += hb.Dy()

	for i, tmpl := range templates {
		canvas = imaging.Overlay(canvas, tmpl, image.Pt(0, verticalPos), 1.0)
		line := Sparkline(scores[i], sparklineHeight, threshold)
		canvas = imaging.Overlay(canvas, line, image.Pt(maxWidth, verticalPos), 1.0)
		verticalPos += sparklineHeight
	}

	for _, pos := range positions {
		if pos.TemplateIndex < 0 || pos.TemplateIndex >= len(templates) {
			continue
		}
		digitPic := templates[pos.TemplateIndex]
		canvas = imaging.Overlay(canvas, digitPic, image.Pt(maxWidth+pos.X, verticalPos), 1.0)
	}

	return grayFrom(canvas)
}

func grayFrom(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
