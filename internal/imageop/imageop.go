// Package imageop loads grayscale images and applies the geometric and edge
// pre-processing ops available on the capture pipeline. Grounded on
// original_source/src/image_util.rs (load_image_as_grayscale, sobel,
// apply_ops), generalised to flip-x/flip-y and routed through
// github.com/disintegration/imaging for the geometric transforms.
package imageop

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/jblang/meterread/internal/apperr"
)

// Load opens path and converts it to 8-bit grayscale. Decoding goes through
// imaging.Open, which registers the common format decoders itself, matching
// original_source/src/image_util.rs::load_image_as_grayscale's use of the
// image crate's format-sniffing open().
func Load(path string) (*image.Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, apperr.Decode(err)
	}
	return ToGray(imaging.Grayscale(img)), nil
}

// ToGray flattens any image.Image (imaging's filters all return *image.NRGBA)
// down to the plain 8-bit image.Gray the matcher and integral tables expect.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// Sobel runs a classic 3x3 Sobel edge filter, grounded on
// image_util.rs::sobel's direct-indexed kernel. Images smaller than 3x3 in
// either dimension are returned unchanged, matching the original's
// too-small-to-filter escape hatch.
func Sobel(input *image.Gray) *image.Gray {
	b := input.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 3 || height < 3 {
		out := image.NewGray(b)
		copy(out.Pix, input.Pix)
		return out
	}

	outW, outH := width-2, height-2
	out := image.NewGray(image.Rect(0, 0, outW, outH))

	px := func(x, y int) int32 { return int32(input.GrayAt(b.Min.X+x, b.Min.Y+y).Y) }

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			nw, north, ne := px(x, y), px(x+1, y), px(x+2, y)
			west, east := px(x, y+1), px(x+2, y+1)
			sw, south, se := px(x, y+2), px(x+1, y+2), px(x+2, y+2)

			gx := (ne - nw) + 2*(east-west) + (se - sw)
			gy := (sw - nw) + 2*(south-north) + (se - ne)

			mag := math.Sqrt(float64(gx*gx + gy*gy))
			if mag > 255 {
				mag = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(mag)})
		}
	}
	return out
}

// ApplyOps runs each op against img in order and returns the result as a
// new image; img itself is left unchanged. Grounded on image_util.rs::apply_ops's split-on-colon dispatch,
// extended with flip-x/flip-y per SPEC_FULL.md §6.
func ApplyOps(img *image.Gray, ops []string) (*image.Gray, error) {
	cur := image.Image(img)
	for _, op := range ops {
		parts := strings.Split(op, ":")
		switch parts[0] {
		case "rotate90":
			cur = imaging.Rotate90(cur)
		case "rotate180":
			cur = imaging.Rotate180(cur)
		case "flip-x":
			cur = imaging.FlipH(cur)
		case "flip-y":
			cur = imaging.FlipV(cur)
		case "crop":
			if len(parts) != 5 {
				return nil, apperr.Geometryf("malformed crop op %q: want crop:x:y:w:h", op)
			}
			x, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, apperr.Geometryf("invalid x in %q: %v", op, err)
			}
			y, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, apperr.Geometryf("invalid y in %q: %v", op, err)
			}
			w, err := strconv.Atoi(parts[3])
			if err != nil {
				return nil, apperr.Geometryf("invalid width in %q: %v", op, err)
			}
			h, err := strconv.Atoi(parts[4])
			if err != nil {
				return nil, apperr.Geometryf("invalid height in %q: %v", op, err)
			}
			b := cur.Bounds()
			if x < 0 || y < 0 || w < 0 || h < 0 || x+w > b.Dx() || y+h > b.Dy() {
				return nil, apperr.Geometryf("crop %d,%d,%d,%d out of bounds for image %dx%d", x, y, w, h, b.Dx(), b.Dy())
			}
			cur = imaging.Crop(cur, image.Rect(x, y, x+w, y+h))
		default:
			return nil, apperr.Geometryf("unknown or malformed op: %s", op)
		}
	}
	return ToGray(imaging.Grayscale(cur)), nil
}
