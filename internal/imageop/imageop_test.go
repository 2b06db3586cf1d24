package imageop

import (
	"image"
	"image/color"
	"testing"

	"github.com/jblang/meterread/internal/apperr"
)

func grayFrom(w, h int, pix []uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	copy(img.Pix, pix)
	return img
}

func TestSobelTooSmallReturnsUnchanged(t *testing.T) {
	in := grayFrom(2, 2, []uint8{1, 2, 3, 4})
	out := Sobel(in)
	if out.Bounds() != in.Bounds() {
		t.Fatalf("expected unchanged bounds, got %v", out.Bounds())
	}
	for i, v := range in.Pix {
		if out.Pix[i] != v {
			t.Fatalf("pixel %d changed: got %d want %d", i, out.Pix[i], v)
		}
	}
}

func TestSobelShrinksByTwo(t *testing.T) {
	pix := make([]uint8, 5*5)
	for i := range pix {
		pix[i] = uint8(i * 7 % 256)
	}
	in := grayFrom(5, 5, pix)
	out := Sobel(in)
	b := out.Bounds()
	if b.Dx() != 3 || b.Dy() != 3 {
		t.Fatalf("expected 3x3 output, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestSobelFlatImageIsZero(t *testing.T) {
	pix := make([]uint8, 6*6)
	for i := range pix {
		pix[i] = 100
	}
	in := grayFrom(6, 6, pix)
	out := Sobel(in)
	for _, v := range out.Pix {
		if v != 0 {
			t.Fatalf("expected zero gradient on flat image, got %d", v)
		}
	}
}

func TestApplyOpsRotate90ChangesDimensions(t *testing.T) {
	in := grayFrom(4, 2, make([]uint8, 8))
	out, err := ApplyOps(in, []string{"rotate90"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 2 || b.Dy() != 4 {
		t.Fatalf("expected 2x4 after rotate90, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestApplyOpsCropWithinBounds(t *testing.T) {
	pix := make([]uint8, 10*10)
	for i := range pix {
		pix[i] = uint8(i)
	}
	in := grayFrom(10, 10, pix)
	out, err := ApplyOps(in, []string{"crop:1:1:4:4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := out.Bounds()
	if b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("expected 4x4 crop, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestApplyOpsCropOutOfBoundsIsGeometryError(t *testing.T) {
	// spec.md §6 scenario 6: crop larger than the source image must be a
	// fatal geometry error, not a panic or silent clamp.
	in := image.NewGray(image.Rect(0, 0, 640, 480))
	_, err := ApplyOps(in, []string{"crop:0:0:1000:1000"})
	if err == nil {
		t.Fatalf("expected geometry error, got nil")
	}
	if _, ok := err.(*apperr.GeometryError); !ok {
		t.Fatalf("expected *apperr.GeometryError, got %T", err)
	}
}

func TestApplyOpsUnknownOpIsGeometryError(t *testing.T) {
	in := grayFrom(4, 4, make([]uint8, 16))
	_, err := ApplyOps(in, []string{"sharpen:2"})
	if err == nil {
		t.Fatalf("expected error for unknown op, got nil")
	}
	if _, ok := err.(*apperr.GeometryError); !ok {
		t.Fatalf("expected *apperr.GeometryError, got %T", err)
	}
}

func TestApplyOpsMalformedCropIsGeometryError(t *testing.T) {
	in := grayFrom(4, 4, make([]uint8, 16))
	_, err := ApplyOps(in, []string{"crop:1:1"})
	if err == nil {
		t.Fatalf("expected error for malformed crop, got nil")
	}
	if _, ok := err.(*apperr.GeometryError); !ok {
		t.Fatalf("expected *apperr.GeometryError, got %T", err)
	}
}

func TestSobelPreservesGrayModel(t *testing.T) {
	in := grayFrom(4, 4, make([]uint8, 16))
	out := Sobel(in)
	if out.ColorModel() != color.GrayModel {
		t.Fatalf("expected gray color model")
	}
}
