package fft

import (
	"math"
	"math/rand"
	"testing"
)

func TestTransform2DRoundTrip(t *testing.T) {
	const width, height = 8, 4
	n := float64(width * height)

	rng := rand.New(rand.NewSource(1))
	original := make([]complex128, width*height)
	for i := range original {
		original[i] = complex(rng.Float64()*10-5, rng.Float64()*10-5)
	}

	buf := make([]complex128, len(original))
	copy(buf, original)

	d := NewDriver()
	if err := d.Transform2D(buf, width, height, Forward); err != nil {
		t.Fatalf("forward: %v", err)
	}
	if err := d.Transform2D(buf, width, height, Inverse); err != nil {
		t.Fatalf("inverse: %v", err)
	}

	for i := range buf {
		got := buf[i] / complex(n, 0)
		want := original[i]
		if math.Abs(real(got)-real(want)) > 1e-5 || math.Abs(imag(got)-imag(want)) > 1e-5 {
			t.Fatalf("index %d: got %v, want %v", i, got, want)
		}
	}
}

func TestTransform2DBufferLengthMismatch(t *testing.T) {
	d := NewDriver()
	buf := make([]complex128, 10)
	if err := d.Transform2D(buf, 4, 4, Forward); err == nil {
		t.Fatal("expected error for mismatched buffer length")
	}
}

func TestDriverCachesPlansByLength(t *testing.T) {
	d := NewDriver()
	buf1 := make([]complex128, 16)
	if err := d.Transform2D(buf1, 4, 4, Forward); err != nil {
		t.Fatalf("first transform: %v", err)
	}
	if len(d.plans) != 1 {
		t.Fatalf("expected a single cached plan for square transform, got %d", len(d.plans))
	}

	buf2 := make([]complex128, 4*8)
	if err := d.Transform2D(buf2, 4, 8, Forward); err != nil {
		t.Fatalf("second transform: %v", err)
	}
	if len(d.plans) != 2 {
		t.Fatalf("expected 2 cached plans after introducing a new length, got %d", len(d.plans))
	}
}
