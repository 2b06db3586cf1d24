// Package fft implements the 2-D complex FFT driver the matcher builds on:
// a row pass followed by a column pass over a rectangular complex buffer,
// with 1-D plans cached by transform length (one plan serves both
// directions) so repeated haystacks and needles of the same padded size
// don't replan every call.
package fft

import (
	"fmt"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

// Direction selects the transform direction. Inverse does not divide by the
// forward gain; callers normalise by width*height themselves (see
// internal/matcher), matching the convention documented in SPEC_FULL.md §4.1.
type Direction int

const (
	Forward Direction = iota
	Inverse
)

// Driver owns a cache of 1-D FFT plans keyed by transform length. A single
// Driver is not safe for concurrent use from multiple goroutines; callers
// that parallelise across needles must give each worker its own Driver.
type Driver struct {
	mu    sync.Mutex
	plans map[int]*algofft.Plan[complex128]
}

// NewDriver returns an empty plan cache.
func NewDriver() *Driver {
	return &Driver{plans: make(map[int]*algofft.Plan[complex128])}
}

func (d *Driver) planFor(n int) (*algofft.Plan[complex128], error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.plans[n]; ok {
		return p, nil
	}
	p, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft: plan for length %d: %w", n, err)
	}
	d.plans[n] = p
	return p, nil
}

// Transform2D applies a 1-D FFT of length width to each of the height rows
// of buf, then a 1-D FFT of length height to each of the width columns, in
// place. buf must have length width*height, row-major.
func (d *Driver) Transform2D(buf []complex128, width, height int, dir Direction) error {
	if len(buf) != width*height {
		return fmt.Errorf("fft: buffer length %d does not match %dx%d", len(buf), width, height)
	}

	rowPlan, err := d.planFor(width)
	if err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		row := buf[y*width : (y+1)*width]
		if err := apply(rowPlan, row, dir); err != nil {
			return err
		}
	}

	colPlan, err := d.planFor(height)
	if err != nil {
		return err
	}
	col := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = buf[y*width+x]
		}
		if err := apply(colPlan, col, dir); err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			buf[y*width+x] = col[y]
		}
	}
	return nil
}

func apply(p *algofft.Plan[complex128], data []complex128, dir Direction) error {
	if dir == Forward {
		return p.Forward(data, data)
	}
	return p.Inverse(data, data)
}
