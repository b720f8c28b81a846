// Package frame defines the two-dimensional cell grid that flows through the
// pipeline, its shared-ownership rules and the generators that produce it.
//
// A Frame is reference counted. Whoever hands a frame to another goroutine
// must Acquire on its behalf, and every holder calls Release exactly once.
// Frames carry no lock: the topology guarantees at most one mutating stage
// per path, and producers never touch a frame after handing it downstream.
package frame

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Cell values
const (
	Empty   uint8 = 0 // background
	Active  uint8 = 1 // motion
	Matched uint8 = 2 // part of a recognized pattern
)

// MaxDimension bounds width and height; frames historically used 8-bit sizes.
const MaxDimension = 255

// Frame is a Height x Width grid of cells with identity and timing metadata.
// Pixels[row][col]; len(Pixels) == Height and every row has Width cells.
type Frame struct {
	ID        uuid.UUID
	Seq       uint64
	Width     int
	Height    int
	Pixels    [][]uint8
	Timestamp time.Time

	refCount atomic.Int32
	pool     *Pool
}

// New creates a frame with a reference count of one. When pixels is nil the
// grid is allocated and zeroed; otherwise it must be exactly height rows of
// width cells holding Empty, Active or Matched. The grid is used, not copied.
func New(width, height int, pixels [][]uint8) (*Frame, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	if pixels == nil {
		pixels = allocGrid(width, height)
	} else if err := validatePixels(width, height, pixels); err != nil {
		return nil, err
	}

	f := &Frame{
		ID:        uuid.New(),
		Width:     width,
		Height:    height,
		Pixels:    pixels,
		Timestamp: time.Now(),
	}
	f.refCount.Store(1)
	return f, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(width, height int, pixels [][]uint8) *Frame {
	f, err := New(width, height, pixels)
	if err != nil {
		panic(err)
	}
	return f
}

func validateDimensions(width, height int) error {
	if width < 1 || width > MaxDimension || height < 1 || height > MaxDimension {
		return dimensionError(width, height)
	}
	return nil
}

func validatePixels(width, height int, pixels [][]uint8) error {
	if len(pixels) != height {
		return pixelError("frame has %d rows, want %d", len(pixels), height)
	}
	for r, row := range pixels {
		if len(row) != width {
			return pixelError("frame row %d has %d cells, want %d", r, len(row), width)
		}
		for c, v := range row {
			if v > Matched {
				return pixelError("frame cell (%d,%d) has value %d", r, c, v)
			}
		}
	}
	return nil
}

// allocGrid allocates all rows from one backing array
func allocGrid(width, height int) [][]uint8 {
	backing := make([]uint8, width*height)
	grid := make([][]uint8, height)
	for r := range grid {
		grid[r] = backing[r*width : (r+1)*width : (r+1)*width]
	}
	return grid
}

// Acquire adds a holder
func (f *Frame) Acquire() {
	f.refCount.Add(1)
}

// Release drops a holder. When the last holder releases, a pooled frame
// returns its grid to the pool; the frame must not be used afterwards.
func (f *Frame) Release() {
	n := f.refCount.Add(-1)
	switch {
	case n == 0 && f.pool != nil:
		f.pool.put(f)
	case n < 0:
		panic(fmt.Sprintf("frame: release of unreferenced frame %d", f.Seq))
	}
}

// RefCount returns the current number of holders
func (f *Frame) RefCount() int {
	return int(f.refCount.Load())
}

// Clone deep-copies the frame. The clone keeps ID, Seq and Timestamp, starts
// with a reference count of one and never belongs to a pool.
func (f *Frame) Clone() *Frame {
	grid := allocGrid(f.Width, f.Height)
	for r := range f.Pixels {
		copy(grid[r], f.Pixels[r])
	}

	c := &Frame{
		ID:        f.ID,
		Seq:       f.Seq,
		Width:     f.Width,
		Height:    f.Height,
		Pixels:    grid,
		Timestamp: f.Timestamp,
	}
	c.refCount.Store(1)
	return c
}

// Count returns the number of cells holding value
func (f *Frame) Count(value uint8) int {
	n := 0
	for _, row := range f.Pixels {
		for _, v := range row {
			if v == value {
				n++
			}
		}
	}
	return n
}

// Equal reports whether both frames have the same shape and cells
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || f.Width != other.Width || f.Height != other.Height {
		return false
	}
	for r := range f.Pixels {
		for c := range f.Pixels[r] {
			if f.Pixels[r][c] != other.Pixels[r][c] {
				return false
			}
		}
	}
	return true
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame #%d %dx%d", f.Seq, f.Width, f.Height)
}
