package accum

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Map is the read/lifecycle surface every accumulation map exposes. Writes
// go through map-specific record methods; everything here runs strictly
// between passes (or, for ValueAt and GetBitmap, after a pass completes).
type Map interface {
	// Initialize (re)allocates the backing grid. Nonzero dimensions are
	// adopted; zero keeps the current size. Clears the averaged state.
	Initialize(width, height int)

	// Allocated reports whether backing storage currently exists.
	Allocated() bool

	// RenderMap averages the accumulated sums (at most once per pass),
	// derives color-law bounds and fills the bitmap. Safe to call
	// concurrently with other renders and probes once a pass completes.
	RenderMap()

	// GetBitmap returns the rendered bitmap, rendering on first call. Safe
	// to call concurrently with other renders and probes once a pass
	// completes.
	GetBitmap() *image.RGBA

	// ValueAt returns the semantically meaningful value at a cell; see the
	// concrete maps for per-map sentinel conventions. It never mutates.
	ValueAt(x, y int) float64

	// Reset drops the backing grid at the end of a pass. The map must be
	// re-initialized before it accumulates again.
	Reset()
}

// mapBase carries the state shared by all accumulation maps: dimensions,
// the one-shot averaging guard and the cached bitmap.
type mapBase struct {
	width, height int

	// renderMu serializes whole-grid materialization: the one-shot
	// averaging step, the bound scans and the bitmap cache. Renders and
	// probes stay safe to call concurrently once a pass completes; the
	// per-cell record paths never take it.
	renderMu sync.Mutex
	averaged bool
	bitmap   *image.RGBA
}

// adoptSize takes over nonzero dimensions, keeping the current size for
// zero arguments so Initialize stays idempotent.
func (b *mapBase) adoptSize(width, height int) {
	if width > 0 && height > 0 {
		b.width = width
		b.height = height
	}
}

func (b *mapBase) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// fillBitmap allocates a bitmap and fills it row by row using the per-pixel
// color function. Rows are independent, so they are fanned out across the
// CPUs; by the time a map renders, all writers have finished and the grid
// is read-only. The caller decides which cache slot the result lands in.
func (b *mapBase) fillBitmap(pixel func(x, y int) color.RGBA) *image.RGBA {
	bitmap := image.NewRGBA(image.Rect(0, 0, b.width, b.height))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for y := 0; y < b.height; y++ {
		row := y
		g.Go(func() error {
			for x := 0; x < b.width; x++ {
				bitmap.SetRGBA(x, row, pixel(x, row))
			}
			return nil
		})
	}
	g.Wait() // row fills never fail
	return bitmap
}
