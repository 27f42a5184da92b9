package accum

import (
	"math"
	"sync/atomic"

	"raystats/pkg/core"
)

// The grids store one render pass worth of per-pixel sums in flat slices
// indexed y*width+x. Writers from concurrent worker goroutines only ever
// touch single cells, so every write goes through sync/atomic; there is no
// per-cell or sharded locking, and writes to different cells never
// serialize against each other.

// counterGrid accumulates integer counts per cell.
type counterGrid struct {
	width, height int
	cells         []int64
}

func newCounterGrid(width, height int) *counterGrid {
	return &counterGrid{
		width:  width,
		height: height,
		cells:  make([]int64, width*height),
	}
}

// Incr atomically increments the counter at (x, y).
func (g *counterGrid) Incr(x, y int) {
	atomic.AddInt64(&g.cells[y*g.width+x], 1)
}

// At returns the count at (x, y).
func (g *counterGrid) At(x, y int) int64 {
	return atomic.LoadInt64(&g.cells[y*g.width+x])
}

// scalarGrid accumulates float64 sums per cell. Values are stored as raw
// float bits so that concurrent adds can use a compare-and-swap loop.
type scalarGrid struct {
	width, height int
	cells         []uint64
}

func newScalarGrid(width, height int) *scalarGrid {
	return &scalarGrid{
		width:  width,
		height: height,
		cells:  make([]uint64, width*height),
	}
}

// Add atomically adds v to the cell at (x, y).
func (g *scalarGrid) Add(x, y int, v float64) {
	addr := &g.cells[y*g.width+x]
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// At returns the value at (x, y).
func (g *scalarGrid) At(x, y int) float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.cells[y*g.width+x]))
}

// Set overwrites the cell at (x, y). Only used by whole-grid operations
// between passes, never concurrently with writers.
func (g *scalarGrid) Set(x, y int, v float64) {
	atomic.StoreUint64(&g.cells[y*g.width+x], math.Float64bits(v))
}

// vectorGrid accumulates Vec3 sums per cell, stored component-interleaved
// with stride 3.
type vectorGrid struct {
	width, height int
	cells         []uint64
}

func newVectorGrid(width, height int) *vectorGrid {
	return &vectorGrid{
		width:  width,
		height: height,
		cells:  make([]uint64, 3*width*height),
	}
}

// Add atomically adds v to the vector sum at (x, y). Each component is
// added independently; per-component atomicity is all the consumers need
// since sums are only read after the pass completes.
func (g *vectorGrid) Add(x, y int, v core.Vec3) {
	base := 3 * (y*g.width + x)
	addFloat(&g.cells[base], v.X)
	addFloat(&g.cells[base+1], v.Y)
	addFloat(&g.cells[base+2], v.Z)
}

// At returns the vector sum at (x, y).
func (g *vectorGrid) At(x, y int) core.Vec3 {
	base := 3 * (y*g.width + x)
	return core.Vec3{
		X: math.Float64frombits(atomic.LoadUint64(&g.cells[base])),
		Y: math.Float64frombits(atomic.LoadUint64(&g.cells[base+1])),
		Z: math.Float64frombits(atomic.LoadUint64(&g.cells[base+2])),
	}
}

// Set overwrites the vector at (x, y). Between passes only.
func (g *vectorGrid) Set(x, y int, v core.Vec3) {
	base := 3 * (y*g.width + x)
	atomic.StoreUint64(&g.cells[base], math.Float64bits(v.X))
	atomic.StoreUint64(&g.cells[base+1], math.Float64bits(v.Y))
	atomic.StoreUint64(&g.cells[base+2], math.Float64bits(v.Z))
}

func addFloat(addr *uint64, v float64) {
	for {
		old := atomic.LoadUint64(addr)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}
