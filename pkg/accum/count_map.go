package accum

import (
	"image"
	"image/color"
	"math"
)

// CountMap counts rays per pixel. A context owns two instances: one counting
// only primary rays (recursion level 0) and one counting every ray. Counts
// are never averaged; the primary instance is the divisor for its sibling
// maps.
type CountMap struct {
	mapBase
	counts *counterGrid

	// Bounds of the last render, kept for probing/inspection.
	minCount, maxCount int64
}

// NewCountMap creates an unallocated count map. Call Initialize (or let the
// context do it lazily) before recording.
func NewCountMap(width, height int) *CountMap {
	m := &CountMap{}
	m.adoptSize(width, height)
	return m
}

// Initialize (re)allocates the counter grid, discarding prior contents.
func (m *CountMap) Initialize(width, height int) {
	m.adoptSize(width, height)
	m.counts = newCounterGrid(m.width, m.height)
	m.averaged = false
	m.bitmap = nil
}

// Allocated reports whether the counter grid exists.
func (m *CountMap) Allocated() bool {
	return m.counts != nil
}

// Increment adds one ray to the cell at (x, y). Safe for concurrent
// callers; increments to the same cell are atomic.
func (m *CountMap) Increment(x, y int) {
	m.counts.Incr(x, y)
}

// CountAt returns the raw count at (x, y), or -1 outside the grid so that
// interactive probes stay responsive instead of failing.
func (m *CountMap) CountAt(x, y int) int64 {
	if m.counts == nil || !m.inBounds(x, y) {
		return -1
	}
	return m.counts.At(x, y)
}

// ValueAt returns CountAt as a float64, keeping the -1 sentinel.
func (m *CountMap) ValueAt(x, y int) float64 {
	return float64(m.CountAt(x, y))
}

// RenderMap scans the grid for bounds and fills the bitmap with the linear
// hue law. Counts are the divisor for the other maps, so there is no
// averaging step here.
func (m *CountMap) RenderMap() {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	m.render()
}

func (m *CountMap) render() {
	if m.counts == nil {
		m.Initialize(0, 0)
	}

	m.minCount = math.MaxInt64
	m.maxCount = math.MinInt64
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			c := m.counts.At(x, y)
			m.minCount = min(m.minCount, c)
			m.maxCount = max(m.maxCount, c)
		}
	}

	lo, hi := float64(m.minCount), float64(m.maxCount)
	m.bitmap = m.fillBitmap(func(x, y int) color.RGBA {
		return LinearHue(float64(m.counts.At(x, y)), lo, hi)
	})
}

// GetBitmap returns the rendered bitmap, rendering it on first call.
func (m *CountMap) GetBitmap() *image.RGBA {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	if m.bitmap == nil {
		m.render()
	}
	return m.bitmap
}

// Reset detaches the counter grid at the end of a pass.
func (m *CountMap) Reset() {
	m.counts = nil
	m.bitmap = nil
	m.averaged = false
}
