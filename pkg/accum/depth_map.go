package accum

import (
	"image"
	"image/color"
	"math"
)

// UnresolvedDepth is the placeholder distance recorded for a primary ray
// that hit nothing. It stands in for infinite distance: large enough to
// dominate any plausible scene extent while staying comfortably inside
// float64 range for summing and averaging.
const UnresolvedDepth = 1e12

// EmptyCellStyle selects how a cell that received no primary rays at all is
// rendered. The classic behavior colors it like a no-hit cell (farthest
// distance); rendering it black instead keeps "nothing was traced here"
// visually distinct from "rays were traced but hit nothing".
type EmptyCellStyle int

const (
	// EmptyAsFarthest renders empty cells with the farthest-distance color.
	EmptyAsFarthest EmptyCellStyle = iota
	// EmptyAsBlack renders empty cells black.
	EmptyAsBlack
)

// DepthMap accumulates the hit distance of every primary ray per pixel and
// renders the per-pixel average with a reversed logarithmic hue gradient
// (near = red, far = blue).
type DepthMap struct {
	mapBase
	sums    *scalarGrid
	primary *CountMap // sibling divisor, owned by the context

	// EmptyStyle controls rendering of cells with zero primary rays.
	EmptyStyle EmptyCellStyle

	minDepth, maxDepth float64
}

// NewDepthMap creates a depth map dividing by the given primary-ray counter.
func NewDepthMap(width, height int, primary *CountMap) *DepthMap {
	m := &DepthMap{primary: primary}
	m.adoptSize(width, height)
	return m
}

// Initialize (re)allocates the sum grid, discarding prior contents.
func (m *DepthMap) Initialize(width, height int) {
	m.adoptSize(width, height)
	m.sums = newScalarGrid(m.width, m.height)
	m.averaged = false
	m.bitmap = nil
}

// Allocated reports whether the sum grid exists.
func (m *DepthMap) Allocated() bool {
	return m.sums != nil
}

// Record adds one primary-ray hit distance to the cell at (x, y). Pass
// UnresolvedDepth for a ray that hit nothing. Safe for concurrent callers.
func (m *DepthMap) Record(x, y int, depth float64) {
	m.sums.Add(x, y, depth)
}

// RenderMap averages the sums exactly once, substitutes unresolved and
// empty cells, recomputes bounds over the substituted grid and fills the
// bitmap.
func (m *DepthMap) RenderMap() {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	m.render()
}

func (m *DepthMap) render() {
	if m.sums == nil {
		m.Initialize(0, 0)
	}
	m.average()

	// Farthest resolved distance, for substituting unresolved cells.
	resolvedMax := 0.0
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if d := m.sums.At(x, y); d < UnresolvedDepth {
				resolvedMax = math.Max(resolvedMax, d)
			}
		}
	}

	// Cells still at the placeholder (no hits) and cells with no primary
	// rays both render as the farthest distance, so a mostly-empty frame
	// does not read as uniformly near.
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.sums.At(x, y) >= UnresolvedDepth || m.primary.CountAt(x, y) == 0 {
				m.sums.Set(x, y, resolvedMax)
			}
		}
	}

	m.minDepth = math.MaxFloat64
	m.maxDepth = -math.MaxFloat64
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			d := m.sums.At(x, y)
			m.minDepth = math.Min(m.minDepth, d)
			m.maxDepth = math.Max(m.maxDepth, d)
		}
	}

	lo, hi := m.minDepth, m.maxDepth
	m.bitmap = m.fillBitmap(func(x, y int) color.RGBA {
		if m.EmptyStyle == EmptyAsBlack && m.primary.CountAt(x, y) == 0 {
			return color.RGBA{A: 255}
		}
		return LogHue(m.sums.At(x, y), lo, hi)
	})
}

// average divides every cell by its primary-ray count, at most once per
// pass. Cells with a zero divisor are left untouched.
func (m *DepthMap) average() {
	if m.averaged {
		return
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if n := m.primary.CountAt(x, y); n > 0 {
				m.sums.Set(x, y, m.sums.At(x, y)/float64(n))
			}
		}
	}
	m.averaged = true
}

// GetBitmap returns the rendered bitmap, rendering it on first call.
func (m *DepthMap) GetBitmap() *image.RGBA {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	if m.bitmap == nil {
		m.render()
	}
	return m.bitmap
}

// ValueAt returns the averaged hit distance at (x, y). Once the map has
// been rendered, cells holding the current maximum report +Inf: after
// substitution they represent "nothing this near was hit". Out-of-grid
// probes return -1.
func (m *DepthMap) ValueAt(x, y int) float64 {
	if m.sums == nil || !m.inBounds(x, y) {
		return -1
	}
	// Probes may run while another reader triggers the first render, which
	// substitutes cells and publishes the bounds.
	m.renderMu.Lock()
	rendered, hi := m.bitmap != nil, m.maxDepth
	m.renderMu.Unlock()

	d := m.sums.At(x, y)
	if rendered && d >= hi {
		return math.Inf(1)
	}
	return d
}

// Reset detaches the sum grid at the end of a pass.
func (m *DepthMap) Reset() {
	m.sums = nil
	m.bitmap = nil
	m.averaged = false
}
