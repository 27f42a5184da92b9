package accum

import (
	"image"
	"image/color"
	"math"
	"sync/atomic"

	"raystats/pkg/core"
)

// NormalMap accumulates, per pixel, the sum of hit surface normals and the
// sum of world-space hit coordinates of primary rays. One component owns
// both grids; the absolute and relative diagnostic views are read-only
// projections over the same storage, so writes happen exactly once and
// nothing needs to be kept in sync between sibling objects.
//
// The absolute view colors the averaged surface normal directly. The
// relative view colors the derived direction
//
//	origin - averagedPoint - averagedNormal
//
// which shows how surfaces face the camera rather than the world axes.
type NormalMap struct {
	mapBase
	normals *vectorGrid
	points  *vectorGrid
	primary *CountMap // sibling divisor, owned by the context

	// Primary rays share one origin (the camera eye); the latest recorded
	// origin serves the relative view and the angle probe.
	originBits [3]uint64

	relBitmap *image.RGBA
}

// NewNormalMap creates a normal map dividing by the given primary-ray
// counter.
func NewNormalMap(width, height int, primary *CountMap) *NormalMap {
	m := &NormalMap{primary: primary}
	m.adoptSize(width, height)
	return m
}

// Initialize (re)allocates both vector grids, discarding prior contents.
func (m *NormalMap) Initialize(width, height int) {
	m.adoptSize(width, height)
	m.normals = newVectorGrid(m.width, m.height)
	m.points = newVectorGrid(m.width, m.height)
	m.averaged = false
	m.bitmap = nil
	m.relBitmap = nil
}

// Allocated reports whether the backing grids exist.
func (m *NormalMap) Allocated() bool {
	return m.normals != nil
}

// Record adds one primary-ray hit to the cell at (x, y): the surface normal
// into the absolute sum and the world-space hit coordinate into the
// relative sum. Safe for concurrent callers.
func (m *NormalMap) Record(x, y int, origin, point, normal core.Vec3) {
	m.normals.Add(x, y, normal)
	m.points.Add(x, y, point)
	m.setOrigin(origin)
}

func (m *NormalMap) setOrigin(o core.Vec3) {
	atomic.StoreUint64(&m.originBits[0], math.Float64bits(o.X))
	atomic.StoreUint64(&m.originBits[1], math.Float64bits(o.Y))
	atomic.StoreUint64(&m.originBits[2], math.Float64bits(o.Z))
}

// Origin returns the ray origin recorded with the most recent hit.
func (m *NormalMap) Origin() core.Vec3 {
	return core.Vec3{
		X: math.Float64frombits(atomic.LoadUint64(&m.originBits[0])),
		Y: math.Float64frombits(atomic.LoadUint64(&m.originBits[1])),
		Z: math.Float64frombits(atomic.LoadUint64(&m.originBits[2])),
	}
}

// average divides both vector sums component-wise by the primary-ray
// count, at most once per pass. Zero divisors leave cells untouched.
func (m *NormalMap) average() {
	if m.averaged {
		return
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			n := m.primary.CountAt(x, y)
			if n <= 0 {
				continue
			}
			inv := 1.0 / float64(n)
			m.normals.Set(x, y, m.normals.At(x, y).Multiply(inv))
			m.points.Set(x, y, m.points.At(x, y).Multiply(inv))
		}
	}
	m.averaged = true
}

// RenderMap renders the absolute view; the relative view renders through
// its projection. The channel law has a fixed range, so the min/max bound
// scan the scalar maps perform is skipped here on purpose.
func (m *NormalMap) RenderMap() {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	m.renderAbsolute()
}

func (m *NormalMap) renderAbsolute() {
	if m.normals == nil {
		m.Initialize(0, 0)
	}
	m.average()
	m.bitmap = m.fillBitmap(func(x, y int) color.RGBA {
		return VectorColor(m.normals.At(x, y).Normalize())
	})
}

// renderRelative fills the relative-view bitmap from the shared grids. The
// caller holds renderMu.
func (m *NormalMap) renderRelative() {
	if m.normals == nil {
		m.Initialize(0, 0)
	}
	m.average()
	origin := m.Origin()

	m.relBitmap = m.fillBitmap(func(x, y int) color.RGBA {
		dir := origin.Subtract(m.points.At(x, y)).Subtract(m.normals.At(x, y))
		return VectorColor(dir.Normalize())
	})
}

// GetBitmap returns the absolute-view bitmap, rendering it on first call.
func (m *NormalMap) GetBitmap() *image.RGBA {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	if m.bitmap == nil {
		m.renderAbsolute()
	}
	return m.bitmap
}

// ValueAt returns the angle, in degrees, between the averaged surface
// normal at (x, y) and the direction from the averaged hit point back to
// the ray origin. A zero-length vector yields NaN; callers must handle it
// explicitly. Out-of-grid probes return -1.
func (m *NormalMap) ValueAt(x, y int) float64 {
	if m.normals == nil || !m.inBounds(x, y) {
		return -1
	}
	toOrigin := m.Origin().Subtract(m.points.At(x, y))
	return m.normals.At(x, y).AngleDegrees(toOrigin)
}

// Reset detaches both grids at the end of a pass.
func (m *NormalMap) Reset() {
	m.normals = nil
	m.points = nil
	m.bitmap = nil
	m.relBitmap = nil
	m.averaged = false
}

// Absolute returns the read-only projection rendering averaged surface
// normals.
func (m *NormalMap) Absolute() *NormalView {
	return &NormalView{m: m, relative: false}
}

// Relative returns the read-only projection rendering directions relative
// to the ray origin.
func (m *NormalMap) Relative() *NormalView {
	return &NormalView{m: m, relative: true}
}

// NormalView is a projection over a NormalMap's shared storage. Both views
// satisfy Map; lifecycle calls pass through to the owning accumulator.
type NormalView struct {
	m        *NormalMap
	relative bool
}

// Initialize passes through to the owning accumulator.
func (v *NormalView) Initialize(width, height int) { v.m.Initialize(width, height) }

// Allocated passes through to the owning accumulator.
func (v *NormalView) Allocated() bool { return v.m.Allocated() }

// RenderMap renders this view's bitmap.
func (v *NormalView) RenderMap() {
	if v.relative {
		v.m.renderMu.Lock()
		defer v.m.renderMu.Unlock()
		v.m.renderRelative()
		return
	}
	v.m.RenderMap()
}

// GetBitmap returns this view's bitmap, rendering it on first call.
func (v *NormalView) GetBitmap() *image.RGBA {
	if v.relative {
		v.m.renderMu.Lock()
		defer v.m.renderMu.Unlock()
		if v.m.relBitmap == nil {
			v.m.renderRelative()
		}
		return v.m.relBitmap
	}
	return v.m.GetBitmap()
}

// ValueAt reports the owning accumulator's angle probe; both views share
// its semantics.
func (v *NormalView) ValueAt(x, y int) float64 { return v.m.ValueAt(x, y) }

// Reset passes through to the owning accumulator.
func (v *NormalView) Reset() { v.m.Reset() }
