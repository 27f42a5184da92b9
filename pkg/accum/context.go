// Package accum collects per-pixel ray statistics during a render pass and
// turns them into false-color diagnostic bitmaps: ray-density maps, a depth
// map and surface-normal maps. Producers call Context.Register once per
// traced ray from any number of worker goroutines; consumers read bitmaps
// and probe cell values after the pass completes.
package accum

import (
	"sync"
	"sync/atomic"

	"raystats/pkg/core"
)

// Context owns every accumulation map for the active render resolution. It
// is constructed explicitly and handed to worker goroutines; construction
// and reset are tied to render passes, not to process lifetime.
//
// Concurrency contract: Register is safe from any number of goroutines.
// SetNewDimensions, Reset, RenderAll and the per-map read operations must
// only run between passes; the caller's pass boundary discipline enforces
// that, this package does not.
type Context struct {
	width, height int

	PrimaryRays *CountMap
	AllRays     *CountMap
	Depth       *DepthMap
	Normals     *NormalMap

	initMu    sync.Mutex // guards lazy (re)allocation at pass start
	allocated int32      // atomic; publishes grid allocation to workers
	inFlight  int64      // diagnostic only, see Updating
}

// NewContext creates a context and allocates every map at the given
// resolution.
func NewContext(width, height int) *Context {
	c := &Context{}
	c.SetNewDimensions(width, height)
	return c
}

// maps returns every owned map; the normal accumulator appears once since
// its two views share lifecycle.
func (c *Context) maps() []Map {
	return []Map{c.PrimaryRays, c.AllRays, c.Depth, c.Normals}
}

// SetNewDimensions (re)initializes every owned map to the new resolution.
// Must be invoked between passes whenever the output size changes.
func (c *Context) SetNewDimensions(width, height int) {
	c.width = width
	c.height = height

	if c.PrimaryRays == nil {
		c.PrimaryRays = NewCountMap(width, height)
		c.AllRays = NewCountMap(width, height)
		c.Depth = NewDepthMap(width, height, c.PrimaryRays)
		c.Normals = NewNormalMap(width, height, c.PrimaryRays)
	}
	for _, m := range c.maps() {
		m.Initialize(width, height)
	}
	atomic.StoreInt32(&c.allocated, 1)
}

// Reset discards all accumulated state between passes. Backing grids are
// detached, not zero-filled; the next registration reallocates them at the
// last known resolution.
func (c *Context) Reset() {
	atomic.StoreInt32(&c.allocated, 0)
	for _, m := range c.maps() {
		m.Reset()
	}
}

// Register records the outcome of one traced ray at the pixel (x, y). The
// pixel coordinate is supplied by the caller; this subsystem does no ray
// geometry. level is the ray's recursion depth (0 for primary rays), origin
// the ray origin, and hit the first intersection or nil for a miss.
//
// Safe to call concurrently from any worker; same-cell updates are atomic
// and different cells never serialize against each other.
func (c *Context) Register(x, y, level int, origin core.Vec3, hit *core.Hit) {
	atomic.AddInt64(&c.inFlight, 1)
	defer atomic.AddInt64(&c.inFlight, -1)

	c.ensureAllocated()
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}

	if level == 0 {
		c.PrimaryRays.Increment(x, y)

		depth := UnresolvedDepth
		if hit != nil {
			depth = origin.Distance(hit.Point)
		}
		c.Depth.Record(x, y, depth)

		if hit != nil {
			c.Normals.Record(x, y, origin, hit.Point, hit.Normal)
		}
	}
	c.AllRays.Increment(x, y)
}

// Updating reports whether a registration is currently in flight. This is a
// transient diagnostic flag for debugging visibility only; it is not a
// synchronization primitive.
func (c *Context) Updating() bool {
	return atomic.LoadInt64(&c.inFlight) > 0
}

// Width returns the active resolution width.
func (c *Context) Width() int { return c.width }

// Height returns the active resolution height.
func (c *Context) Height() int { return c.height }

// RenderAll renders every map's bitmap. Call only after the pass has
// completed.
func (c *Context) RenderAll() {
	for _, m := range c.maps() {
		m.RenderMap()
	}
	c.Normals.Relative().RenderMap()
}

// ensureAllocated lazily reallocates detached grids at the active
// resolution. Double-checked under a mutex: many workers race here on the
// first registration after a Reset, and exactly one may allocate. The
// atomic flag publishes the allocation so the fast path stays lock-free.
func (c *Context) ensureAllocated() {
	if atomic.LoadInt32(&c.allocated) == 1 {
		return
	}
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if atomic.LoadInt32(&c.allocated) == 1 {
		return
	}
	for _, m := range c.maps() {
		if !m.Allocated() {
			m.Initialize(c.width, c.height)
		}
	}
	atomic.StoreInt32(&c.allocated, 1)
}
