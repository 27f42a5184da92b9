package accum

import (
	"image/color"
	"math"
	"sync"
	"testing"

	"raystats/pkg/core"
)

func TestCountMapOutOfGridReturnsSentinel(t *testing.T) {
	m := NewCountMap(4, 4)
	m.Initialize(0, 0)
	m.Increment(1, 1)

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 0},
		{"negative y", 0, -1},
		{"x past width", 4, 0},
		{"y past height", 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if v := m.CountAt(tt.x, tt.y); v != -1 {
				t.Errorf("Expected sentinel -1, got %v", v)
			}
		})
	}

	if v := m.CountAt(1, 1); v != 1 {
		t.Errorf("Expected in-grid count 1, got %v", v)
	}
}

func TestCountMapInitializeIdempotent(t *testing.T) {
	m := NewCountMap(3, 2)
	m.Initialize(0, 0)
	m.Increment(2, 1)

	// Re-initializing to the same size discards prior contents
	m.Initialize(3, 2)
	if v := m.CountAt(2, 1); v != 0 {
		t.Errorf("Initialize should discard prior contents, got %v", v)
	}
}

func TestCountMapUniformGridRendersLowEnd(t *testing.T) {
	m := NewCountMap(2, 2)
	m.Initialize(0, 0)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			m.Increment(x, y)
		}
	}

	bmp := m.GetBitmap()
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if c := bmp.RGBAAt(x, y); c != (color.RGBA{0, 0, 255, 255}) {
				t.Errorf("Uniform grid pixel (%d,%d) should be blue, got %v", x, y, c)
			}
		}
	}
}

func TestDepthMapAveragesByPrimaryCount(t *testing.T) {
	primary := NewCountMap(2, 2)
	primary.Initialize(0, 0)
	m := NewDepthMap(2, 2, primary)
	m.Initialize(0, 0)

	// Three primary rays at (0,0) with distances 1, 2, 3
	for _, d := range []float64{1, 2, 3} {
		primary.Increment(0, 0)
		m.Record(0, 0, d)
	}
	// One farther hit at (1,1) so (0,0) is not the grid maximum
	primary.Increment(1, 1)
	m.Record(1, 1, 5)

	m.RenderMap()

	if v := m.ValueAt(0, 0); math.Abs(v-2.0) > 1e-9 {
		t.Errorf("Expected averaged depth 2.0, got %v", v)
	}
	// The farthest cell reports the infinity sentinel
	if v := m.ValueAt(1, 1); !math.IsInf(v, 1) {
		t.Errorf("Expected +Inf at the grid maximum, got %v", v)
	}
}

func TestDepthMapAveragingIdempotent(t *testing.T) {
	primary := NewCountMap(2, 1)
	primary.Initialize(0, 0)
	m := NewDepthMap(2, 1, primary)
	m.Initialize(0, 0)

	primary.Increment(0, 0)
	primary.Increment(0, 0)
	m.Record(0, 0, 4)
	m.Record(0, 0, 8)
	primary.Increment(1, 0)
	m.Record(1, 0, 20)

	m.RenderMap()
	first := m.sums.At(0, 0)

	// A second render must not divide again
	m.RenderMap()
	if second := m.sums.At(0, 0); second != first {
		t.Errorf("Averaging applied twice: %v then %v", first, second)
	}
	if first != 6 {
		t.Errorf("Expected averaged depth 6, got %v", first)
	}
}

func TestDepthMapSubstitutesEmptyAndUnresolvedCells(t *testing.T) {
	primary := NewCountMap(2, 2)
	primary.Initialize(0, 0)
	m := NewDepthMap(2, 2, primary)
	m.Initialize(0, 0)

	// (0,0) hit at distance 3 and (0,1) at distance 10; (1,0) is a primary
	// ray that missed; (1,1) received no primary rays at all
	primary.Increment(0, 0)
	m.Record(0, 0, 3)
	primary.Increment(0, 1)
	m.Record(0, 1, 10)
	primary.Increment(1, 0)
	m.Record(1, 0, UnresolvedDepth)

	m.RenderMap()

	// Misses and empty cells both land on the post-substitution maximum,
	// never on a raw zero sum
	for _, cell := range []struct{ x, y int }{{1, 0}, {1, 1}} {
		if got := m.sums.At(cell.x, cell.y); got != 10 {
			t.Errorf("Cell (%d,%d): expected substituted max 10, got %v", cell.x, cell.y, got)
		}
	}

	// The substituted cells render the farthest-distance color, the hit
	// cell the nearest
	bmp := m.GetBitmap()
	if c := bmp.RGBAAt(0, 0); c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Nearest cell should be red, got %v", c)
	}
	if c := bmp.RGBAAt(1, 1); c != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("Empty cell should render the farthest color, got %v", c)
	}
}

func TestDepthMapEmptyAsBlackPolicy(t *testing.T) {
	primary := NewCountMap(2, 1)
	primary.Initialize(0, 0)
	m := NewDepthMap(2, 1, primary)
	m.EmptyStyle = EmptyAsBlack
	m.Initialize(0, 0)

	primary.Increment(0, 0)
	m.Record(0, 0, 2)

	bmp := m.GetBitmap()
	if c := bmp.RGBAAt(1, 0); c != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("Empty cell should be black under EmptyAsBlack, got %v", c)
	}
}

func TestNormalMapAveragedNormalAndColor(t *testing.T) {
	primary := NewCountMap(2, 2)
	primary.Initialize(0, 0)
	m := NewNormalMap(2, 2, primary)
	m.Initialize(0, 0)

	origin := core.NewVec3(0, 0, 5)
	point := core.NewVec3(0, 0, 1)
	normal := core.NewVec3(0, 0, 1)
	for i := 0; i < 3; i++ {
		primary.Increment(0, 0)
		m.Record(0, 0, origin, point, normal)
	}

	m.RenderMap()

	if got := m.normals.At(0, 0); got != normal {
		t.Errorf("Expected averaged normal %v, got %v", normal, got)
	}
	if c := m.GetBitmap().RGBAAt(0, 0); c != (color.RGBA{127, 127, 0, 255}) {
		t.Errorf("Expected absolute color (127,127,0), got %v", c)
	}
	// Cells that never saw a hit hold the zero vector and must render the
	// fixed zero-vector triple instead of faulting
	if c := m.GetBitmap().RGBAAt(1, 1); c != (color.RGBA{127, 127, 128, 255}) {
		t.Errorf("Expected zero-vector color (127,127,128), got %v", c)
	}
}

func TestNormalMapAngleProbe(t *testing.T) {
	primary := NewCountMap(1, 1)
	primary.Initialize(0, 0)
	m := NewNormalMap(1, 1, primary)
	m.Initialize(0, 0)

	// Surface at z=1 facing +z, camera at z=5: the view direction and the
	// normal line up, so the angle is zero
	primary.Increment(0, 0)
	m.Record(0, 0, core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1))
	m.average()

	if angle := m.ValueAt(0, 0); math.Abs(angle) > 1e-9 {
		t.Errorf("Expected 0 degrees for a head-on surface, got %v", angle)
	}
}

func TestNormalMapAngleProbeZeroVectorIsNaN(t *testing.T) {
	primary := NewCountMap(1, 1)
	primary.Initialize(0, 0)
	m := NewNormalMap(1, 1, primary)
	m.Initialize(0, 0)

	// No hit recorded: the stored normal is the zero vector and the probe
	// must report NaN rather than substituting a default
	if angle := m.ValueAt(0, 0); !math.IsNaN(angle) {
		t.Errorf("Expected NaN for zero-length normal, got %v", angle)
	}
}

func TestNormalMapViewsShareStorage(t *testing.T) {
	primary := NewCountMap(1, 1)
	primary.Initialize(0, 0)
	m := NewNormalMap(1, 1, primary)
	m.Initialize(0, 0)

	abs := m.Absolute()
	rel := m.Relative()

	primary.Increment(0, 0)
	m.Record(0, 0, core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1))

	// Both projections observe the single write
	if a, r := abs.ValueAt(0, 0), rel.ValueAt(0, 0); a != r {
		t.Errorf("Views disagree: absolute %v, relative %v", a, r)
	}

	absBmp := abs.GetBitmap()
	relBmp := rel.GetBitmap()
	if absBmp == nil || relBmp == nil {
		t.Fatal("Both views should render bitmaps")
	}
	if absBmp == relBmp {
		t.Error("Views should render distinct bitmaps over the shared grids")
	}

	// Relative view: direction = origin - point - normal = (0,0,3), which
	// normalizes to +z and maps to (127,127,0)
	if c := relBmp.RGBAAt(0, 0); c != (color.RGBA{127, 127, 0, 255}) {
		t.Errorf("Expected relative color (127,127,0), got %v", c)
	}

	// Resetting through a view detaches the shared storage
	rel.Reset()
	if m.Allocated() {
		t.Error("Reset through a view should drop the shared grids")
	}
}

func TestNormalMapViewsRenderConcurrently(t *testing.T) {
	const readers = 8

	primary := NewCountMap(2, 2)
	primary.Initialize(0, 0)
	m := NewNormalMap(2, 2, primary)
	m.Initialize(0, 0)

	primary.Increment(0, 0)
	m.Record(0, 0, core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 1), core.NewVec3(0, 0, 1))

	// After a pass completes, both projections may render and probe from
	// separate goroutines at the same time
	abs := m.Absolute()
	rel := m.Relative()

	var wg sync.WaitGroup
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(relative bool) {
			defer wg.Done()
			if relative {
				rel.GetBitmap()
			} else {
				abs.GetBitmap()
			}
			abs.ValueAt(0, 0)
		}(r%2 == 0)
	}
	wg.Wait()

	// Each view kept its own bitmap and the shared grids were averaged
	// exactly once
	if c := abs.GetBitmap().RGBAAt(0, 0); c != (color.RGBA{127, 127, 0, 255}) {
		t.Errorf("Expected absolute color (127,127,0), got %v", c)
	}
	if c := rel.GetBitmap().RGBAAt(0, 0); c != (color.RGBA{127, 127, 0, 255}) {
		t.Errorf("Expected relative color (127,127,0), got %v", c)
	}
	if got := m.normals.At(0, 0); got != core.NewVec3(0, 0, 1) {
		t.Errorf("Expected averaged normal (0,0,1), got %v", got)
	}
}

func TestDepthMapConcurrentRendersAverageOnce(t *testing.T) {
	const readers = 8

	primary := NewCountMap(2, 1)
	primary.Initialize(0, 0)
	m := NewDepthMap(2, 1, primary)
	m.Initialize(0, 0)

	// Two rays at (0,0) averaging to 3; a farther hit at (1,0) keeps (0,0)
	// below the grid maximum so its probe stays numeric
	primary.Increment(0, 0)
	primary.Increment(0, 0)
	m.Record(0, 0, 2)
	m.Record(0, 0, 4)
	primary.Increment(1, 0)
	m.Record(1, 0, 10)

	var wg sync.WaitGroup
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				m.RenderMap()
			} else {
				m.GetBitmap()
			}
			m.ValueAt(0, 0)
		}(r)
	}
	wg.Wait()

	// Racing renders must not divide the sums a second time
	if v := m.ValueAt(0, 0); math.Abs(v-3.0) > 1e-9 {
		t.Errorf("Expected averaged depth 3.0 after concurrent renders, got %v", v)
	}
}

func TestMapResetDropsStorage(t *testing.T) {
	primary := NewCountMap(2, 2)
	primary.Initialize(0, 0)

	maps := []Map{
		primary,
		NewDepthMap(2, 2, primary),
		NewNormalMap(2, 2, primary),
	}
	for _, m := range maps {
		m.Initialize(0, 0)
		if !m.Allocated() {
			t.Fatalf("%T: expected allocated after Initialize", m)
		}
		m.Reset()
		if m.Allocated() {
			t.Errorf("%T: expected detached after Reset", m)
		}
	}
}
