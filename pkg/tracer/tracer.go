// Package tracer is a minimal demo producer for the accumulation maps: a
// pinhole camera and a sphere/plane scene traced by a pool of tile workers,
// with every traced ray registered in an accum.Context. It exists to
// exercise and demonstrate the statistics subsystem, not to render images.
package tracer

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"

	"raystats/pkg/accum"
	"raystats/pkg/core"
)

// Config contains tracing configuration for the demo producer
type Config struct {
	SamplesPerPixel int // Primary rays per pixel
	MaxLevel        int // Maximum recursion level for bounce rays
	TileSize        int // Size of each worker tile
	NumWorkers      int // Number of parallel workers (0 = use CPU count)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		SamplesPerPixel: 4,
		MaxLevel:        3,
		TileSize:        64,
		NumWorkers:      0,
	}
}

// TraceStats summarizes one tracing pass
type TraceStats struct {
	PrimaryRays   int64
	SecondaryRays int64
}

// Tracer drives the demo render pass
type Tracer struct {
	scene  *Scene
	camera *Camera
	width  int
	height int
	config Config
	stats  *accum.Context
	logger core.Logger
}

// tileTask is a rectangular pixel region assigned to one worker, with a
// tile-specific random generator for deterministic results
type tileTask struct {
	x0, y0, x1, y1 int
	random         *rand.Rand
}

// NewTracer creates a tracer registering rays into the given context. The
// context must already be sized to width x height.
func NewTracer(scene *Scene, stats *accum.Context, config Config, logger core.Logger) *Tracer {
	return &Tracer{
		scene:  scene,
		camera: NewCamera(stats.Width(), stats.Height()),
		width:  stats.Width(),
		height: stats.Height(),
		config: config,
		stats:  stats,
		logger: logger,
	}
}

// Trace runs one full pass: every pixel gets SamplesPerPixel primary rays,
// and each hit spawns a mirror bounce up to MaxLevel. Tiles are distributed
// over a worker pool; the accumulation context absorbs the concurrent
// registrations.
func (tr *Tracer) Trace() TraceStats {
	numWorkers := tr.config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	tasks := make(chan tileTask, tr.tileCount())
	for _, task := range tr.tiles() {
		tasks <- task
	}
	close(tasks)

	var stats TraceStats
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				tr.traceTile(task, &stats)
			}
		}()
	}
	wg.Wait()

	if tr.logger != nil {
		tr.logger.Printf("Traced %d primary and %d secondary rays (%d workers)\n",
			stats.PrimaryRays, stats.SecondaryRays, numWorkers)
	}
	return stats
}

// tiles builds the tile grid covering the full image
func (tr *Tracer) tiles() []tileTask {
	var tasks []tileTask
	size := tr.config.TileSize
	if size <= 0 {
		size = 64
	}
	id := 0
	for y0 := 0; y0 < tr.height; y0 += size {
		for x0 := 0; x0 < tr.width; x0 += size {
			tasks = append(tasks, tileTask{
				x0: x0,
				y0: y0,
				x1: min(x0+size, tr.width),
				y1: min(y0+size, tr.height),
				// +42 to avoid seed 0 for the first tile
				random: rand.New(rand.NewSource(int64(id + 42))),
			})
			id++
		}
	}
	return tasks
}

func (tr *Tracer) tileCount() int {
	size := tr.config.TileSize
	if size <= 0 {
		size = 64
	}
	return ((tr.width + size - 1) / size) * ((tr.height + size - 1) / size)
}

// traceTile traces every pixel of one tile
func (tr *Tracer) traceTile(task tileTask, stats *TraceStats) {
	for y := task.y0; y < task.y1; y++ {
		for x := task.x0; x < task.x1; x++ {
			for s := 0; s < tr.config.SamplesPerPixel; s++ {
				// Jittered sample position within the pixel; the v axis
				// flips so image y grows downward
				u := (float64(x) + task.random.Float64()) / float64(tr.width)
				v := (float64(tr.height-1-y) + task.random.Float64()) / float64(tr.height)
				ray := tr.camera.GetRay(u, v)
				tr.traceRay(ray, x, y, 0, stats)
			}
		}
	}
}

// traceRay traces one ray, registers its outcome and follows the mirror
// bounce until MaxLevel. Bounce rays stay attributed to the originating
// pixel.
func (tr *Tracer) traceRay(ray core.Ray, x, y, level int, stats *TraceStats) {
	hit, isHit := tr.scene.Hit(ray, 0.001, 1e9)

	if isHit {
		tr.stats.Register(x, y, level, ray.Origin, hit)
	} else {
		tr.stats.Register(x, y, level, ray.Origin, nil)
	}

	if level == 0 {
		atomic.AddInt64(&stats.PrimaryRays, 1)
	} else {
		atomic.AddInt64(&stats.SecondaryRays, 1)
	}

	if !isHit || level >= tr.config.MaxLevel {
		return
	}

	bounce := core.NewRay(hit.Point, reflect(ray.Direction, hit.Normal))
	tr.traceRay(bounce, x, y, level+1, stats)
}

// reflect mirrors direction d around surface normal n
func reflect(d, n core.Vec3) core.Vec3 {
	return d.Subtract(n.Multiply(2 * d.Dot(n)))
}
