// rayview is an interactive viewer for the diagnostic maps: it traces the
// demo scene in the background, then displays the accumulated false-color
// maps. Number keys switch maps, the mouse probes individual cells.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/draw"

	"raystats/pkg/accum"
	"raystats/pkg/tracer"
)

var (
	widthFlag   = flag.Int("width", 320, "map width in pixels")
	heightFlag  = flag.Int("height", 180, "map height in pixels")
	samplesFlag = flag.Int("samples", 8, "primary rays per pixel")
	scaleFlag   = flag.Int("scale", 3, "integer upscale factor for the window")
)

// mapEntry names one selectable view
type mapEntry struct {
	name string
	m    accum.Map
}

// Game displays one diagnostic map at a time once tracing completes.
type Game struct {
	stats   *accum.Context
	entries []mapEntry
	current int

	traceDone  int32 // atomic; set by the background trace goroutine
	traceStart time.Time

	// Cached upscaled frames, one per map, built lazily after tracing
	frames []*ebiten.Image
}

func newGame() *Game {
	stats := accum.NewContext(*widthFlag, *heightFlag)
	g := &Game{
		stats: stats,
		entries: []mapEntry{
			{"primary rays", stats.PrimaryRays},
			{"all rays", stats.AllRays},
			{"depth", stats.Depth},
			{"normals", stats.Normals.Absolute()},
			{"normals relative", stats.Normals.Relative()},
		},
		traceStart: time.Now(),
	}
	g.frames = make([]*ebiten.Image, len(g.entries))

	go func() {
		config := tracer.DefaultConfig()
		config.SamplesPerPixel = *samplesFlag
		tracer.NewTracer(tracer.NewDemoScene(), stats, config, nil).Trace()
		stats.RenderAll()
		atomic.StoreInt32(&g.traceDone, 1)
	}()

	return g
}

func (g *Game) done() bool {
	return atomic.LoadInt32(&g.traceDone) == 1
}

// Update handles map switching
func (g *Game) Update() error {
	keys := []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5}
	for i, key := range keys {
		if i < len(g.entries) && inpututil.IsKeyJustPressed(key) {
			g.current = i
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.current = (g.current + 1) % len(g.entries)
	}
	return nil
}

// frame returns the upscaled frame for the selected map, building it on
// first use. Only called after tracing completes, when the bitmaps are
// stable.
func (g *Game) frame() *ebiten.Image {
	if g.frames[g.current] == nil {
		bmp := g.entries[g.current].m.GetBitmap()
		scaled := image.NewRGBA(image.Rect(0, 0, *widthFlag * *scaleFlag, *heightFlag * *scaleFlag))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), bmp, bmp.Bounds(), draw.Src, nil)
		g.frames[g.current] = ebiten.NewImageFromImage(scaled)
	}
	return g.frames[g.current]
}

// Draw renders the selected map and the probe overlay
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.done() {
		msg := fmt.Sprintf("tracing... %.1fs", time.Since(g.traceStart).Seconds())
		ebitenutil.DebugPrint(screen, msg)
		return
	}

	screen.DrawImage(g.frame(), nil)

	entry := g.entries[g.current]
	mx, my := ebiten.CursorPosition()
	cx, cy := mx / *scaleFlag, my / *scaleFlag

	value := entry.m.ValueAt(cx, cy)
	var readout string
	switch {
	case math.IsInf(value, 1):
		readout = "unresolved"
	case math.IsNaN(value):
		readout = "undefined"
	default:
		readout = fmt.Sprintf("%.3f", value)
	}

	overlay := fmt.Sprintf("[%d/%d] %s  (1-5/Tab to switch)\ncell (%d,%d) = %s",
		g.current+1, len(g.entries), entry.name, cx, cy, readout)
	ebitenutil.DebugPrint(screen, overlay)
}

// Layout reports the logical screen size
func (g *Game) Layout(_, _ int) (int, int) {
	return *widthFlag * *scaleFlag, *heightFlag * *scaleFlag
}

func main() {
	flag.Parse()

	ebiten.SetWindowSize(*widthFlag * *scaleFlag, *heightFlag * *scaleFlag)
	ebiten.SetWindowTitle("rayview - diagnostic maps")

	if err := ebiten.RunGame(newGame()); err != nil {
		log.Fatal(err)
	}
}
