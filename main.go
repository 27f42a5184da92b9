package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"raystats/pkg/accum"
	"raystats/pkg/core"
	"raystats/pkg/tracer"
	"raystats/web/server"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

func main() {
	width := flag.Int("width", 400, "Render width in pixels")
	height := flag.Int("height", 225, "Render height in pixels")
	samples := flag.Int("samples", 4, "Primary rays per pixel")
	maxLevel := flag.Int("max-level", 3, "Maximum bounce recursion level")
	workers := flag.Int("workers", 0, "Number of worker goroutines (0 = CPU count)")
	outputDir := flag.String("output", "output", "Directory for diagnostic map PNGs")
	port := flag.Int("port", 0, "Serve maps over HTTP on this port after tracing (0 = don't serve)")
	emptyBlack := flag.Bool("empty-black", false, "Render cells with no primary rays black instead of farthest-distance")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Ray Statistics Demo")
		fmt.Println("Traces a demo scene, accumulates per-pixel ray statistics and")
		fmt.Println("writes the diagnostic maps as false-color PNGs.")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	logger := NewDefaultLogger()
	logger.Printf("Tracing %dx%d demo scene with %d samples per pixel...\n",
		*width, *height, *samples)

	stats := accum.NewContext(*width, *height)
	if *emptyBlack {
		stats.Depth.EmptyStyle = accum.EmptyAsBlack
	}

	config := tracer.DefaultConfig()
	config.SamplesPerPixel = *samples
	config.MaxLevel = *maxLevel
	config.NumWorkers = *workers

	startTime := time.Now()
	traceStats := tracer.NewTracer(tracer.NewDemoScene(), stats, config, logger).Trace()
	logger.Printf("Pass completed in %v (%d rays total)\n",
		time.Since(startTime), traceStats.PrimaryRays+traceStats.SecondaryRays)

	stats.RenderAll()

	if err := writeMaps(stats, *outputDir); err != nil {
		logger.Printf("Error writing maps: %v\n", err)
		os.Exit(1)
	}
	logger.Printf("Diagnostic maps saved to %s\n", *outputDir)

	if *port > 0 {
		srv := server.NewServer(*port, stats, logger)
		if err := srv.Start(); err != nil {
			logger.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	}
}

// namedMaps pairs each diagnostic map with its output file base name
func namedMaps(stats *accum.Context) map[string]accum.Map {
	return map[string]accum.Map{
		"primary-rays":     stats.PrimaryRays,
		"all-rays":         stats.AllRays,
		"depth":            stats.Depth,
		"normals":          stats.Normals.Absolute(),
		"normals-relative": stats.Normals.Relative(),
	}
}

// writeMaps saves every diagnostic map as a PNG under dir
func writeMaps(stats *accum.Context, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for name, m := range namedMaps(stats) {
		filename := filepath.Join(dir, name+".png")
		if err := writePNG(filename, m); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(filename string, m accum.Map) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer file.Close()

	if err := png.Encode(file, m.GetBitmap()); err != nil {
		return fmt.Errorf("encoding %s: %w", filename, err)
	}
	return nil
}
