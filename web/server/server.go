// Package server exposes the accumulated diagnostic maps over HTTP: PNG
// bitmaps per map and a JSON probe endpoint for interactive readout. It is
// a consumer of the accumulation context; serving must only start once the
// render pass has completed.
package server

import (
	"encoding/json"
	"fmt"
	"image/png"
	"math"
	"net/http"
	"strconv"
	"strings"

	"raystats/pkg/accum"
	"raystats/pkg/core"
)

// Server handles web requests for the diagnostic maps
type Server struct {
	port    int
	stats   *accum.Context
	mux     *http.ServeMux
	console *ConsoleLog
	logger  core.Logger
}

// NewServer creates a new web server over the given accumulation context
func NewServer(port int, stats *accum.Context, logger core.Logger) *Server {
	s := &Server{
		port:    port,
		stats:   stats,
		console: NewConsoleLog(64),
		logger:  logger,
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/maps", s.handleMapList)
	s.mux.HandleFunc("/api/probe", s.handleProbe)
	s.mux.HandleFunc("/api/console", s.handleConsole)
	s.mux.HandleFunc("/maps/", s.handleMapImage)
	return s
}

// Handler returns the server's HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Console returns a logger that records into the server's console buffer
// as well as forwarding to the server's base logger
func (s *Server) Console() core.Logger {
	return NewConsoleLogger(s.console, s.logger)
}

// Start starts the web server and blocks
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	if s.logger != nil {
		s.logger.Printf("Serving diagnostic maps on http://localhost%s\n", addr)
	}
	return http.ListenAndServe(addr, s.mux)
}

// mapNames lists the served maps in a stable order
var mapNames = []string{"primary-rays", "all-rays", "depth", "normals", "normals-relative"}

// mapByName resolves a served map name to its accumulation map
func (s *Server) mapByName(name string) (accum.Map, bool) {
	switch name {
	case "primary-rays":
		return s.stats.PrimaryRays, true
	case "all-rays":
		return s.stats.AllRays, true
	case "depth":
		return s.stats.Depth, true
	case "normals":
		return s.stats.Normals.Absolute(), true
	case "normals-relative":
		return s.stats.Normals.Relative(), true
	default:
		return nil, false
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// MapListResponse describes the available maps and the active resolution
type MapListResponse struct {
	Maps   []string `json:"maps"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// handleMapList lists the available diagnostic maps
func (s *Server) handleMapList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MapListResponse{
		Maps:   mapNames,
		Width:  s.stats.Width(),
		Height: s.stats.Height(),
	})
}

// handleMapImage serves /maps/{name}.png, rendering the bitmap lazily
func (s *Server) handleMapImage(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/maps/")
	name = strings.TrimSuffix(name, ".png")

	m, ok := s.mapByName(name)
	if !ok {
		http.Error(w, "unknown map: "+name, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, m.GetBitmap()); err != nil && s.logger != nil {
		s.logger.Printf("Error encoding %s bitmap: %v\n", name, err)
	}
}

// ProbeResponse is the JSON readout of one cell of one map. Values that
// JSON cannot carry are flagged instead: Unresolved for +Inf (depth beyond
// everything rendered), Undefined for NaN (angle of a zero-length normal).
type ProbeResponse struct {
	Map        string  `json:"map"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Value      float64 `json:"value"`
	Unresolved bool    `json:"unresolved,omitempty"`
	Undefined  bool    `json:"undefined,omitempty"`
}

// handleProbe serves /api/probe?map=depth&x=3&y=4
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("map")
	m, ok := s.mapByName(name)
	if !ok {
		http.Error(w, "unknown map: "+name, http.StatusNotFound)
		return
	}

	x, errX := strconv.Atoi(query.Get("x"))
	y, errY := strconv.Atoi(query.Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}

	resp := ProbeResponse{Map: name, X: x, Y: y}
	value := m.ValueAt(x, y)
	switch {
	case math.IsInf(value, 1):
		resp.Unresolved = true
	case math.IsNaN(value):
		resp.Undefined = true
	default:
		resp.Value = value
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleConsole serves the recent console messages
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.console.Messages())
}
