package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/publish"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

//go:embed static
var staticFiles embed.FS

// Limits on request parameters
const (
	minWidth   = 16
	maxWidth   = 2000
	maxSamples = 10000
	maxDepth   = 1000
	maxWorkers = 256
)

// Server handles web requests for the path tracer
type Server struct {
	port      int
	defaults  config.Config
	publisher *publish.Publisher
	upgrader  websocket.Upgrader
}

// NewServer creates a new web server. The publisher may be nil, which disables publishing.
func NewServer(cfg config.Config, publisher *publish.Publisher) *Server {
	return &Server{
		port:      cfg.Port,
		defaults:  cfg,
		publisher: publisher,
		// The zero CheckOrigin only accepts pages served from this host
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene ID (e.g., "random")
	Width      int    `json:"width"`      // Image width; height follows the scene aspect ratio
	Samples    int    `json:"samples"`    // Samples per pixel
	MaxDepth   int    `json:"maxDepth"`   // Maximum bounce depth
	Seed       int64  `json:"seed"`       // Layout and sampling seed
	NumWorkers int    `json:"numWorkers"` // Parallel workers, 0 for all CPUs
	Publish    bool   `json:"publish"`    // Upload the finished image
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
}

func newStats(rs renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:    rs.TotalPixels,
		TotalSamples:   int64(rs.TotalSamples),
		AverageSamples: rs.AverageSamples,
		MinSamples:     rs.MinSamples,
		MaxSamplesUsed: rs.MaxSamplesUsed,
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // embedded directory is always present
	}
	mux.Handle("/", http.FileServer(http.FS(static)))

	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the available scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenes": scene.List()})
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = s.defaults.Scene
	}

	sceneObj, err := scene.Build(sceneName, scene.Options{Seed: s.defaults.Seed})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sampling := sceneObj.SamplingConfig
	response := map[string]interface{}{
		"scene": sceneObj.Name,
		"defaults": map[string]interface{}{
			"width":           sampling.Width,
			"height":          sampling.Height,
			"samplesPerPixel": sampling.SamplesPerPixel,
			"maxDepth":        sampling.MaxDepth,
			"vfov":            sceneObj.CameraConfig.VFov,
			"aspectRatio":     sceneObj.CameraConfig.AspectRatio,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": minWidth, "max": maxWidth},
			"samples":    map[string]int{"min": 1, "max": maxSamples},
			"maxDepth":   map[string]int{"min": 1, "max": maxDepth},
			"numWorkers": map[string]int{"min": 0, "max": maxWorkers},
		},
		"publishing": s.publisher != nil,
	}

	writeJSON(w, http.StatusOK, response)
}

// parseRenderRequest parses request parameters, falling back to the server defaults
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: s.defaults.Scene}

	if sceneName := query.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", s.defaults.Width, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", s.defaults.Samples, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", s.defaults.MaxDepth, 1, maxDepth); err != nil {
		return nil, err
	}
	if req.NumWorkers, err = parseIntParam(query, "numWorkers", s.defaults.Workers, 0, maxWorkers); err != nil {
		return nil, err
	}

	req.Seed = s.defaults.Seed
	if value := query.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	req.Publish = query.Get("publish") == "true"
	if req.Publish && s.publisher == nil {
		return nil, fmt.Errorf("publishing is not configured: %w", publish.ErrNoBucket)
	}

	return req, nil
}

// createScene builds the requested scene with the request's sampling overrides
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	sceneObj, err := scene.Build(req.Scene, scene.Options{Width: req.Width, Seed: req.Seed})
	if err != nil {
		return nil, err
	}

	sceneObj.SamplingConfig = renderer.MergeSamplingConfig(sceneObj.SamplingConfig, renderer.SamplingConfig{
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.MaxDepth,
		NumWorkers:      req.NumWorkers,
	})
	return sceneObj, sceneObj.Validate()
}

// parseIntParam parses an integer parameter from URL query with validation.
// Absent parameters return defaultValue without range checks, so 0 can mean "scene default".
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
