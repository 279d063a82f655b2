package renderer

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
)

// ErrInvalidSampling is returned by SamplingConfig.Validate
var ErrInvalidSampling = errors.New("invalid sampling config")

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int   // Image width in pixels
	Height          int   // Image height in pixels
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	Seed            int64 // Base seed; row j samples from Seed+j
	NumWorkers      int   // Parallel row workers; 0 uses runtime.NumCPU
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           1200,
		Height:          800,
		SamplesPerPixel: 10,
		MaxDepth:        integrator.DefaultMaxDepth,
		Seed:            42,
	}
}

// Validate checks that the configuration describes a non-empty image
func (c SamplingConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d must be positive", ErrInvalidSampling, c.Width, c.Height)
	}
	if c.SamplesPerPixel <= 0 {
		return fmt.Errorf("%w: samples per pixel %d must be positive", ErrInvalidSampling, c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d must not be negative", ErrInvalidSampling, c.MaxDepth)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("%w: worker count %d must not be negative", ErrInvalidSampling, c.NumWorkers)
	}
	return nil
}

// MergeSamplingConfig applies the non-zero fields of override on top of base
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	result := base
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.Height != 0 {
		result.Height = override.Height
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.Seed != 0 {
		result.Seed = override.Seed
	}
	if override.NumWorkers != 0 {
		result.NumWorkers = override.NumWorkers
	}
	return result
}

// Scene interface to avoid circular imports
type Scene interface {
	GetCamera() *Camera
	GetWorld() geometry.Shape
}

// Frame holds the accumulated samples of a render, stored row-major with the top row first
type Frame struct {
	Width  int
	Height int
	Pixels []PixelStats
}

// NewFrame allocates an empty frame
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]PixelStats, width*height),
	}
}

// Row returns the pixels of image row y, where y=0 is the top of the image
func (f *Frame) Row(y int) []PixelStats {
	return f.Pixels[y*f.Width : (y+1)*f.Width]
}

// Image quantizes the frame into an 8-bit image
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x, ps := range f.Row(y) {
			img.SetRGBA(x, y, ps.RGBA())
		}
	}
	return img
}

// Stats summarizes the frame's sample counts
func (f *Frame) Stats() RenderStats {
	return computeStats(f.Pixels)
}

// Raytracer handles the rendering process
type Raytracer struct {
	scene      Scene
	integrator integrator.Integrator
	config     SamplingConfig
	logger     core.Logger
}

// NewRaytracer creates a new raytracer. A nil integrator means path tracing
// with the configured max depth.
func NewRaytracer(scene Scene, integ integrator.Integrator, config SamplingConfig, logger core.Logger) *Raytracer {
	if integ == nil {
		integ = integrator.NewPathTracingIntegrator(config.MaxDepth)
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Raytracer{
		scene:      scene,
		integrator: integ,
		config:     config,
		logger:     logger,
	}
}

// Config returns the sampling configuration
func (rt *Raytracer) Config() SamplingConfig {
	return rt.config
}

// NumWorkers returns the number of parallel workers a render will use
func (rt *Raytracer) NumWorkers() int {
	if rt.config.NumWorkers > 0 {
		return rt.config.NumWorkers
	}
	return runtime.NumCPU()
}

// rowSampler returns the sampler for image row j counted from the bottom.
// Each row owns its stream so results do not depend on scheduling.
func (rt *Raytracer) rowSampler(j int) core.Sampler {
	return core.NewSeededSampler(rt.config.Seed + int64(j))
}

// SamplePixel adds SamplesPerPixel jittered samples for pixel (i, j) to ps,
// with j counted from the bottom of the image
func (rt *Raytracer) SamplePixel(i, j int, ps *PixelStats, sampler core.Sampler) {
	camera := rt.scene.GetCamera()
	world := rt.scene.GetWorld()

	// A one pixel wide image maps to s=u rather than dividing by zero
	sDenom := float32(max(rt.config.Width-1, 1))
	tDenom := float32(max(rt.config.Height-1, 1))

	for k := 0; k < rt.config.SamplesPerPixel; k++ {
		jitter := sampler.Get2D()
		s := (float32(i) + jitter.X) / sDenom
		t := (float32(j) + jitter.Y) / tDenom

		ray := camera.GetRay(s, t, sampler)
		ps.AddSample(rt.integrator.RayColor(ray, world, sampler))
	}
}

// RenderRow renders image row y (y=0 at the top) into frame
func (rt *Raytracer) RenderRow(y int, frame *Frame) {
	j := rt.config.Height - 1 - y
	sampler := rt.rowSampler(j)
	row := frame.Row(y)
	for i := range row {
		rt.SamplePixel(i, j, &row[i], sampler)
	}
}

// RenderSequential renders the whole image on the calling goroutine, top row first
func (rt *Raytracer) RenderSequential() (*Frame, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, err
	}

	frame := NewFrame(rt.config.Width, rt.config.Height)
	for y := 0; y < rt.config.Height; y++ {
		rt.RenderRow(y, frame)
	}
	return frame, nil
}
