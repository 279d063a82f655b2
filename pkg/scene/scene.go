package scene

import (
	"context"
	"errors"
	"fmt"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// ErrInvalidScene is returned when a scene cannot be rendered as configured
var ErrInvalidScene = errors.New("invalid scene")

// PatternFunc computes the color of pixel (i, j), with j counted from the bottom,
// for scenes that are written directly instead of traced
type PatternFunc func(i, j, width, height int) core.Vec3

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	Camera         *renderer.Camera
	CameraConfig   renderer.CameraConfig
	World          *geometry.HittableList  // Objects in the scene, in insertion order
	SamplingConfig renderer.SamplingConfig
	Integrator     integrator.Integrator // nil means path tracing to SamplingConfig.MaxDepth
	Pattern        PatternFunc           // Set for test patterns; no rays are traced
}

// Options customize a scene as it is built. Zero fields keep the scene's defaults.
type Options struct {
	Width  int                   // Image width; height follows the camera aspect ratio
	Seed   int64                 // Layout seed for randomized scenes
	Camera renderer.CameraConfig // Non-zero fields override the scene camera
}

// GetCamera implements renderer.Scene
func (s *Scene) GetCamera() *renderer.Camera {
	return s.Camera
}

// GetWorld implements renderer.Scene
func (s *Scene) GetWorld() geometry.Shape {
	return s.World
}

// Validate checks the camera and sampling configuration before rendering
func (s *Scene) Validate() error {
	if err := s.SamplingConfig.Validate(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidScene, s.Name, err)
	}
	if s.Pattern != nil {
		return nil
	}
	if s.Camera == nil || s.World == nil {
		return fmt.Errorf("%w %q: missing camera or world", ErrInvalidScene, s.Name)
	}
	if err := s.CameraConfig.Validate(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidScene, s.Name, err)
	}
	for i, shape := range s.World.Shapes() {
		if err := validateShape(shape); err != nil {
			return fmt.Errorf("%w %q: shape %d: %w", ErrInvalidScene, s.Name, i, err)
		}
	}
	return nil
}

// validateShape rejects surfaces that would divide by zero while tracing.
// Negative sphere radii are allowed; they flip the normals for hollow glass.
func validateShape(shape geometry.Shape) error {
	sphere, ok := shape.(*geometry.Sphere)
	if !ok {
		return nil
	}
	if sphere.Radius == 0 {
		return errors.New("sphere radius is zero")
	}
	switch mat := sphere.Material.(type) {
	case nil:
		return errors.New("sphere has no material")
	case *material.Dielectric:
		if mat.RefractiveIndex <= 0 {
			return fmt.Errorf("refractive index %g must be positive", mat.RefractiveIndex)
		}
	}
	return nil
}

// Render validates the scene and renders it, tracing in parallel or writing the pattern
func (s *Scene) Render(ctx context.Context, logger core.Logger, rowCallback func(renderer.RowCompletion)) (*renderer.Frame, renderer.RenderStats, error) {
	if err := s.Validate(); err != nil {
		return nil, renderer.RenderStats{}, err
	}

	if s.Pattern != nil {
		frame := s.RenderPattern()
		return frame, frame.Stats(), nil
	}

	rt := renderer.NewRaytracer(s, s.Integrator, s.SamplingConfig, logger)
	return rt.Render(ctx, rowCallback)
}

// RenderPattern fills a frame with one sample per pixel from the scene's pattern
func (s *Scene) RenderPattern() *renderer.Frame {
	width, height := s.SamplingConfig.Width, s.SamplingConfig.Height
	frame := renderer.NewFrame(width, height)
	for y := 0; y < height; y++ {
		j := height - 1 - y
		row := frame.Row(y)
		for i := range row {
			row[i].AddSample(s.Pattern(i, j, width, height))
		}
	}
	return frame
}

// newScene applies options to a scene's default camera and sampling configuration
func newScene(name string, defaultCamera renderer.CameraConfig, sampling renderer.SamplingConfig, opts Options) *Scene {
	cameraConfig := renderer.MergeCameraConfig(defaultCamera, opts.Camera)

	if opts.Width > 0 {
		sampling.Width = opts.Width
	}
	sampling.Height = HeightForWidth(sampling.Width, cameraConfig.AspectRatio)

	return &Scene{
		Name:           name,
		Camera:         renderer.NewCamera(cameraConfig),
		CameraConfig:   cameraConfig,
		World:          geometry.NewHittableList(),
		SamplingConfig: sampling,
	}
}

// HeightForWidth returns the image height for a width and aspect ratio, at least 1
func HeightForWidth(width int, aspectRatio float32) int {
	if aspectRatio <= 0 {
		return width
	}
	return max(int(float32(width)/aspectRatio), 1)
}
