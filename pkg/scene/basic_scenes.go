package scene

import (
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// forwardCamera looks down -Z from the origin with a 90° field of view
func forwardCamera() renderer.CameraConfig {
	return renderer.CameraConfig{
		LookFrom:      core.NewVec3(0, 0, 0),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          90,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0,
		FocusDistance: 1,
	}
}

// NewMaterialsScene creates a diffuse, a hollow glass and a metal sphere side by side on a ground sphere
func NewMaterialsScene(opts Options) *Scene {
	samplingConfig := renderer.SamplingConfig{
		Width:           384,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Seed:            opts.Seed,
	}
	s := newScene("materials", forwardCamera(), samplingConfig, opts)

	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	glass := material.NewDielectric(1.5)
	gold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)

	s.World.Add(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, center),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		// Negative radius flips the normals, making the glass a thin shell
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.4, glass),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, gold),
	)
	return s
}

// NewDiffuseScene creates a single grey diffuse sphere resting on a ground sphere
func NewDiffuseScene(opts Options) *Scene {
	samplingConfig := renderer.SamplingConfig{
		Width:           384,
		SamplesPerPixel: 100,
		MaxDepth:        20,
		Seed:            opts.Seed,
	}
	s := newScene("diffuse", forwardCamera(), samplingConfig, opts)

	grey := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	s.World.Add(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, grey),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, grey),
	)
	return s
}

// NewNormalsScene is the diffuse scene shaded by surface normal
func NewNormalsScene(opts Options) *Scene {
	s := NewDiffuseScene(opts)
	s.Name = "normals"
	s.SamplingConfig.SamplesPerPixel = 10
	s.Integrator = integrator.NewNormalIntegrator()
	return s
}

// NewGradientScene writes a red/green test pattern without tracing any rays
func NewGradientScene(opts Options) *Scene {
	samplingConfig := renderer.SamplingConfig{
		Width:           256,
		SamplesPerPixel: 1,
		MaxDepth:        1,
		Seed:            opts.Seed,
	}
	camera := forwardCamera()
	camera.AspectRatio = 1

	s := newScene("gradient", camera, samplingConfig, opts)
	s.Pattern = GradientPattern
	return s
}

// GradientPattern ramps red left to right and green bottom to top over constant blue
func GradientPattern(i, j, width, height int) core.Vec3 {
	return core.NewVec3(
		float32(i)/float32(max(width-1, 1)),
		float32(j)/float32(max(height-1, 1)),
		0.25,
	)
}
