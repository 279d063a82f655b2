package scene

import (
	"math/rand"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/renderer"
)

// NewRandomScene creates the cover scene: a 23x23 grid of small randomized spheres
// around three large ones on a huge ground sphere. The layout depends only on opts.Seed.
func NewRandomScene(opts Options) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		LookFrom:      core.NewVec3(13, 2, 3),
		LookAt:        core.NewVec3(0, 0, 0),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.1,
		FocusDistance: 10,
	}

	samplingConfig := renderer.SamplingConfig{
		Width:           384,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Seed:            opts.Seed,
	}

	s := newScene("random", defaultCameraConfig, samplingConfig, opts)
	random := rand.New(rand.NewSource(opts.Seed))

	s.World.Add(geometry.NewSphere(core.NewVec3(0, -1000, 0), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))))

	// Keep the small spheres clear of the large metal sphere
	clearing := core.NewVec3(4, 0.2, 0)

	for a := -11; a <= 11; a++ {
		for b := -11; b <= 11; b++ {
			chooseMaterial := random.Float32()
			center := core.NewVec3(
				float32(a)+0.9*random.Float32(),
				0.2,
				float32(b)+0.9*random.Float32(),
			)

			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			var mat material.Material
			switch {
			case chooseMaterial < 0.8:
				mat = material.NewLambertian(randomColor(random, 0, 1))
			case chooseMaterial < 0.95:
				mat = material.NewMetal(randomColor(random, 0.5, 1), 0.5*random.Float32())
			default:
				mat = material.NewDielectric(1.5)
			}
			s.World.Add(geometry.NewSphere(center, 0.2, mat))
		}
	}

	s.World.Add(
		geometry.NewSphere(core.NewVec3(0, 1, 0), 1.0, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(-4, 1, 0), 1.0, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1))),
		geometry.NewSphere(core.NewVec3(4, 1, 0), 1.0, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0)),
	)

	return s
}

// randomColor returns a color with each channel uniform in [lo, hi)
func randomColor(random *rand.Rand, lo, hi float32) core.Vec3 {
	span := hi - lo
	return core.NewVec3(
		lo+span*random.Float32(),
		lo+span*random.Float32(),
		lo+span*random.Float32(),
	)
}
