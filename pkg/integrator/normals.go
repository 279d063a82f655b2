package integrator

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/geometry"
)

// NormalIntegrator shades the closest surface by its normal, mapped from [-1,1] to [0,1].
// Useful for checking geometry without any material or bounce noise.
type NormalIntegrator struct{}

// NewNormalIntegrator creates a normal-shading integrator
func NewNormalIntegrator() *NormalIntegrator {
	return &NormalIntegrator{}
}

// RayColor implements Integrator
func (NormalIntegrator) RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler) core.Vec3 {
	hit, isHit := world.Hit(ray, 0, math32.Inf(1))
	if !isHit {
		return BackgroundGradient(ray)
	}
	n := hit.Normal.Normalize()
	return n.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
}
