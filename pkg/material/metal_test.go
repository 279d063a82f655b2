package material

import (
	"math/rand"
	"testing"

	"github.com/df07/go-pathtracer/pkg/core"
)

func TestNewMetal_FuzznessClamp(t *testing.T) {
	tests := []struct {
		name             string
		inputFuzzness    float32
		expectedFuzzness float32
	}{
		{"Valid fuzzness 0.0", 0.0, 0.0},
		{"Valid fuzzness 0.5", 0.5, 0.5},
		{"Valid fuzzness 1.0", 1.0, 1.0},
		{"Clamp above 1.0", 1.5, 1.0},
		{"Clamp below 0.0", -0.5, 0.0},
		{"Clamp large positive", 10.0, 1.0},
		{"Clamp large negative", -10.0, 0.0},
	}

	albedo := core.NewVec3(0.8, 0.8, 0.8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metal := NewMetal(albedo, tt.inputFuzzness)
			if metal.Fuzzness != tt.expectedFuzzness {
				t.Errorf("Expected fuzzness %f, got %f", tt.expectedFuzzness, metal.Fuzzness)
			}
		})
	}
}

func TestMetal_PerfectReflection(t *testing.T) {
	albedo := core.NewVec3(0.9, 0.9, 0.9)
	metal := NewMetal(albedo, 0.0)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	// Ray hitting surface at 45 degrees, unnormalized to check the metal normalizes it
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -3, -3))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}

	scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
	if !didScatter {
		t.Fatal("Metal should scatter")
	}

	expected := core.NewVec3(0, -1, 1).Normalize()
	actual := scatter.Scattered.Direction

	if actual.Subtract(expected).Length() > 1e-5 {
		t.Errorf("Perfect reflection failed: expected %v, got %v", expected, actual)
	}

	if scatter.Attenuation != albedo {
		t.Errorf("Attenuation should equal albedo: expected %v, got %v", albedo, scatter.Attenuation)
	}
}

func TestMetal_FuzzyReflection(t *testing.T) {
	albedo := core.NewVec3(0.8, 0.8, 0.8)
	metal := NewMetal(albedo, 0.5)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))

	rayIn := core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 0, 1),
	}

	perfect := core.NewVec3(0, 0, 1)
	sawDeviation := false
	for i := 0; i < 50; i++ {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		if !didScatter {
			continue
		}
		deviation := scatter.Scattered.Direction.Subtract(perfect).Length()
		if deviation > 0.5 {
			t.Errorf("Fuzz 0.5 should perturb by at most 0.5, got %f", deviation)
		}
		if deviation > 1e-3 {
			sawDeviation = true
		}
	}

	if !sawDeviation {
		t.Error("Expected fuzzy reflections to deviate from the mirror direction")
	}
}

func TestMetal_GrazingReflectionAbsorbed(t *testing.T) {
	// With maximum fuzz, a grazing reflection must sometimes dip below the surface
	metal := NewMetal(core.NewVec3(1, 1, 1), 1.0)
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(5)))

	rayIn := core.NewRay(core.NewVec3(-1, 0.01, 0), core.NewVec3(1, -0.01, 0))
	hit := HitRecord{
		Point:  core.NewVec3(0, 0, 0),
		Normal: core.NewVec3(0, 1, 0),
	}

	absorbed, scattered := 0, 0
	for i := 0; i < 500; i++ {
		scatter, didScatter := metal.Scatter(rayIn, hit, sampler)
		if didScatter {
			scattered++
			if scatter.Scattered.Direction.Dot(hit.Normal) <= 0 {
				t.Errorf("Scattered direction %v should point away from the surface", scatter.Scattered.Direction)
			}
		} else {
			absorbed++
		}
	}

	if absorbed == 0 {
		t.Error("Expected some grazing reflections to be absorbed")
	}
	if scattered == 0 {
		t.Error("Expected some grazing reflections to scatter")
	}
}
