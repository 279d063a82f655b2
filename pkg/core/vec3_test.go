package core

import (
	"testing"

	"github.com/chewxy/math32"
)

const tolerance = 1e-5

func vecNear(a, b Vec3, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol &&
		math32.Abs(a.Y-b.Y) <= tol &&
		math32.Abs(a.Z-b.Z) <= tol
}

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(0, 2, 4)
	b := NewVec3(1, 3, 5)
	c := NewVec3(3, -3, 3)

	tests := []struct {
		name     string
		got      Vec3
		expected Vec3
	}{
		{"a+b", a.Add(b), NewVec3(1, 5, 9)},
		{"a+c", a.Add(c), NewVec3(3, -1, 7)},
		{"b+c", b.Add(c), NewVec3(4, 0, 8)},
		{"a-b", a.Subtract(b), NewVec3(-1, -1, -1)},
		{"a-c", a.Subtract(c), NewVec3(-3, 5, 1)},
		{"b-c", b.Subtract(c), NewVec3(-2, 6, 2)},
		{"-a", a.Negate(), NewVec3(0, -2, -4)},
		{"-c", c.Negate(), NewVec3(-3, 3, -3)},
		{"c*2", c.Multiply(2), NewVec3(6, -6, 6)},
		{"c*-0.5", c.Multiply(-0.5), NewVec3(-1.5, 1.5, -1.5)},
		{"c/2", c.Divide(2), NewVec3(1.5, -1.5, 1.5)},
		{"a⊙b", a.MultiplyVec(b), NewVec3(0, 6, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}

	if got := a.Dot(b); got != 26 {
		t.Errorf("Expected a·b = 26, got %f", got)
	}
	if got := a.Dot(c); got != 6 {
		t.Errorf("Expected a·c = 6, got %f", got)
	}
	if got := b.Dot(c); got != 9 {
		t.Errorf("Expected b·c = 9, got %f", got)
	}
}

func TestVec3_NormalizeUnitLength(t *testing.T) {
	vectors := []Vec3{
		NewVec3(1, 0, 0),
		NewVec3(3, 4, 0),
		NewVec3(-2, 7, 0.5),
		NewVec3(1e-3, -1e-3, 2e-3),
		NewVec3(1000, 2000, -3000),
	}

	for _, v := range vectors {
		length := v.Normalize().Length()
		if math32.Abs(length-1) > tolerance {
			t.Errorf("Expected unit length for normalize(%v), got %f", v, length)
		}
	}
}

func TestVec3_NormalizeZeroIsNaN(t *testing.T) {
	n := Vec3{}.Normalize()
	if !n.IsNaN() {
		t.Errorf("Expected NaN components for normalize of zero vector, got %v", n)
	}
}

func TestVec3_DotSymmetricAndBilinear(t *testing.T) {
	u := NewVec3(1, -2, 3)
	v := NewVec3(0.5, 4, -1)
	w := NewVec3(-3, 0.25, 2)
	var alpha, beta float32 = 2.5, -1.5

	if u.Dot(v) != v.Dot(u) {
		t.Errorf("Dot product should be symmetric: %f vs %f", u.Dot(v), v.Dot(u))
	}

	left := u.Multiply(alpha).Add(v.Multiply(beta)).Dot(w)
	right := alpha*u.Dot(w) + beta*v.Dot(w)
	if math32.Abs(left-right) > tolerance {
		t.Errorf("Dot product should be bilinear: %f vs %f", left, right)
	}
}

func TestVec3_CrossAntiCommutative(t *testing.T) {
	u := NewVec3(1, 2, 3)
	v := NewVec3(-4, 0.5, 2)

	if u.Cross(v) != v.Cross(u).Negate() {
		t.Errorf("Expected cross(u,v) = -cross(v,u), got %v and %v", u.Cross(v), v.Cross(u))
	}

	// The cross product is perpendicular to both inputs
	c := u.Cross(v)
	if math32.Abs(c.Dot(u)) > tolerance || math32.Abs(c.Dot(v)) > tolerance {
		t.Errorf("Cross product %v should be perpendicular to %v and %v", c, u, v)
	}

	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	if x.Cross(y) != NewVec3(0, 0, 1) {
		t.Errorf("Expected x × y = z, got %v", x.Cross(y))
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 2, 3), NewVec3(0, 0, -2))
	if got := ray.At(1.5); got != NewVec3(1, 2, 0) {
		t.Errorf("Expected (1,2,0), got %v", got)
	}
	if got := ray.At(0); got != ray.Origin {
		t.Errorf("Expected origin at t=0, got %v", got)
	}
}

func TestReflect(t *testing.T) {
	v := NewVec3(1, -1, 0)
	n := NewVec3(0, 1, 0)
	if got := Reflect(v, n); got != NewVec3(1, 1, 0) {
		t.Errorf("Expected (1,1,0), got %v", got)
	}
}

func TestRefract(t *testing.T) {
	n := NewVec3(0, 1, 0)

	t.Run("normal incidence passes straight through", func(t *testing.T) {
		got := Refract(NewVec3(0, -1, 0), n, 1.0/1.5)
		if !vecNear(got, NewVec3(0, -1, 0), tolerance) {
			t.Errorf("Expected (0,-1,0), got %v", got)
		}
	})

	t.Run("snell's law holds", func(t *testing.T) {
		in := NewVec3(1, -1, 0).Normalize()
		ratio := float32(1.0 / 1.5)
		out := Refract(in, n, ratio)

		sinIn := in.Cross(n).Length()
		sinOut := out.Normalize().Cross(n).Length()
		if math32.Abs(sinOut-ratio*sinIn) > tolerance {
			t.Errorf("Expected sin(out) = %f, got %f", ratio*sinIn, sinOut)
		}
		if math32.Abs(out.Length()-1) > tolerance {
			t.Errorf("Expected unit length refracted direction, got %f", out.Length())
		}
		if out.Y >= 0 {
			t.Errorf("Refracted ray should continue through the surface, got %v", out)
		}
	})

	t.Run("equal indices leave direction unchanged", func(t *testing.T) {
		in := NewVec3(0.3, -0.8, 0.2).Normalize()
		got := Refract(in, n, 1.0)
		if !vecNear(got, in, tolerance) {
			t.Errorf("Expected %v, got %v", in, got)
		}
	})
}

func TestVec3_Clamp(t *testing.T) {
	got := NewVec3(-0.5, 0.5, 1.5).Clamp(0, 0.999)
	expected := NewVec3(0, 0.5, 0.999)
	if got != expected {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
