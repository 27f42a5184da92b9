package core

import (
	"math"
	"testing"
)

func TestVec3BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	sum := a.Add(b)
	if sum != (Vec3{5, 7, 9}) {
		t.Errorf("Add: expected {5 7 9}, got %v", sum)
	}

	diff := b.Subtract(a)
	if diff != (Vec3{3, 3, 3}) {
		t.Errorf("Subtract: expected {3 3 3}, got %v", diff)
	}

	scaled := a.Multiply(2)
	if scaled != (Vec3{2, 4, 6}) {
		t.Errorf("Multiply: expected {2 4 6}, got %v", scaled)
	}

	if dot := a.Dot(b); dot != 32 {
		t.Errorf("Dot: expected 32, got %v", dot)
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0).Normalize()
	tolerance := 1e-9

	if math.Abs(v.Length()-1.0) > tolerance {
		t.Errorf("Normalized vector should have length 1, got %v", v.Length())
	}
	if math.Abs(v.X-0.6) > tolerance || math.Abs(v.Y-0.8) > tolerance {
		t.Errorf("Expected {0.6 0.8 0}, got %v", v)
	}

	// The zero vector normalizes to itself rather than dividing by zero
	zero := Vec3{}.Normalize()
	if zero != (Vec3{}) {
		t.Errorf("Zero vector should normalize to itself, got %v", zero)
	}
}

func TestVec3Distance(t *testing.T) {
	a := NewVec3(1, 1, 1)
	b := NewVec3(1, 1, 4)

	if d := a.Distance(b); d != 3 {
		t.Errorf("Expected distance 3, got %v", d)
	}
}

func TestVec3AngleDegrees(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected float64
	}{
		{"parallel", NewVec3(0, 0, 1), NewVec3(0, 0, 2), 0},
		{"perpendicular", NewVec3(1, 0, 0), NewVec3(0, 1, 0), 90},
		{"opposite", NewVec3(1, 0, 0), NewVec3(-1, 0, 0), 180},
	}

	tolerance := 1e-9
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angle := tt.a.AngleDegrees(tt.b)
			if math.Abs(angle-tt.expected) > tolerance {
				t.Errorf("Expected %v degrees, got %v", tt.expected, angle)
			}
		})
	}
}

func TestVec3AngleDegreesZeroVector(t *testing.T) {
	// A zero-length operand yields NaN; callers must special-case it
	angle := Vec3{}.AngleDegrees(NewVec3(1, 0, 0))
	if !math.IsNaN(angle) {
		t.Errorf("Expected NaN for zero-length vector, got %v", angle)
	}
}

func TestRayAt(t *testing.T) {
	ray := NewRay(NewVec3(0, 0, 0), NewVec3(1, 2, 3))
	point := ray.At(2)
	if point != (Vec3{2, 4, 6}) {
		t.Errorf("Expected {2 4 6}, got %v", point)
	}
}
