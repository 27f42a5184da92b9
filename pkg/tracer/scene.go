package tracer

import (
	"math"

	"raystats/pkg/core"
)

// Sphere is a renderable sphere
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// Hit checks if a ray hits the sphere within [tMin, tMax]
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*core.Hit, bool) {
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return nil, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Nearest root within the acceptable range
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return nil, false
		}
	}

	point := ray.At(root)
	return &core.Hit{
		Point:  point,
		Normal: point.Subtract(s.Center).Multiply(1 / s.Radius),
		T:      root,
	}, true
}

// Plane is an infinite renderable plane
type Plane struct {
	Point  core.Vec3
	Normal core.Vec3
}

// Hit checks if a ray hits the plane within [tMin, tMax]
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (*core.Hit, bool) {
	denom := p.Normal.Dot(ray.Direction)
	if math.Abs(denom) < 1e-8 {
		return nil, false // Ray parallel to plane
	}

	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denom
	if t < tMin || t > tMax {
		return nil, false
	}

	normal := p.Normal
	if denom > 0 {
		normal = normal.Negate()
	}
	return &core.Hit{Point: ray.At(t), Normal: normal, T: t}, true
}

// Scene holds the demo geometry the producer traces against
type Scene struct {
	Spheres []Sphere
	Planes  []Plane
}

// Hit returns the closest intersection along the ray, if any
func (sc *Scene) Hit(ray core.Ray, tMin, tMax float64) (*core.Hit, bool) {
	var closestHit *core.Hit
	closestSoFar := tMax
	hitAnything := false

	for i := range sc.Spheres {
		if hit, isHit := sc.Spheres[i].Hit(ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}
	for i := range sc.Planes {
		if hit, isHit := sc.Planes[i].Hit(ray, tMin, closestSoFar); isHit {
			hitAnything = true
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, hitAnything
}

// NewDemoScene creates a default scene with spheres above a ground plane
func NewDemoScene() *Scene {
	return &Scene{
		Spheres: []Sphere{
			{Center: core.NewVec3(0, 0, -1), Radius: 0.5},
			{Center: core.NewVec3(-1.1, 0.1, -1.4), Radius: 0.4},
			{Center: core.NewVec3(1.0, -0.2, -0.8), Radius: 0.3},
		},
		Planes: []Plane{
			{Point: core.NewVec3(0, -0.5, 0), Normal: core.NewVec3(0, 1, 0)},
		},
	}
}
