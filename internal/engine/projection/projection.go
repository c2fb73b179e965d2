// Package projection maps scene nodes to screen pixels and screen pixels
// back to world rays.
package projection

import (
	gomath "math"

	"github.com/Faultbox/forekaster/internal/engine/camera"
	"github.com/Faultbox/forekaster/pkg/math"
)

// Positioned is anything with a world-space origin, typically a scene node.
type Positioned interface {
	WorldPosition() math.Vec3
}

// Point is a projected position.
type Point struct {
	// X, Y are pixel coordinates with the origin at the top-left corner.
	X, Y float64

	// Z is the depth of the point relative to the plane through the camera
	// center facing the camera. Positive values lie on the near side, so on
	// a globe centered at Center they mark the camera-facing hemisphere.
	Z float64

	World math.Vec3
}

// ToScreen projects node through the camera into a viewport of the given
// size in pixels.
func ToScreen(node Positioned, cam *camera.Perspective, width, height float64) Point {
	world := node.WorldPosition()
	view := cam.ViewMatrix().TransformPoint(world)
	ndc := cam.ProjectionMatrix().TransformPoint(view)

	return Point{
		X:     (ndc.X*0.5 + 0.5) * width,
		Y:     (ndc.Y*-0.5 + 0.5) * height,
		Z:     view.Z + cam.Distance,
		World: world,
	}
}

// Ray is a half-line in world space.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // normalized
}

// ScreenToRay converts pixel coordinates to a world-space ray leaving the
// near plane.
func ScreenToRay(x, y, width, height float64, cam *camera.Perspective) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height

	inv := cam.ViewProjection().Inverse()
	near := inv.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: -1})
	far := inv.TransformPoint(math.Vec3{X: ndcX, Y: ndcY, Z: 1})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// IntersectSphere returns the nearest non-negative hit distance along the
// ray and whether the sphere was hit.
func (r Ray) IntersectSphere(center math.Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := gomath.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}
