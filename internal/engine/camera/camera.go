// Package camera provides the perspective camera that frames the globe.
package camera

import (
	"github.com/Faultbox/forekaster/pkg/math"
)

// Perspective is a camera placed on the +Z axis of its center, looking back
// at the center. The globe rotates under it; the camera only dollies.
type Perspective struct {
	// Center point the camera looks at
	Center math.Vec3

	// Distance from Center along +Z
	Distance float64

	// Vertical field of view in degrees
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	// Constraints
	MinDistance float64
	MaxDistance float64
}

// NewPerspective creates a camera with the default globe framing.
func NewPerspective() *Perspective {
	return &Perspective{
		Distance:    60,
		FOV:         20,
		Aspect:      2,
		Near:        0.1,
		Far:         1000,
		MinDistance: 11,
		MaxDistance: 500,
	}
}

// Position returns the camera position in world space.
func (c *Perspective) Position() math.Vec3 {
	return c.Center.Add(math.Vec3{Z: c.Distance})
}

// ViewMatrix returns the world-to-camera transform.
func (c *Perspective) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the camera-to-clip transform.
func (c *Perspective) ProjectionMatrix() math.Mat4 {
	return math.Perspective(math.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// SetViewport resets the aspect ratio after a resize. Degenerate sizes are
// ignored so the projection never divides by zero.
func (c *Perspective) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float64(width) / float64(height)
}

// ClampDistance returns d limited to the camera's distance constraints.
func (c *Perspective) ClampDistance(d float64) float64 {
	return math.Clamp(d, c.MinDistance, c.MaxDistance)
}
