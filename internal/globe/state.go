package globe

import (
	gomath "math"

	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/pkg/math"
)

// Tweenable property names exposed by the globe state.
const (
	PropPitch    = "rotation.x"
	PropYaw      = "rotation.y"
	PropDistance = "camera.z"
)

// MaxPitch bounds the sphere's pitch in both directions.
const MaxPitch = gomath.Pi / 2

// state exposes the sphere rotation and camera distance of a scene as tween
// properties. The scene nodes are the single source of truth.
type state struct {
	scene *scene.Globe
}

func (s *state) Get(prop string) (float64, bool) {
	switch prop {
	case PropPitch:
		return s.scene.Sphere.Rotation.X, true
	case PropYaw:
		return s.scene.Sphere.Rotation.Y, true
	case PropDistance:
		return s.scene.Camera.Distance, true
	}
	return 0, false
}

func (s *state) Set(prop string, v float64) {
	switch prop {
	case PropPitch:
		s.scene.Sphere.Rotation.X = v
	case PropYaw:
		s.scene.Sphere.Rotation.Y = v
	case PropDistance:
		s.scene.Camera.Distance = v
	}
}

func (s *state) pitch() float64 { return s.scene.Sphere.Rotation.X }
func (s *state) yaw() float64   { return s.scene.Sphere.Rotation.Y }

func (s *state) setRotation(pitch, yaw float64) {
	s.scene.Sphere.Rotation.X = pitch
	s.scene.Sphere.Rotation.Y = yaw
}

func (s *state) rotate(dPitch, dYaw float64) {
	s.scene.Sphere.Rotation.X += dPitch
	s.scene.Sphere.Rotation.Y += dYaw
}

// normalize clamps pitch to [-π/2, π/2] and wraps yaw into (-2π, 2π).
func (s *state) normalize() {
	r := &s.scene.Sphere.Rotation
	r.X = math.Clamp(r.X, -MaxPitch, MaxPitch)
	r.Y = math.WrapAngle(r.Y)
}
