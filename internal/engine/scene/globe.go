// Package scene owns the globe scene graph: the camera, the sphere node and
// one anchor hierarchy per marker parented to the sphere.
package scene

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/forekaster/internal/engine/camera"
	"github.com/Faultbox/forekaster/pkg/math"
)

// ErrDisposed is returned when a disposed globe is used.
var ErrDisposed = errors.New("scene: globe disposed")

// Frame is everything a renderer needs to draw the globe once.
type Frame struct {
	Model      math.Mat4
	View       math.Mat4
	Projection math.Mat4
	Width      int
	Height     int
}

// Renderer draws the sphere. Implementations hold GPU resources.
type Renderer interface {
	Render(f Frame) error
	Close() error
}

// Config contains globe geometry options.
type Config struct {
	Radius float64

	// Initial sphere orientation in degrees.
	InitialPitch float64
	InitialYaw   float64

	// Texture calibration added to marker coordinates, in degrees.
	LonOffset float64
	LatOffset float64
}

// DefaultConfig returns the default globe geometry.
func DefaultConfig() Config {
	return Config{
		Radius:       10,
		InitialPitch: 30,
		InitialYaw:   -100,
		LonOffset:    90.3,
		LatOffset:    -1.35,
	}
}

// Anchor is the node chain placing one marker on the sphere surface:
// yaw node (longitude) -> pitch node (latitude) -> surface node (radius).
type Anchor struct {
	ID       string
	Lat, Lon float64

	Yaw     *Node
	Pitch   *Node
	Surface *Node
}

// WorldPosition returns the marker location in world space.
func (a *Anchor) WorldPosition() math.Vec3 {
	return a.Surface.WorldPosition()
}

// Globe is one mounted globe scene.
type Globe struct {
	config Config

	Camera *camera.Perspective
	Root   *Node
	Sphere *Node

	anchors  map[string]*Anchor
	order    []string
	renderer Renderer

	width, height int
	disposed      bool
}

// NewGlobe builds the scene. A nil renderer disables drawing; Update then
// does nothing and every other operation still works.
func NewGlobe(cfg Config, cam *camera.Perspective, r Renderer) *Globe {
	if cam == nil {
		cam = camera.NewPerspective()
	}
	g := &Globe{
		config:   cfg,
		Camera:   cam,
		Root:     NewNode("root"),
		Sphere:   NewNode("globe"),
		anchors:  make(map[string]*Anchor),
		renderer: r,
	}
	g.Sphere.Rotation = math.Vec3{
		X: math.DegToRad(cfg.InitialPitch),
		Y: math.DegToRad(cfg.InitialYaw),
	}
	g.Root.Add(g.Sphere)
	return g
}

// Config returns the geometry options.
func (g *Globe) Config() Config {
	return g.config
}

// CanRender reports whether a renderer is attached.
func (g *Globe) CanRender() bool {
	return g.renderer != nil && !g.disposed
}

// AddAnchor creates the node chain for a marker and parents it to the
// sphere. An existing anchor with the same id is replaced.
func (g *Globe) AddAnchor(id string, lat, lon float64) *Anchor {
	if old, ok := g.anchors[id]; ok {
		old.Yaw.Detach()
		g.dropOrder(id)
	}

	a := &Anchor{
		ID:      id,
		Lat:     lat,
		Lon:     lon,
		Yaw:     NewNode("marker-yaw:" + id),
		Pitch:   NewNode("marker-pitch:" + id),
		Surface: NewNode("marker:" + id),
	}
	a.Yaw.Rotation.Y = math.DegToRad(lon + g.config.LonOffset)
	a.Pitch.Rotation.X = math.DegToRad(-lat + g.config.LatOffset)
	a.Surface.Position.Z = g.config.Radius

	a.Pitch.Add(a.Surface)
	a.Yaw.Add(a.Pitch)
	g.Sphere.Add(a.Yaw)

	g.anchors[id] = a
	g.order = append(g.order, id)
	return a
}

func (g *Globe) dropOrder(id string) {
	for i, v := range g.order {
		if v == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			return
		}
	}
}

// Anchors returns anchors in insertion order.
func (g *Globe) Anchors() []*Anchor {
	out := make([]*Anchor, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.anchors[id])
	}
	return out
}

// ClearAnchors detaches every anchor chain from the sphere.
func (g *Globe) ClearAnchors() {
	for _, a := range g.anchors {
		a.Yaw.Detach()
	}
	g.anchors = make(map[string]*Anchor)
	g.order = nil
}

// FacingRotation returns the sphere rotation that turns (lat, lon) toward
// the camera. Pitch is clamped to [-π/2, π/2].
func (g *Globe) FacingRotation(lat, lon float64) (pitch, yaw float64) {
	pitch = math.Clamp(math.DegToRad(lat-g.config.LatOffset), -gomath.Pi/2, gomath.Pi/2)
	yaw = -math.DegToRad(lon + g.config.LonOffset)
	return pitch, yaw
}

// Resize updates the viewport size and the camera aspect.
func (g *Globe) Resize(width, height int) {
	g.width, g.height = width, height
	g.Camera.SetViewport(width, height)
}

// Size returns the viewport size in pixels.
func (g *Globe) Size() (int, int) {
	return g.width, g.height
}

// Update renders one frame with the current camera and sphere transform.
func (g *Globe) Update() error {
	if g.disposed {
		return ErrDisposed
	}
	if g.renderer == nil || g.width <= 0 || g.height <= 0 {
		return nil
	}
	f := Frame{
		Model:      g.Sphere.WorldMatrix(),
		View:       g.Camera.ViewMatrix(),
		Projection: g.Camera.ProjectionMatrix(),
		Width:      g.width,
		Height:     g.height,
	}
	if err := g.renderer.Render(f); err != nil {
		return fmt.Errorf("rendering globe: %w", err)
	}
	return nil
}

// Dispose detaches all anchors, detaches the sphere and releases the
// renderer. It is safe to call more than once.
func (g *Globe) Dispose() error {
	if g.disposed {
		return nil
	}
	g.disposed = true

	g.ClearAnchors()
	g.Sphere.Detach()

	if g.renderer == nil {
		return nil
	}
	err := g.renderer.Close()
	g.renderer = nil
	if err != nil {
		return fmt.Errorf("closing renderer: %w", err)
	}
	return nil
}
