package globe

import (
	gomath "math"

	"github.com/Faultbox/forekaster/internal/engine/projection"
	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/internal/markers"
	"github.com/Faultbox/forekaster/internal/overlay"
)

// VisibilityConfig places the visibility ellipse.
type VisibilityConfig struct {
	// AnchorX and AnchorY are the ellipse center as fractions of the
	// viewport width and height.
	AnchorX, AnchorY float64

	// FollowGlobe centers the ellipse on the projected globe center
	// instead of the viewport anchor.
	FollowGlobe bool

	// RadiusX and RadiusY are the ellipse radii as fractions of the
	// viewport height.
	RadiusX, RadiusY float64

	// ZIndexScale converts depth to z-index.
	ZIndexScale float64
}

// DefaultVisibilityConfig returns the default ellipse.
func DefaultVisibilityConfig() VisibilityConfig {
	return VisibilityConfig{
		AnchorX:     0.5,
		AnchorY:     0.5,
		RadiusX:     0.45,
		RadiusY:     0.4,
		ZIndexScale: 10000,
	}
}

// Projected is the per-frame screen placement of a marker.
type Projected struct {
	ID      string
	X, Y    float64
	Z       float64
	ZIndex  int
	Visible bool
}

// InEllipse reports whether (x, y) lies inside the ellipse centered at
// (cx, cy) with radii rx, ry. Degenerate radii contain nothing.
func InEllipse(x, y, cx, cy, rx, ry float64) bool {
	if rx <= 0 || ry <= 0 {
		return false
	}
	dx, dy := x-cx, y-cy
	return dx*dx/(rx*rx)+dy*dy/(ry*ry) <= 1
}

// Visible combines the hemisphere and ellipse tests.
func Visible(p projection.Point, cx, cy, rx, ry float64) bool {
	return p.Z > 0 && InEllipse(p.X, p.Y, cx, cy, rx, ry)
}

// ZIndex maps depth to draw order: nearer points get larger values.
func ZIndex(z, scale float64) int {
	return int(gomath.Round(z * scale))
}

// binding pairs a marker with its anchor and, if mounted, its element.
type binding struct {
	marker  markers.Marker
	anchor  *scene.Anchor
	element overlay.Element
}

// ellipse returns the center and radii for the current viewport.
func (c VisibilityConfig) ellipse(g *scene.Globe) (cx, cy, rx, ry float64) {
	w, h := g.Size()
	fw, fh := float64(w), float64(h)
	cx, cy = c.AnchorX*fw, c.AnchorY*fh
	if c.FollowGlobe {
		center := projection.ToScreen(g.Sphere, g.Camera, fw, fh)
		cx, cy = center.X, center.Y
	}
	return cx, cy, c.RadiusX * fh, c.RadiusY * fh
}

// layout projects every bound marker, applies styles to mounted elements
// and returns the number of visible markers.
func layout(g *scene.Globe, cfg VisibilityConfig, bindings []*binding, out map[string]Projected) int {
	w, h := g.Size()
	fw, fh := float64(w), float64(h)
	cx, cy, rx, ry := cfg.ellipse(g)

	visible := 0
	for _, b := range bindings {
		p := projection.ToScreen(b.anchor, g.Camera, fw, fh)
		pm := Projected{
			ID:      b.marker.ID,
			X:       p.X,
			Y:       p.Y,
			Z:       p.Z,
			ZIndex:  ZIndex(p.Z, cfg.ZIndexScale),
			Visible: Visible(p, cx, cy, rx, ry),
		}
		out[pm.ID] = pm
		if pm.Visible {
			visible++
		}
		if b.element != nil {
			b.element.Apply(overlay.Style{
				X:           pm.X,
				Y:           pm.Y,
				ZIndex:      pm.ZIndex,
				Visible:     pm.Visible,
				Interactive: pm.Visible,
			})
		}
	}
	return visible
}
