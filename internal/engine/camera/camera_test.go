package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/forekaster/pkg/math"
)

func TestPerspectiveDefaults(t *testing.T) {
	c := NewPerspective()
	if got := c.Position(); got != (math.Vec3{Z: 60}) {
		t.Errorf("Position() = %v, want (0,0,60)", got)
	}
	// The center projects to the middle of clip space.
	ndc := c.ViewProjection().TransformPoint(math.Vec3{})
	if gomath.Abs(ndc.X) > 1e-12 || gomath.Abs(ndc.Y) > 1e-12 {
		t.Errorf("center ndc = %v, want (0,0,_)", ndc)
	}
}

func TestSetViewport(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		want float64
	}{
		{"landscape", 800, 400, 2},
		{"portrait", 300, 600, 0.5},
		{"zero height ignored", 800, 0, 2},
		{"negative ignored", -1, 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPerspective()
			c.SetViewport(tt.w, tt.h)
			if c.Aspect != tt.want {
				t.Errorf("Aspect = %v, want %v", c.Aspect, tt.want)
			}
		})
	}
}

func TestClampDistance(t *testing.T) {
	c := NewPerspective()
	if got := c.ClampDistance(1); got != c.MinDistance {
		t.Errorf("ClampDistance(1) = %v, want %v", got, c.MinDistance)
	}
	if got := c.ClampDistance(1e6); got != c.MaxDistance {
		t.Errorf("ClampDistance(1e6) = %v, want %v", got, c.MaxDistance)
	}
	if got := c.ClampDistance(40); got != 40 {
		t.Errorf("ClampDistance(40) = %v", got)
	}
}
