package globe

import (
	"testing"

	"github.com/Faultbox/forekaster/internal/engine/projection"
)

func TestInEllipse(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		rx, ry float64
		want   bool
	}{
		{"center", 0, 0, 10, 5, true},
		{"on x edge", 10, 0, 10, 5, true},
		{"past y edge", 0, 5.01, 10, 5, false},
		{"corner outside", 8, 4, 10, 5, false},
		{"zero radius", 0, 0, 0, 5, false},
		{"negative radius", 0, 0, 10, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InEllipse(tt.x, tt.y, 0, 0, tt.rx, tt.ry); got != tt.want {
				t.Errorf("InEllipse = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisibleRequiresFrontHemisphere(t *testing.T) {
	tests := []struct {
		z    float64
		want bool
	}{
		{10, true},
		{0.001, true},
		{0, false},
		{-3, false},
	}
	for _, tt := range tests {
		p := projection.Point{X: 400, Y: 300, Z: tt.z}
		if got := Visible(p, 400, 300, 270, 240); got != tt.want {
			t.Errorf("Visible(z=%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
}

func TestZIndexOrdersByDepth(t *testing.T) {
	if ZIndex(9.5, 10000) <= ZIndex(2, 10000) {
		t.Error("nearer points should get larger z-index")
	}
	if got := ZIndex(-0.25, 10000); got != -2500 {
		t.Errorf("ZIndex(-0.25) = %d, want -2500", got)
	}
}
