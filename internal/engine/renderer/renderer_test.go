package renderer

import (
	"testing"

	"github.com/Faultbox/forekaster/internal/overlay"
)

func TestPinVerticesSkipsHidden(t *testing.T) {
	layer := overlay.NewLayer()
	a := layer.Mount("a", "")
	b := layer.Mount("b", "")
	a.Apply(overlay.Style{X: 10, Y: 20, Visible: true, ZIndex: 5})
	b.Apply(overlay.Style{X: 30, Y: 40, Visible: false})

	got := PinVertices(nil, layer.DrawOrder())
	want := []float32{10, 20, float32(2 * a.Radius)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(10)
	if cfg.Radius != 10 || cfg.WidthSegments < 3 || cfg.HeightSegments < 2 {
		t.Errorf("unexpected config %+v", cfg)
	}
}
