package globe

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/forekaster/pkg/math"
)

func TestDragRotationFromStart(t *testing.T) {
	d := NewDrag(DefaultDragConfig())
	if !d.Press(0, math.Vec2{X: 100, Y: 100}, 0.2, 1.0) {
		t.Fatal("Press should start a session")
	}

	d.Move(0, math.Vec2{X: 300, Y: 150})
	pitch, yaw := d.Rotation()
	if gomath.Abs(pitch-0.25) > 1e-12 || gomath.Abs(yaw-1.2) > 1e-12 {
		t.Errorf("Rotation() = (%v, %v), want (0.25, 1.2)", pitch, yaw)
	}

	// Displacement is measured from the press point, not accumulated.
	d.Move(0, math.Vec2{X: 100, Y: 100})
	pitch, yaw = d.Rotation()
	if pitch != 0.2 || yaw != 1.0 {
		t.Errorf("back at start: (%v, %v), want snapshot", pitch, yaw)
	}
}

func TestDragPitchClamped(t *testing.T) {
	tests := []struct {
		name string
		dy   float64
		want float64
	}{
		{"down", 1e6, MaxPitch},
		{"up", -1e6, -MaxPitch},
		{"inside", 500, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDrag(DefaultDragConfig())
			d.Press(0, math.Vec2{}, 0, 0)
			d.Move(0, math.Vec2{Y: tt.dy})
			if pitch, _ := d.Rotation(); gomath.Abs(pitch-tt.want) > 1e-12 {
				t.Errorf("pitch = %v, want %v", pitch, tt.want)
			}
		})
	}
}

func TestDragFirstPointerOnly(t *testing.T) {
	d := NewDrag(DefaultDragConfig())
	d.Press(1, math.Vec2{}, 0, 0)
	if d.Press(2, math.Vec2{X: 50}, 0, 0) {
		t.Error("second touch should be ignored")
	}
	if d.Move(2, math.Vec2{X: 500}) {
		t.Error("move from second touch should be ignored")
	}
	if ended, _ := d.Release(2, math.Vec2{}); ended {
		t.Error("release of second touch should not end the session")
	}
	if !d.Dragging() || d.Pointer() != 1 {
		t.Error("first touch should still own the session")
	}
}

func TestDragReleaseVelocity(t *testing.T) {
	d := NewDrag(DefaultDragConfig())
	d.Press(0, math.Vec2{}, 0, 0)
	d.Move(0, math.Vec2{X: 30})
	d.Rotation() // frame boundary
	d.Move(0, math.Vec2{X: 35, Y: -2})

	ended, click := d.Release(0, math.Vec2{X: 40, Y: -4})
	if !ended || click {
		t.Fatalf("Release() = (%v, %v), want (true, false)", ended, click)
	}
	if v := d.Velocity(); v != (math.Vec2{X: 10, Y: -4}) {
		t.Errorf("velocity = %+v, want {10 -4}", v)
	}
}

func TestDragClickSlop(t *testing.T) {
	d := NewDrag(DefaultDragConfig())
	d.Press(0, math.Vec2{X: 10, Y: 10}, 0, 0)
	d.Move(0, math.Vec2{X: 13, Y: 10})
	if _, click := d.Release(0, math.Vec2{X: 12, Y: 10}); !click {
		t.Error("movement within slop should be a click")
	}

	d.Press(0, math.Vec2{X: 10, Y: 10}, 0, 0)
	d.Move(0, math.Vec2{X: 40, Y: 10})
	if _, click := d.Release(0, math.Vec2{X: 10, Y: 10}); click {
		t.Error("returning to the start after a drag is not a click")
	}
}

func TestInertiaDecaysMonotonically(t *testing.T) {
	d := NewDrag(DefaultDragConfig())
	d.Press(0, math.Vec2{}, 0, 0)
	d.Rotation()
	d.Release(0, math.Vec2{X: 50, Y: 20})

	prevPitch, prevYaw := gomath.Inf(1), gomath.Inf(1)
	for i := 0; i < 200; i++ {
		dp, dy := d.Inertia()
		if dp < 0 || dy < 0 || dp > prevPitch || dy > prevYaw {
			t.Fatalf("frame %d: increment (%v, %v) not decaying from (%v, %v)", i, dp, dy, prevPitch, prevYaw)
		}
		prevPitch, prevYaw = dp, dy
	}
	if prevYaw > 1e-9 {
		t.Errorf("inertia should have faded, last yaw increment %v", prevYaw)
	}
	if first := 50 / DefaultDragConfig().Friction; gomath.Abs(first*gomath.Pow(0.9, 199)-prevYaw) > 1e-15 {
		t.Errorf("decay factor off: got %v", prevYaw)
	}
}

func TestDragCancelDropsInertia(t *testing.T) {
	d := NewDrag(DefaultDragConfig())
	d.Press(0, math.Vec2{}, 0, 0)
	d.Move(0, math.Vec2{X: 100})
	d.Cancel()
	if d.Dragging() {
		t.Error("Cancel should end the session")
	}
	if dp, dy := d.Inertia(); dp != 0 || dy != 0 {
		t.Errorf("Inertia() after cancel = (%v, %v)", dp, dy)
	}
}
