package globe

import (
	"github.com/Faultbox/forekaster/pkg/math"
)

// DragConfig tunes pointer rotation.
type DragConfig struct {
	// Friction divides pointer displacement in pixels to get radians.
	Friction float64

	// Decay multiplies inertial velocity every idle frame.
	Decay float64

	// ClickSlop is the largest displacement in pixels still treated as a
	// click rather than a drag.
	ClickSlop float64
}

// DefaultDragConfig returns the default drag tuning.
func DefaultDragConfig() DragConfig {
	return DragConfig{Friction: 1000, Decay: 0.9, ClickSlop: 4}
}

// Drag is the drag/inertia state machine. Input handlers call Press, Move
// and Release; the frame tick calls Rotation or Inertia.
type Drag struct {
	cfg DragConfig

	dragging bool
	pointer  int64

	start     math.Vec2
	last      math.Vec2
	lastFrame math.Vec2
	maxDist   float64

	// snapshot of (pitch, yaw) at press time
	snapshot math.Vec2

	// velocity in pixels per frame, X drives yaw and Y drives pitch
	velocity math.Vec2
}

// NewDrag creates an idle controller.
func NewDrag(cfg DragConfig) *Drag {
	return &Drag{cfg: cfg}
}

// Dragging reports whether a session is active.
func (d *Drag) Dragging() bool {
	return d.dragging
}

// Pointer returns the pointer that owns the session.
func (d *Drag) Pointer() int64 {
	return d.pointer
}

// Velocity returns the inertial velocity in pixels per frame.
func (d *Drag) Velocity() math.Vec2 {
	return d.velocity
}

// Press starts a session for pointer at p. It returns false when a session
// is already running, so additional touches are ignored.
func (d *Drag) Press(pointer int64, p math.Vec2, pitch, yaw float64) bool {
	if d.dragging {
		return false
	}
	d.dragging = true
	d.pointer = pointer
	d.start, d.last, d.lastFrame = p, p, p
	d.maxDist = 0
	d.snapshot = math.Vec2{X: pitch, Y: yaw}
	d.velocity = math.Vec2{}
	return true
}

// Move records the pointer position. Events from other pointers are ignored.
func (d *Drag) Move(pointer int64, p math.Vec2) bool {
	if !d.dragging || pointer != d.pointer {
		return false
	}
	d.last = p
	if dist := p.Distance(d.start); dist > d.maxDist {
		d.maxDist = dist
	}
	return true
}

// Release ends the session. The movement since the last frame becomes the
// inertial velocity. It reports whether the session ended and whether the
// gesture stayed within the click slop.
func (d *Drag) Release(pointer int64, p math.Vec2) (ended, click bool) {
	if !d.dragging || pointer != d.pointer {
		return false, false
	}
	d.Move(pointer, p)
	d.dragging = false
	d.velocity = d.last.Sub(d.lastFrame)
	return true, d.maxDist <= d.cfg.ClickSlop
}

// Cancel ends a session without inertia.
func (d *Drag) Cancel() {
	d.dragging = false
	d.velocity = math.Vec2{}
}

// Rotation returns the rotation for the current pointer position: the
// snapshot plus total displacement divided by friction, pitch clamped. It
// also marks the frame boundary used for release velocity.
func (d *Drag) Rotation() (pitch, yaw float64) {
	disp := d.last.Sub(d.start).Scale(1 / d.cfg.Friction)
	d.lastFrame = d.last
	pitch = math.Clamp(d.snapshot.X+disp.Y, -MaxPitch, MaxPitch)
	yaw = d.snapshot.Y + disp.X
	return pitch, yaw
}

// Inertia returns this frame's rotation increment and decays the velocity.
func (d *Drag) Inertia() (dPitch, dYaw float64) {
	dPitch = d.velocity.Y / d.cfg.Friction
	dYaw = d.velocity.X / d.cfg.Friction
	d.velocity = d.velocity.Scale(d.cfg.Decay)
	return dPitch, dYaw
}
