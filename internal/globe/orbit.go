package globe

import (
	"fmt"
	gomath "math"
	"time"

	"github.com/Faultbox/forekaster/internal/engine/tween"
	"github.com/Faultbox/forekaster/pkg/math"
)

// Mode selects autonomous rotation.
type Mode int

const (
	// ModeOff stops autonomous rotation.
	ModeOff Mode = iota
	// ModeSlow drifts continuously and levels the pitch.
	ModeSlow
	// ModeFast repeats full-revolution sweeps.
	ModeFast
)

func (m Mode) String() string {
	switch m {
	case ModeSlow:
		return "slow"
	case ModeFast:
		return "fast"
	default:
		return "off"
	}
}

// ParseMode parses "off", "slow" or "fast".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "off", "":
		return ModeOff, nil
	case "slow":
		return ModeSlow, nil
	case "fast":
		return ModeFast, nil
	}
	return ModeOff, fmt.Errorf("unknown orbit mode %q", s)
}

// OrbitConfig tunes autonomous rotation. Angles are radians per frame.
type OrbitConfig struct {
	MaxSpeed     float64
	Acceleration float64

	// RestPitch is the pitch slow mode levels toward.
	RestPitch float64
	// LevelDivisor sets how slowly pitch approaches RestPitch.
	LevelDivisor float64

	// ResumeDelay pauses orbiting after a drag ends.
	ResumeDelay time.Duration

	SweepDuration time.Duration
	SweepEasing   string
}

// DefaultOrbitConfig returns the default orbit tuning.
func DefaultOrbitConfig() OrbitConfig {
	return OrbitConfig{
		MaxSpeed:      math.DegToRad(0.025),
		Acceleration:  math.DegToRad(0.00005),
		RestPitch:     math.DegToRad(30),
		LevelDivisor:  3333,
		ResumeDelay:   15 * time.Second,
		SweepDuration: 3 * time.Second,
		SweepEasing:   "easeInOutCubic",
	}
}

// Orbit is the autonomous rotation state machine.
type Orbit struct {
	cfg    OrbitConfig
	tweens *tween.Engine
	state  tween.Target

	mode  Mode
	speed float64

	fastOrbitInProgress bool
	sweep               *tween.Animation

	pausedFrames int

	// onSweep is called when a sweep starts.
	onSweep func()
}

// NewOrbit creates an orbit controller in ModeOff. Sweeps animate the yaw
// property of target on tweens.
func NewOrbit(cfg OrbitConfig, tweens *tween.Engine, target tween.Target) *Orbit {
	return &Orbit{cfg: cfg, tweens: tweens, state: target}
}

// Mode returns the current mode.
func (o *Orbit) Mode() Mode {
	return o.mode
}

// Speed returns the slow-mode angular velocity in radians per frame.
func (o *Orbit) Speed() float64 {
	return o.speed
}

// FastOrbitInProgress reports whether a sweep is animating.
func (o *Orbit) FastOrbitInProgress() bool {
	return o.fastOrbitInProgress
}

// Paused reports whether orbiting waits for the resume delay.
func (o *Orbit) Paused() bool {
	return o.pausedFrames > 0
}

// SetMode switches modes. Leaving fast mode cancels a running sweep.
func (o *Orbit) SetMode(m Mode) {
	if m == o.mode {
		return
	}
	if o.mode == ModeFast {
		o.cancelSweep()
	}
	o.mode = m
}

// Interrupt stops all autonomous motion immediately, as when a drag starts.
func (o *Orbit) Interrupt() {
	o.speed = 0
	o.cancelSweep()
}

// PauseForResume holds orbiting for the configured resume delay, counted in
// nominal frames.
func (o *Orbit) PauseForResume() {
	o.pausedFrames = int(gomath.Ceil(o.cfg.ResumeDelay.Seconds() * 60))
}

func (o *Orbit) cancelSweep() {
	if o.sweep != nil {
		o.sweep.Cancel()
		o.sweep = nil
	}
	o.fastOrbitInProgress = false
}

// Step advances one frame. It must only run while no drag is active.
func (o *Orbit) Step() error {
	if o.sweep != nil {
		select {
		case <-o.sweep.Done():
			// Finished, superseded or cancelled: the guard is free again.
			o.sweep = nil
			o.fastOrbitInProgress = false
		default:
		}
	}

	if o.pausedFrames > 0 {
		o.pausedFrames--
		return nil
	}

	switch o.mode {
	case ModeOff:
		o.speed = gomath.Max(0, o.speed-o.cfg.Acceleration)

	case ModeSlow:
		o.speed = gomath.Min(o.cfg.MaxSpeed, o.speed+o.cfg.Acceleration)
		pitch, _ := o.state.Get(PropPitch)
		yaw, _ := o.state.Get(PropYaw)
		o.state.Set(PropYaw, yaw+o.speed)
		o.state.Set(PropPitch, pitch+(o.cfg.RestPitch-pitch)/o.cfg.LevelDivisor)

	case ModeFast:
		if o.fastOrbitInProgress {
			return nil
		}
		return o.startSweep()
	}
	return nil
}

func (o *Orbit) startSweep() error {
	yaw, _ := o.state.Get(PropYaw)
	o.state.Set(PropPitch, 0)

	anim, err := o.tweens.Animate(o.state, map[string]tween.Track{
		PropYaw: {{
			From:     tween.From(yaw),
			To:       yaw + 2*gomath.Pi,
			Duration: o.cfg.SweepDuration,
			Easing:   o.cfg.SweepEasing,
		}},
	}, tween.Common{
		OnFinish: func() { o.fastOrbitInProgress = false },
	})
	if err != nil {
		return fmt.Errorf("starting orbit sweep: %w", err)
	}
	o.fastOrbitInProgress = true
	o.sweep = anim
	if o.onSweep != nil {
		o.onSweep()
	}
	return nil
}
