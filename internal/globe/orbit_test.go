package globe

import (
	gomath "math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Faultbox/forekaster/internal/engine/loop"
	"github.com/Faultbox/forekaster/internal/engine/tween"
	"github.com/Faultbox/forekaster/pkg/math"
)

func newTestOrbit(pitch, yaw *float64) (*Orbit, *loop.Loop) {
	l := loop.New()
	e := tween.NewEngine(l, nil, nil)
	target := tween.NewFields(map[string]*float64{PropPitch: pitch, PropYaw: yaw})
	return NewOrbit(DefaultOrbitConfig(), e, target), l
}

func TestOrbit(t *testing.T) {
	Convey("Given an orbit controller", t, func() {
		pitch, yaw := 0.0, 1.0
		o, l := newTestOrbit(&pitch, &yaw)
		cfg := DefaultOrbitConfig()

		Convey("It starts off and still", func() {
			So(o.Mode(), ShouldEqual, ModeOff)
			So(o.Step(), ShouldBeNil)
			So(yaw, ShouldEqual, 1.0)
			So(o.Speed(), ShouldEqual, 0)
		})

		Convey("Slow mode accelerates up to the max speed", func() {
			o.SetMode(ModeSlow)
			So(o.Step(), ShouldBeNil)
			So(o.Speed(), ShouldAlmostEqual, cfg.Acceleration, 1e-15)
			So(yaw, ShouldAlmostEqual, 1.0+cfg.Acceleration, 1e-15)
			So(pitch, ShouldAlmostEqual, cfg.RestPitch/cfg.LevelDivisor, 1e-15)

			for i := 0; i < 2000; i++ {
				o.Step()
			}
			So(o.Speed(), ShouldEqual, cfg.MaxSpeed)

			Convey("and pitch approaches the rest pitch from either side", func() {
				pitch = -1
				prev := gomath.Abs(pitch - cfg.RestPitch)
				for i := 0; i < 100; i++ {
					o.Step()
					d := gomath.Abs(pitch - cfg.RestPitch)
					So(d, ShouldBeLessThan, prev)
					prev = d
				}
			})

			Convey("and switching off decays speed to zero", func() {
				o.SetMode(ModeOff)
				for i := 0; i < 1000; i++ {
					o.Step()
				}
				So(o.Speed(), ShouldEqual, 0)
				before := yaw
				o.Step()
				So(yaw, ShouldEqual, before)
			})
		})

		Convey("Fast mode sweeps one revolution", func() {
			o.SetMode(ModeFast)
			pitch = 0.4
			So(o.Step(), ShouldBeNil)
			So(o.FastOrbitInProgress(), ShouldBeTrue)
			So(pitch, ShouldEqual, 0)

			Convey("without starting a second sweep while one runs", func() {
				anim := o.sweep
				So(o.Step(), ShouldBeNil)
				So(o.sweep, ShouldEqual, anim)
			})

			Convey("ending exactly one turn later with the guard cleared", func() {
				frames := int(cfg.SweepDuration / (time.Second / 60))
				for i := 0; i < frames-1; i++ {
					l.Frame()
				}
				So(o.FastOrbitInProgress(), ShouldBeTrue)
				l.Frame()
				So(yaw, ShouldEqual, 1.0+2*gomath.Pi)
				So(o.FastOrbitInProgress(), ShouldBeFalse)

				So(o.Step(), ShouldBeNil)
				So(o.FastOrbitInProgress(), ShouldBeTrue)
			})

			Convey("and leaving fast mode cancels the sweep", func() {
				l.Frame()
				anim := o.sweep
				o.SetMode(ModeSlow)
				So(o.FastOrbitInProgress(), ShouldBeFalse)
				So(anim.Err(), ShouldEqual, tween.ErrCancelled)
				So(l.Len(), ShouldEqual, 0)
			})
		})

		Convey("Switching off to slow and back within one frame leaves no creep", func() {
			o.SetMode(ModeSlow)
			o.SetMode(ModeOff)
			So(o.Speed(), ShouldEqual, 0)
			for i := 0; i < 30; i++ {
				So(o.Step(), ShouldBeNil)
			}
			So(o.Speed(), ShouldEqual, 0)
			So(yaw, ShouldEqual, 1.0)
			So(pitch, ShouldEqual, 0.0)
		})

		Convey("Interrupt stops motion and PauseForResume holds it", func() {
			o.SetMode(ModeSlow)
			for i := 0; i < 10; i++ {
				o.Step()
			}
			o.Interrupt()
			So(o.Speed(), ShouldEqual, 0)

			o.PauseForResume()
			So(o.Paused(), ShouldBeTrue)
			before := yaw
			for i := 0; i < 15*60; i++ {
				o.Step()
			}
			So(yaw, ShouldEqual, before)
			So(o.Paused(), ShouldBeFalse)
			o.Step()
			So(yaw, ShouldBeGreaterThan, before)
		})
	})
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeOff, ModeSlow, ModeFast} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("warp"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if m, _ := ParseMode(""); m != ModeOff {
		t.Errorf("empty mode = %v, want off", m)
	}
}

func TestDefaultOrbitConfig(t *testing.T) {
	cfg := DefaultOrbitConfig()
	if gomath.Abs(cfg.MaxSpeed-math.DegToRad(0.025)) > 1e-18 {
		t.Errorf("MaxSpeed = %v", cfg.MaxSpeed)
	}
	if cfg.LevelDivisor != 3333 || cfg.SweepDuration != 3*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
