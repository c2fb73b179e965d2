// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/internal/engine/tween"
	"github.com/Faultbox/forekaster/internal/globe"
	"github.com/Faultbox/forekaster/internal/logger"
	"github.com/Faultbox/forekaster/pkg/math"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window" koanf:"window"`
	Globe   GlobeConfig   `yaml:"globe" koanf:"globe"`
	Markers MarkersConfig `yaml:"markers" koanf:"markers"`
	Logging LoggingConfig `yaml:"logging" koanf:"logging"`
	Metrics MetricsConfig `yaml:"metrics" koanf:"metrics"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" koanf:"title"`
	Width      int    `yaml:"width" koanf:"width"`
	Height     int    `yaml:"height" koanf:"height"`
	Fullscreen bool   `yaml:"fullscreen" koanf:"fullscreen"`
	VSync      bool   `yaml:"vsync" koanf:"vsync"`
	FPSLimit   int    `yaml:"fps_limit" koanf:"fps_limit"`
	Texture    string `yaml:"texture" koanf:"texture"` // Earth texture, BMP or PNG
}

// GlobeConfig holds geometry, camera and interaction tuning.
type GlobeConfig struct {
	Radius       float64 `yaml:"radius" koanf:"radius"`
	InitialPitch float64 `yaml:"initial_pitch" koanf:"initial_pitch"` // degrees
	InitialYaw   float64 `yaml:"initial_yaw" koanf:"initial_yaw"`     // degrees
	LonOffset    float64 `yaml:"lon_offset" koanf:"lon_offset"`
	LatOffset    float64 `yaml:"lat_offset" koanf:"lat_offset"`
	Interactive  bool    `yaml:"interactive" koanf:"interactive"`

	Camera     CameraConfig     `yaml:"camera" koanf:"camera"`
	Drag       DragConfig       `yaml:"drag" koanf:"drag"`
	Orbit      OrbitConfig      `yaml:"orbit" koanf:"orbit"`
	Visibility VisibilityConfig `yaml:"visibility" koanf:"visibility"`
	Transition TransitionConfig `yaml:"transition" koanf:"transition"`
}

// CameraConfig frames the globe.
type CameraConfig struct {
	FOV         float64 `yaml:"fov" koanf:"fov"`
	Distance    float64 `yaml:"distance" koanf:"distance"`
	Near        float64 `yaml:"near" koanf:"near"`
	Far         float64 `yaml:"far" koanf:"far"`
	MinDistance float64 `yaml:"min_distance" koanf:"min_distance"`
	MaxDistance float64 `yaml:"max_distance" koanf:"max_distance"`
	ZoomStep    float64 `yaml:"zoom_step" koanf:"zoom_step"`
}

// DragConfig tunes pointer rotation.
type DragConfig struct {
	Friction  float64 `yaml:"friction" koanf:"friction"`
	Decay     float64 `yaml:"decay" koanf:"decay"`
	ClickSlop float64 `yaml:"click_slop" koanf:"click_slop"`
}

// OrbitConfig tunes autonomous rotation. Angles are in degrees.
type OrbitConfig struct {
	Mode          string        `yaml:"mode" koanf:"mode"`
	MaxSpeed      float64       `yaml:"max_speed" koanf:"max_speed"`
	Acceleration  float64       `yaml:"acceleration" koanf:"acceleration"`
	RestPitch     float64       `yaml:"rest_pitch" koanf:"rest_pitch"`
	LevelDivisor  float64       `yaml:"level_divisor" koanf:"level_divisor"`
	ResumeDelay   time.Duration `yaml:"resume_delay" koanf:"resume_delay"`
	SweepDuration time.Duration `yaml:"sweep_duration" koanf:"sweep_duration"`
	SweepEasing   string        `yaml:"sweep_easing" koanf:"sweep_easing"`
}

// VisibilityConfig places the marker visibility ellipse.
type VisibilityConfig struct {
	AnchorX     float64 `yaml:"anchor_x" koanf:"anchor_x"`
	AnchorY     float64 `yaml:"anchor_y" koanf:"anchor_y"`
	FollowGlobe bool    `yaml:"follow_globe" koanf:"follow_globe"`
	RadiusX     float64 `yaml:"radius_x" koanf:"radius_x"`
	RadiusY     float64 `yaml:"radius_y" koanf:"radius_y"`
	ZIndexScale float64 `yaml:"z_index_scale" koanf:"z_index_scale"`
}

// TransitionConfig shapes target and zoom animations.
type TransitionConfig struct {
	Duration time.Duration `yaml:"duration" koanf:"duration"`
	Easing   string        `yaml:"easing" koanf:"easing"`
}

// MarkersConfig points at the marker source.
type MarkersConfig struct {
	File string `yaml:"file" koanf:"file"` // JSON city list or GeoJSON
	SRID int    `yaml:"srid" koanf:"srid"` // CRS of GeoJSON coordinates
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" koanf:"level"`
	Format     string `yaml:"format" koanf:"format"`
	LogFile    string `yaml:"log_file" koanf:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" koanf:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" koanf:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" koanf:"max_age_days"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr      string `yaml:"addr" koanf:"addr"` // empty disables the endpoint
	Namespace string `yaml:"namespace" koanf:"namespace"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := globe.DefaultOptions()
	file := logger.DefaultFileConfig("")

	return &Config{
		Window: WindowConfig{
			Title:  "Forekaster",
			Width:  1280,
			Height: 640,
			VSync:  true,
		},
		Globe: GlobeConfig{
			Radius:       opts.Scene.Radius,
			InitialPitch: opts.Scene.InitialPitch,
			InitialYaw:   opts.Scene.InitialYaw,
			LonOffset:    opts.Scene.LonOffset,
			LatOffset:    opts.Scene.LatOffset,
			Interactive:  opts.Interactive,
			Camera: CameraConfig{
				FOV:         opts.Camera.FOV,
				Distance:    opts.Camera.Distance,
				Near:        opts.Camera.Near,
				Far:         opts.Camera.Far,
				MinDistance: opts.Camera.MinDistance,
				MaxDistance: opts.Camera.MaxDistance,
				ZoomStep:    opts.Camera.ZoomStep,
			},
			Drag: DragConfig{
				Friction:  opts.Drag.Friction,
				Decay:     opts.Drag.Decay,
				ClickSlop: opts.Drag.ClickSlop,
			},
			Orbit: OrbitConfig{
				Mode:          opts.AutoOrbit.String(),
				MaxSpeed:      math.RadToDeg(opts.Orbit.MaxSpeed),
				Acceleration:  math.RadToDeg(opts.Orbit.Acceleration),
				RestPitch:     math.RadToDeg(opts.Orbit.RestPitch),
				LevelDivisor:  opts.Orbit.LevelDivisor,
				ResumeDelay:   opts.Orbit.ResumeDelay,
				SweepDuration: opts.Orbit.SweepDuration,
				SweepEasing:   opts.Orbit.SweepEasing,
			},
			Visibility: VisibilityConfig{
				AnchorX:     opts.Visibility.AnchorX,
				AnchorY:     opts.Visibility.AnchorY,
				FollowGlobe: opts.Visibility.FollowGlobe,
				RadiusX:     opts.Visibility.RadiusX,
				RadiusY:     opts.Visibility.RadiusY,
				ZIndexScale: opts.Visibility.ZIndexScale,
			},
			Transition: TransitionConfig{
				Duration: opts.Transition.Duration,
				Easing:   opts.Transition.Easing,
			},
		},
		Markers: MarkersConfig{
			SRID: 4326,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAgeDays: file.MaxAgeDays,
		},
		Metrics: MetricsConfig{
			Namespace: "forekaster",
		},
	}
}

// Validate checks every setting and returns all problems at once.
func (c *Config) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	g := c.Globe
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(g.Radius > 0, "globe.radius must be positive, got %v", g.Radius)
	check(g.Camera.FOV > 0 && g.Camera.FOV < 180, "globe.camera.fov %v out of (0, 180)", g.Camera.FOV)
	check(g.Camera.Near > 0 && g.Camera.Far > g.Camera.Near, "globe.camera near/far %v/%v", g.Camera.Near, g.Camera.Far)
	check(g.Camera.MinDistance > g.Radius, "globe.camera.min_distance %v must exceed the radius", g.Camera.MinDistance)
	check(g.Camera.MaxDistance >= g.Camera.MinDistance, "globe.camera.max_distance %v below min_distance", g.Camera.MaxDistance)
	check(g.Drag.Friction > 0, "globe.drag.friction must be positive, got %v", g.Drag.Friction)
	check(g.Drag.Decay >= 0 && g.Drag.Decay < 1, "globe.drag.decay %v out of [0, 1)", g.Drag.Decay)
	check(g.Drag.ClickSlop >= 0, "globe.drag.click_slop must not be negative")
	check(g.Orbit.LevelDivisor > 0, "globe.orbit.level_divisor must be positive, got %v", g.Orbit.LevelDivisor)
	check(g.Orbit.SweepDuration > 0, "globe.orbit.sweep_duration must be positive")
	check(g.Orbit.ResumeDelay >= 0, "globe.orbit.resume_delay must not be negative")
	check(g.Transition.Duration > 0, "globe.transition.duration must be positive")
	check(g.Visibility.RadiusX > 0 && g.Visibility.RadiusY > 0, "globe.visibility radii must be positive")

	if _, err := globe.ParseMode(g.Orbit.Mode); err != nil {
		check(false, "globe.orbit.mode: %v", err)
	}
	for _, name := range []string{g.Orbit.SweepEasing, g.Transition.Easing} {
		_, ok := tween.Easing(name)
		check(ok, "%v %q", tween.ErrUnknownEasing, name)
	}
	return errs
}

// GlobeOptions converts the globe section to component options.
func (c *Config) GlobeOptions() (globe.Options, error) {
	g := c.Globe
	mode, err := globe.ParseMode(g.Orbit.Mode)
	if err != nil {
		return globe.Options{}, err
	}
	return globe.Options{
		Scene: scene.Config{
			Radius:       g.Radius,
			InitialPitch: g.InitialPitch,
			InitialYaw:   g.InitialYaw,
			LonOffset:    g.LonOffset,
			LatOffset:    g.LatOffset,
		},
		Camera: globe.CameraConfig{
			FOV:         g.Camera.FOV,
			Distance:    g.Camera.Distance,
			Near:        g.Camera.Near,
			Far:         g.Camera.Far,
			MinDistance: g.Camera.MinDistance,
			MaxDistance: g.Camera.MaxDistance,
			ZoomStep:    g.Camera.ZoomStep,
		},
		Drag: globe.DragConfig{
			Friction:  g.Drag.Friction,
			Decay:     g.Drag.Decay,
			ClickSlop: g.Drag.ClickSlop,
		},
		Orbit: globe.OrbitConfig{
			MaxSpeed:      math.DegToRad(g.Orbit.MaxSpeed),
			Acceleration:  math.DegToRad(g.Orbit.Acceleration),
			RestPitch:     math.DegToRad(g.Orbit.RestPitch),
			LevelDivisor:  g.Orbit.LevelDivisor,
			ResumeDelay:   g.Orbit.ResumeDelay,
			SweepDuration: g.Orbit.SweepDuration,
			SweepEasing:   g.Orbit.SweepEasing,
		},
		Visibility: globe.VisibilityConfig{
			AnchorX:     g.Visibility.AnchorX,
			AnchorY:     g.Visibility.AnchorY,
			FollowGlobe: g.Visibility.FollowGlobe,
			RadiusX:     g.Visibility.RadiusX,
			RadiusY:     g.Visibility.RadiusY,
			ZIndexScale: g.Visibility.ZIndexScale,
		},
		Transition: globe.TransitionConfig{
			Duration: g.Transition.Duration,
			Easing:   g.Transition.Easing,
		},
		Interactive: g.Interactive,
		AutoOrbit:   mode,
	}, nil
}

// LoggerOptions converts the logging section.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.Options{
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
		Console: true,
	}
	if c.Logging.LogFile != "" {
		opts.File = logger.FileConfig{
			Path:       c.Logging.LogFile,
			MaxSizeMB:  c.Logging.MaxSizeMB,
			MaxBackups: c.Logging.MaxBackups,
			MaxAgeDays: c.Logging.MaxAgeDays,
			Compress:   true,
		}
	}
	return opts
}
