package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/forekaster/internal/globe"
	"github.com/Faultbox/forekaster/pkg/math"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Geometry and camera
	if cfg.Globe.Radius != 10 {
		t.Errorf("expected radius 10, got %v", cfg.Globe.Radius)
	}
	if cfg.Globe.Camera.FOV != 20 || cfg.Globe.Camera.Distance != 60 {
		t.Errorf("unexpected camera %+v", cfg.Globe.Camera)
	}
	if cfg.Globe.InitialPitch != 30 || cfg.Globe.InitialYaw != -100 {
		t.Errorf("unexpected initial rotation %v/%v", cfg.Globe.InitialPitch, cfg.Globe.InitialYaw)
	}

	// Interaction
	if cfg.Globe.Drag.Friction != 1000 || cfg.Globe.Drag.Decay != 0.9 {
		t.Errorf("unexpected drag %+v", cfg.Globe.Drag)
	}
	if cfg.Globe.Orbit.Mode != "slow" {
		t.Errorf("expected orbit mode slow, got %s", cfg.Globe.Orbit.Mode)
	}
	if cfg.Globe.Orbit.ResumeDelay != 15*time.Second {
		t.Errorf("expected resume delay 15s, got %v", cfg.Globe.Orbit.ResumeDelay)
	}

	// Logging
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestDefaultMatchesGlobeOptions(t *testing.T) {
	opts, err := Default().GlobeOptions()
	if err != nil {
		t.Fatal(err)
	}
	want := globe.DefaultOptions()

	if opts.Scene != want.Scene || opts.Camera != want.Camera || opts.Drag != want.Drag {
		t.Errorf("geometry mismatch:\n got %+v\nwant %+v", opts, want)
	}
	if opts.Visibility != want.Visibility || opts.Transition != want.Transition {
		t.Errorf("visibility/transition mismatch")
	}
	if opts.AutoOrbit != want.AutoOrbit || opts.Interactive != want.Interactive {
		t.Errorf("mode mismatch: %v %v", opts.AutoOrbit, opts.Interactive)
	}
	const tol = 1e-15
	if d := opts.Orbit.MaxSpeed - want.Orbit.MaxSpeed; d > tol || d < -tol {
		t.Errorf("max speed %v, want %v", opts.Orbit.MaxSpeed, want.Orbit.MaxSpeed)
	}
	if d := opts.Orbit.RestPitch - math.DegToRad(30); d > tol || d < -tol {
		t.Errorf("rest pitch %v", opts.Orbit.RestPitch)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  fullscreen: true

globe:
  radius: 12
  camera:
    fov: 25
  drag:
    friction: 800
  orbit:
    mode: fast
    resume_delay: 5s

markers:
  file: "cities.json"

logging:
  level: "debug"
  log_file: "globe.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 || !cfg.Window.Fullscreen {
		t.Errorf("unexpected window %+v", cfg.Window)
	}
	if cfg.Globe.Radius != 12 || cfg.Globe.Camera.FOV != 25 {
		t.Errorf("unexpected globe %+v", cfg.Globe)
	}
	// Unset keys keep their defaults.
	if cfg.Globe.Camera.Distance != 60 {
		t.Errorf("expected default distance 60, got %v", cfg.Globe.Camera.Distance)
	}
	if cfg.Globe.Drag.Friction != 800 || cfg.Globe.Drag.Decay != 0.9 {
		t.Errorf("unexpected drag %+v", cfg.Globe.Drag)
	}
	if cfg.Globe.Orbit.Mode != "fast" || cfg.Globe.Orbit.ResumeDelay != 5*time.Second {
		t.Errorf("unexpected orbit %+v", cfg.Globe.Orbit)
	}
	if cfg.Markers.File != "cities.json" || cfg.Markers.SRID != 4326 {
		t.Errorf("unexpected markers %+v", cfg.Markers)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "globe.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
window:
  width: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := load(configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FORECAST_GLOBE__DRAG__FRICTION", "1500")
	t.Setenv("FORECAST_GLOBE__ORBIT__SWEEP_DURATION", "4s")
	t.Setenv("FORECAST_LOGGING__LEVEL", "warn")

	cfg, err := load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Globe.Drag.Friction != 1500 {
		t.Errorf("friction = %v, want 1500", cfg.Globe.Drag.Friction)
	}
	if cfg.Globe.Orbit.SweepDuration != 4*time.Second {
		t.Errorf("sweep duration = %v, want 4s", cfg.Globe.Orbit.SweepDuration)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s, want warn", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("globe:\n  radius: 8\n  drag:\n    decay: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORECAST_GLOBE__RADIUS", "9")

	cfg, err := load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Globe.Radius != 9 {
		t.Errorf("radius = %v, want 9 from env", cfg.Globe.Radius)
	}
	if cfg.Globe.Drag.Decay != 0.5 {
		t.Errorf("decay = %v, want 0.5 from file", cfg.Globe.Drag.Decay)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero radius", func(c *Config) { c.Globe.Radius = 0 }},
		{"negative friction", func(c *Config) { c.Globe.Drag.Friction = -1 }},
		{"decay of one", func(c *Config) { c.Globe.Drag.Decay = 1 }},
		{"zero sweep", func(c *Config) { c.Globe.Orbit.SweepDuration = 0 }},
		{"unknown mode", func(c *Config) { c.Globe.Orbit.Mode = "warp" }},
		{"unknown easing", func(c *Config) { c.Globe.Transition.Easing = "wobble" }},
		{"camera inside globe", func(c *Config) { c.Globe.Camera.MinDistance = 5 }},
		{"zero window", func(c *Config) { c.Window.Width = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Globe.Radius = 0
	cfg.Globe.Drag.Friction = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	if got := len(multierr.Errors(err)); got < 2 {
		t.Errorf("expected at least 2 errors, got %d: %v", got, err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Globe.Orbit.Mode = "fast"
	cfg.Globe.Orbit.ResumeDelay = 3 * time.Second
	cfg.Markers.File = "places.geojson"

	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Globe.Orbit.Mode != "fast" || loaded.Globe.Orbit.ResumeDelay != 3*time.Second {
		t.Errorf("orbit not preserved: %+v", loaded.Globe.Orbit)
	}
	if loaded.Markers.File != "places.geojson" {
		t.Errorf("markers not preserved: %+v", loaded.Markers)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "forekaster.yaml")
	if err := os.WriteFile(configPath, []byte("window:\n  width: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	if path := findConfigFile(); path == "" {
		t.Error("expected to find forekaster.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Window.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Window.Width != 2560 || cfg.Window.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Window.Width, cfg.Window.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "orbit flag",
			setup: func() { *flagOrbit = "off" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Globe.Orbit.Mode != "off" {
					t.Errorf("expected orbit off, got %s", cfg.Globe.Orbit.Mode)
				}
			},
			teardown: func() { *flagOrbit = "" },
		},
		{
			name: "markers and metrics flags",
			setup: func() {
				*flagMarkers = "cities.json"
				*flagMetricsAddr = ":9100"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Markers.File != "cities.json" || cfg.Metrics.Addr != ":9100" {
					t.Errorf("unexpected markers/metrics %+v %+v", cfg.Markers, cfg.Metrics)
				}
			},
			teardown: func() {
				*flagMarkers = ""
				*flagMetricsAddr = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1600
  height: 900
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag (1920), not file (1600)
	if cfg.Window.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Window.Width)
	}

	// Height should be from file (900) since no flag override
	if cfg.Window.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Window.Height)
	}
}

func TestLoggerOptions(t *testing.T) {
	cfg := Default()
	if opts := cfg.LoggerOptions(); opts.File.Path != "" || !opts.Console {
		t.Errorf("default logger options %+v", opts)
	}
	cfg.Logging.LogFile = "out.log"
	if opts := cfg.LoggerOptions(); opts.File.Path != "out.log" || opts.File.MaxSizeMB != 50 {
		t.Errorf("file logger options %+v", opts.File)
	}
}
