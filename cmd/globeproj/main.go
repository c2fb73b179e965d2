// globeproj runs the globe headless and prints where markers land on screen.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Faultbox/forekaster/internal/config"
	"github.com/Faultbox/forekaster/internal/engine/loop"
	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/internal/engine/tween"
	"github.com/Faultbox/forekaster/internal/globe"
	"github.com/Faultbox/forekaster/internal/logger"
	"github.com/Faultbox/forekaster/internal/markers"
	"github.com/Faultbox/forekaster/internal/overlay"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(os.Stdout, args)
	case "project", "p":
		err = cmdProject(os.Stdout, args)
	case "pick":
		err = cmdPick(os.Stdout, args)
	case "easings":
		for _, name := range tween.EasingNames() {
			fmt.Println(name)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`globeproj - headless globe projection utility

Usage:
  globeproj <command> [options]

Commands:
  info <markers>                 Validate a marker file and summarize it
  project [flags] <markers>      Run frames and print projected markers as JSON lines
  pick [flags] <x> <y>           Print the lat/lon under a pixel
  easings                        List easing curve names

Examples:
  globeproj info cities.json
  globeproj project -frames 120 -target 48.85,2.35 cities.json
  globeproj project -orbit fast -every 30 -visible places.geojson
  globeproj pick -target 0,0 400 200`)
}

// headless is a surface without a GPU.
type headless struct {
	width, height int
}

func (h headless) Size() (int, int) { return h.width, h.height }

func (h headless) NewRenderer() (scene.Renderer, error) { return nil, nil }

// runFlags are shared by project and pick.
type runFlags struct {
	configPath string
	width      int
	height     int
	frames     int
	orbit      string
	target     string
	zoom       float64
	srid       int
	realtime   bool
}

func (f *runFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Config file for globe tuning")
	fs.IntVar(&f.width, "width", 800, "Viewport width")
	fs.IntVar(&f.height, "height", 400, "Viewport height")
	fs.IntVar(&f.frames, "frames", 60, "Frames to run")
	fs.StringVar(&f.orbit, "orbit", "off", "Orbit mode: off, slow or fast")
	fs.StringVar(&f.target, "target", "", "Center on lat,lon")
	fs.Float64Var(&f.zoom, "zoom", 0, "Zoom level")
	fs.IntVar(&f.srid, "srid", 4326, "CRS of GeoJSON coordinates")
	fs.BoolVar(&f.realtime, "realtime", false, "Pace frames at 60 Hz instead of running them back to back")
}

// session is a mounted headless globe.
type session struct {
	loop  *loop.Loop
	globe *globe.Globe
}

func newSession(f *runFlags, list []markers.Marker) (*session, error) {
	opts := globe.DefaultOptions()
	if f.configPath != "" {
		cfg, err := config.LoadFile(f.configPath)
		if err != nil {
			return nil, err
		}
		if opts, err = cfg.GlobeOptions(); err != nil {
			return nil, err
		}
	}

	mode, err := globe.ParseMode(f.orbit)
	if err != nil {
		return nil, err
	}
	opts.AutoOrbit = mode

	s := &session{loop: loop.New(loop.WithLogger(logger.Named("loop")))}
	s.globe = globe.New(opts, globe.Callbacks{}, globe.Deps{
		Loop:    s.loop,
		Overlay: overlay.NewLayer(),
		Logger:  logger.Named("globe"),
	})
	if err := s.globe.SetMarkers(list); err != nil {
		return nil, err
	}
	if f.target != "" {
		lat, lon, err := parseLatLon(f.target)
		if err != nil {
			return nil, err
		}
		if err := s.globe.SetTarget(lat, lon); err != nil {
			return nil, err
		}
	}
	if f.zoom != 0 {
		if err := s.globe.SetZoom(f.zoom); err != nil {
			return nil, err
		}
	}
	if err := s.globe.Mount(headless{f.width, f.height}); err != nil {
		return nil, err
	}
	return s, nil
}

// run steps n frames, calling after each one with the 1-based frame number.
func (s *session) run(n int, realtime bool, after func(frame int)) error {
	frame := 0
	stop := s.loop.Start(func() {
		frame++
		if after != nil {
			after(frame)
		}
	})
	defer stop()

	if !realtime {
		for i := 0; i < n; i++ {
			s.loop.Frame()
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer s.loop.Start(func() {
		if frame >= n {
			cancel()
		}
	})()
	if err := s.loop.Run(ctx, loop.FrameInterval); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	return lat, lon, nil
}

func cmdInfo(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	srid := fs.Int("srid", 4326, "CRS of GeoJSON coordinates")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: globeproj info <markers>")
	}
	list, err := markers.LoadFile(fs.Arg(0), *srid)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "File:    %s\n", fs.Arg(0))
	fmt.Fprintf(w, "Markers: %d\n", len(list))
	if len(list) == 0 {
		return nil
	}

	minLat, maxLat, minLon, maxLon := 90.0, -90.0, 180.0, -180.0
	countries := make(map[string]int)
	for _, m := range list {
		minLat, maxLat = min(minLat, m.Lat), max(maxLat, m.Lat)
		minLon, maxLon = min(minLon, m.Lon), max(maxLon, m.Lon)
		if c, ok := m.Data["country"].(string); ok {
			countries[c]++
		}
	}
	fmt.Fprintf(w, "Bounds:  lat %.3f..%.3f, lon %.3f..%.3f\n", minLat, maxLat, minLon, maxLon)

	if len(countries) == 0 {
		return nil
	}
	type stat struct {
		name  string
		count int
	}
	var stats []stat
	for name, count := range countries {
		stats = append(stats, stat{name, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].name < stats[j].name
	})
	fmt.Fprintln(w, "\nMarkers by country:")
	for _, s := range stats {
		fmt.Fprintf(w, "  %-20s %d\n", s.name, s.count)
	}
	return nil
}

// record is one JSON line of project output.
type record struct {
	Frame   int     `json:"frame"`
	ID      string  `json:"id"`
	Label   string  `json:"label,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	ZIndex  int     `json:"zIndex"`
	Visible bool    `json:"visible"`
}

func cmdProject(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	var f runFlags
	f.register(fs)
	every := fs.Int("every", 0, "Print every N frames (0 = last frame only)")
	visibleOnly := fs.Bool("visible", false, "Only print visible markers")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: globeproj project [flags] <markers>")
	}
	list, err := markers.LoadFile(fs.Arg(0), f.srid)
	if err != nil {
		return err
	}
	s, err := newSession(&f, list)
	if err != nil {
		return err
	}
	defer s.globe.Unmount()

	enc := json.NewEncoder(w)
	var encErr error
	emit := func(frame int) {
		for _, m := range list {
			p, ok := s.globe.Projected(m.ID)
			if !ok || (*visibleOnly && !p.Visible) {
				continue
			}
			if encErr == nil {
				encErr = enc.Encode(record{
					Frame: frame, ID: m.ID, Label: m.Label,
					X: p.X, Y: p.Y, Z: p.Z, ZIndex: p.ZIndex, Visible: p.Visible,
				})
			}
		}
	}

	err = s.run(f.frames, f.realtime, func(frame int) {
		if (*every > 0 && frame%*every == 0) || frame == f.frames {
			emit(frame)
		}
	})
	if err != nil {
		return err
	}
	return encErr
}

func cmdPick(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	var f runFlags
	f.register(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: globeproj pick [flags] <x> <y>")
	}
	x, err := strconv.ParseFloat(fs.Arg(0), 64)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}

	s, err := newSession(&f, nil)
	if err != nil {
		return err
	}
	defer s.globe.Unmount()
	if err := s.run(f.frames, f.realtime, nil); err != nil {
		return err
	}

	lat, lon, ok := s.globe.PickLatLon(x, y)
	if !ok {
		fmt.Fprintf(w, "(%g, %g) misses the globe\n", x, y)
		return nil
	}
	fmt.Fprintf(w, "%.6f,%.6f\n", lat, lon)
	return nil
}
