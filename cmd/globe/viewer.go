package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/forekaster/internal/config"
	"github.com/Faultbox/forekaster/internal/engine/input"
	"github.com/Faultbox/forekaster/internal/engine/loop"
	"github.com/Faultbox/forekaster/internal/engine/renderer"
	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/internal/engine/texture"
	"github.com/Faultbox/forekaster/internal/engine/window"
	"github.com/Faultbox/forekaster/internal/globe"
	"github.com/Faultbox/forekaster/internal/logger"
	"github.com/Faultbox/forekaster/internal/markers"
	"github.com/Faultbox/forekaster/internal/metrics"
	"github.com/Faultbox/forekaster/internal/overlay"
)

// surface adapts the SDL window to globe.Surface.
type surface struct {
	win  *window.Window
	cfg  renderer.Config
	pins renderer.Pins
}

func (s *surface) Size() (int, int) {
	return s.win.Size()
}

func (s *surface) NewRenderer() (scene.Renderer, error) {
	r, err := renderer.New(s.cfg, s.pins)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// viewer owns the window and drives the frame loop.
type viewer struct {
	cfg     *config.Config
	win     *window.Window
	input   *input.Input
	loop    *loop.Loop
	layer   *overlay.Layer
	globe   *globe.Globe
	metrics *metrics.Manager
	server  *http.Server

	pointerX, pointerY float64
	zoom               float64
	running            bool
}

func newViewer(cfg *config.Config) (*viewer, error) {
	opts, err := cfg.GlobeOptions()
	if err != nil {
		return nil, err
	}

	v := &viewer{
		cfg:     cfg,
		input:   input.New(),
		layer:   overlay.NewLayer(),
		metrics: metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace)),
	}
	v.loop = loop.New(loop.WithLogger(logger.Named("loop")), loop.WithObserver(v.metrics))

	list, err := loadMarkers(cfg.Markers)
	if err != nil {
		return nil, err
	}

	v.win, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	tex, err := loadTexture(cfg.Window.Texture)
	if err != nil {
		v.win.Close()
		return nil, err
	}
	rcfg := renderer.DefaultConfig(opts.Scene.Radius)
	rcfg.Texture = tex

	v.globe = globe.New(opts, v.callbacks(), globe.Deps{
		Loop:    v.loop,
		Input:   v.input.Dispatcher,
		Overlay: v.layer,
		Metrics: v.metrics,
		Logger:  logger.Named("globe"),
	})

	for _, m := range list {
		v.layer.Mount(m.ID, m.Label)
	}
	if err := v.globe.SetMarkers(list); err != nil {
		logger.Warn("some markers were skipped", zap.Error(err))
	}
	if err := v.globe.Mount(&surface{win: v.win, cfg: rcfg, pins: v.layer}); err != nil {
		v.win.Close()
		return nil, fmt.Errorf("mounting globe: %w", err)
	}

	v.input.Listen(input.KindKeyDown, v.onKey)
	v.input.Listen(input.KindWheel, v.onWheel)
	v.input.Listen(input.KindPointerMove, func(e input.Event) {
		v.pointerX, v.pointerY = e.X, e.Y
	})

	if addr := cfg.Metrics.Addr; addr != "" {
		v.serveMetrics(addr)
	}
	return v, nil
}

func loadMarkers(cfg config.MarkersConfig) ([]markers.Marker, error) {
	if cfg.File == "" {
		return nil, nil
	}
	list, err := markers.LoadFile(cfg.File, cfg.SRID)
	if err != nil {
		return nil, err
	}
	logger.Info("markers loaded", zap.String("file", cfg.File), zap.Int("count", len(list)))
	return list, nil
}

func loadTexture(path string) (*image.RGBA, error) {
	if path == "" {
		return texture.Placeholder(2048, 15), nil
	}
	img, err := texture.Load(path, texture.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("loading texture: %w", err)
	}
	return img, nil
}

func (v *viewer) callbacks() globe.Callbacks {
	return globe.Callbacks{
		OnDragStart: func() { logger.Debug("drag started") },
		OnDragStop:  func() { logger.Debug("drag stopped") },
		OnMarkerClick: func(m markers.Marker) {
			logger.Info("marker clicked", zap.String("id", m.ID), zap.String("label", m.Label))
			center(v.globe, m.Lat, m.Lon)
		},
		OnMarkerHover: func(m markers.Marker) {
			v.win.SetTitle(fmt.Sprintf("%s - %s", v.cfg.Window.Title, m.Label))
		},
		OnMarkerUnhover: func(markers.Marker) {
			v.win.SetTitle(v.cfg.Window.Title)
		},
		GetMarkerInfo: markerInfo,
		OnMarkerInfo: func(m markers.Marker, info globe.Info) {
			v.win.SetTitle(fmt.Sprintf("%s - %s", v.cfg.Window.Title, info.Content))
		},
	}
}

// center targets (lat, lon) and logs when the globe rejects it.
func center(g *globe.Globe, lat, lon float64) bool {
	if err := g.SetTarget(lat, lon); err != nil {
		logger.Warn("centering", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		return false
	}
	return true
}

// markerInfo describes a marker from its own data.
func markerInfo(ctx context.Context, m markers.Marker) (globe.Info, error) {
	if err := ctx.Err(); err != nil {
		return globe.Info{}, err
	}
	parts := []string{m.Label}
	if country, ok := m.Data["country"].(string); ok && country != "" {
		parts = append(parts, country)
	}
	parts = append(parts, fmt.Sprintf("%.2f, %.2f", m.Lat, m.Lon))
	return globe.Info{Content: strings.Join(parts, " | "), Count: len(m.Data)}, nil
}

func (v *viewer) onKey(e input.Event) {
	switch e.Key {
	case sdl.K_ESCAPE:
		v.running = false
	case sdl.K_o:
		next := (v.globe.Orbit().Mode() + 1) % 3
		v.globe.SetAutoOrbit(next)
	case sdl.K_i:
		v.globe.SetInteractive(!v.globe.Interactive())
	case sdl.K_t:
		// Center whatever lies under the pointer.
		if lat, lon, ok := v.globe.PickLatLon(v.pointerX, v.pointerY); ok {
			if center(v.globe, lat, lon) {
				logger.Info("centering", zap.Float64("lat", lat), zap.Float64("lon", lon))
			}
		}
	case sdl.K_EQUALS, sdl.K_PLUS, sdl.K_KP_PLUS:
		v.setZoom(v.zoom + 1)
	case sdl.K_MINUS, sdl.K_KP_MINUS:
		v.setZoom(v.zoom - 1)
	case sdl.K_0:
		v.setZoom(0)
	}
}

func (v *viewer) onWheel(e input.Event) {
	v.setZoom(v.zoom + e.WheelY)
}

func (v *viewer) setZoom(z float64) {
	v.zoom = z
	if err := v.globe.SetZoom(z); err != nil {
		logger.Warn("zoom", zap.Error(err))
	}
}

func (v *viewer) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", v.metrics.Handler())
	v.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := v.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
}

// Run processes input, steps the frame loop and presents until quit.
func (v *viewer) Run() error {
	v.running = true

	var frameBudget time.Duration
	if limit := v.cfg.Window.FPSLimit; limit > 0 {
		frameBudget = time.Second / time.Duration(limit)
	}

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")

	for v.running {
		start := time.Now()

		// 1. Process input
		w, h := v.win.Size()
		if v.input.Update(w, h) {
			break
		}

		// 2. Animate, simulate and render
		v.loop.Frame()

		// 3. Present
		v.win.SwapBuffers()

		if frameBudget > 0 {
			if rest := frameBudget - time.Since(start); rest > 0 {
				time.Sleep(rest)
			}
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount), zap.Int("tweens", v.globe.Tweens().Active()))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close unmounts the globe and releases the window.
func (v *viewer) Close() {
	if err := v.globe.Unmount(); err != nil {
		logger.Warn("unmounting globe", zap.Error(err))
	}
	if v.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		v.server.Shutdown(ctx)
	}
	v.win.Close()
}
