// Package metrics exposes Prometheus metrics for the globe frame loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithFrameBuckets sets histogram buckets (seconds) for frame duration.
func WithFrameBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.frameBuckets = buckets
		}
	}
}

// WithRegistry registers metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// Manager owns the globe metrics. A nil *Manager is valid and records nothing.
type Manager struct {
	namespace    string
	subsystem    string
	frameBuckets []float64
	registry     *prometheus.Registry

	frames        prometheus.Counter
	frameDuration prometheus.Histogram
	framePanics   prometheus.Counter
	visible       prometheus.Gauge
	tweens        prometheus.Gauge
	drags         prometheus.Counter
	sweeps        prometheus.Counter
}

// NewManager creates a manager with its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "forekaster",
		subsystem:    "globe",
		frameBuckets: []float64{0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.init()
	return m
}

func (m *Manager) init() {
	auto := promauto.With(m.registry)

	m.frames = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_total",
		Help:      "Frames executed by the render loop",
	})
	m.frameDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_duration_seconds",
		Help:      "Wall time spent running all frame callbacks",
		Buckets:   m.frameBuckets,
	})
	m.framePanics = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_panics_total",
		Help:      "Frame callbacks aborted by a recovered panic",
	})
	m.visible = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "markers_visible",
		Help:      "Markers inside the visibility ellipse on the camera-facing hemisphere",
	})
	m.tweens = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tweens_active",
		Help:      "Property tweens currently running",
	})
	m.drags = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "drag_sessions_total",
		Help:      "Drag sessions started by pointer or touch input",
	})
	m.sweeps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "orbit_sweeps_total",
		Help:      "Full-revolution fast orbit sweeps started",
	})
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FrameDone records one completed frame.
func (m *Manager) FrameDone(d time.Duration) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.frameDuration.Observe(d.Seconds())
}

// FramePanicked records a recovered frame callback panic.
func (m *Manager) FramePanicked() {
	if m == nil {
		return
	}
	m.framePanics.Inc()
}

// MarkersVisible sets the visible marker count.
func (m *Manager) MarkersVisible(n int) {
	if m == nil {
		return
	}
	m.visible.Set(float64(n))
}

// TweensActive sets the running tween count.
func (m *Manager) TweensActive(n int) {
	if m == nil {
		return
	}
	m.tweens.Set(float64(n))
}

// DragStarted counts a drag session.
func (m *Manager) DragStarted() {
	if m == nil {
		return
	}
	m.drags.Inc()
}

// SweepStarted counts a fast orbit sweep.
func (m *Manager) SweepStarted() {
	if m == nil {
		return
	}
	m.sweeps.Inc()
}
