// Package loop drives per-frame callbacks. One Loop runs all simulation for
// a globe: tween steps, drag inertia, orbit, marker layout and rendering.
package loop

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase orders callbacks inside a frame. Lower phases run first; callbacks
// in the same phase run in subscription order.
type Phase int

const (
	// PhaseAnimate runs tween steps.
	PhaseAnimate Phase = iota
	// PhaseSimulate runs controllers, layout and rendering.
	PhaseSimulate
)

// FrameInterval is the nominal frame duration at 60 Hz.
const FrameInterval = time.Second / 60

// Observer receives frame statistics.
type Observer interface {
	FrameDone(d time.Duration)
	FramePanicked()
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered panics.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// WithObserver sets the frame statistics sink.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		l.observer = o
	}
}

type subscription struct {
	id      uint64
	phase   Phase
	fn      func()
	stopped bool
}

// Loop schedules callbacks once per frame. Frame must be called from a
// single goroutine; Start, stop functions and Post may be called from any.
type Loop struct {
	mu     sync.Mutex
	subs   []*subscription
	posted []func()
	nextID uint64
	frames uint64

	log      *zap.Logger
	observer Observer
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start subscribes cb in PhaseSimulate. The returned stop function removes
// the subscription synchronously; calling it again is a no-op.
func (l *Loop) Start(cb func()) (stop func()) {
	return l.StartPhase(PhaseSimulate, cb)
}

// StartPhase subscribes cb in the given phase. A callback subscribed while a
// frame is running first runs on the next frame.
func (l *Loop) StartPhase(phase Phase, cb func()) (stop func()) {
	l.mu.Lock()
	l.nextID++
	s := &subscription{id: l.nextID, phase: phase, fn: cb}
	l.subs = append(l.subs, s)
	sort.SliceStable(l.subs, func(i, j int) bool { return l.subs[i].phase < l.subs[j].phase })
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(s) })
	}
}

func (l *Loop) remove(s *subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.stopped = true
	for i, v := range l.subs {
		if v == s {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return
		}
	}
}

// Post queues fn to run at the start of the next frame, on the frame
// goroutine. It is the only way other goroutines should touch frame state.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Len returns the number of active subscriptions.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// Frames returns how many frames have run.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Frame runs posted work and then every subscription once. A panic in one
// callback aborts only that callback for this frame.
func (l *Loop) Frame() {
	start := time.Now()

	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	subs := make([]*subscription, len(l.subs))
	copy(subs, l.subs)
	l.frames++
	frame := l.frames
	l.mu.Unlock()

	for _, fn := range posted {
		l.call(frame, 0, fn)
	}
	for _, s := range subs {
		l.mu.Lock()
		stopped := s.stopped
		l.mu.Unlock()
		if stopped {
			continue
		}
		l.call(frame, s.id, s.fn)
	}

	if l.observer != nil {
		l.observer.FrameDone(time.Since(start))
	}
}

func (l *Loop) call(frame, id uint64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("frame callback panicked",
				zap.Uint64("frame", frame),
				zap.Uint64("subscription", id),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"))
			if l.observer != nil {
				l.observer.FramePanicked()
			}
		}
	}()
	fn()
}

// Run calls Frame every interval on the calling goroutine until ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = FrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Frame()
		}
	}
}
