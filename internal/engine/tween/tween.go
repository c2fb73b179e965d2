// Package tween animates named numeric properties frame by frame.
//
// Each property runs as its own job subscribed to a frame scheduler. Jobs
// advance by a fixed nominal 1000/60 ms per frame, so results depend only on
// the number of frames, not on wall time. Animate and Cancel must be called
// on the frame goroutine. Starting a new animation on a
// property that is already animating supersedes the running job: the old
// job stops without calling OnFinish and the new one takes over from the
// current value.
package tween

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/forekaster/internal/engine/loop"
)

// DefaultDuration applies when neither the property nor the common config
// names a duration.
const DefaultDuration = time.Second

var (
	// ErrUnknownProperty is returned when the target has no such property.
	ErrUnknownProperty = errors.New("tween: unknown property")
	// ErrUnknownEasing is returned for a curve name outside the table.
	ErrUnknownEasing = errors.New("tween: unknown easing")
	// ErrEmptyTrack is returned for a property with no configs.
	ErrEmptyTrack = errors.New("tween: empty track")
	// ErrCancelled is reported by Wait after Cancel.
	ErrCancelled = errors.New("tween: cancelled")
	// ErrSuperseded is reported by Wait when a later animation took over
	// one of the properties before it finished.
	ErrSuperseded = errors.New("tween: superseded")
)

// Target exposes named numeric properties. Implementations must be
// comparable (normally a pointer) because running jobs are keyed by target.
type Target interface {
	Get(prop string) (float64, bool)
	Set(prop string, v float64)
}

// Fields adapts a set of float64 variables to Target.
type Fields struct {
	vars map[string]*float64
}

// NewFields creates a Target over the given variables.
func NewFields(vars map[string]*float64) *Fields {
	return &Fields{vars: vars}
}

// Get returns the current value of prop.
func (f *Fields) Get(prop string) (float64, bool) {
	p, ok := f.vars[prop]
	if !ok {
		return 0, false
	}
	return *p, true
}

// Set writes prop.
func (f *Fields) Set(prop string, v float64) {
	if p, ok := f.vars[prop]; ok {
		*p = v
	}
}

// Config describes one interpolation segment of a property.
type Config struct {
	// From is the start value. Nil means the property's value when the
	// segment begins.
	From *float64
	To   float64

	// Zero values fall back to the common config.
	Duration time.Duration
	Delay    time.Duration
	Easing   string

	OnChange func(v float64)
	OnFinish func()
}

// Track is an ordered chain of segments for one property. Each segment
// starts from where the previous one ended.
type Track []Config

// To is shorthand for a single-segment track.
func To(v float64) Track {
	return Track{{To: v}}
}

// From returns a pointer for Config.From.
func From(v float64) *float64 {
	return &v
}

// Common holds defaults for every property in one Animate call.
type Common struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   string

	// OnFinish runs once every property has finished. It does not run if
	// the animation is cancelled or any property is superseded.
	OnFinish func()
}

// Scheduler is the frame source jobs subscribe to.
type Scheduler interface {
	StartPhase(phase loop.Phase, cb func()) (stop func())
}

// Observer receives the number of running jobs after every change.
type Observer interface {
	TweensActive(n int)
}

type jobKey struct {
	target Target
	prop   string
}

// Engine starts and tracks property jobs.
type Engine struct {
	sched    Scheduler
	log      *zap.Logger
	observer Observer

	mu     sync.Mutex
	active map[jobKey]*job
}

// NewEngine creates an engine stepping on sched.
func NewEngine(sched Scheduler, log *zap.Logger, obs Observer) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		sched:    sched,
		log:      log,
		observer: obs,
		active:   make(map[jobKey]*job),
	}
}

// Active returns the number of running jobs.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Animating reports whether prop on target has a running job.
func (e *Engine) Animating(target Target, prop string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[jobKey{target, prop}]
	return ok
}

// Animate starts one job per property. All properties run concurrently;
// the returned Animation completes when all of them have finished.
func (e *Engine) Animate(target Target, props map[string]Track, common Common) (*Animation, error) {
	resolved := make(map[string][]segment, len(props))
	for prop, track := range props {
		if _, ok := target.Get(prop); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, prop)
		}
		if len(track) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyTrack, prop)
		}
		segs := make([]segment, len(track))
		for i, cfg := range track {
			seg, err := resolve(cfg, common)
			if err != nil {
				return nil, fmt.Errorf("property %q segment %d: %w", prop, i, err)
			}
			segs[i] = seg
		}
		resolved[prop] = segs
	}

	a := &Animation{
		done:     make(chan struct{}),
		pending:  len(resolved),
		onFinish: common.OnFinish,
	}
	if a.pending == 0 {
		a.settle(nil)
		return a, nil
	}

	for prop, segs := range resolved {
		j := &job{engine: e, anim: a, key: jobKey{target, prop}, segs: segs}
		a.jobs = append(a.jobs, j)
		e.install(j)
	}
	return a, nil
}

func (e *Engine) install(j *job) {
	e.mu.Lock()
	prev := e.active[j.key]
	e.active[j.key] = j
	n := len(e.active)
	e.mu.Unlock()

	if prev != nil {
		e.log.Debug("tween superseded", zap.String("property", j.key.prop))
		prev.halt(ErrSuperseded)
	}
	j.stop = e.sched.StartPhase(loop.PhaseAnimate, j.step)
	e.report(n)
}

// release removes j from the active set if it is still the owner.
func (e *Engine) release(j *job) {
	e.mu.Lock()
	if e.active[j.key] == j {
		delete(e.active, j.key)
	}
	n := len(e.active)
	e.mu.Unlock()
	e.report(n)
}

func (e *Engine) report(n int) {
	if e.observer != nil {
		e.observer.TweensActive(n)
	}
}

type segment struct {
	from     *float64
	to       float64
	duration time.Duration
	delay    time.Duration
	ease     EasingFunc
	onChange func(float64)
	onFinish func()
}

func resolve(cfg Config, common Common) (segment, error) {
	name := cfg.Easing
	if name == "" {
		name = common.Easing
	}
	ease, ok := Easing(name)
	if !ok {
		return segment{}, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
	duration := cfg.Duration
	if duration <= 0 {
		duration = common.Duration
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = common.Delay
	}
	return segment{
		from:     cfg.From,
		to:       cfg.To,
		duration: duration,
		delay:    delay,
		ease:     ease,
		onChange: cfg.OnChange,
		onFinish: cfg.OnFinish,
	}, nil
}

type job struct {
	engine *Engine
	anim   *Animation
	key    jobKey
	segs   []segment
	stop   func()

	idx    int
	frames int
	from   float64
	begun  bool
	halted bool
}

// elapsed is derived from the frame count so that whole durations land
// exactly on t = 1.
func (j *job) elapsed() float64 {
	return float64(j.frames) * 1000 / 60
}

func (j *job) step() {
	if j.halted {
		return
	}
	seg := &j.segs[j.idx]

	j.frames++
	delayMs := float64(seg.delay) / float64(time.Millisecond)
	if j.elapsed() < delayMs {
		return
	}
	if !j.begun {
		j.begun = true
		if seg.from != nil {
			j.from = *seg.from
		} else {
			j.from, _ = j.key.target.Get(j.key.prop)
		}
	}

	durationMs := float64(seg.duration) / float64(time.Millisecond)
	t := (j.elapsed() - delayMs) / durationMs
	if t > 1 {
		t = 1
	}
	v := j.from + seg.ease(t)*(seg.to-j.from)
	if t == 1 {
		v = seg.to
	}
	j.key.target.Set(j.key.prop, v)
	if seg.onChange != nil {
		seg.onChange(v)
	}
	if t < 1 {
		return
	}

	if j.idx == len(j.segs)-1 {
		j.halted = true
		j.stop()
		j.engine.release(j)
		if seg.onFinish != nil {
			seg.onFinish()
		}
		j.anim.settle(nil)
		return
	}

	if seg.onFinish != nil {
		seg.onFinish()
	}
	if j.halted {
		// onFinish started a replacement for this property.
		return
	}
	j.idx++
	j.frames, j.begun = 0, false
}

// halt stops the job early with reason.
func (j *job) halt(reason error) {
	if j.halted {
		return
	}
	j.halted = true
	if j.stop != nil {
		j.stop()
	}
	j.engine.release(j)
	j.anim.settle(reason)
}

// Animation is the handle for one Animate call.
type Animation struct {
	mu       sync.Mutex
	jobs     []*job
	pending  int
	err      error
	onFinish func()
	done     chan struct{}
}

func (a *Animation) settle(reason error) {
	a.mu.Lock()
	if reason != nil && a.err == nil {
		a.err = reason
	}
	if a.pending > 0 {
		a.pending--
	}
	finished := a.pending == 0
	err := a.err
	a.mu.Unlock()

	if !finished {
		return
	}
	if err == nil && a.onFinish != nil {
		a.onFinish()
	}
	close(a.done)
}

// Done is closed once every property has finished, been superseded or been
// cancelled.
func (a *Animation) Done() <-chan struct{} {
	return a.done
}

// Err reports why the animation ended early, or nil.
func (a *Animation) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Wait blocks until Done or ctx is cancelled.
func (a *Animation) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops every still-running property where it is. Properties keep
// their current values and no OnFinish callbacks run.
func (a *Animation) Cancel() {
	a.mu.Lock()
	jobs := append([]*job(nil), a.jobs...)
	a.mu.Unlock()
	for _, j := range jobs {
		j.halt(ErrCancelled)
	}
}
