// Package input turns SDL2 events into pointer events and fans them out to
// window-level listeners.
package input

import (
	"sync"

	"github.com/veandco/go-sdl2/sdl"
)

// Kind identifies an event type.
type Kind int

const (
	KindNone Kind = iota
	KindQuit
	KindResize
	KindKeyDown
	KindPointerDown
	KindPointerMove
	KindPointerUp
	KindWheel
)

// MousePointer is the pointer id of the mouse. Touch fingers use their SDL
// finger id plus one.
const MousePointer int64 = 0

// touchMouseID marks mouse events SDL synthesizes from touches.
const touchMouseID = ^uint32(0)

// Event represents a processed input event.
type Event struct {
	Kind Kind

	// Pointer identifies the mouse or a touch finger.
	Pointer int64
	X, Y    float64

	// WheelY is positive when scrolling away from the user.
	WheelY float64

	Width  int
	Height int

	Key sdl.Keycode
}

// Translate converts an SDL event. width and height are the window size,
// used to scale normalized touch coordinates to pixels. The second result
// is false for events that carry nothing for the globe.
func Translate(event sdl.Event, width, height int) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Kind: KindQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Kind: KindResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			return Event{Kind: KindKeyDown, Key: e.Keysym.Sym}, true
		}

	case *sdl.MouseMotionEvent:
		if e.Which == touchMouseID {
			return Event{}, false
		}
		return Event{Kind: KindPointerMove, Pointer: MousePointer, X: float64(e.X), Y: float64(e.Y)}, true

	case *sdl.MouseButtonEvent:
		if e.Which == touchMouseID || e.Button != sdl.BUTTON_LEFT {
			return Event{}, false
		}
		kind := KindPointerUp
		if e.Type == sdl.MOUSEBUTTONDOWN {
			kind = KindPointerDown
		}
		return Event{Kind: kind, Pointer: MousePointer, X: float64(e.X), Y: float64(e.Y)}, true

	case *sdl.MouseWheelEvent:
		y := float64(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		return Event{Kind: KindWheel, WheelY: y}, true

	case *sdl.TouchFingerEvent:
		ev := Event{
			Pointer: int64(e.FingerID) + 1,
			X:       float64(e.X) * float64(width),
			Y:       float64(e.Y) * float64(height),
		}
		switch e.Type {
		case sdl.FINGERDOWN:
			ev.Kind = KindPointerDown
		case sdl.FINGERMOTION:
			ev.Kind = KindPointerMove
		case sdl.FINGERUP:
			ev.Kind = KindPointerUp
		default:
			return Event{}, false
		}
		return ev, true
	}
	return Event{}, false
}

// Handler receives dispatched events.
type Handler func(Event)

type listener struct {
	id uint64
	h  Handler
}

// Dispatcher delivers events to listeners registered per kind.
type Dispatcher struct {
	mu        sync.Mutex
	listeners map[Kind][]listener
	next      uint64
}

// NewDispatcher creates a dispatcher without listeners.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[Kind][]listener)}
}

// Listen registers h for kind. The returned function removes it and may be
// called more than once.
func (d *Dispatcher) Listen(kind Kind, h Handler) (remove func()) {
	d.mu.Lock()
	d.next++
	id := d.next
	d.listeners[kind] = append(d.listeners[kind], listener{id: id, h: h})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		ls := d.listeners[kind]
		for i, l := range ls {
			if l.id == id {
				d.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns how many listeners are registered for kind.
func (d *Dispatcher) Listeners(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[kind])
}

// Total returns the number of listeners across all kinds.
func (d *Dispatcher) Total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, ls := range d.listeners {
		n += len(ls)
	}
	return n
}

// Dispatch calls every listener for e.Kind in registration order. Listeners
// may add or remove listeners while running.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.Lock()
	ls := append([]listener(nil), d.listeners[e.Kind]...)
	d.mu.Unlock()
	for _, l := range ls {
		l.h(e)
	}
}

// Input polls SDL and dispatches translated events.
type Input struct {
	*Dispatcher
}

// New creates a new input handler.
func New() *Input {
	return &Input{Dispatcher: NewDispatcher()}
}

// Update drains the SDL queue. Returns true if the window should close.
func (i *Input) Update(width, height int) bool {
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		ev, ok := Translate(event, width, height)
		if !ok {
			continue
		}
		if ev.Kind == KindQuit {
			quit = true
		}
		i.Dispatch(ev)
	}
	return quit
}
