// Package overlay holds the screen-space marker elements drawn over the
// globe. The globe writes one Style per element per frame; the overlay
// owns presentation and hit testing.
package overlay

import (
	"math"
	"sort"
)

// Style is the per-frame placement of one element.
type Style struct {
	// X, Y position the element's anchor point in pixels.
	X, Y float64

	// ZIndex orders overlapping elements; higher draws on top.
	ZIndex int

	// Visible mirrors the data-visible attribute.
	Visible bool

	// Interactive is false when the element must not receive pointer events.
	Interactive bool
}

// Element receives style updates.
type Element interface {
	Apply(s Style)
}

// Registry resolves marker ids to mounted elements.
type Registry interface {
	Element(id string) (Element, bool)
}

// DefaultPinRadius is the hit radius of a pin in pixels.
const DefaultPinRadius = 8

// Pin is a marker element in a Layer.
type Pin struct {
	ID     string
	Label  string
	Radius float64

	style Style
	seq   int
}

// Apply stores the style.
func (p *Pin) Apply(s Style) {
	p.style = s
}

// Style returns the last applied style.
func (p *Pin) Style() Style {
	return p.style
}

// Contains reports whether (x, y) falls inside the pin's hit circle.
func (p *Pin) Contains(x, y float64) bool {
	return math.Hypot(x-p.style.X, y-p.style.Y) <= p.Radius
}

// Layer is an in-memory Registry of pins.
type Layer struct {
	pins map[string]*Pin
	seq  int
}

// NewLayer creates an empty layer.
func NewLayer() *Layer {
	return &Layer{pins: make(map[string]*Pin)}
}

// Mount creates or returns the pin for id.
func (l *Layer) Mount(id, label string) *Pin {
	if p, ok := l.pins[id]; ok {
		p.Label = label
		return p
	}
	l.seq++
	p := &Pin{ID: id, Label: label, Radius: DefaultPinRadius, seq: l.seq}
	l.pins[id] = p
	return p
}

// Unmount removes the pin for id.
func (l *Layer) Unmount(id string) {
	delete(l.pins, id)
}

// Element implements Registry.
func (l *Layer) Element(id string) (Element, bool) {
	p, ok := l.pins[id]
	if !ok {
		return nil, false
	}
	return p, true
}

// Pin returns the pin for id.
func (l *Layer) Pin(id string) (*Pin, bool) {
	p, ok := l.pins[id]
	return p, ok
}

// Len returns the number of mounted pins.
func (l *Layer) Len() int {
	return len(l.pins)
}

// DrawOrder returns visible pins from bottom to top. Ties keep mount order.
func (l *Layer) DrawOrder() []*Pin {
	out := make([]*Pin, 0, len(l.pins))
	for _, p := range l.pins {
		if p.style.Visible {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].style.ZIndex != out[j].style.ZIndex {
			return out[i].style.ZIndex < out[j].style.ZIndex
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// HitTest returns the topmost interactive pin under (x, y).
func (l *Layer) HitTest(x, y float64) (*Pin, bool) {
	var best *Pin
	for _, p := range l.pins {
		if !p.style.Interactive || !p.Contains(x, y) {
			continue
		}
		if best == nil || p.style.ZIndex > best.style.ZIndex ||
			(p.style.ZIndex == best.style.ZIndex && p.seq > best.seq) {
			best = p
		}
	}
	return best, best != nil
}

// IDAt returns the id of the topmost interactive pin under (x, y).
func (l *Layer) IDAt(x, y float64) (string, bool) {
	p, ok := l.HitTest(x, y)
	if !ok {
		return "", false
	}
	return p.ID, true
}
