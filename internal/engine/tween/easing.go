package tween

import (
	"math"
	"sort"
)

// EasingFunc maps progress t in [0, 1] to an eased fraction. f(0) = 0 and
// f(1) = 1; values in between may overshoot.
type EasingFunc func(t float64) float64

const (
	backC1 = 1.70158
	backC2 = backC1 * 1.525
	backC3 = backC1 + 1
	elastC = 2 * math.Pi / 3
)

var easings = map[string]EasingFunc{
	"linear": func(t float64) float64 { return t },

	"easeInQuad":  func(t float64) float64 { return t * t },
	"easeOutQuad": func(t float64) float64 { return 1 - (1-t)*(1-t) },
	"easeInOutQuad": func(t float64) float64 {
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - math.Pow(-2*t+2, 2)/2
	},

	"easeInCubic":  func(t float64) float64 { return t * t * t },
	"easeOutCubic": func(t float64) float64 { return 1 - math.Pow(1-t, 3) },
	"easeInOutCubic": func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - math.Pow(-2*t+2, 3)/2
	},

	"easeOutElastic": func(t float64) float64 {
		switch t {
		case 0, 1:
			return t
		}
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*elastC) + 1
	},

	"easeInBack": func(t float64) float64 {
		return backC3*t*t*t - backC1*t*t
	},
	"easeOutBack": func(t float64) float64 {
		return 1 + backC3*math.Pow(t-1, 3) + backC1*math.Pow(t-1, 2)
	},
	"easeInOutBack": func(t float64) float64 {
		if t < 0.5 {
			return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
		}
		return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
	},

	"easeOutBounce": bounceOut,
}

func bounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// Easing looks up a curve by name. The empty name is linear.
func Easing(name string) (EasingFunc, bool) {
	if name == "" {
		name = "linear"
	}
	fn, ok := easings[name]
	return fn, ok
}

// EasingNames lists the curve table in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
