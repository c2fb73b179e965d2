// Package globe is the interactive globe: it owns the scene, turns pointer
// input into rotation, runs autonomous orbiting and keeps marker overlay
// elements aligned with their anchors every frame.
//
// All methods must be called on the goroutine that drives the frame loop
// and the input dispatcher.
package globe

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/forekaster/internal/engine/camera"
	"github.com/Faultbox/forekaster/internal/engine/input"
	"github.com/Faultbox/forekaster/internal/engine/loop"
	"github.com/Faultbox/forekaster/internal/engine/projection"
	"github.com/Faultbox/forekaster/internal/engine/scene"
	"github.com/Faultbox/forekaster/internal/engine/tween"
	"github.com/Faultbox/forekaster/internal/markers"
	"github.com/Faultbox/forekaster/internal/metrics"
	"github.com/Faultbox/forekaster/internal/overlay"
	"github.com/Faultbox/forekaster/pkg/math"
)

// ErrNotMounted is returned by operations that need a mounted globe.
var ErrNotMounted = errors.New("globe: not mounted")

// CameraConfig frames the globe.
type CameraConfig struct {
	FOV         float64
	Distance    float64
	Near        float64
	Far         float64
	MinDistance float64
	MaxDistance float64

	// ZoomStep is the camera distance removed per zoom unit.
	ZoomStep float64
}

// DefaultCameraConfig returns the default framing.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		FOV:         20,
		Distance:    60,
		Near:        0.1,
		Far:         1000,
		MinDistance: 11,
		MaxDistance: 500,
		ZoomStep:    4,
	}
}

// TransitionConfig shapes target and zoom animations.
type TransitionConfig struct {
	Duration time.Duration
	Easing   string
}

// Options configures a Globe.
type Options struct {
	Scene      scene.Config
	Camera     CameraConfig
	Drag       DragConfig
	Orbit      OrbitConfig
	Visibility VisibilityConfig
	Transition TransitionConfig

	Interactive bool
	AutoOrbit   Mode
}

// DefaultOptions returns the default globe options.
func DefaultOptions() Options {
	return Options{
		Scene:       scene.DefaultConfig(),
		Camera:      DefaultCameraConfig(),
		Drag:        DefaultDragConfig(),
		Orbit:       DefaultOrbitConfig(),
		Visibility:  DefaultVisibilityConfig(),
		Transition:  TransitionConfig{Duration: time.Second, Easing: "easeInOutCubic"},
		Interactive: true,
		AutoOrbit:   ModeSlow,
	}
}

// Info is what GetMarkerInfo resolves for a hovered marker.
type Info struct {
	Content string
	Count   int
}

// Callbacks are the globe's outputs. All are optional.
type Callbacks struct {
	OnDragStart     func()
	OnDragStop      func()
	OnMarkerClick   func(m markers.Marker)
	OnMarkerHover   func(m markers.Marker)
	OnMarkerUnhover func(m markers.Marker)

	// GetMarkerInfo runs on its own goroutine when a marker is hovered.
	// ctx is cancelled when the pointer leaves the marker.
	GetMarkerInfo func(ctx context.Context, m markers.Marker) (Info, error)
	// OnMarkerInfo receives the result on the frame goroutine, only if the
	// marker is still hovered.
	OnMarkerInfo func(m markers.Marker, info Info)
}

// Surface is where the globe is drawn.
type Surface interface {
	Size() (width, height int)
	NewRenderer() (scene.Renderer, error)
}

// Overlay resolves marker elements and hit tests them.
type Overlay interface {
	overlay.Registry
	IDAt(x, y float64) (string, bool)
}

// Deps are the collaborators a Globe runs on.
type Deps struct {
	Loop    *loop.Loop
	Input   *input.Dispatcher
	Overlay Overlay
	Metrics *metrics.Manager
	Logger  *zap.Logger
}

// Globe is one interactive globe instance.
type Globe struct {
	id   string
	opts Options
	cb   Callbacks
	deps Deps
	log  *zap.Logger

	tweens *tween.Engine
	drag   *Drag
	orbit  *Orbit

	mounted bool
	surface Surface
	scene   *scene.Globe
	state   *state

	markers   []markers.Marker
	byID      map[string]markers.Marker
	bindings  []*binding
	projected map[string]Projected

	target     *[2]float64
	zoom       *float64
	targetAnim *tween.Animation
	zoomAnim   *tween.Animation

	stopFrame    func()
	removeDown   func()
	removeMove   func()
	removeResize func()
	removeDrag   []func()

	pointer      math.Vec2
	pointerKnown bool
	pendingClick *math.Vec2

	hovered     string
	hoverCancel context.CancelFunc
	hoverToken  uint64

	renderFailing bool
}

// New creates an unmounted globe.
func New(opts Options, cb Callbacks, deps Deps) *Globe {
	if deps.Loop == nil {
		deps.Loop = loop.New()
	}
	if deps.Input == nil {
		deps.Input = input.NewDispatcher()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	g := &Globe{
		id:        id,
		opts:      opts,
		cb:        cb,
		deps:      deps,
		log:       deps.Logger.With(zap.String("globe", id)),
		drag:      NewDrag(opts.Drag),
		byID:      make(map[string]markers.Marker),
		projected: make(map[string]Projected),
	}
	var obs tween.Observer
	if deps.Metrics != nil {
		obs = deps.Metrics
	}
	g.tweens = tween.NewEngine(deps.Loop, g.log.Named("tween"), obs)
	g.state = &state{}
	g.orbit = NewOrbit(opts.Orbit, g.tweens, g.state)
	g.orbit.mode = opts.AutoOrbit
	g.orbit.onSweep = deps.Metrics.SweepStarted
	return g
}

// ID returns the instance id used in logs.
func (g *Globe) ID() string {
	return g.id
}

// Mounted reports whether the globe is mounted.
func (g *Globe) Mounted() bool {
	return g.mounted
}

// Scene returns the mounted scene or nil.
func (g *Globe) Scene() *scene.Globe {
	return g.scene
}

// Orbit returns the orbit controller.
func (g *Globe) Orbit() *Orbit {
	return g.orbit
}

// Drag returns the drag controller.
func (g *Globe) Drag() *Drag {
	return g.drag
}

// Tweens returns the tween engine driving transitions.
func (g *Globe) Tweens() *tween.Engine {
	return g.tweens
}

// Mount builds the scene for surface and starts the frame subscription.
// Mounting again on the same surface keeps the existing scene. A nil
// surface, or one whose renderer cannot be created, mounts with rendering
// disabled.
func (g *Globe) Mount(surface Surface) error {
	if g.mounted {
		if surface == g.surface {
			return nil
		}
		if err := g.Unmount(); err != nil {
			g.log.Warn("unmounting previous surface", zap.Error(err))
		}
	}

	var (
		r      scene.Renderer
		width  int
		height int
	)
	if surface != nil {
		width, height = surface.Size()
		var err error
		if r, err = surface.NewRenderer(); err != nil {
			g.log.Warn("rendering disabled", zap.Error(err))
			r = nil
		}
	}

	c := g.opts.Camera
	cam := &camera.Perspective{
		Distance:    c.Distance,
		FOV:         c.FOV,
		Aspect:      2,
		Near:        c.Near,
		Far:         c.Far,
		MinDistance: c.MinDistance,
		MaxDistance: c.MaxDistance,
	}
	g.scene = scene.NewGlobe(g.opts.Scene, cam, r)
	g.scene.Resize(width, height)
	g.state.scene = g.scene
	g.surface = surface
	g.mounted = true

	g.bind()

	g.removeResize = g.deps.Input.Listen(input.KindResize, g.onResize)
	g.removeMove = g.deps.Input.Listen(input.KindPointerMove, g.onHoverMove)
	if g.opts.Interactive {
		g.removeDown = g.deps.Input.Listen(input.KindPointerDown, g.onPointerDown)
	}
	g.stopFrame = g.deps.Loop.Start(g.frame)

	if g.target != nil {
		g.animateTarget()
	}
	if g.zoom != nil {
		g.animateZoom()
	}

	g.log.Info("globe mounted",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("render", g.scene.CanRender()),
		zap.Int("markers", len(g.markers)))
	return nil
}

// Unmount stops the frame subscription, removes every listener, cancels
// running transitions and disposes the scene.
func (g *Globe) Unmount() error {
	if !g.mounted {
		return nil
	}
	g.mounted = false

	removeAll(&g.stopFrame, &g.removeDown, &g.removeMove, &g.removeResize)
	g.endDragListeners()
	if g.drag.Dragging() {
		g.drag.Cancel()
	}

	g.cancelTransitions()
	g.orbit.Interrupt()
	g.clearHover()
	g.pendingClick = nil

	err := g.scene.Dispose()
	g.bindings = nil
	g.projected = make(map[string]Projected)
	g.scene = nil
	g.state.scene = nil
	g.surface = nil

	g.log.Info("globe unmounted")
	if err != nil {
		return fmt.Errorf("disposing scene: %w", err)
	}
	return nil
}

func removeAll(fns ...*func()) {
	for _, fn := range fns {
		if *fn != nil {
			(*fn)()
			*fn = nil
		}
	}
}

func (g *Globe) cancelTransitions() {
	if g.targetAnim != nil {
		g.targetAnim.Cancel()
		g.targetAnim = nil
	}
	if g.zoomAnim != nil {
		g.zoomAnim.Cancel()
		g.zoomAnim = nil
	}
}

// SetMarkers replaces the marker list. Invalid and duplicate markers are
// skipped; their errors are combined in the returned error.
func (g *Globe) SetMarkers(list []markers.Marker) error {
	var errs error
	kept := make([]markers.Marker, 0, len(list))
	byID := make(map[string]markers.Marker, len(list))
	for _, m := range list {
		if err := m.Validate(); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, dup := byID[m.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", markers.ErrDuplicateID, m.ID))
			continue
		}
		byID[m.ID] = m
		kept = append(kept, m)
	}

	g.markers = kept
	g.byID = byID
	if _, ok := byID[g.hovered]; !ok {
		g.clearHover()
	}
	if g.mounted {
		g.bind()
	}
	return errs
}

// Markers returns the accepted markers.
func (g *Globe) Markers() []markers.Marker {
	return append([]markers.Marker(nil), g.markers...)
}

// Rebind resolves overlay elements again, picking up elements mounted after
// the marker list was set.
func (g *Globe) Rebind() {
	if g.mounted {
		g.bind()
	}
}

// bind rebuilds anchors and the id to element map.
func (g *Globe) bind() {
	g.scene.ClearAnchors()
	g.bindings = g.bindings[:0]
	g.projected = make(map[string]Projected, len(g.markers))

	skipped := 0
	for _, m := range g.markers {
		b := &binding{marker: m, anchor: g.scene.AddAnchor(m.ID, m.Lat, m.Lon)}
		if g.deps.Overlay != nil {
			if el, ok := g.deps.Overlay.Element(m.ID); ok {
				b.element = el
			} else {
				skipped++
			}
		}
		g.bindings = append(g.bindings, b)
	}
	if skipped > 0 {
		g.log.Debug("marker elements not mounted", zap.Int("skipped", skipped))
	}
}

// Projected returns the latest placement of marker id.
func (g *Globe) Projected(id string) (Projected, bool) {
	p, ok := g.projected[id]
	return p, ok
}

// Rotation returns the sphere pitch and yaw.
func (g *Globe) Rotation() (pitch, yaw float64) {
	if g.scene == nil {
		return 0, 0
	}
	return g.state.pitch(), g.state.yaw()
}

// CameraDistance returns the camera distance from the globe center.
func (g *Globe) CameraDistance() float64 {
	if g.scene == nil {
		return g.opts.Camera.Distance
	}
	return g.scene.Camera.Distance
}

// SetTarget animates the globe so (lat, lon) faces the camera.
func (g *Globe) SetTarget(lat, lon float64) error {
	if err := (markers.Marker{ID: "target", Lat: lat, Lon: lon}).Validate(); err != nil {
		return err
	}
	g.target = &[2]float64{lat, lon}
	if g.mounted {
		g.animateTarget()
	}
	return nil
}

func (g *Globe) animateTarget() {
	pitch, yaw := g.scene.FacingRotation(g.target[0], g.target[1])
	yaw = math.NearestAngle(g.state.yaw(), yaw)

	if g.targetAnim != nil {
		g.targetAnim.Cancel()
	}
	anim, err := g.tweens.Animate(g.state, map[string]tween.Track{
		PropPitch: tween.To(pitch),
		PropYaw:   tween.To(yaw),
	}, tween.Common{Duration: g.opts.Transition.Duration, Easing: g.opts.Transition.Easing})
	if err != nil {
		g.log.Error("animating target", zap.Error(err))
		return
	}
	g.targetAnim = anim
}

// SetZoom animates the camera distance to base - zoom*step, clamped.
func (g *Globe) SetZoom(zoom float64) error {
	if gomath.IsNaN(zoom) || gomath.IsInf(zoom, 0) {
		return fmt.Errorf("invalid zoom %v", zoom)
	}
	g.zoom = &zoom
	if g.mounted {
		g.animateZoom()
	}
	return nil
}

// DistanceForZoom converts a zoom scalar to camera distance.
func (g *Globe) DistanceForZoom(zoom float64) float64 {
	c := g.opts.Camera
	return math.Clamp(c.Distance-zoom*c.ZoomStep, c.MinDistance, c.MaxDistance)
}

func (g *Globe) animateZoom() {
	if g.zoomAnim != nil {
		g.zoomAnim.Cancel()
	}
	anim, err := g.tweens.Animate(g.state, map[string]tween.Track{
		PropDistance: tween.To(g.DistanceForZoom(*g.zoom)),
	}, tween.Common{Duration: g.opts.Transition.Duration, Easing: g.opts.Transition.Easing})
	if err != nil {
		g.log.Error("animating zoom", zap.Error(err))
		return
	}
	g.zoomAnim = anim
}

// Zoom returns the last requested zoom, or 0.
func (g *Globe) Zoom() float64 {
	if g.zoom == nil {
		return 0
	}
	return *g.zoom
}

// SetInteractive installs or removes the drag listeners. Turning
// interaction off during a drag ends the drag without inertia.
func (g *Globe) SetInteractive(on bool) {
	if on == g.opts.Interactive {
		return
	}
	g.opts.Interactive = on
	if !g.mounted {
		return
	}
	if on {
		g.removeDown = g.deps.Input.Listen(input.KindPointerDown, g.onPointerDown)
		return
	}
	removeAll(&g.removeDown)
	if g.drag.Dragging() {
		g.drag.Cancel()
		g.endDragListeners()
		g.orbit.PauseForResume()
		if g.cb.OnDragStop != nil {
			g.cb.OnDragStop()
		}
	}
}

// Interactive reports whether drag input is accepted.
func (g *Globe) Interactive() bool {
	return g.opts.Interactive
}

// SetAutoOrbit selects the orbit mode.
func (g *Globe) SetAutoOrbit(m Mode) {
	if m == g.orbit.Mode() {
		return
	}
	g.orbit.SetMode(m)
	g.log.Info("orbit mode changed", zap.Stringer("mode", m))
}

// PickLatLon returns the geographic position under pixel (x, y), if the
// pixel covers the globe.
func (g *Globe) PickLatLon(x, y float64) (lat, lon float64, ok bool) {
	if g.scene == nil {
		return 0, 0, false
	}
	w, h := g.scene.Size()
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	ray := projection.ScreenToRay(x, y, float64(w), float64(h), g.scene.Camera)
	t, hit := ray.IntersectSphere(g.scene.Sphere.WorldPosition(), g.scene.Config().Radius)
	if !hit {
		return 0, 0, false
	}

	local := g.scene.Sphere.WorldMatrix().Inverse().TransformPoint(ray.At(t)).Normalize()
	cfg := g.scene.Config()
	lat = math.RadToDeg(gomath.Asin(math.Clamp(local.Y, -1, 1))) + cfg.LatOffset
	lon = math.RadToDeg(gomath.Atan2(local.X, local.Z)) - cfg.LonOffset
	lon = gomath.Mod(lon+540, 360) - 180
	return math.Clamp(lat, -90, 90), lon, true
}
