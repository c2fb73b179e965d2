package globe

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/forekaster/internal/engine/input"
	"github.com/Faultbox/forekaster/internal/markers"
	"github.com/Faultbox/forekaster/pkg/math"
)

// frame runs one simulation step: drag or inertia and orbit, normalization,
// marker layout, hover and click resolution, then rendering.
func (g *Globe) frame() {
	if !g.mounted {
		return
	}

	if g.drag.Dragging() {
		g.state.setRotation(g.drag.Rotation())
	} else {
		g.state.rotate(g.drag.Inertia())
		if !g.targeting() {
			if err := g.orbit.Step(); err != nil {
				g.log.Error("orbit step", zap.Error(err))
			}
		}
	}
	g.state.normalize()

	w, h := g.scene.Size()
	if w > 0 && h > 0 {
		visible := layout(g.scene, g.opts.Visibility, g.bindings, g.projected)
		g.deps.Metrics.MarkersVisible(visible)
		g.resolvePointer()
	}

	if err := g.scene.Update(); err != nil {
		if !g.renderFailing {
			g.log.Warn("render failed", zap.Error(err))
		}
		g.renderFailing = true
	} else {
		g.renderFailing = false
	}
}

// targeting reports whether a target transition is still running. Orbit
// holds until it lands so a fast sweep cannot take the yaw back.
func (g *Globe) targeting() bool {
	if g.targetAnim == nil {
		return false
	}
	select {
	case <-g.targetAnim.Done():
		g.targetAnim = nil
		return false
	default:
		return true
	}
}

func (g *Globe) onResize(e input.Event) {
	g.scene.Resize(e.Width, e.Height)
}

func (g *Globe) onPointerDown(e input.Event) {
	if !g.opts.Interactive {
		return
	}
	pitch, yaw := g.state.pitch(), g.state.yaw()
	if !g.drag.Press(e.Pointer, math.Vec2{X: e.X, Y: e.Y}, pitch, yaw) {
		return
	}
	g.removeDrag = append(g.removeDrag,
		g.deps.Input.Listen(input.KindPointerMove, g.onDragMove),
		g.deps.Input.Listen(input.KindPointerUp, g.onDragUp),
	)

	g.orbit.Interrupt()
	if g.targetAnim != nil {
		g.targetAnim.Cancel()
		g.targetAnim = nil
	}
	g.deps.Metrics.DragStarted()
	if g.cb.OnDragStart != nil {
		g.cb.OnDragStart()
	}
}

func (g *Globe) onDragMove(e input.Event) {
	g.drag.Move(e.Pointer, math.Vec2{X: e.X, Y: e.Y})
}

func (g *Globe) onDragUp(e input.Event) {
	p := math.Vec2{X: e.X, Y: e.Y}
	ended, click := g.drag.Release(e.Pointer, p)
	if !ended {
		return
	}
	g.endDragListeners()
	g.orbit.PauseForResume()
	if click {
		g.pendingClick = &p
	}
	if g.cb.OnDragStop != nil {
		g.cb.OnDragStop()
	}
}

func (g *Globe) endDragListeners() {
	for _, remove := range g.removeDrag {
		remove()
	}
	g.removeDrag = nil
}

func (g *Globe) onHoverMove(e input.Event) {
	g.pointer = math.Vec2{X: e.X, Y: e.Y}
	g.pointerKnown = true
}

// resolvePointer fires click and hover callbacks against this frame's
// marker placement.
func (g *Globe) resolvePointer() {
	if g.deps.Overlay == nil {
		g.pendingClick = nil
		return
	}

	if c := g.pendingClick; c != nil {
		g.pendingClick = nil
		if id, ok := g.deps.Overlay.IDAt(c.X, c.Y); ok {
			if m, ok := g.byID[id]; ok && g.cb.OnMarkerClick != nil {
				g.cb.OnMarkerClick(m)
			}
		}
	}

	if g.drag.Dragging() || !g.pointerKnown {
		return
	}
	id, _ := g.deps.Overlay.IDAt(g.pointer.X, g.pointer.Y)
	if _, ok := g.byID[id]; !ok {
		id = ""
	}
	if id == g.hovered {
		return
	}
	g.clearHover()
	if id != "" {
		g.startHover(g.byID[id])
	}
}

func (g *Globe) startHover(m markers.Marker) {
	g.hovered = m.ID
	g.hoverToken++
	if g.cb.OnMarkerHover != nil {
		g.cb.OnMarkerHover(m)
	}
	if g.cb.GetMarkerInfo == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.hoverCancel = cancel
	token := g.hoverToken
	fetch := g.cb.GetMarkerInfo
	post := g.deps.Loop.Post

	go func() {
		info, err := fetch(ctx, m)
		post(func() {
			if token != g.hoverToken || ctx.Err() != nil {
				return
			}
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					g.log.Debug("marker info failed", zap.String("marker", m.ID), zap.Error(err))
				}
				return
			}
			if g.cb.OnMarkerInfo != nil {
				g.cb.OnMarkerInfo(m, info)
			}
		})
	}()
}

// clearHover ends the current hover, cancelling its info request.
func (g *Globe) clearHover() {
	if g.hovered == "" {
		return
	}
	id := g.hovered
	g.hovered = ""
	g.hoverToken++
	if g.hoverCancel != nil {
		g.hoverCancel()
		g.hoverCancel = nil
	}
	if m, ok := g.byID[id]; ok && g.cb.OnMarkerUnhover != nil {
		g.cb.OnMarkerUnhover(m)
	}
}

// Hovered returns the id of the hovered marker, or "".
func (g *Globe) Hovered() string {
	return g.hovered
}
