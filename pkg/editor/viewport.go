package editor

import (
	"math"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// Zoom bounds and the factor applied per discrete zoom action.
const (
	MinZoom        = 0.1
	MaxZoom        = 5.0
	ZoomStepFactor = 1.2

	fitPadding = 40.0
	fitFill    = 0.9
)

// Viewport maintains the zoom factor and pan offset and converts
// between world and screen coordinates:
//
//	screen = world*zoom + pan
//
// Every mutating call triggers at most one change notification; calls
// that leave the transform unchanged notify nothing.
type Viewport struct {
	zoom     float64
	panX     float64
	panY     float64
	onChange func()
}

// NewViewport returns a viewport at zoom 1 with no pan.
func NewViewport() *Viewport {
	return &Viewport{zoom: 1}
}

// SetOnChange registers the change callback used by the render layer.
func (v *Viewport) SetOnChange(fn func()) {
	v.onChange = fn
}

func (v *Viewport) notify() {
	if v.onChange != nil {
		v.onChange()
	}
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the current pan offset in screen units.
func (v *Viewport) Pan() (x, y float64) { return v.panX, v.panY }

// WorldToScreen converts a world point to screen coordinates.
func (v *Viewport) WorldToScreen(x, y float64) (sx, sy float64) {
	return x*v.zoom + v.panX, y*v.zoom + v.panY
}

// ScreenToWorld converts a screen point to world coordinates. It is the
// exact inverse of WorldToScreen.
func (v *Viewport) ScreenToWorld(sx, sy float64) (x, y float64) {
	return (sx - v.panX) / v.zoom, (sy - v.panY) / v.zoom
}

func clampZoom(z float64) float64 {
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// ZoomBy multiplies the zoom by factor, clamped to [MinZoom, MaxZoom].
// A call that leaves the clamped zoom unchanged is a no-op and does not
// notify.
func (v *Viewport) ZoomBy(factor float64) {
	next := clampZoom(v.zoom * factor)
	if next == v.zoom {
		return
	}
	v.zoom = next
	v.notify()
}

// ZoomAt is ZoomBy with an anchor: the world point under the given
// screen position stays fixed on screen across the zoom.
func (v *Viewport) ZoomAt(factor, anchorX, anchorY float64) {
	next := clampZoom(v.zoom * factor)
	if next == v.zoom {
		return
	}
	wx, wy := v.ScreenToWorld(anchorX, anchorY)
	v.zoom = next
	v.panX = anchorX - wx*v.zoom
	v.panY = anchorY - wy*v.zoom
	v.notify()
}

// PanBy adds screen-space deltas to the pan offset.
func (v *Viewport) PanBy(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	v.panX += dx
	v.panY += dy
	v.notify()
}

// Reset restores zoom 1 and zero pan.
func (v *Viewport) Reset() {
	if v.zoom == 1 && v.panX == 0 && v.panY == 0 {
		return
	}
	v.zoom = 1
	v.panX = 0
	v.panY = 0
	v.notify()
}

// FitToContent centers the union bounding box of the given nodes in a
// viewport of the given size, zooming out as needed but never past 1.0.
// An empty node list resets the viewport.
func (v *Viewport) FitToContent(nodes []*graph.Node, viewportW, viewportH float64) {
	if len(nodes) == 0 {
		v.Reset()
		return
	}
	box := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		box = box.Union(n.Bounds())
	}
	box = box.Expand(fitPadding)

	scale := 1.0
	if box.W > 0 {
		scale = math.Min(scale, viewportW*fitFill/box.W)
	}
	if box.H > 0 {
		scale = math.Min(scale, viewportH*fitFill/box.H)
	}
	scale = clampZoom(scale)

	center := box.Center()
	v.zoom = scale
	v.panX = viewportW/2 - center.X*scale
	v.panY = viewportH/2 - center.Y*scale
	v.notify()
}

// CenterOn pans so the given world point maps to the viewport center,
// keeping the current zoom.
func (v *Viewport) CenterOn(p geom.Point, viewportW, viewportH float64) {
	v.panX = viewportW/2 - p.X*v.zoom
	v.panY = viewportH/2 - p.Y*v.zoom
	v.notify()
}
