package editor

import (
	"math"
	"testing"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

func TestCoordinateRoundTrip(t *testing.T) {
	v := NewViewport()
	v.ZoomBy(1.7)
	v.PanBy(-42.5, 318)

	cases := [][2]float64{
		{0, 0},
		{100, 200},
		{-55.25, 12.75},
		{1e4, -1e4},
	}
	for _, c := range cases {
		sx, sy := v.WorldToScreen(c[0], c[1])
		wx, wy := v.ScreenToWorld(sx, sy)
		if math.Abs(wx-c[0]) > 1e-9 || math.Abs(wy-c[1]) > 1e-9 {
			t.Errorf("round trip of (%v,%v) gave (%v,%v)", c[0], c[1], wx, wy)
		}
	}
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	v := NewViewport()
	v.PanBy(30, -17)

	const ax, ay = 250.0, 140.0
	beforeX, beforeY := v.ScreenToWorld(ax, ay)
	v.ZoomAt(ZoomStepFactor, ax, ay)
	afterX, afterY := v.ScreenToWorld(ax, ay)

	if math.Abs(afterX-beforeX) > 1e-9 || math.Abs(afterY-beforeY) > 1e-9 {
		t.Errorf("anchor drifted: before (%v,%v), after (%v,%v)", beforeX, beforeY, afterX, afterY)
	}
}

func TestZoomClampsAtMax(t *testing.T) {
	v := NewViewport()
	for i := 0; i < 50; i++ {
		v.ZoomBy(ZoomStepFactor)
		if v.Zoom() > MaxZoom {
			t.Fatalf("zoom %v exceeded max %v at step %d", v.Zoom(), MaxZoom, i)
		}
	}
	if v.Zoom() != MaxZoom {
		t.Errorf("final zoom = %v, want exactly %v", v.Zoom(), MaxZoom)
	}
}

func TestZoomClampsAtMin(t *testing.T) {
	v := NewViewport()
	for i := 0; i < 50; i++ {
		v.ZoomBy(1 / ZoomStepFactor)
	}
	if v.Zoom() != MinZoom {
		t.Errorf("final zoom = %v, want exactly %v", v.Zoom(), MinZoom)
	}
}

func TestZoomNoOpDoesNotNotify(t *testing.T) {
	v := NewViewport()
	for i := 0; i < 50; i++ {
		v.ZoomBy(ZoomStepFactor)
	}

	calls := 0
	v.SetOnChange(func() { calls++ })
	v.ZoomBy(ZoomStepFactor) // already at max
	v.PanBy(0, 0)
	if calls != 0 {
		t.Errorf("no-op mutations notified %d times", calls)
	}
}

func TestFitToContentNeverZoomsIn(t *testing.T) {
	v := NewViewport()
	n := graph.NewNode("only", 10, 10)
	v.FitToContent([]*graph.Node{n}, 1000, 800)

	if v.Zoom() > 1.0 {
		t.Errorf("fit zoomed in to %v on small content", v.Zoom())
	}
	// The node center should land at the viewport center.
	c := n.Center()
	sx, sy := v.WorldToScreen(c.X, c.Y)
	if math.Abs(sx-500) > 1e-9 || math.Abs(sy-400) > 1e-9 {
		t.Errorf("content center at (%v,%v), want (500,400)", sx, sy)
	}
}

func TestCenterOnKeepsZoom(t *testing.T) {
	v := NewViewport()
	v.ZoomBy(2)
	v.CenterOn(geom.Point{X: 300, Y: -120}, 1000, 800)

	if v.Zoom() != 2 {
		t.Errorf("centering changed zoom to %v", v.Zoom())
	}
	sx, sy := v.WorldToScreen(300, -120)
	if math.Abs(sx-500) > 1e-9 || math.Abs(sy-400) > 1e-9 {
		t.Errorf("centered point at (%v,%v), want (500,400)", sx, sy)
	}
}

func TestCenterViewOnSelection(t *testing.T) {
	e, a, _, _ := tripleEditor(t)
	e.Selection().AddNode("A")

	e.CenterView()

	c := a.Bounds().Center()
	sx, sy := e.Viewport().WorldToScreen(c.X, c.Y)
	if math.Abs(sx-500) > 1e-9 || math.Abs(sy-400) > 1e-9 {
		t.Errorf("selection center at (%v,%v), want viewport center (500,400)", sx, sy)
	}
	if e.Viewport().Zoom() != 1 {
		t.Errorf("centering changed zoom to %v", e.Viewport().Zoom())
	}
}

func TestFitToContentEmptyResets(t *testing.T) {
	v := NewViewport()
	v.ZoomBy(2)
	v.PanBy(100, 100)
	v.FitToContent(nil, 800, 600)
	if v.Zoom() != 1 {
		t.Errorf("zoom after empty fit = %v, want 1", v.Zoom())
	}
	px, py := v.Pan()
	if px != 0 || py != 0 {
		t.Errorf("pan after empty fit = (%v,%v), want origin", px, py)
	}
}
