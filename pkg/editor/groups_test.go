package editor

import (
	"testing"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// pairDoc builds a document with two nodes and the given directed
// connections between them, returning the node ids in creation order.
func pairDoc(t *testing.T, forward, backward int) (*graph.Document, string, string) {
	t.Helper()
	doc := graph.NewDocument()
	a := graph.NewNode("a", 0, 0)
	b := graph.NewNode("b", 400, 0)
	// Deterministic ordering for the pair key regardless of uuid luck.
	a.ID = "node-a"
	b.ID = "node-b"
	doc.AddNode(a)
	doc.AddNode(b)
	for i := 0; i < forward; i++ {
		doc.AddConnection(graph.NewConnection(a.ID, b.ID))
	}
	for i := 0; i < backward; i++ {
		doc.AddConnection(graph.NewConnection(b.ID, a.ID))
	}
	return doc, a.ID, b.ID
}

func TestGroupingOnePerPair(t *testing.T) {
	doc, a, b := pairDoc(t, 2, 1)
	gs := NewGroupSet(doc)

	groups := gs.Groups()
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.NodeA != a || g.NodeB != b {
		t.Errorf("group pair = (%s,%s), want (%s,%s)", g.NodeA, g.NodeB, a, b)
	}
	if g.Total() != 3 {
		t.Errorf("group total = %d, want 3", g.Total())
	}
	if len(g.Forward) != 2 || len(g.Backward) != 1 {
		t.Errorf("forward/backward = %d/%d, want 2/1", len(g.Forward), len(g.Backward))
	}
}

func TestGroupingBidirectionalScenario(t *testing.T) {
	doc := graph.NewDocument()
	a := graph.NewNode("A", 0, 0)
	b := graph.NewNode("B", 300, 0)
	c := graph.NewNode("C", 600, 0)
	a.ID, b.ID, c.ID = "A", "B", "C"
	doc.AddNode(a)
	doc.AddNode(b)
	doc.AddNode(c)
	ab := graph.NewConnection("A", "B")
	ba := graph.NewConnection("B", "A")
	doc.AddConnection(ab)
	doc.AddConnection(ba)

	gs := NewGroupSet(doc)
	g, ok := gs.Group("B", "A") // unordered lookup
	if !ok {
		t.Fatal("no group for pair A/B")
	}
	if !g.Bidirectional() {
		t.Error("group should be bidirectional")
	}
	if len(g.Forward) != 1 || g.Forward[0].ID != ab.ID {
		t.Errorf("forward should hold only A->B")
	}
	if len(g.Backward) != 1 || g.Backward[0].ID != ba.ID {
		t.Errorf("backward should hold only B->A")
	}
}

func TestGroupingOrderIndependent(t *testing.T) {
	build := func(reversed bool) *ConnectionGroup {
		doc := graph.NewDocument()
		a := graph.NewNode("a", 0, 0)
		b := graph.NewNode("b", 400, 0)
		a.ID, b.ID = "node-a", "node-b"
		doc.AddNode(a)
		doc.AddNode(b)
		c1 := graph.NewConnection(a.ID, b.ID)
		c2 := graph.NewConnection(b.ID, a.ID)
		if reversed {
			doc.AddConnection(c2)
			doc.AddConnection(c1)
		} else {
			doc.AddConnection(c1)
			doc.AddConnection(c2)
		}
		return NewGroupSet(doc).Groups()[0]
	}

	g1 := build(false)
	g2 := build(true)
	if g1.Key != g2.Key {
		t.Errorf("keys differ: %q vs %q", g1.Key, g2.Key)
	}
	if len(g1.Forward) != len(g2.Forward) || len(g1.Backward) != len(g2.Backward) {
		t.Errorf("direction split depends on insertion order")
	}
}

func TestHitTestNodeBeatsConnection(t *testing.T) {
	doc, a, b := pairDoc(t, 1, 0)
	// Park a third node over the segment so its rectangle covers part
	// of the line.
	mid := graph.NewNode("mid", 160, 0)
	mid.ID = "node-mid"
	doc.AddNode(mid)
	_ = a
	_ = b

	gs := NewGroupSet(doc)
	hit := gs.HitTest(mid.Center(), 1.0)
	if hit.Kind != HitNode || hit.NodeID != mid.ID {
		t.Errorf("hit = %+v, want node %s", hit, mid.ID)
	}
}

func TestHitTestTopmostNodeWins(t *testing.T) {
	doc := graph.NewDocument()
	under := graph.NewNode("under", 100, 100)
	over := graph.NewNode("over", 110, 110)
	under.ID, over.ID = "n-under", "n-over"
	doc.AddNode(under)
	doc.AddNode(over)

	gs := NewGroupSet(doc)
	p := geom.Point{X: 130, Y: 130} // inside both rectangles
	if hit := gs.HitTest(p, 1.0); hit.NodeID != over.ID {
		t.Errorf("hit %s, want topmost %s", hit.NodeID, over.ID)
	}

	doc.RaiseNode(under.ID)
	if hit := gs.HitTest(p, 1.0); hit.NodeID != under.ID {
		t.Errorf("after raise, hit %s, want %s", hit.NodeID, under.ID)
	}
}

func TestHitTestLineToleranceScalesWithZoom(t *testing.T) {
	doc, _, _ := pairDoc(t, 1, 0)
	gs := NewGroupSet(doc)

	// Node centers are (40,20) and (440,20); probe 6 world units off the
	// line, clear of both node rectangles.
	p := geom.Point{X: 300, Y: 26}
	if hit := gs.HitTest(p, 1.0); hit.Kind != HitConnection {
		t.Fatalf("probe 6px off line at zoom 1: kind = %v, want connection", hit.Kind)
	}
	// At zoom 2 the tolerance band shrinks to 4 world units.
	if hit := gs.HitTest(p, 2.0); hit.Kind != HitNone {
		t.Errorf("probe 6px off line at zoom 2: kind = %v, want none", hit.Kind)
	}
}

func TestHitTestArrowCluster(t *testing.T) {
	doc, a, b := pairDoc(t, 1, 0)
	_ = a
	_ = b
	gs := NewGroupSet(doc)

	g := gs.Groups()[0]
	if g.ForwardCluster == nil {
		t.Fatal("unidirectional group lost its forward cluster")
	}
	hit := gs.HitTest(g.ForwardCluster.Anchor, 1.0)
	if hit.Kind != HitArrow || hit.Direction != DirForward {
		t.Errorf("hit at anchor = %+v, want forward arrow", hit)
	}
}

func TestHitTestBidirectionalHalves(t *testing.T) {
	doc, _, _ := pairDoc(t, 1, 1)
	gs := NewGroupSet(doc)
	g := gs.Groups()[0]

	mid := geom.Midpoint(g.EndA, g.EndB)

	// Points on the line either side of the midpoint, clear of the
	// arrow clusters (which sit within ~40 units of the midpoint).
	towardB := geom.Point{X: mid.X + 80, Y: mid.Y}
	towardA := geom.Point{X: mid.X - 80, Y: mid.Y}

	if hit := gs.HitTest(towardB, 1.0); hit.Kind != HitConnection || hit.Direction != DirBackward {
		t.Errorf("half toward forward target: %+v, want backward", hit)
	}
	if hit := gs.HitTest(towardA, 1.0); hit.Kind != HitConnection || hit.Direction != DirForward {
		t.Errorf("half toward backward target: %+v, want forward", hit)
	}
}

func TestHitTestDegenerateSegment(t *testing.T) {
	doc := graph.NewDocument()
	a := graph.NewNode("a", 100, 100)
	b := graph.NewNode("b", 100, 100) // coincident centers
	a.ID, b.ID = "node-a", "node-b"
	doc.AddNode(a)
	doc.AddNode(b)
	doc.AddConnection(graph.NewConnection(a.ID, b.ID))

	gs := NewGroupSet(doc)
	// Outside the node rectangles the degenerate group must never hit.
	hit := gs.HitTest(geom.Point{X: 500, Y: 500}, 1.0)
	if hit.Kind != HitNone {
		t.Errorf("degenerate segment produced hit %+v", hit)
	}
}

func TestRecomputeAfterMove(t *testing.T) {
	doc, a, _ := pairDoc(t, 1, 0)
	gs := NewGroupSet(doc)
	before := gs.Groups()[0].ForwardCluster.Anchor

	n, _ := doc.Node(a)
	n.MoveTo(geom.Point{X: 0, Y: 300})
	gs.MarkDirty()

	after := gs.Groups()[0].ForwardCluster.Anchor
	if geom.Dist(before, after) < 1 {
		t.Error("cluster anchor did not follow the moved node")
	}
}

func TestConnectionsInRectCoversWholeGraph(t *testing.T) {
	doc, _, _ := pairDoc(t, 2, 1)
	gs := NewGroupSet(doc)

	ids := gs.ConnectionsInRect(geom.Rect{X: -1000, Y: -1000, W: 4000, H: 4000})
	if len(ids) != 3 {
		t.Errorf("got %d connections, want all 3", len(ids))
	}
}
