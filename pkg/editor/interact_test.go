package editor

import (
	"testing"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// tripleEditor builds an editor holding nodes A, B, C with connections
// A->B and B->A. The viewport stays at identity so screen and world
// coordinates coincide.
func tripleEditor(t *testing.T) (*Editor, *graph.Node, *graph.Node, *graph.Node) {
	t.Helper()
	doc := graph.NewDocument()
	a := graph.NewNode("A", 0, 0)
	b := graph.NewNode("B", 400, 0)
	c := graph.NewNode("C", 0, 400)
	a.ID, b.ID, c.ID = "A", "B", "C"
	doc.AddNode(a)
	doc.AddNode(b)
	doc.AddNode(c)
	doc.AddConnection(graph.NewConnection("A", "B"))
	doc.AddConnection(graph.NewConnection("B", "A"))
	e := New(doc, Options{ViewportWidth: 1000, ViewportHeight: 800})
	return e, a, b, c
}

func press(e *Editor, x, y float64, mod Modifiers) {
	e.HandlePointer(PointerEvent{Kind: PointerDown, Btn: ButtonLeft, Mod: mod, X: x, Y: y})
}

func move(e *Editor, x, y float64) {
	e.HandlePointer(PointerEvent{Kind: PointerMove, X: x, Y: y})
}

func release(e *Editor, x, y float64) {
	e.HandlePointer(PointerEvent{Kind: PointerUp, Btn: ButtonLeft, X: x, Y: y})
}

func TestDragMovesOnlySelectedNode(t *testing.T) {
	e, a, b, c := tripleEditor(t)
	bPos, cPos := b.Position(), c.Position()

	press(e, 40, 20, 0) // inside A
	if e.InteractionState() != StateDraggingNode {
		t.Fatalf("state = %v, want dragging", e.InteractionState())
	}
	move(e, 90, 50)
	release(e, 90, 50)

	if got := a.Position(); got != (geom.Point{X: 50, Y: 30}) {
		t.Errorf("A moved to %+v, want (50,30)", got)
	}
	if b.Position() != bPos || c.Position() != cPos {
		t.Error("unselected nodes moved during drag")
	}
	if !e.CanUndo() {
		t.Error("completed drag should be undoable")
	}
	e.Undo()
	if got := a.Position(); got != (geom.Point{}) {
		t.Errorf("A after undo at %+v, want origin", got)
	}
}

func TestDragBelowThresholdIsAClick(t *testing.T) {
	e, a, _, _ := tripleEditor(t)

	press(e, 40, 20, 0)
	move(e, 42, 21) // under 5px
	release(e, 42, 21)

	if a.Position() != (geom.Point{}) {
		t.Errorf("sub-threshold drag moved the node to %+v", a.Position())
	}
	if e.CanUndo() {
		t.Error("a click must not create a history entry")
	}
	if !e.Selection().HasNode("A") {
		t.Error("click should select the node")
	}
}

func TestGroupDragIsRigid(t *testing.T) {
	e, a, b, _ := tripleEditor(t)
	e.Selection().AddNode("A")
	e.Selection().AddNode("B")

	press(e, 40, 20, 0) // A already selected: keep the group
	move(e, 140, 70)
	release(e, 140, 70)

	if a.Position() != (geom.Point{X: 100, Y: 50}) {
		t.Errorf("A at %+v, want (100,50)", a.Position())
	}
	if b.Position() != (geom.Point{X: 500, Y: 50}) {
		t.Errorf("B at %+v, want (500,50); group drag must preserve relative layout", b.Position())
	}
}

func TestPressUnselectedReplacesSingleton(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	sel := e.Selection()
	sel.AddNode("A")

	press(e, 440, 20, 0) // B, no modifier
	release(e, 440, 20)

	if sel.HasNode("A") || !sel.HasNode("B") {
		t.Errorf("selection = %v, want just B", sel.NodeIDs())
	}
}

func TestModifierTogglesMembership(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	sel := e.Selection()

	press(e, 40, 20, ModMulti)
	release(e, 40, 20)
	press(e, 440, 20, ModMulti)
	release(e, 440, 20)
	if sel.NodeCount() != 2 {
		t.Fatalf("selection = %v, want A and B", sel.NodeIDs())
	}

	press(e, 40, 20, ModMulti) // toggle A off
	release(e, 40, 20)
	if sel.HasNode("A") || !sel.HasNode("B") {
		t.Errorf("selection = %v, want just B", sel.NodeIDs())
	}
}

func TestEmptyPressClearsOptimistically(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	sel := e.Selection()
	sel.AddNode("A")

	press(e, 900, 700, 0) // empty canvas
	if !sel.Empty() {
		t.Error("selection should clear on the press, before any drag")
	}
	if e.InteractionState() != StateBoxSelecting {
		t.Errorf("state = %v, want box selecting", e.InteractionState())
	}
	release(e, 900, 700)
}

func TestModifierBoxSelectIsAdditive(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	sel := e.Selection()
	sel.AddNode("A")

	// Modifier-held press on empty canvas keeps the selection, and the
	// box around B unions into it.
	press(e, 380, -60, ModMulti)
	if !sel.HasNode("A") {
		t.Fatal("modifier press dropped the existing selection")
	}
	move(e, 560, 100)
	release(e, 560, 100)

	if !sel.HasNode("A") || !sel.HasNode("B") {
		t.Errorf("selection = %v, want A and B", sel.NodeIDs())
	}
}

func TestBoxSelectUsesReleasePosition(t *testing.T) {
	e, _, _, _ := tripleEditor(t)

	// No move event: the release coordinates alone define the far
	// corner.
	press(e, -100, -100, 0)
	release(e, 700, 700)

	if got := e.Selection().NodeCount(); got != 3 {
		t.Errorf("selected %d nodes, want 3", got)
	}
}

func TestBoxSelectCoversGraphEitherCornerOrder(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		e, _, _, _ := tripleEditor(t)
		x0, y0, x1, y1 := -100.0, -100.0, 700.0, 700.0
		if reversed {
			x0, x1 = x1, x0
			y0, y1 = y1, y0
		}
		press(e, x0, y0, 0)
		move(e, x1, y1)
		release(e, x1, y1)

		sel := e.Selection()
		if sel.NodeCount() != 3 {
			t.Errorf("reversed=%v: selected %d nodes, want 3", reversed, sel.NodeCount())
		}
		if sel.ConnectionCount() != 2 {
			t.Errorf("reversed=%v: selected %d connections, want 2", reversed, sel.ConnectionCount())
		}
	}
}

func TestBoxFilterNodesOnly(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	e.SetBoxFilter(BoxNodes)

	press(e, -100, -100, 0)
	move(e, 700, 700)
	release(e, 700, 700)

	sel := e.Selection()
	if sel.NodeCount() != 3 || sel.ConnectionCount() != 0 {
		t.Errorf("nodes-only box selected %d nodes / %d connections", sel.NodeCount(), sel.ConnectionCount())
	}
}

func TestDeleteSelectionCascades(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	e.Selection().AddNode("A")

	nodes, conns := e.DeleteSelection()
	if nodes != 1 || conns != 2 {
		t.Errorf("removed %d nodes / %d connections, want 1/2", nodes, conns)
	}
	doc := e.Document()
	if _, ok := doc.Node("A"); ok {
		t.Error("A still present")
	}
	if doc.ConnectionCount() != 0 {
		t.Error("cascade left connections behind")
	}
	if !e.Selection().Empty() {
		t.Error("selection still references deleted entities")
	}

	e.Undo()
	if _, ok := doc.Node("A"); !ok {
		t.Error("undo did not restore A")
	}
	if doc.ConnectionCount() != 2 {
		t.Errorf("undo restored %d connections, want 2", doc.ConnectionCount())
	}
}

func TestConnectionCreationGesture(t *testing.T) {
	e, _, _, _ := tripleEditor(t)

	if !e.StartConnection("C") {
		t.Fatal("StartConnection refused a valid node")
	}
	if _, _, active := e.ConnectionPreview(); !active {
		t.Error("no preview while creating")
	}

	press(e, 440, 20, 0) // B completes C->B
	doc := e.Document()
	if doc.ConnectionCount() != 3 {
		t.Fatalf("connection count = %d, want 3", doc.ConnectionCount())
	}
	if e.InteractionState() != StateIdle {
		t.Errorf("state = %v, want idle after completion", e.InteractionState())
	}

	var created *graph.Connection
	for _, c := range doc.Connections() {
		if c.Source == "C" && c.Target == "B" {
			created = c
		}
	}
	if created == nil {
		t.Fatal("C->B not found")
	}
	if !e.Selection().HasConnection(created.ID) {
		t.Error("new connection should be selected")
	}
}

func TestConnectionCreationCancelsOnEmptyPress(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	e.StartConnection("C")

	press(e, 900, 700, 0) // empty canvas cancels
	if e.InteractionState() != StateIdle {
		t.Errorf("state = %v, want idle", e.InteractionState())
	}
	if e.Document().ConnectionCount() != 2 {
		t.Error("cancel still created a connection")
	}
}

func TestDuplicateSelection(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	sel := e.Selection()
	sel.AddNode("A")
	sel.AddNode("B")

	newIDs := e.DuplicateSelection(geom.Point{X: 1000, Y: 1000})
	if len(newIDs) != 2 {
		t.Fatalf("duplicated %d nodes, want 2", len(newIDs))
	}
	doc := e.Document()
	if doc.NodeCount() != 5 {
		t.Errorf("node count = %d, want 5", doc.NodeCount())
	}
	// Both A->B and B->A have both endpoints selected, so both copy.
	if doc.ConnectionCount() != 4 {
		t.Errorf("connection count = %d, want 4", doc.ConnectionCount())
	}
	for _, id := range newIDs {
		if !sel.HasNode(id) {
			t.Error("copies should become the new selection")
		}
	}
	if sel.HasNode("A") || sel.HasNode("B") {
		t.Error("originals should leave the selection")
	}

	// Relative layout is preserved: copies keep the 400-unit spread.
	var xs []float64
	for _, id := range newIDs {
		n, _ := doc.Node(id)
		xs = append(xs, n.Position().X)
	}
	dx := xs[0] - xs[1]
	if dx < 0 {
		dx = -dx
	}
	if dx != 400 {
		t.Errorf("copy spread = %v, want 400", dx)
	}

	e.Undo()
	if doc.NodeCount() != 3 || doc.ConnectionCount() != 2 {
		t.Error("undo did not remove the copies")
	}
}

func TestMiddleButtonPans(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	e.HandlePointer(PointerEvent{Kind: PointerDown, Btn: ButtonMiddle, X: 100, Y: 100})
	e.HandlePointer(PointerEvent{Kind: PointerMove, X: 160, Y: 130})
	e.HandlePointer(PointerEvent{Kind: PointerUp, Btn: ButtonMiddle, X: 160, Y: 130})

	px, py := e.Viewport().Pan()
	if px != 60 || py != 30 {
		t.Errorf("pan = (%v,%v), want (60,30)", px, py)
	}
}

func TestRightPressReportsContext(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	var got Hit
	e.SetOnContextMenu(func(h Hit, _ geom.Point) { got = h })

	e.HandlePointer(PointerEvent{Kind: PointerDown, Btn: ButtonRight, X: 40, Y: 20})
	if got.Kind != HitNode || got.NodeID != "A" {
		t.Errorf("context hit = %+v, want node A", got)
	}
}

func TestChangeNotificationCoalesces(t *testing.T) {
	e, _, _, _ := tripleEditor(t)
	calls := 0
	e.SetOnChange(func() { calls++ })

	e.Selection().AddNode("A")
	e.DeleteSelection() // several internal mutations
	if calls != 1 {
		t.Errorf("delete emitted %d notifications, want 1", calls)
	}
}
