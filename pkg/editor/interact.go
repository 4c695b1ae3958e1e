package editor

import (
	"github.com/ha1tch/fsm-canvas/pkg/geom"
)

// DragThresholdPx is the screen-space distance a press must travel
// before it counts as a drag rather than a click.
const DragThresholdPx = 5.0

// State names the interaction mode the editor is in. Transitions are
// driven entirely by pointer and key events.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateDraggingNode
	StateBoxSelecting
	StateCreatingConnection
)

// PointerKind discriminates pointer events.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// Button identifies the pointer button for down/up events.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

// Modifiers is a bitmask of modifier keys held during an event.
type Modifiers uint8

const (
	// ModMulti is the multi-select modifier (ctrl or shift on most
	// frontends).
	ModMulti Modifiers = 1 << iota
)

// PointerEvent is a frontend-agnostic pointer event in screen
// coordinates.
type PointerEvent struct {
	Kind PointerKind
	Btn  Button
	Mod  Modifiers
	X    float64
	Y    float64
}

// Key names the editing actions reachable from the keyboard. Frontends
// map their own chords onto these.
type Key int

const (
	KeyNone Key = iota
	KeyDelete
	KeyEscape
	KeyUndo
	KeyRedo
	KeyFit
	KeyDuplicate
)

// KeyEvent is a frontend-agnostic key event. InTextInput marks events
// that belong to an active text field; the engine ignores those so
// native editing behavior passes through.
type KeyEvent struct {
	Key         Key
	Mod         Modifiers
	InTextInput bool
}

// BoxFilter restricts which entity kinds a box selection accepts.
type BoxFilter int

const (
	BoxAll BoxFilter = iota
	BoxNodes
	BoxConnections
)

// InteractionState returns the current interaction mode.
func (e *Editor) InteractionState() State { return e.state }

// SetBoxFilter sets the entity filter applied to subsequent box
// selections.
func (e *Editor) SetBoxFilter(f BoxFilter) { e.boxFilter = f }

// BoxFilterMode returns the active box-selection filter.
func (e *Editor) BoxFilterMode() BoxFilter { return e.boxFilter }

// PointerWorld returns the last known pointer position in world
// coordinates.
func (e *Editor) PointerWorld() geom.Point { return e.pointerWorld }

// BoxSelectionRect returns the in-progress box-selection rectangle in
// world coordinates, and whether one is active.
func (e *Editor) BoxSelectionRect() (geom.Rect, bool) {
	if e.state != StateBoxSelecting {
		return geom.Rect{}, false
	}
	return geom.RectFromCorners(e.boxStart, e.boxEnd), true
}

// ConnectionPreview returns the endpoints of the rubber-band line shown
// while a connection is being created: the source node's center and the
// current pointer position.
func (e *Editor) ConnectionPreview() (from, to geom.Point, active bool) {
	if e.state != StateCreatingConnection {
		return geom.Point{}, geom.Point{}, false
	}
	n, ok := e.doc.Node(e.connectFrom)
	if !ok {
		return geom.Point{}, geom.Point{}, false
	}
	return n.Center(), e.pointerWorld, true
}

// StartConnection enters connection-creation mode anchored at the given
// source node. The next left press on a different node completes the
// connection; anywhere else cancels.
func (e *Editor) StartConnection(sourceID string) bool {
	if _, ok := e.doc.Node(sourceID); !ok {
		return false
	}
	e.state = StateCreatingConnection
	e.connectFrom = sourceID
	e.markChanged()
	return true
}

// CancelConnection leaves connection-creation mode without creating
// anything.
func (e *Editor) CancelConnection() {
	if e.state != StateCreatingConnection {
		return
	}
	e.state = StateIdle
	e.connectFrom = ""
	e.markChanged()
}

// HandlePointer feeds one pointer event through the interaction state
// machine.
func (e *Editor) HandlePointer(ev PointerEvent) {
	e.batch(func() {
		switch ev.Kind {
		case PointerDown:
			e.pointerDown(ev)
		case PointerMove:
			e.pointerMove(ev)
		case PointerUp:
			e.pointerUp(ev)
		}
	})
}

func (e *Editor) pointerDown(ev PointerEvent) {
	screen := geom.Point{X: ev.X, Y: ev.Y}
	wx, wy := e.view.ScreenToWorld(ev.X, ev.Y)
	world := geom.Point{X: wx, Y: wy}
	e.pointerWorld = world
	e.lastScreen = screen

	switch ev.Btn {
	case ButtonRight:
		if e.onContext != nil {
			e.onContext(e.groups.HitTest(world, e.view.Zoom()), world)
		}

	case ButtonMiddle:
		e.state = StatePanning
		e.pressScreen = screen
		e.dragExceeded = false

	case ButtonLeft:
		e.pressScreen = screen
		e.dragExceeded = false

		if e.state == StateCreatingConnection {
			hit := e.groups.HitTest(world, e.view.Zoom())
			if hit.Kind == HitNode && hit.NodeID != e.connectFrom {
				e.completeConnection(hit.NodeID)
			} else {
				e.CancelConnection()
			}
			return
		}

		hit := e.groups.HitTest(world, e.view.Zoom())
		switch hit.Kind {
		case HitNode:
			e.pressNode(hit.NodeID, ev.Mod, world)
		case HitConnection, HitArrow:
			e.pressConnections(hit.ConnectionIDs, ev.Mod)
		default:
			// Optimistic clear: an empty-canvas press drops the
			// selection immediately, before the box drag (if any)
			// starts. The multi-select modifier keeps it so the box
			// unions into the existing selection.
			e.state = StateBoxSelecting
			if ev.Mod&ModMulti == 0 && !e.sel.Empty() {
				e.sel.Clear()
			}
			e.boxStart = world
			e.boxEnd = world
			e.markChanged()
		}
	}
}

// pressNode resolves selection for a left press on a node and arms the
// drag. An already-selected node keeps the selection intact so the
// whole group can be dragged; an unselected node replaces a singleton
// selection or joins under the multi-select modifier.
func (e *Editor) pressNode(id string, mod Modifiers, world geom.Point) {
	n, ok := e.doc.Node(id)
	if !ok {
		return
	}

	switch {
	case mod&ModMulti != 0:
		e.sel.ToggleNode(id)
	case e.sel.HasNode(id):
		// Keep the group selection for a group drag.
	default:
		// A plain press joins an existing multi-selection (so a drag
		// target can be added without destroying it) but replaces a
		// single-entity selection.
		if e.sel.NodeCount() <= 1 {
			e.sel.Clear()
		}
		e.sel.AddNode(id)
	}
	e.doc.RaiseNode(id)

	if e.sel.HasNode(id) {
		e.state = StateDraggingNode
		e.dragNodeID = id
		e.dragOffset = world.Sub(n.Position())
		e.dragStart = make(map[string]geom.Point)
		for _, sid := range e.sel.NodeIDs() {
			if sn, ok := e.doc.Node(sid); ok {
				e.dragStart[sid] = sn.Position()
			}
		}
	} else {
		e.state = StateIdle
	}
	e.markChanged()
}

// pressConnections resolves selection for a left press on a connection
// line or arrow cluster; all connections of the hit direction act as
// one unit.
func (e *Editor) pressConnections(ids []string, mod Modifiers) {
	if len(ids) == 0 {
		return
	}
	if mod&ModMulti != 0 {
		for _, id := range ids {
			e.sel.ToggleConnection(id)
		}
	} else {
		e.sel.Clear()
		for _, id := range ids {
			e.sel.AddConnection(id)
		}
	}
	e.state = StateIdle
	e.markChanged()
}

func (e *Editor) pointerMove(ev PointerEvent) {
	screen := geom.Point{X: ev.X, Y: ev.Y}
	wx, wy := e.view.ScreenToWorld(ev.X, ev.Y)
	world := geom.Point{X: wx, Y: wy}
	e.pointerWorld = world

	if !e.dragExceeded && e.state != StateIdle &&
		geom.Dist(screen, e.pressScreen) > DragThresholdPx {
		e.dragExceeded = true
	}

	switch e.state {
	case StatePanning:
		e.view.PanBy(screen.X-e.lastScreen.X, screen.Y-e.lastScreen.Y)

	case StateDraggingNode:
		if e.dragExceeded {
			e.dragTo(world)
		}

	case StateBoxSelecting:
		e.boxEnd = world
		e.markChanged()

	case StateCreatingConnection:
		// Rubber-band endpoint follows the pointer.
		e.markChanged()
	}

	e.lastScreen = screen
}

// dragTo moves the dragged node, and with it every other selected node
// as a rigid group.
func (e *Editor) dragTo(world geom.Point) {
	anchor, ok := e.doc.Node(e.dragNodeID)
	if !ok {
		e.state = StateIdle
		return
	}
	target := world.Sub(e.dragOffset)
	delta := target.Sub(anchor.Position())
	if delta.Len() < geom.Epsilon {
		return
	}
	for _, id := range e.sel.NodeIDs() {
		if n, ok := e.doc.Node(id); ok {
			n.MoveTo(n.Position().Add(delta))
		}
	}
	e.groups.MarkDirty()
	e.markChanged()
}

func (e *Editor) pointerUp(ev PointerEvent) {
	switch e.state {
	case StatePanning:
		e.state = StateIdle

	case StateDraggingNode:
		if e.dragExceeded {
			after := make(map[string]geom.Point, len(e.dragStart))
			for id := range e.dragStart {
				if n, ok := e.doc.Node(id); ok {
					after[id] = n.Position()
				}
			}
			e.history.RecordMove(e.dragStart, after)
		}
		e.dragStart = nil
		e.dragNodeID = ""
		e.state = StateIdle

	case StateBoxSelecting:
		// The release position is the rectangle's far corner, whether or
		// not a move event preceded it there.
		wx, wy := e.view.ScreenToWorld(ev.X, ev.Y)
		e.boxEnd = geom.Point{X: wx, Y: wy}
		e.applyBoxSelection(geom.RectFromCorners(e.boxStart, e.boxEnd))
		e.state = StateIdle
		e.markChanged()
	}
	e.dragExceeded = false
}

// applyBoxSelection unions the entities accepted by the rectangle into
// the selection, honoring the active filter. Nodes are accepted when
// their bounds overlap the rectangle; connections when their group's
// endpoint centers or cached arrow vertices fall inside it.
func (e *Editor) applyBoxSelection(r geom.Rect) {
	if e.boxFilter != BoxConnections {
		for _, n := range e.doc.Nodes() {
			if geom.RectsOverlap(n.Bounds(), r) {
				e.sel.AddNode(n.ID)
			}
		}
	}
	if e.boxFilter != BoxNodes {
		for _, id := range e.groups.ConnectionsInRect(r) {
			e.sel.AddConnection(id)
		}
	}
}

func (e *Editor) completeConnection(target string) {
	source := e.connectFrom
	e.state = StateIdle
	e.connectFrom = ""
	if c := e.Connect(source, target); c != nil {
		e.sel.Clear()
		e.sel.AddConnection(c.ID)
	}
	e.markChanged()
}

// HandleKey feeds one key event through the editor. Events flagged as
// belonging to a text input are ignored.
func (e *Editor) HandleKey(ev KeyEvent) {
	if ev.InTextInput {
		return
	}
	switch ev.Key {
	case KeyDelete:
		e.DeleteSelection()
	case KeyEscape:
		switch e.state {
		case StateCreatingConnection:
			e.CancelConnection()
		case StateBoxSelecting:
			e.state = StateIdle
			e.markChanged()
		default:
			if !e.sel.Empty() {
				e.sel.Clear()
				e.markChanged()
			}
		}
	case KeyUndo:
		e.Undo()
	case KeyRedo:
		e.Redo()
	case KeyFit:
		e.FitView()
	case KeyDuplicate:
		e.DuplicateSelection(e.pointerWorld)
	}
}
