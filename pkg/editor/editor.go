// Package editor implements the graph editing engine: viewport
// transform, selection, pointer-driven interaction, connection grouping
// and hit-testing, undo/redo history, and the command surface exposed
// to frontends. The engine is purely in-memory and synchronous; all
// collaborators are passed in explicitly, never reached through
// globals.
package editor

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
	"github.com/ha1tch/fsm-canvas/pkg/layout"
)

// Options configures a new Editor.
type Options struct {
	HistoryCapacity int
	ViewportWidth   float64
	ViewportHeight  float64

	// Logger receives layout diagnostics (malformed connections and the
	// like). Nil disables them.
	Logger *log.Logger

	// MergeIterationCap bounds the condition-merge automation; 0 picks
	// the default.
	MergeIterationCap int
}

// Editor owns the entity model, viewport, selection, history, and
// interaction state of one diagram. There is exactly one writer: the
// caller's input-event thread. Mutations follow "mutate then notify";
// multiple mutations within one input event coalesce into a single
// change notification.
type Editor struct {
	doc     *graph.Document
	view    *Viewport
	history *History
	sel     *Selection
	groups  *GroupSet
	logger  *log.Logger

	viewW, viewH float64
	mergeCap     int

	onChange  func()
	onContext func(Hit, geom.Point)

	notifyDepth   int
	notifyPending bool

	// Interaction state, driven by HandlePointer/HandleKey.
	state        State
	boxFilter    BoxFilter
	pressScreen  geom.Point
	lastScreen   geom.Point
	dragExceeded bool
	dragNodeID   string
	dragOffset   geom.Point
	dragStart    map[string]geom.Point
	boxStart     geom.Point
	boxEnd       geom.Point
	connectFrom  string
	pointerWorld geom.Point
}

// New constructs an editor over the given document.
func New(doc *graph.Document, opts Options) *Editor {
	if doc == nil {
		doc = graph.NewDocument()
	}
	e := &Editor{
		doc:      doc,
		view:     NewViewport(),
		history:  NewHistory(doc, opts.HistoryCapacity),
		sel:      NewSelection(),
		groups:   NewGroupSet(doc),
		logger:   opts.Logger,
		viewW:    opts.ViewportWidth,
		viewH:    opts.ViewportHeight,
		mergeCap: opts.MergeIterationCap,
	}
	e.view.SetOnChange(e.markChanged)
	return e
}

// Document returns the entity model.
func (e *Editor) Document() *graph.Document { return e.doc }

// Viewport returns the viewport.
func (e *Editor) Viewport() *Viewport { return e.view }

// Selection returns the current selection sets.
func (e *Editor) Selection() *Selection { return e.sel }

// Groups returns the connection grouping / hit-testing engine.
func (e *Editor) Groups() *GroupSet { return e.groups }

// CanUndo reports whether an undo step is available.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether a redo step is available.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// SetOnChange registers the render layer's "state changed" callback.
// The signal carries no payload; consumers re-read current state.
func (e *Editor) SetOnChange(fn func()) { e.onChange = fn }

// SetOnContextMenu registers the callback invoked on a right-button
// press, with the hit under the pointer and the world position.
func (e *Editor) SetOnContextMenu(fn func(Hit, geom.Point)) { e.onContext = fn }

// SetViewportSize informs the editor of the render surface size, used
// by fit-to-view.
func (e *Editor) SetViewportSize(w, h float64) {
	e.viewW = w
	e.viewH = h
}

// markChanged requests a change notification, coalescing requests made
// inside a batch into one.
func (e *Editor) markChanged() {
	if e.notifyDepth > 0 {
		e.notifyPending = true
		return
	}
	if e.onChange != nil {
		e.onChange()
	}
}

// batch coalesces all notifications raised inside fn into at most one,
// emitted when the outermost batch ends.
func (e *Editor) batch(fn func()) {
	e.notifyDepth++
	fn()
	e.notifyDepth--
	if e.notifyDepth == 0 && e.notifyPending {
		e.notifyPending = false
		if e.onChange != nil {
			e.onChange()
		}
	}
}

// AddNodeAt creates a node at the given world position, records it in
// history, and selects it.
func (e *Editor) AddNodeAt(name string, p geom.Point) *graph.Node {
	n := graph.NewNode(name, p.X, p.Y)
	e.batch(func() {
		e.doc.AddNode(n)
		e.history.RecordAdd([]*graph.Node{n}, nil)
		e.sel.Clear()
		e.sel.AddNode(n.ID)
		e.markChanged()
	})
	return n
}

// RemoveNode deletes a node, cascading to its connections, as one
// history entry.
func (e *Editor) RemoveNode(id string) bool {
	n, ok := e.doc.Node(id)
	if !ok {
		return false
	}
	snap := n.Clone()
	e.batch(func() {
		removed, _ := e.doc.RemoveNode(id)
		e.history.RecordRemove([]*graph.Node{snap}, removed)
		e.sel.Reconcile(e.doc)
		e.groups.MarkDirty()
		e.markChanged()
	})
	return true
}

// Connect creates a connection between two existing nodes and records
// it. Returns nil when either endpoint is missing.
func (e *Editor) Connect(source, target string) *graph.Connection {
	c := graph.NewConnection(source, target)
	if !e.doc.AddConnection(c) {
		return nil
	}
	e.batch(func() {
		e.history.RecordAdd(nil, []*graph.Connection{c})
		e.groups.MarkDirty()
		e.markChanged()
	})
	return c
}

// RemoveConnection deletes a connection and records it.
func (e *Editor) RemoveConnection(id string) bool {
	c, ok := e.doc.Connection(id)
	if !ok {
		return false
	}
	snap := c.Clone()
	e.batch(func() {
		e.doc.RemoveConnection(id)
		e.history.RecordRemove(nil, []*graph.Connection{snap})
		e.sel.RemoveConnection(id)
		e.groups.MarkDirty()
		e.markChanged()
	})
	return true
}

// UpdateNode applies a property edit to a node, recording before/after
// snapshots.
func (e *Editor) UpdateNode(id string, mutate func(*graph.Node)) bool {
	n, ok := e.doc.Node(id)
	if !ok {
		return false
	}
	before := n.Clone()
	if !e.doc.UpdateNode(id, mutate) {
		return false
	}
	e.batch(func() {
		e.history.RecordNodeEdit(before, n)
		e.groups.MarkDirty()
		e.markChanged()
	})
	return true
}

// UpdateConnection applies a property edit to a connection, recording
// before/after snapshots.
func (e *Editor) UpdateConnection(id string, mutate func(*graph.Connection)) bool {
	c, ok := e.doc.Connection(id)
	if !ok {
		return false
	}
	before := c.Clone()
	if !e.doc.UpdateConnection(id, mutate) {
		return false
	}
	e.batch(func() {
		e.history.RecordConnectionEdit(before, c)
		e.groups.MarkDirty()
		e.markChanged()
	})
	return true
}

// Undo reverses the most recent action. The selection is cleared since
// the ids it held may no longer exist.
func (e *Editor) Undo() bool {
	var ok bool
	e.batch(func() {
		ok = e.history.Undo()
		if ok {
			e.sel.Clear()
			e.groups.MarkDirty()
			e.markChanged()
		}
	})
	return ok
}

// Redo re-applies the most recently undone action.
func (e *Editor) Redo() bool {
	var ok bool
	e.batch(func() {
		ok = e.history.Redo()
		if ok {
			e.sel.Clear()
			e.groups.MarkDirty()
			e.markChanged()
		}
	})
	return ok
}

// DeleteSelection removes every selected entity: nodes first, cascading
// their connections, then any remaining selected connections. The whole
// removal is one history entry. Returns the number of nodes and
// connections removed.
func (e *Editor) DeleteSelection() (nodesRemoved, connsRemoved int) {
	nodeIDs := e.sel.NodeIDs()
	connIDs := e.sel.ConnectionIDs()
	if len(nodeIDs) == 0 && len(connIDs) == 0 {
		return 0, 0
	}

	e.batch(func() {
		var nodes []*graph.Node
		var conns []*graph.Connection
		gone := make(map[string]bool)

		for _, id := range nodeIDs {
			n, ok := e.doc.Node(id)
			if !ok {
				continue
			}
			nodes = append(nodes, n.Clone())
			cascaded, _ := e.doc.RemoveNode(id)
			for _, c := range cascaded {
				if !gone[c.ID] {
					gone[c.ID] = true
					conns = append(conns, c)
				}
			}
		}
		for _, id := range connIDs {
			if gone[id] {
				continue
			}
			c, ok := e.doc.Connection(id)
			if !ok {
				continue
			}
			conns = append(conns, c.Clone())
			e.doc.RemoveConnection(id)
		}

		e.history.RecordRemove(nodes, conns)
		nodesRemoved = len(nodes)
		connsRemoved = len(conns)
		e.sel.Clear()
		e.groups.MarkDirty()
		e.markChanged()
	})
	return nodesRemoved, connsRemoved
}

// DuplicateSelection clones the selected nodes, plus only those
// connections with both endpoints in the selection, remapping endpoints
// through fresh ids. The copies are placed so the selection's top-left
// corner lands on the given world anchor, and become the new selection.
// Returns the new node ids.
func (e *Editor) DuplicateSelection(anchor geom.Point) []string {
	nodeIDs := e.sel.NodeIDs()
	if len(nodeIDs) == 0 {
		return nil
	}

	var newIDs []string
	e.batch(func() {
		var box geom.Rect
		first := true
		selected := make(map[string]bool, len(nodeIDs))
		for _, id := range nodeIDs {
			n, ok := e.doc.Node(id)
			if !ok {
				continue
			}
			selected[id] = true
			if first {
				box = n.Bounds()
				first = false
			} else {
				box = box.Union(n.Bounds())
			}
		}
		if first {
			return
		}
		delta := anchor.Sub(geom.Point{X: box.X, Y: box.Y})

		mapping := make(map[string]string, len(nodeIDs))
		var newNodes []*graph.Node
		for _, id := range nodeIDs {
			n, ok := e.doc.Node(id)
			if !ok {
				continue
			}
			clone := n.Clone()
			clone.ID = uuid.NewString()
			clone.MoveTo(n.Position().Add(delta))
			e.doc.AddNode(clone)
			mapping[id] = clone.ID
			newNodes = append(newNodes, clone)
		}

		var newConns []*graph.Connection
		for _, c := range e.doc.Connections() {
			src, okS := mapping[c.Source]
			tgt, okT := mapping[c.Target]
			if !okS || !okT {
				continue
			}
			cc := c.Clone()
			cc.ID = uuid.NewString()
			cc.Source = src
			cc.Target = tgt
			newConns = append(newConns, cc)
		}
		for _, c := range newConns {
			e.doc.AddConnection(c)
		}

		e.history.RecordAdd(newNodes, newConns)

		e.sel.Clear()
		for _, n := range newNodes {
			e.sel.AddNode(n.ID)
			newIDs = append(newIDs, n.ID)
		}
		for _, c := range newConns {
			e.sel.AddConnection(c.ID)
		}
		e.groups.MarkDirty()
		e.markChanged()
	})
	return newIDs
}

// FitView fits the viewport to the selected nodes, or to all nodes when
// nothing is selected.
func (e *Editor) FitView() {
	e.view.FitToContent(e.focusNodes(), e.viewW, e.viewH)
}

// CenterView pans the viewport so the selected nodes (or all nodes when
// nothing is selected) sit at its center, keeping the current zoom.
func (e *Editor) CenterView() {
	nodes := e.focusNodes()
	if len(nodes) == 0 {
		return
	}
	box := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		box = box.Union(n.Bounds())
	}
	e.view.CenterOn(box.Center(), e.viewW, e.viewH)
}

// focusNodes returns the selected nodes, falling back to all nodes.
func (e *Editor) focusNodes() []*graph.Node {
	var nodes []*graph.Node
	for _, id := range e.sel.NodeIDs() {
		if n, ok := e.doc.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		nodes = e.doc.Nodes()
	}
	return nodes
}

// RunTreeLayout arranges nodes hierarchically and records the whole
// move as a single history entry.
func (e *Editor) RunTreeLayout() {
	e.applyPositions(layout.Tree(e.doc))
}

// RunConcentrate runs the concentrate arrangement and records it as a
// single history entry.
func (e *Editor) RunConcentrate() {
	e.applyPositions(layout.Concentrate(e.doc, e.logger))
}

func (e *Editor) applyPositions(pos map[string]geom.Point) {
	if len(pos) == 0 {
		return
	}
	e.batch(func() {
		before := make(map[string]geom.Point, len(pos))
		after := make(map[string]geom.Point, len(pos))
		for id, p := range pos {
			n, ok := e.doc.Node(id)
			if !ok {
				continue
			}
			before[id] = n.Position()
			n.MoveTo(p)
			after[id] = p
		}
		e.history.RecordMove(before, after)
		e.groups.MarkDirty()
		e.markChanged()
	})
}
