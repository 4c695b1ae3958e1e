package editor

import (
	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// DefaultHistoryCapacity bounds the undo log; the oldest entry is
// evicted silently once exceeded.
const DefaultHistoryCapacity = 80

// ActionType tags a history entry.
type ActionType string

const (
	ActionAdd            ActionType = "add"
	ActionRemove         ActionType = "remove"
	ActionMove           ActionType = "move"
	ActionEditNode       ActionType = "edit-node"
	ActionEditConnection ActionType = "edit-connection"
	ActionReplace        ActionType = "replace"
)

// entry payloads fall into three families: whole-entity snapshots for
// add/remove (bulk for cascades), position maps for moves and layout
// runs, and before/after snapshots for in-place edits. Entries are
// immutable once pushed; only the cursor moves.
type entry struct {
	action  ActionType
	payload any
}

type entitiesPayload struct {
	nodes []*graph.Node
	conns []*graph.Connection
}

// replacePayload covers transformations that remove one entity set and
// add another in a single step, such as the condition-merge rewrite.
type replacePayload struct {
	removed entitiesPayload
	added   entitiesPayload
}

type movePayload struct {
	before map[string]geom.Point
	after  map[string]geom.Point
}

type editNodePayload struct {
	before *graph.Node
	after  *graph.Node
}

type editConnectionPayload struct {
	before *graph.Connection
	after  *graph.Connection
}

// History is a linear action log with an undo/redo cursor. The cursor
// counts applied entries: Undo reverses entries[cursor-1], Redo
// re-applies entries[cursor]. Recording a new entry after an undo
// discards the redo branch. Undo and Redo replay effects directly
// against the document and never record themselves.
type History struct {
	doc      *graph.Document
	entries  []entry
	cursor   int
	capacity int
	applying bool
}

// NewHistory creates a history manager replaying against doc. A
// capacity below 1 selects the default.
func NewHistory(doc *graph.Document, capacity int) *History {
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}
	return &History{doc: doc, capacity: capacity}
}

// CanUndo reports whether an entry is available behind the cursor.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether an entry is available ahead of the cursor.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries) }

// Len returns the number of entries in the log.
func (h *History) Len() int { return len(h.entries) }

func (h *History) push(e entry) {
	if h.applying {
		return
	}
	h.entries = append(h.entries[:h.cursor], e)
	h.cursor = len(h.entries)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[1:]
		h.cursor--
	}
}

func cloneNodes(nodes []*graph.Node) []*graph.Node {
	out := make([]*graph.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneConnections(conns []*graph.Connection) []*graph.Connection {
	out := make([]*graph.Connection, len(conns))
	for i, c := range conns {
		out[i] = c.Clone()
	}
	return out
}

// RecordAdd records the addition of the given entities. Snapshots are
// taken at call time.
func (h *History) RecordAdd(nodes []*graph.Node, conns []*graph.Connection) {
	if len(nodes) == 0 && len(conns) == 0 {
		return
	}
	h.push(entry{ActionAdd, entitiesPayload{cloneNodes(nodes), cloneConnections(conns)}})
}

// RecordRemove records the removal of the given entities, including
// cascade victims.
func (h *History) RecordRemove(nodes []*graph.Node, conns []*graph.Connection) {
	if len(nodes) == 0 && len(conns) == 0 {
		return
	}
	h.push(entry{ActionRemove, entitiesPayload{cloneNodes(nodes), cloneConnections(conns)}})
}

// RecordMove records a node-position change as before/after maps. Used
// for drags and for one-shot layout runs.
func (h *History) RecordMove(before, after map[string]geom.Point) {
	if len(before) == 0 {
		return
	}
	b := make(map[string]geom.Point, len(before))
	for id, p := range before {
		b[id] = p
	}
	a := make(map[string]geom.Point, len(after))
	for id, p := range after {
		a[id] = p
	}
	h.push(entry{ActionMove, movePayload{b, a}})
}

// RecordNodeEdit records an in-place property edit of a node.
func (h *History) RecordNodeEdit(before, after *graph.Node) {
	if before == nil || after == nil {
		return
	}
	h.push(entry{ActionEditNode, editNodePayload{before.Clone(), after.Clone()}})
}

// RecordConnectionEdit records an in-place property edit of a
// connection.
func (h *History) RecordConnectionEdit(before, after *graph.Connection) {
	if before == nil || after == nil {
		return
	}
	h.push(entry{ActionEditConnection, editConnectionPayload{before.Clone(), after.Clone()}})
}

// RecordReplace records the removal of one entity set and the addition
// of another as a single undoable step.
func (h *History) RecordReplace(removedNodes []*graph.Node, removedConns []*graph.Connection, addedNodes []*graph.Node, addedConns []*graph.Connection) {
	if len(removedNodes) == 0 && len(removedConns) == 0 &&
		len(addedNodes) == 0 && len(addedConns) == 0 {
		return
	}
	h.push(entry{ActionReplace, replacePayload{
		removed: entitiesPayload{cloneNodes(removedNodes), cloneConnections(removedConns)},
		added:   entitiesPayload{cloneNodes(addedNodes), cloneConnections(addedConns)},
	}})
}

// Undo applies the inverse effect of the entry at the cursor. Returns
// false when there is nothing to undo.
func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	h.applying = true
	h.applyInverse(h.entries[h.cursor-1])
	h.applying = false
	h.cursor--
	return true
}

// Redo re-applies the forward effect of the entry past the cursor.
func (h *History) Redo() bool {
	if !h.CanRedo() {
		return false
	}
	h.applying = true
	h.applyForward(h.entries[h.cursor])
	h.applying = false
	h.cursor++
	return true
}

func (h *History) addEntities(p entitiesPayload) {
	for _, n := range p.nodes {
		h.doc.AddNode(n.Clone())
	}
	for _, c := range p.conns {
		h.doc.AddConnection(c.Clone())
	}
}

func (h *History) removeEntities(p entitiesPayload) {
	for _, c := range p.conns {
		h.doc.RemoveConnection(c.ID)
	}
	for _, n := range p.nodes {
		h.doc.RemoveNode(n.ID)
	}
}

func (h *History) setPositions(pos map[string]geom.Point) {
	for id, p := range pos {
		if n, ok := h.doc.Node(id); ok {
			n.MoveTo(p)
		}
	}
}

func (h *History) applyForward(e entry) {
	switch p := e.payload.(type) {
	case entitiesPayload:
		if e.action == ActionAdd {
			h.addEntities(p)
		} else {
			h.removeEntities(p)
		}
	case replacePayload:
		h.removeEntities(p.removed)
		h.addEntities(p.added)
	case movePayload:
		h.setPositions(p.after)
	case editNodePayload:
		h.restoreNode(p.after)
	case editConnectionPayload:
		h.restoreConnection(p.after)
	}
}

func (h *History) applyInverse(e entry) {
	switch p := e.payload.(type) {
	case entitiesPayload:
		if e.action == ActionAdd {
			h.removeEntities(p)
		} else {
			h.addEntities(p)
		}
	case replacePayload:
		h.removeEntities(p.added)
		h.addEntities(p.removed)
	case movePayload:
		h.setPositions(p.before)
	case editNodePayload:
		h.restoreNode(p.before)
	case editConnectionPayload:
		h.restoreConnection(p.before)
	}
}

func (h *History) restoreNode(snap *graph.Node) {
	if n, ok := h.doc.Node(snap.ID); ok {
		*n = *snap.Clone()
	}
}

func (h *History) restoreConnection(snap *graph.Connection) {
	if c, ok := h.doc.Connection(snap.ID); ok {
		*c = *snap.Clone()
	}
}
