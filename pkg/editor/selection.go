package editor

import (
	"sort"

	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// Selection holds the currently selected node and connection ids.
// Sets have no duplicates and insertion order is irrelevant; accessors
// return sorted slices so callers see a deterministic view.
type Selection struct {
	nodes map[string]struct{}
	conns map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{
		nodes: make(map[string]struct{}),
		conns: make(map[string]struct{}),
	}
}

// AddNode adds a node id to the selection.
func (s *Selection) AddNode(id string) {
	if id != "" {
		s.nodes[id] = struct{}{}
	}
}

// RemoveNode drops a node id from the selection.
func (s *Selection) RemoveNode(id string) {
	delete(s.nodes, id)
}

// ToggleNode flips membership of a node id.
func (s *Selection) ToggleNode(id string) {
	if s.HasNode(id) {
		delete(s.nodes, id)
	} else {
		s.AddNode(id)
	}
}

// HasNode reports whether the node id is selected.
func (s *Selection) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// AddConnection adds a connection id to the selection.
func (s *Selection) AddConnection(id string) {
	if id != "" {
		s.conns[id] = struct{}{}
	}
}

// RemoveConnection drops a connection id from the selection.
func (s *Selection) RemoveConnection(id string) {
	delete(s.conns, id)
}

// ToggleConnection flips membership of a connection id.
func (s *Selection) ToggleConnection(id string) {
	if s.HasConnection(id) {
		delete(s.conns, id)
	} else {
		s.AddConnection(id)
	}
}

// HasConnection reports whether the connection id is selected.
func (s *Selection) HasConnection(id string) bool {
	_, ok := s.conns[id]
	return ok
}

// NodeIDs returns the selected node ids, sorted.
func (s *Selection) NodeIDs() []string {
	out := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ConnectionIDs returns the selected connection ids, sorted.
func (s *Selection) ConnectionIDs() []string {
	out := make([]string, 0, len(s.conns))
	for id := range s.conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NodeCount returns the number of selected nodes.
func (s *Selection) NodeCount() int { return len(s.nodes) }

// ConnectionCount returns the number of selected connections.
func (s *Selection) ConnectionCount() int { return len(s.conns) }

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool {
	return len(s.nodes) == 0 && len(s.conns) == 0
}

// Clear empties both sets.
func (s *Selection) Clear() {
	s.nodes = make(map[string]struct{})
	s.conns = make(map[string]struct{})
}

// Reconcile drops ids that no longer resolve in the document. Called
// after deletions and after undo/redo.
func (s *Selection) Reconcile(doc *graph.Document) {
	for id := range s.nodes {
		if _, ok := doc.Node(id); !ok {
			delete(s.nodes, id)
		}
	}
	for id := range s.conns {
		if _, ok := doc.Connection(id); !ok {
			delete(s.conns, id)
		}
	}
}
