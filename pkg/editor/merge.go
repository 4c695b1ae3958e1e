package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// DefaultMergeIterationCap bounds how many factoring steps one
// condition-merge run may take before it aborts.
const DefaultMergeIterationCap = 64

// ErrMergeIterationCap is returned when a condition-merge run exceeds
// its iteration budget. The document is left untouched.
var ErrMergeIterationCap = errors.New("condition merge exceeded iteration cap")

// mergePlan accumulates the rewrite to apply once planning succeeds.
// Nothing touches the document until the whole plan is known, so an
// aborted run has no effect.
type mergePlan struct {
	addNodes    []*graph.Node
	addConns    []*graph.Connection
	removeConns []*graph.Connection

	// outgoing connections of planned intermediate nodes, keyed by
	// planned node id.
	plannedOut map[string][]*graph.Connection
}

// MergeCommonConditions factors shared leading conditions out of a
// node's outgoing connections. Connections that agree on their first
// condition are rerouted through a fresh intermediate node guarded by
// that condition, with the remaining conditions kept on the second leg.
// The rewrite repeats on each intermediate node, so chains of shared
// prefixes collapse level by level. The whole run is one history entry;
// exceeding the iteration cap aborts without modifying anything.
func (e *Editor) MergeCommonConditions(nodeID string) error {
	if _, ok := e.doc.Node(nodeID); !ok {
		return fmt.Errorf("merge: unknown node %q", nodeID)
	}

	limit := e.mergeCap
	if limit < 1 {
		limit = DefaultMergeIterationCap
	}

	plan := &mergePlan{plannedOut: make(map[string][]*graph.Connection)}
	visited := make(map[string]bool)
	worklist := []string{nodeID}
	iterations := 0

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		outgoing := plan.outgoingOf(e.doc, id)

		// Group by identical first condition, preserving first-seen
		// order for determinism.
		type condGroup struct {
			cond  graph.Condition
			conns []*graph.Connection
		}
		var groups []*condGroup
		for _, c := range outgoing {
			if len(c.Conditions) == 0 {
				continue
			}
			first := c.Conditions[0]
			var g *condGroup
			for _, cand := range groups {
				if cand.cond.Equal(first) {
					g = cand
					break
				}
			}
			if g == nil {
				g = &condGroup{cond: first}
				groups = append(groups, g)
			}
			g.conns = append(g.conns, c)
		}

		for _, g := range groups {
			if len(g.conns) < 2 {
				continue
			}
			iterations++
			if iterations > limit {
				return ErrMergeIterationCap
			}
			mid := plan.factor(e.doc, id, g.cond, g.conns)
			worklist = append(worklist, mid)
		}
	}

	if len(plan.addNodes) == 0 {
		return nil
	}

	e.batch(func() {
		for _, c := range plan.removeConns {
			e.doc.RemoveConnection(c.ID)
		}
		for _, n := range plan.addNodes {
			e.doc.AddNode(n)
		}
		for _, c := range plan.addConns {
			e.doc.AddConnection(c)
		}
		e.history.RecordReplace(nil, plan.removeConns, plan.addNodes, plan.addConns)
		e.sel.Reconcile(e.doc)
		e.groups.MarkDirty()
		e.markChanged()
	})
	return nil
}

// outgoingOf returns the effective outgoing connections of id under the
// plan so far: live document connections not yet scheduled for removal,
// or the planned connections of a planned intermediate node.
func (p *mergePlan) outgoingOf(doc *graph.Document, id string) []*graph.Connection {
	if planned, ok := p.plannedOut[id]; ok {
		return planned
	}
	removed := make(map[string]bool, len(p.removeConns))
	for _, c := range p.removeConns {
		removed[c.ID] = true
	}
	var out []*graph.Connection
	for _, c := range doc.ConnectionsForNode(id) {
		if c.Source == id && !removed[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// factor plans the rewrite of one shared-prefix group: a fresh
// intermediate node, one guarded connection into it, and one tail
// connection per original. Returns the intermediate node's id.
func (p *mergePlan) factor(doc *graph.Document, sourceID string, cond graph.Condition, conns []*graph.Connection) string {
	mid := graph.NewNode(mergeNodeName(cond), 0, 0)
	mid.MoveTo(mergeNodePos(doc, p, sourceID, conns))

	in := graph.NewConnection(sourceID, mid.ID)
	in.Conditions = []graph.Condition{cond}

	p.addNodes = append(p.addNodes, mid)
	p.addConns = append(p.addConns, in)

	var tails []*graph.Connection
	for _, c := range conns {
		tail := c.Clone()
		tail.ID = uuid.NewString()
		tail.Source = mid.ID
		tail.Conditions = tail.Conditions[1:]

		if planned := p.plannedOut[c.Source]; planned != nil {
			// The original was itself planned this run; drop it from
			// the plan instead of scheduling a document removal.
			p.dropPlanned(c)
		} else {
			p.removeConns = append(p.removeConns, c)
		}
		p.addConns = append(p.addConns, tail)
		tails = append(tails, tail)
	}
	p.plannedOut[mid.ID] = tails
	return mid.ID
}

func (p *mergePlan) dropPlanned(c *graph.Connection) {
	for i, cand := range p.addConns {
		if cand.ID == c.ID {
			p.addConns = append(p.addConns[:i], p.addConns[i+1:]...)
			break
		}
	}
	planned := p.plannedOut[c.Source]
	for i, cand := range planned {
		if cand.ID == c.ID {
			p.plannedOut[c.Source] = append(planned[:i], planned[i+1:]...)
			break
		}
	}
}

func mergeNodeName(c graph.Condition) string {
	if c.Key == "" {
		return "merged"
	}
	return fmt.Sprintf("%s %s %s", c.Key, c.Operator, c.Value)
}

// mergeNodePos places the intermediate node between the source and the
// centroid of the group's targets, falling back to an offset below the
// source when no target resolves.
func mergeNodePos(doc *graph.Document, p *mergePlan, sourceID string, conns []*graph.Connection) geom.Point {
	src := geom.Point{}
	if n, ok := nodeIn(doc, p, sourceID); ok {
		src = n.Center()
	}

	var sum geom.Point
	count := 0
	for _, c := range conns {
		if n, ok := nodeIn(doc, p, c.Target); ok {
			sum = sum.Add(n.Center())
			count++
		}
	}
	if count == 0 {
		return src.Add(geom.Point{X: 0, Y: 120})
	}
	return geom.Midpoint(src, sum.Scale(1/float64(count)))
}

func nodeIn(doc *graph.Document, p *mergePlan, id string) (*graph.Node, bool) {
	if n, ok := doc.Node(id); ok {
		return n, true
	}
	for _, n := range p.addNodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
