// Package layout provides one-shot arrangement passes over a document.
// Each pass is stateless: it reads the current nodes and connections
// and returns target positions without mutating anything, so callers
// can record the move however they like.
package layout

import (
	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// Tree layout spacing, in world units.
const (
	treeHSpacing = 160.0
	treeVSpacing = 120.0
)

// Tree arranges nodes hierarchically: roots (nodes with no incoming
// connection) on the top level, each newly reached node one level below
// the parent that first reaches it. When the graph has no root at all,
// a node with minimum in-degree stands in. Nodes the traversal never
// reaches are appended one level past the deepest. Levels are centered
// horizontally and stacked top to bottom. Identical input yields
// identical output.
func Tree(doc *graph.Document) map[string]geom.Point {
	nodes := doc.Nodes()
	if len(nodes) == 0 {
		return nil
	}

	order := make(map[string]int, len(nodes))
	for i, n := range nodes {
		order[n.ID] = i
	}

	adj := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, c := range doc.Connections() {
		if _, ok := order[c.Source]; !ok {
			continue
		}
		if _, ok := order[c.Target]; !ok {
			continue
		}
		adj[c.Source] = append(adj[c.Source], c.Target)
		inDegree[c.Target]++
	}

	var roots []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 0 {
		// Fully cyclic graph: the first node with minimum in-degree
		// serves as a synthetic root.
		best := nodes[0].ID
		for _, n := range nodes[1:] {
			if inDegree[n.ID] < inDegree[best] {
				best = n.ID
			}
		}
		roots = []string{best}
	}

	// BFS leveling: first visit wins, so a node's level is fixed by the
	// shortest traversal distance from the root set.
	level := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(roots))
	for _, id := range roots {
		level[id] = 0
		queue = append(queue, id)
	}
	deepest := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if _, seen := level[next]; seen {
				continue
			}
			level[next] = level[id] + 1
			if level[next] > deepest {
				deepest = level[next]
			}
			queue = append(queue, next)
		}
	}
	overflow := deepest + 1
	for _, n := range nodes {
		if _, seen := level[n.ID]; !seen {
			level[n.ID] = overflow
		}
	}

	// Rows keep document order, which the traversal above never
	// depends on, so the whole pass is deterministic.
	rows := make(map[int][]string)
	maxLevel := 0
	for _, n := range nodes {
		l := level[n.ID]
		rows[l] = append(rows[l], n.ID)
		if l > maxLevel {
			maxLevel = l
		}
	}

	pos := make(map[string]geom.Point, len(nodes))
	for l := 0; l <= maxLevel; l++ {
		row := rows[l]
		if len(row) == 0 {
			continue
		}
		width := float64(len(row)-1) * treeHSpacing
		for i, id := range row {
			pos[id] = geom.Point{
				X: float64(i)*treeHSpacing - width/2,
				Y: float64(l) * treeVSpacing,
			}
		}
	}
	return pos
}
