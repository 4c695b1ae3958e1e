package layout

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// Concentrate arrangement spacing, in world units.
const (
	gridHSpacing = 160.0
	gridVSpacing = 100.0
	boxPadding   = 20.0
	groupGap     = 60.0
)

// Components partitions a document's nodes by undirected connectivity:
// nodes with no neighbor are isolated, the rest fall into connected
// components discovered by depth-first traversal in document order.
// Malformed connections (unresolvable endpoints) are logged and
// skipped. The logger may be nil.
func Components(doc *graph.Document, logger *log.Logger) (components [][]*graph.Node, isolated []*graph.Node) {
	nodes := doc.Nodes()
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	// Undirected adjacency; connection direction is irrelevant here.
	adj := make(map[string][]string, len(nodes))
	for _, c := range doc.Connections() {
		if !known[c.Source] || !known[c.Target] {
			if logger != nil {
				logger.Warn("skipping connection with unresolvable endpoint",
					"connection", c.ID, "source", c.Source, "target", c.Target)
			}
			continue
		}
		if c.Source == c.Target {
			continue
		}
		adj[c.Source] = append(adj[c.Source], c.Target)
		adj[c.Target] = append(adj[c.Target], c.Source)
	}

	connected := make(map[string]*graph.Node)
	for _, n := range nodes {
		if len(adj[n.ID]) == 0 {
			isolated = append(isolated, n)
		} else {
			connected[n.ID] = n
		}
	}

	visited := make(map[string]bool, len(connected))
	for _, start := range nodes {
		if connected[start.ID] == nil || visited[start.ID] {
			continue
		}
		var comp []*graph.Node
		stack := []string{start.ID}
		visited[start.ID] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, connected[id])
			for _, next := range adj[id] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
		components = append(components, comp)
	}
	return components, isolated
}

// Concentrate separates isolated nodes from connected components:
// isolated nodes pack into a centered grid at the top, and each
// component is translated as a rigid unit into a vertical stack below,
// tallest first. The logger receives malformed-connection diagnostics
// and may be nil.
func Concentrate(doc *graph.Document, logger *log.Logger) map[string]geom.Point {
	if doc.NodeCount() == 0 {
		return nil
	}
	groups, isolated := Components(doc, logger)

	components := make([]*component, len(groups))
	for i, nodes := range groups {
		comp := &component{nodes: nodes}
		for j, n := range nodes {
			if j == 0 {
				comp.box = n.Bounds()
			} else {
				comp.box = comp.box.Union(n.Bounds())
			}
		}
		comp.box = comp.box.Expand(boxPadding)
		components[i] = comp
	}

	pos := make(map[string]geom.Point, doc.NodeCount())
	cursorY := placeIsolatedGrid(isolated, pos)

	// Tallest components first, then rigid-stack below the grid.
	sort.SliceStable(components, func(i, j int) bool {
		return components[i].box.H > components[j].box.H
	})
	for _, comp := range components {
		dx := -comp.box.X - comp.box.W/2
		dy := cursorY - comp.box.Y
		for _, n := range comp.nodes {
			pos[n.ID] = n.Position().Add(geom.Point{X: dx, Y: dy})
		}
		cursorY += comp.box.H + groupGap
	}
	return pos
}

type component struct {
	nodes []*graph.Node
	box   geom.Rect
}

func gridColumns(n int) int {
	switch {
	case n <= 4:
		return 2
	case n <= 9:
		return 3
	case n <= 16:
		return 4
	default:
		return 5
	}
}

// placeIsolatedGrid packs the isolated nodes into a centered grid at
// the top of the arrangement and returns the Y cursor below it.
func placeIsolatedGrid(isolated []*graph.Node, pos map[string]geom.Point) float64 {
	if len(isolated) == 0 {
		return 0
	}
	cols := gridColumns(len(isolated))
	rows := (len(isolated) + cols - 1) / cols

	for i, n := range isolated {
		row := i / cols
		col := i % cols
		inRow := cols
		if row == rows-1 {
			if rem := len(isolated) % cols; rem != 0 {
				inRow = rem
			}
		}
		width := float64(inRow-1) * gridHSpacing
		pos[n.ID] = geom.Point{
			X: float64(col)*gridHSpacing - width/2,
			Y: float64(row) * gridVSpacing,
		}
	}
	return float64(rows)*gridVSpacing + groupGap
}
