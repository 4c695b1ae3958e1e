package editor

import (
	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// Hit-testing and arrow geometry parameters. The selection tolerance is
// in screen pixels and gets divided by the zoom so the selectable band
// stays a constant width on screen.
const (
	hitTolerancePx = 8.0

	// DefaultArrowSize is the arrowhead edge length used when a
	// connection carries no override.
	DefaultArrowSize = 10.0

	// groupCircleRadius is the radius of the midpoint marker drawn on
	// bidirectional groups; the opposing arrow clusters are pushed out
	// past it so the three never overlap.
	groupCircleRadius = 4.0

	arrowSpacing = 1.5 // multiple of arrow size between paired arrows
)

// Direction distinguishes the two flows within a connection group.
// Forward runs from the lexicographically smaller node id to the larger.
type Direction int

const (
	DirForward Direction = iota
	DirBackward
)

// ArrowCluster is the set of arrowhead triangles drawn for one
// direction of a group, with their shared anchor point. Triangle
// vertices are cached in world coordinates for hit-testing.
type ArrowCluster struct {
	Anchor    geom.Point
	Triangles []geom.Triangle
	ConnIDs   []string
}

// ConnectionGroup bundles every connection between one unordered node
// pair. NodeA is always the lexicographically smaller id.
type ConnectionGroup struct {
	Key      string
	NodeA    string
	NodeB    string
	Forward  []*graph.Connection // source == NodeA
	Backward []*graph.Connection // source == NodeB

	// Segment endpoints (node centers) and the cached arrow geometry,
	// valid after Recompute.
	EndA geom.Point
	EndB geom.Point

	ForwardCluster  *ArrowCluster
	BackwardCluster *ArrowCluster
}

// Bidirectional reports whether the group carries connections in both
// directions.
func (g *ConnectionGroup) Bidirectional() bool {
	return len(g.Forward) > 0 && len(g.Backward) > 0
}

// Total returns the number of connections in the group.
func (g *ConnectionGroup) Total() int {
	return len(g.Forward) + len(g.Backward)
}

func pairKey(a, b string) (lo, hi, key string) {
	if b < a {
		a, b = b, a
	}
	return a, b, a + "|" + b
}

// HitKind discriminates hit-test results.
type HitKind int

const (
	HitNone HitKind = iota
	HitNode
	HitConnection
	HitArrow
)

// Hit is the result of a world-point query. For connection and arrow
// hits, ConnectionIDs lists every connection of the hit direction.
type Hit struct {
	Kind          HitKind
	NodeID        string
	ConnectionIDs []string
	Direction     Direction
	GroupKey      string
}

// GroupSet maintains the connection groups and their cached arrow
// geometry for one document. The cache is rebuilt through an explicit
// Recompute pass, keyed by a dirty flag set whenever a node moves or
// group membership changes; both rendering and hit-testing read the
// same geometry.
type GroupSet struct {
	doc    *graph.Document
	groups []*ConnectionGroup
	byKey  map[string]*ConnectionGroup
	dirty  bool
}

// NewGroupSet creates a group set over doc, initially dirty.
func NewGroupSet(doc *graph.Document) *GroupSet {
	return &GroupSet{doc: doc, dirty: true}
}

// MarkDirty schedules a geometry rebuild before the next read.
func (gs *GroupSet) MarkDirty() {
	gs.dirty = true
}

// Groups returns the current groups, rebuilding the cache if dirty.
// Group order follows first appearance in the document's connection
// order, so results are deterministic.
func (gs *GroupSet) Groups() []*ConnectionGroup {
	gs.ensure()
	return gs.groups
}

// Group returns the group for the unordered pair (a, b), if any.
func (gs *GroupSet) Group(a, b string) (*ConnectionGroup, bool) {
	gs.ensure()
	_, _, key := pairKey(a, b)
	g, ok := gs.byKey[key]
	return g, ok
}

func (gs *GroupSet) ensure() {
	if gs.dirty {
		gs.Recompute()
	}
}

// Recompute rebuilds grouping and arrow geometry from the document.
func (gs *GroupSet) Recompute() {
	gs.groups = gs.groups[:0]
	gs.byKey = make(map[string]*ConnectionGroup)

	for _, c := range gs.doc.Connections() {
		lo, hi, key := pairKey(c.Source, c.Target)
		g, ok := gs.byKey[key]
		if !ok {
			g = &ConnectionGroup{Key: key, NodeA: lo, NodeB: hi}
			gs.byKey[key] = g
			gs.groups = append(gs.groups, g)
		}
		if c.Source == lo {
			g.Forward = append(g.Forward, c)
		} else {
			g.Backward = append(g.Backward, c)
		}
	}

	for _, g := range gs.groups {
		gs.computeGeometry(g)
	}
	gs.dirty = false
}

func arrowSizeFor(conns []*graph.Connection) float64 {
	for _, c := range conns {
		if c.Style.ArrowSize > 0 {
			return c.Style.ArrowSize
		}
	}
	return DefaultArrowSize
}

func connIDs(conns []*graph.Connection) []string {
	out := make([]string, len(conns))
	for i, c := range conns {
		out[i] = c.ID
	}
	return out
}

// computeGeometry fills segment endpoints and arrow clusters. Groups
// with an unresolvable endpoint or a degenerate segment (self-loop,
// coincident centers) get no clusters and never hit.
func (gs *GroupSet) computeGeometry(g *ConnectionGroup) {
	g.ForwardCluster = nil
	g.BackwardCluster = nil

	na, okA := gs.doc.Node(g.NodeA)
	nb, okB := gs.doc.Node(g.NodeB)
	if !okA || !okB {
		return
	}
	g.EndA = na.Center()
	g.EndB = nb.Center()

	axis := g.EndB.Sub(g.EndA)
	if axis.Len() < geom.Epsilon {
		return
	}
	bidi := g.Bidirectional()
	if len(g.Forward) > 0 {
		g.ForwardCluster = buildCluster(g.EndA, g.EndB, g.Forward, bidi)
	}
	if len(g.Backward) > 0 {
		g.BackwardCluster = buildCluster(g.EndB, g.EndA, g.Backward, bidi)
	}
}

// buildCluster computes the arrowhead triangles for one direction
// flowing from 'from' to 'to'. The cluster is centered at the segment
// midpoint, or offset along the flow direction past the midpoint marker
// when the opposite direction also exists.
func buildCluster(from, to geom.Point, conns []*graph.Connection, bidirectional bool) *ArrowCluster {
	u := to.Sub(from).Normalize()
	perp := u.Perp()
	size := arrowSizeFor(conns)
	mid := geom.Midpoint(from, to)

	halfLen := 0.0
	if len(conns) > 1 {
		halfLen = arrowSpacing * size / 2
	}

	anchor := mid
	if bidirectional {
		anchor = mid.Add(u.Scale(groupCircleRadius + halfLen + size))
	}

	var centers []geom.Point
	if len(conns) == 1 {
		centers = []geom.Point{anchor}
	} else {
		off := u.Scale(arrowSpacing * size / 2)
		centers = []geom.Point{anchor.Sub(off), anchor.Add(off)}
	}

	cluster := &ArrowCluster{Anchor: anchor, ConnIDs: connIDs(conns)}
	for _, c := range centers {
		tip := c.Add(u.Scale(size / 2))
		base := c.Sub(u.Scale(size / 2))
		cluster.Triangles = append(cluster.Triangles, geom.Triangle{
			A: tip,
			B: base.Add(perp.Scale(size / 2)),
			C: base.Sub(perp.Scale(size / 2)),
		})
	}
	return cluster
}

func clusterContains(c *ArrowCluster, p geom.Point) bool {
	if c == nil {
		return false
	}
	for _, t := range c.Triangles {
		if t.Contains(p) {
			return true
		}
	}
	return false
}

// HitTest answers "what is at this world point". Precedence: node
// rectangles in reverse draw order, then arrowhead triangles of the
// group whose line passes near the point, then the line itself split at
// the midpoint for bidirectional groups. Missing entities never fault;
// they simply do not match.
func (gs *GroupSet) HitTest(p geom.Point, zoom float64) Hit {
	nodes := gs.doc.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].Bounds().Contains(p) {
			return Hit{Kind: HitNode, NodeID: nodes[i].ID}
		}
	}

	if zoom <= 0 {
		zoom = 1
	}
	tol := hitTolerancePx / zoom

	gs.ensure()
	for _, g := range gs.groups {
		if !geom.PointNearSegment(p, g.EndA, g.EndB, tol) {
			// The arrow clusters sit on the segment, so a point far
			// from the line cannot hit them either.
			continue
		}

		if clusterContains(g.ForwardCluster, p) {
			return Hit{Kind: HitArrow, ConnectionIDs: connIDs(g.Forward), Direction: DirForward, GroupKey: g.Key}
		}
		if clusterContains(g.BackwardCluster, p) {
			return Hit{Kind: HitArrow, ConnectionIDs: connIDs(g.Backward), Direction: DirBackward, GroupKey: g.Key}
		}

		dir := DirForward
		if len(g.Forward) == 0 {
			dir = DirBackward
		} else if g.Bidirectional() {
			// Split the line at the midpoint: the half toward the
			// forward target selects the backward direction, and vice
			// versa.
			u := g.EndB.Sub(g.EndA).Normalize()
			if p.Sub(geom.Midpoint(g.EndA, g.EndB)).Dot(u) > 0 {
				dir = DirBackward
			}
		}
		if dir == DirForward {
			return Hit{Kind: HitConnection, ConnectionIDs: connIDs(g.Forward), Direction: DirForward, GroupKey: g.Key}
		}
		return Hit{Kind: HitConnection, ConnectionIDs: connIDs(g.Backward), Direction: DirBackward, GroupKey: g.Key}
	}

	return Hit{Kind: HitNone}
}

// ConnectionsInRect returns the ids of every connection accepted by the
// box-selection test: a group's connections are included when either
// endpoint node's center lies inside the rectangle, or when any cached
// arrow-triangle vertex of either direction does — the latter covers a
// box that only straddles the midpoint region, mirrored arrows
// included.
func (gs *GroupSet) ConnectionsInRect(r geom.Rect) []string {
	gs.ensure()
	var out []string
	for _, g := range gs.groups {
		na, okA := gs.doc.Node(g.NodeA)
		nb, okB := gs.doc.Node(g.NodeB)
		if !okA || !okB {
			continue
		}
		hit := r.Contains(na.Center()) || r.Contains(nb.Center()) ||
			clusterVertexInRect(g.ForwardCluster, r) ||
			clusterVertexInRect(g.BackwardCluster, r)
		if !hit {
			continue
		}
		out = append(out, connIDs(g.Forward)...)
		out = append(out, connIDs(g.Backward)...)
	}
	return out
}

func clusterVertexInRect(c *ArrowCluster, r geom.Rect) bool {
	if c == nil {
		return false
	}
	for _, t := range c.Triangles {
		for _, v := range t.Vertices() {
			if r.Contains(v) {
				return true
			}
		}
	}
	return false
}
