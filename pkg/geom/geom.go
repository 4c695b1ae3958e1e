// Package geom provides the geometric predicates used by the canvas:
// point-in-rectangle, rectangle overlap, point-near-segment, and
// point-in-triangle. All functions are pure and operate on world
// coordinates.
package geom

import "math"

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{p.X + d.X, p.Y + d.Y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Len returns the vector length of p.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Normalize returns p scaled to unit length. The zero vector is
// returned unchanged.
func (p Point) Normalize() Point {
	l := p.Len()
	if l < Epsilon {
		return Point{}
	}
	return Point{p.X / l, p.Y / l}
}

// Perp returns p rotated 90 degrees counter-clockwise.
func (p Point) Perp() Point {
	return Point{-p.Y, p.X}
}

// Dist returns the distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint returns the midpoint of segment ab.
func Midpoint(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Epsilon is the threshold below which segment lengths and triangle
// areas are treated as degenerate.
const Epsilon = 1e-9

// Rect is an axis-aligned rectangle given by its minimum corner and size.
type Rect struct {
	X, Y, W, H float64
}

// RectFromCorners builds the rectangle spanned by two opposite corners,
// in any order.
func RectFromCorners(a, b Point) Rect {
	minX := math.Min(a.X, b.X)
	minY := math.Min(a.Y, b.Y)
	return Rect{
		X: minX,
		Y: minY,
		W: math.Max(a.X, b.X) - minX,
		H: math.Max(a.Y, b.Y) - minY,
	}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Center returns the center point of r.
func (r Rect) Center() Point {
	return Point{r.X + r.W/2, r.Y + r.H/2}
}

// Expand returns r grown by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{r.X - m, r.Y - m, r.W + 2*m, r.H + 2*m}
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	minX := math.Min(r.X, s.X)
	minY := math.Min(r.Y, s.Y)
	maxX := math.Max(r.X+r.W, s.X+s.W)
	maxY := math.Max(r.Y+r.H, s.Y+s.H)
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// RectsOverlap reports whether a and b share any area (touching edges
// count as overlap).
func RectsOverlap(a, b Rect) bool {
	if a.X+a.W < b.X || b.X+b.W < a.X {
		return false
	}
	if a.Y+a.H < b.Y || b.Y+b.H < a.Y {
		return false
	}
	return true
}

// BoundingBox returns the axis-aligned bounding box of pts.
// The second return value is false when pts is empty.
func BoundingBox(pts []Point) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}, true
}

// DistPointToSegment returns the shortest distance from p to segment ab.
// A degenerate segment collapses to the distance to a.
func DistPointToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq < Epsilon {
		return Dist(p, a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return Dist(p, closest)
}

// PointNearSegment reports whether p lies within tol of segment ab.
// Degenerate segments never match.
func PointNearSegment(p, a, b Point, tol float64) bool {
	if Dist(a, b) < Epsilon {
		return false
	}
	return DistPointToSegment(p, a, b) <= tol
}

// Triangle is defined by its three vertices. For arrowheads the first
// vertex is the tip.
type Triangle struct {
	A, B, C Point
}

// Vertices returns the three corners of t.
func (t Triangle) Vertices() [3]Point {
	return [3]Point{t.A, t.B, t.C}
}

func edgeSign(p, a, b Point) float64 {
	return (p.X-a.X)*(b.Y-a.Y) - (b.X-a.X)*(p.Y-a.Y)
}

// Contains reports whether p lies inside t using the same-side sign
// test. Points on an edge count as inside; degenerate triangles never
// match.
func (t Triangle) Contains(p Point) bool {
	d1 := edgeSign(p, t.A, t.B)
	d2 := edgeSign(p, t.B, t.C)
	d3 := edgeSign(p, t.C, t.A)

	area := edgeSign(t.C, t.A, t.B)
	if math.Abs(area) < Epsilon {
		return false
	}

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
