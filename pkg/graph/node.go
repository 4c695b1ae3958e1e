// Package graph provides the entity model for state-machine diagrams:
// nodes, conditioned connections, and the Document collection that owns
// them. Entities reference each other by id only; the Document is the
// single authority for resolving ids and for cascade deletion.
package graph

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ha1tch/fsm-canvas/pkg/geom"
)

// Minimum node dimensions, enforced while AutoSize is active.
const (
	MinNodeWidth  = 80.0
	MinNodeHeight = 40.0

	// Text metrics used by auto-sizing. Logical units per character /
	// line; rendering backends apply their own fonts on top.
	charWidth  = 8.0
	lineHeight = 18.0
	textMargin = 16.0
)

// Node is a state in the diagram.
type Node struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	AutoSize    bool    `json:"autoSize"`
	Color       string  `json:"color,omitempty"`
}

// NewNode creates a node with a fresh id at the given world position.
// Size is derived from the name (AutoSize on).
func NewNode(name string, x, y float64) *Node {
	n := &Node{
		ID:       uuid.NewString(),
		Name:     name,
		X:        x,
		Y:        y,
		AutoSize: true,
	}
	n.ApplyAutoSize()
	return n
}

// ApplyAutoSize derives Width/Height from the node's text when AutoSize
// is set, clamping to the configured minimums. It is a no-op for nodes
// with explicit sizes.
func (n *Node) ApplyAutoSize() {
	if !n.AutoSize {
		return
	}
	longest := utf8.RuneCountInString(n.Name)
	lines := 1
	if n.Description != "" {
		for _, l := range strings.Split(n.Description, "\n") {
			if c := utf8.RuneCountInString(l); c > longest {
				longest = c
			}
			lines++
		}
	}
	n.Width = float64(longest)*charWidth + textMargin
	n.Height = float64(lines)*lineHeight + textMargin
	if n.Width < MinNodeWidth {
		n.Width = MinNodeWidth
	}
	if n.Height < MinNodeHeight {
		n.Height = MinNodeHeight
	}
}

// Bounds returns the node's world-space rectangle.
func (n *Node) Bounds() geom.Rect {
	return geom.Rect{X: n.X, Y: n.Y, W: n.Width, H: n.Height}
}

// Center returns the node's center in world coordinates.
func (n *Node) Center() geom.Point {
	return geom.Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Position returns the node's top-left corner in world coordinates.
func (n *Node) Position() geom.Point {
	return geom.Point{X: n.X, Y: n.Y}
}

// MoveTo sets the node's top-left corner.
func (n *Node) MoveTo(p geom.Point) {
	n.X = p.X
	n.Y = p.Y
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := *n
	return &c
}
