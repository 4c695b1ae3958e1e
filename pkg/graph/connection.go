package graph

import (
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
)

// LineType selects the stroke pattern of a connection.
type LineType string

const (
	LineSolid  LineType = "solid"
	LineDashed LineType = "dashed"
)

// Style holds per-connection visual overrides. Zero values mean
// "renderer default".
type Style struct {
	Color      string   `json:"color,omitempty"`
	LineWidth  float64  `json:"lineWidth,omitempty"`
	LineType   LineType `json:"lineType,omitempty"`
	ArrowSize  float64  `json:"arrowSize,omitempty"`
	ArrowColor string   `json:"arrowColor,omitempty"`
}

// Connection is a directed transition between two nodes, referenced by
// id. Self-loops are representable; higher-level tools may reject them.
type Connection struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Conditions []Condition `json:"conditions"`
	Style      Style       `json:"style,omitempty"`
}

// NewConnection creates a connection with a fresh id.
func NewConnection(source, target string) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		Source: source,
		Target: target,
	}
}

// Touches reports whether either endpoint is the given node id.
func (c *Connection) Touches(nodeID string) bool {
	return c.Source == nodeID || c.Target == nodeID
}

// Clone returns a deep copy of the connection, conditions included.
func (c *Connection) Clone() *Connection {
	cp := *c
	cp.Conditions = make([]Condition, len(c.Conditions))
	copy(cp.Conditions, c.Conditions)
	return &cp
}

// ValidColor reports whether s is a parseable hex color ("#rrggbb").
// The empty string is valid and means "no override".
func ValidColor(s string) bool {
	if s == "" {
		return true
	}
	_, err := colorful.Hex(s)
	return err == nil
}
