package graph

// Document owns all nodes and connections of one diagram. Nodes keep an
// explicit draw order (last entry draws on top); connections keep
// insertion order. All mutating operations on missing ids are silent
// no-ops returning false, so callers driving a live input stream never
// have to guard against concurrent deletion.
type Document struct {
	nodes     map[string]*Node
	nodeOrder []string
	conns     map[string]*Connection
	connOrder []string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		nodes: make(map[string]*Node),
		conns: make(map[string]*Connection),
	}
}

// AddNode inserts n at the top of the draw order. Returns false for nil
// nodes, empty ids, or duplicate ids.
func (d *Document) AddNode(n *Node) bool {
	if n == nil || n.ID == "" {
		return false
	}
	if _, exists := d.nodes[n.ID]; exists {
		return false
	}
	d.nodes[n.ID] = n
	d.nodeOrder = append(d.nodeOrder, n.ID)
	return true
}

// Node returns the node with the given id.
func (d *Document) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Nodes returns all nodes in draw order (bottom first).
func (d *Document) Nodes() []*Node {
	out := make([]*Node, 0, len(d.nodeOrder))
	for _, id := range d.nodeOrder {
		out = append(out, d.nodes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (d *Document) NodeCount() int {
	return len(d.nodes)
}

// RaiseNode moves the node to the top of the draw order.
func (d *Document) RaiseNode(id string) bool {
	if _, ok := d.nodes[id]; !ok {
		return false
	}
	for i, nid := range d.nodeOrder {
		if nid == id {
			d.nodeOrder = append(d.nodeOrder[:i], d.nodeOrder[i+1:]...)
			d.nodeOrder = append(d.nodeOrder, id)
			return true
		}
	}
	return false
}

// RemoveNode deletes the node and cascades to every connection touching
// it. The removed connections are returned so callers can record them
// for undo.
func (d *Document) RemoveNode(id string) ([]*Connection, bool) {
	if _, ok := d.nodes[id]; !ok {
		return nil, false
	}
	var removed []*Connection
	for _, cid := range append([]string(nil), d.connOrder...) {
		c := d.conns[cid]
		if c != nil && c.Touches(id) {
			removed = append(removed, c)
			d.removeConnFromOrder(cid)
			delete(d.conns, cid)
		}
	}
	delete(d.nodes, id)
	for i, nid := range d.nodeOrder {
		if nid == id {
			d.nodeOrder = append(d.nodeOrder[:i], d.nodeOrder[i+1:]...)
			break
		}
	}
	return removed, true
}

// AddConnection inserts c. Returns false for nil connections, duplicate
// ids, or endpoints that do not resolve to existing nodes.
func (d *Document) AddConnection(c *Connection) bool {
	if c == nil || c.ID == "" {
		return false
	}
	if _, exists := d.conns[c.ID]; exists {
		return false
	}
	if _, ok := d.nodes[c.Source]; !ok {
		return false
	}
	if _, ok := d.nodes[c.Target]; !ok {
		return false
	}
	d.conns[c.ID] = c
	d.connOrder = append(d.connOrder, c.ID)
	return true
}

// Connection returns the connection with the given id.
func (d *Document) Connection(id string) (*Connection, bool) {
	c, ok := d.conns[id]
	return c, ok
}

// Connections returns all connections in insertion order.
func (d *Document) Connections() []*Connection {
	out := make([]*Connection, 0, len(d.connOrder))
	for _, id := range d.connOrder {
		out = append(out, d.conns[id])
	}
	return out
}

// ConnectionCount returns the number of connections.
func (d *Document) ConnectionCount() int {
	return len(d.conns)
}

// ConnectionsForNode returns every connection whose source or target is
// the given node id, in insertion order.
func (d *Document) ConnectionsForNode(id string) []*Connection {
	var out []*Connection
	for _, cid := range d.connOrder {
		if c := d.conns[cid]; c != nil && c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}

// RemoveConnection deletes the connection with the given id.
func (d *Document) RemoveConnection(id string) bool {
	if _, ok := d.conns[id]; !ok {
		return false
	}
	d.removeConnFromOrder(id)
	delete(d.conns, id)
	return true
}

func (d *Document) removeConnFromOrder(id string) {
	for i, cid := range d.connOrder {
		if cid == id {
			d.connOrder = append(d.connOrder[:i], d.connOrder[i+1:]...)
			return
		}
	}
}

// UpdateNode applies mutate to the node with the given id. Size minimums
// are re-enforced afterwards when AutoSize is active, and invalid color
// overrides are dropped rather than stored.
func (d *Document) UpdateNode(id string, mutate func(*Node)) bool {
	n, ok := d.nodes[id]
	if !ok || mutate == nil {
		return false
	}
	prevColor := n.Color
	mutate(n)
	if !ValidColor(n.Color) {
		n.Color = prevColor
	}
	if n.AutoSize {
		n.ApplyAutoSize()
	} else {
		// Invariant violations are clamped, not rejected.
		if n.Width < 1 {
			n.Width = 1
		}
		if n.Height < 1 {
			n.Height = 1
		}
	}
	return true
}

// UpdateConnection applies mutate to the connection with the given id.
// Endpoint ids cannot be changed through this path; invalid colors are
// dropped.
func (d *Document) UpdateConnection(id string, mutate func(*Connection)) bool {
	c, ok := d.conns[id]
	if !ok || mutate == nil {
		return false
	}
	prevSource, prevTarget := c.Source, c.Target
	prevColor, prevArrow := c.Style.Color, c.Style.ArrowColor
	mutate(c)
	c.Source, c.Target = prevSource, prevTarget
	if !ValidColor(c.Style.Color) {
		c.Style.Color = prevColor
	}
	if !ValidColor(c.Style.ArrowColor) {
		c.Style.ArrowColor = prevArrow
	}
	return true
}

// Clone returns a deep copy of the document, including draw order.
func (d *Document) Clone() *Document {
	c := NewDocument()
	for _, id := range d.nodeOrder {
		c.nodes[id] = d.nodes[id].Clone()
		c.nodeOrder = append(c.nodeOrder, id)
	}
	for _, id := range d.connOrder {
		c.conns[id] = d.conns[id].Clone()
		c.connOrder = append(c.connOrder, id)
	}
	return c
}
