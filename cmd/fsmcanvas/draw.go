package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fsm-canvas/pkg/editor"
	"github.com/ha1tch/fsm-canvas/pkg/geom"
)

// Styles
var (
	styleNode       = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleNodeSel    = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	styleConn       = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleConnSel    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleArrow      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	stylePreview    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 162, 200)) // Lilac
	styleBox        = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleInput      = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleGroupPoint = tcell.StyleDefault.Foreground(tcell.ColorSilver).Bold(true)
)

func (a *app) draw() {
	a.screen.Clear()
	w, h := a.screen.Size()

	a.drawConnections()
	a.drawNodes()
	a.drawPreview()
	a.drawSelectionBox()
	a.drawStatusBar(w, h)
	if a.prompting {
		a.drawPrompt(w, h)
	}
}

func (a *app) toScreen(p geom.Point) (int, int) {
	sx, sy := a.ed.Viewport().WorldToScreen(p.X, p.Y)
	return int(math.Round(sx)), int(math.Round(sy))
}

func (a *app) drawString(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		a.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (a *app) drawNodes() {
	sel := a.ed.Selection()
	for _, n := range a.ed.Document().Nodes() {
		b := n.Bounds()
		x0, y0 := a.toScreen(geom.Point{X: b.X, Y: b.Y})
		x1, y1 := a.toScreen(geom.Point{X: b.X + b.W, Y: b.Y + b.H})
		if x1 <= x0 {
			x1 = x0 + 1
		}
		if y1 <= y0 {
			y1 = y0 + 1
		}

		style := styleNode
		if sel.HasNode(n.ID) {
			style = styleNodeSel
		}
		a.drawRect(x0, y0, x1, y1, style)

		label := n.Name
		if len(label) > x1-x0-2 && x1-x0 > 4 {
			label = label[:x1-x0-2]
		}
		cx := (x0 + x1 - len(label)) / 2
		cy := (y0 + y1) / 2
		a.drawString(cx, cy, label, style)
	}
}

func (a *app) drawRect(x0, y0, x1, y1 int, style tcell.Style) {
	for x := x0 + 1; x < x1; x++ {
		a.screen.SetContent(x, y0, '─', nil, style)
		a.screen.SetContent(x, y1, '─', nil, style)
	}
	for y := y0 + 1; y < y1; y++ {
		a.screen.SetContent(x0, y, '│', nil, style)
		a.screen.SetContent(x1, y, '│', nil, style)
	}
	a.screen.SetContent(x0, y0, '┌', nil, style)
	a.screen.SetContent(x1, y0, '┐', nil, style)
	a.screen.SetContent(x0, y1, '└', nil, style)
	a.screen.SetContent(x1, y1, '┘', nil, style)
}

func (a *app) drawConnections() {
	sel := a.ed.Selection()
	for _, g := range a.ed.Groups().Groups() {
		if g.ForwardCluster == nil && g.BackwardCluster == nil {
			continue
		}

		style := styleConn
		for _, c := range g.Forward {
			if sel.HasConnection(c.ID) {
				style = styleConnSel
			}
		}
		for _, c := range g.Backward {
			if sel.HasConnection(c.ID) {
				style = styleConnSel
			}
		}

		x0, y0 := a.toScreen(g.EndA)
		x1, y1 := a.toScreen(g.EndB)
		a.drawLine(x0, y0, x1, y1, style)

		a.drawCluster(g.ForwardCluster)
		a.drawCluster(g.BackwardCluster)

		if g.Bidirectional() {
			mx, my := a.toScreen(geom.Midpoint(g.EndA, g.EndB))
			a.screen.SetContent(mx, my, '●', nil, styleGroupPoint)
		}

		a.drawGroupLabel(g, style)
	}
}

func (a *app) drawCluster(c *editor.ArrowCluster) {
	if c == nil {
		return
	}
	for _, t := range c.Triangles {
		x, y := a.toScreen(t.A)
		a.screen.SetContent(x, y, '▸', nil, styleArrow)
	}
}

func (a *app) drawGroupLabel(g *editor.ConnectionGroup, style tcell.Style) {
	conns := g.Forward
	if len(conns) == 0 {
		conns = g.Backward
	}
	if len(conns) == 0 || len(conns[0].Conditions) == 0 {
		return
	}
	cond := conns[0].Conditions[0]
	label := strings.TrimSpace(cond.Key + cond.Operator + cond.Value)
	if g.Total() > 1 {
		label = fmt.Sprintf("%s (+%d)", label, g.Total()-1)
	}
	mx, my := a.toScreen(geom.Midpoint(g.EndA, g.EndB))
	a.drawString(mx-len(label)/2, my-1, label, style)
}

// drawLine plots a straight cell path between two screen points.
func (a *app) drawLine(x0, y0, x1, y1 int, style tcell.Style) {
	dx := x1 - x0
	dy := y1 - y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		ch := lineRune(dx, dy)
		a.screen.SetContent(x, y, ch, nil, style)
	}
}

func lineRune(dx, dy int) rune {
	switch {
	case dy == 0:
		return '─'
	case dx == 0:
		return '│'
	case (dx > 0) == (dy > 0):
		return '\\'
	default:
		return '/'
	}
}

func (a *app) drawPreview() {
	from, to, active := a.ed.ConnectionPreview()
	if !active {
		return
	}
	x0, y0 := a.toScreen(from)
	x1, y1 := a.toScreen(to)
	a.drawLine(x0, y0, x1, y1, stylePreview)
}

func (a *app) drawSelectionBox() {
	r, active := a.ed.BoxSelectionRect()
	if !active {
		return
	}
	x0, y0 := a.toScreen(geom.Point{X: r.X, Y: r.Y})
	x1, y1 := a.toScreen(geom.Point{X: r.X + r.W, Y: r.Y + r.H})
	if x1 > x0 && y1 > y0 {
		a.drawRect(x0, y0, x1, y1, styleBox)
	}
}

func (a *app) drawStatusBar(w, h int) {
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, styleStatus)
	}

	name := a.path
	if name == "" {
		name = "(unsaved)"
	}
	flag := ""
	if a.modified {
		flag = " *"
	}
	doc := a.ed.Document()
	left := fmt.Sprintf(" %s%s  %d nodes  %d connections  zoom %.1fx",
		name, flag, doc.NodeCount(), doc.ConnectionCount(), a.ed.Viewport().Zoom())
	a.drawString(0, h-1, left, styleStatus)

	if a.message != "" {
		a.drawString(w-len(a.message)-1, h-1, a.message, styleStatus)
	}

	help := " n:new  e:rename  l:connect  m:merge  t/c:layout  f:fit  g:center  d:dup  ^Z/^Y:undo  ^S:save  q:quit"
	if h >= 2 {
		a.drawString(0, h-2, help, styleHelp)
	}
}

func (a *app) drawPrompt(w, h int) {
	line := a.prompt + a.buffer + "▌"
	for x := 0; x < w; x++ {
		a.screen.SetContent(x, h-1, ' ', nil, styleInput)
	}
	a.drawString(0, h-1, line, styleInput)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
