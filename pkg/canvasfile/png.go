// Native PNG rendering for diagrams, using Go's image packages with 4x
// supersampling for smooth output.

package canvasfile

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ha1tch/fsm-canvas/pkg/editor"
	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// PNGOptions configures PNG export.
type PNGOptions struct {
	Padding  int // world-space margin around the content
	FontSize int
}

// DefaultPNGOptions returns sensible defaults for PNG export.
func DefaultPNGOptions() PNGOptions {
	return PNGOptions{
		Padding:  40,
		FontSize: 14,
	}
}

var (
	pngWhite     = color.RGBA{255, 255, 255, 255}
	pngBlack     = color.RGBA{51, 51, 51, 255}    // #333
	pngGray      = color.RGBA{102, 102, 102, 255} // #666
	pngNodeFill  = color.RGBA{227, 242, 253, 255} // #e3f2fd
	pngNodeEdge  = color.RGBA{21, 101, 192, 255}  // #1565c0
	pngGroupDot  = color.RGBA{102, 102, 102, 255}
	pngArrowFill = color.RGBA{51, 51, 51, 255}
)

type pngContext struct {
	img       *image.RGBA
	scale     float64
	lineWidth float64
	face      font.Face
	smallFace font.Face

	// world-to-image transform
	offsetX float64
	offsetY float64
}

func (ctx *pngContext) toImage(p geom.Point) (float64, float64) {
	return (p.X + ctx.offsetX) * ctx.scale, (p.Y + ctx.offsetY) * ctx.scale
}

// RenderPNG renders a document to PNG. The image is sized to the
// content bounds plus padding; an empty document yields a small blank
// canvas.
func RenderPNG(doc *graph.Document, w io.Writer, opts PNGOptions) error {
	const scale = 4

	box := contentBounds(doc, float64(opts.Padding))

	width := int(math.Ceil(box.W))
	height := int(math.Ceil(box.H))
	if width < 100 {
		width = 100
	}
	if height < 100 {
		height = 100
	}

	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(opts.FontSize * scale),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return err
	}
	smallFace, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64((opts.FontSize - 3) * scale),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return err
	}

	large := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	ctx := &pngContext{
		img:       large,
		scale:     scale,
		lineWidth: 2 * scale,
		face:      face,
		smallFace: smallFace,
		offsetX:   -box.X,
		offsetY:   -box.Y,
	}

	draw.Draw(large, large.Bounds(), image.NewUniform(pngWhite), image.Point{}, draw.Src)

	drawConnections(ctx, doc)
	for _, n := range doc.Nodes() {
		drawNode(ctx, n)
	}

	final := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(final, final.Bounds(), large, large.Bounds(), draw.Over, nil)
	return png.Encode(w, final)
}

func contentBounds(doc *graph.Document, padding float64) geom.Rect {
	nodes := doc.Nodes()
	if len(nodes) == 0 {
		return geom.Rect{X: 0, Y: 0, W: 100, H: 100}
	}
	box := nodes[0].Bounds()
	for _, n := range nodes[1:] {
		box = box.Union(n.Bounds())
	}
	return box.Expand(padding)
}

func parseColor(hex string, fallback color.RGBA) color.RGBA {
	if hex == "" {
		return fallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// drawConnections renders every connection group: the pair segment,
// the arrow clusters, and the midpoint marker for bidirectional
// groups.
func drawConnections(ctx *pngContext, doc *graph.Document) {
	gs := editor.NewGroupSet(doc)
	for _, g := range gs.Groups() {
		if g.ForwardCluster == nil && g.BackwardCluster == nil {
			continue
		}

		lineColor := pngGray
		dashed := false
		for _, c := range append(append([]*graph.Connection{}, g.Forward...), g.Backward...) {
			if c.Style.Color != "" {
				lineColor = parseColor(c.Style.Color, pngGray)
			}
			if c.Style.LineType == graph.LineDashed {
				dashed = true
			}
		}

		x1, y1 := ctx.toImage(g.EndA)
		x2, y2 := ctx.toImage(g.EndB)
		if dashed {
			drawDashedLine(ctx, x1, y1, x2, y2, lineColor)
		} else {
			drawLine(ctx, x1, y1, x2, y2, lineColor)
		}

		drawCluster(ctx, g.ForwardCluster, arrowColorFor(g.Forward))
		drawCluster(ctx, g.BackwardCluster, arrowColorFor(g.Backward))

		if g.Bidirectional() {
			mx, my := ctx.toImage(geom.Midpoint(g.EndA, g.EndB))
			drawDisc(ctx, mx, my, 4*ctx.scale, pngGroupDot)
		}

		drawConnectionLabel(ctx, g)
	}
}

func arrowColorFor(conns []*graph.Connection) color.RGBA {
	for _, c := range conns {
		if c.Style.ArrowColor != "" {
			return parseColor(c.Style.ArrowColor, pngArrowFill)
		}
	}
	return pngArrowFill
}

func drawCluster(ctx *pngContext, cluster *editor.ArrowCluster, c color.RGBA) {
	if cluster == nil {
		return
	}
	for _, tri := range cluster.Triangles {
		ax, ay := ctx.toImage(tri.A)
		bx, by := ctx.toImage(tri.B)
		cx, cy := ctx.toImage(tri.C)
		// Fill by sweeping lines from the tip across the base.
		for t := 0.0; t <= 1.0; t += 0.02 {
			mx := bx + (cx-bx)*t
			my := by + (cy-by)*t
			drawLine(ctx, ax, ay, mx, my, c)
		}
	}
}

// drawConnectionLabel prints the first condition of a group's first
// connection near the segment midpoint, if any.
func drawConnectionLabel(ctx *pngContext, g *editor.ConnectionGroup) {
	conns := g.Forward
	if len(conns) == 0 {
		conns = g.Backward
	}
	if len(conns) == 0 || len(conns[0].Conditions) == 0 {
		return
	}
	cond := conns[0].Conditions[0]
	label := strings.TrimSpace(cond.Key + " " + cond.Operator + " " + cond.Value)
	if label == "" {
		return
	}
	mx, my := ctx.toImage(geom.Midpoint(g.EndA, g.EndB))
	drawTextCentered(ctx, ctx.smallFace, mx, my-14*ctx.scale, label, pngGray)
}

func drawNode(ctx *pngContext, n *graph.Node) {
	b := n.Bounds()
	x, y := ctx.toImage(geom.Point{X: b.X, Y: b.Y})
	w := b.W * ctx.scale
	h := b.H * ctx.scale

	fill := parseColor(n.Color, pngNodeFill)
	fillRect(ctx, x, y, w, h, fill)
	strokeRect(ctx, x, y, w, h, pngNodeEdge)

	cx, cy := ctx.toImage(n.Center())
	if n.Description == "" {
		drawTextCentered(ctx, ctx.face, cx, cy, n.Name, pngBlack)
		return
	}
	drawTextCentered(ctx, ctx.face, cx, cy-9*ctx.scale, n.Name, pngBlack)
	for i, line := range strings.Split(n.Description, "\n") {
		drawTextCentered(ctx, ctx.smallFace, cx, cy+float64(9+14*i)*ctx.scale, line, pngGray)
	}
}

func fillRect(ctx *pngContext, x, y, w, h float64, c color.RGBA) {
	r := image.Rect(int(x), int(y), int(x+w), int(y+h))
	draw.Draw(ctx.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(ctx *pngContext, x, y, w, h float64, c color.RGBA) {
	drawLine(ctx, x, y, x+w, y, c)
	drawLine(ctx, x+w, y, x+w, y+h, c)
	drawLine(ctx, x+w, y+h, x, y+h, c)
	drawLine(ctx, x, y+h, x, y, c)
}

func drawDisc(ctx *pngContext, cx, cy, r float64, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				ctx.img.Set(int(cx+dx), int(cy+dy), c)
			}
		}
	}
}

// drawLine draws a line between two points with thickness from the
// context.
func drawLine(ctx *pngContext, x1, y1, x2, y2 float64, c color.Color) {
	img := ctx.img
	halfThick := ctx.lineWidth / 2

	dx := x2 - x1
	dy := y2 - y1
	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		steps = 1
	}

	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		for ty := -halfThick; ty <= halfThick; ty++ {
			for tx := -halfThick; tx <= halfThick; tx++ {
				img.Set(int(x1+tx), int(y1+ty), c)
			}
		}
		return
	}

	perpX := -dy / dist
	perpY := dx / dist

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		cx := x1 + dx*t
		cy := y1 + dy*t
		for offset := -halfThick; offset <= halfThick; offset += 0.5 {
			img.Set(int(cx+perpX*offset), int(cy+perpY*offset), c)
		}
	}
}

func drawDashedLine(ctx *pngContext, x1, y1, x2, y2 float64, c color.Color) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1 {
		drawLine(ctx, x1, y1, x2, y2, c)
		return
	}
	dash := 8.0 * ctx.scale
	n := int(dist / dash)
	for i := 0; i <= n; i += 2 {
		t0 := float64(i) * dash / dist
		t1 := math.Min(1, float64(i+1)*dash/dist)
		drawLine(ctx, x1+dx*t0, y1+dy*t0, x1+dx*t1, y1+dy*t1, c)
	}
}

// drawTextCentered draws text centered at the given position.
func drawTextCentered(ctx *pngContext, face font.Face, x, y float64, text string, c color.Color) {
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()

	d := &font.Drawer{
		Dst:  ctx.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(int(x) - width/2),
			Y: fixed.I(int(y) + int(float64(ascent)*0.35)),
		},
	}
	d.DrawString(text)
}
