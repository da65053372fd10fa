package render

import (
	"image"
	"image/color"
	"math"

	"github.com/TFMV/keywordgraph/interact"
	"github.com/TFMV/keywordgraph/models"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// kappa places cubic control points so four segments approximate a circle
const kappa = 0.5522847498

var labelBackground = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 204}

// Painter paints a graph onto a raster surface: links first, then each node
// followed by its label. A Painter is not safe for concurrent use.
type Painter struct {
	Background color.RGBA

	faces  *faceCache
	raster vector.Rasterizer
}

// NewPainter creates a painter clearing to the given hex background color
func NewPainter(background string) (*Painter, error) {
	faces, err := newFaceCache()
	if err != nil {
		return nil, err
	}
	return &Painter{
		Background: parseHexColor(background),
		faces:      faces,
	}, nil
}

// NewSurface allocates a surface of the given size in pixels. Each side is
// kept within [1, models.MaxViewport].
func NewSurface(width, height float64) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, surfaceSide(width), surfaceSide(height)))
}

func surfaceSide(v float64) int {
	if !(v >= 1) {
		return 1
	}
	return int(math.Ceil(math.Min(v, models.MaxViewport)))
}

// Paint clears dst and draws g with the highlight of state
func (p *Painter) Paint(dst *image.RGBA, g *models.Graph, state interact.State) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(p.Background), image.Point{}, draw.Src)

	for i := range g.Links {
		link := &g.Links[i]
		stroke := StyleLink(link, state)
		p.line(dst, link.Source.X, link.Source.Y, link.Target.X, link.Target.Y, stroke)
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		style := StyleNode(node, state)
		p.circle(dst, node.X, node.Y, node.Radius, parseHexColor(style.Fill))
		p.ring(dst, node.X, node.Y, node.Radius, style.Border)

		if ShowLabel(node, state) {
			p.label(dst, node)
		}
	}
}

func (p *Painter) line(dst *image.RGBA, x1, y1, x2, y2 float64, stroke Stroke) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	half := stroke.Width / 2
	nx, ny := -dy/length*half, dx/length*half

	pad := half + 1
	bounds := boundsOf(math.Min(x1, x2)-pad, math.Min(y1, y2)-pad, math.Max(x1, x2)+pad, math.Max(y1, y2)+pad)
	p.fill(dst, bounds, parseHexColor(stroke.Color), func(z *vector.Rasterizer, ox, oy float64) {
		moveTo(z, x1+nx-ox, y1+ny-oy)
		lineTo(z, x2+nx-ox, y2+ny-oy)
		lineTo(z, x2-nx-ox, y2-ny-oy)
		lineTo(z, x1-nx-ox, y1-ny-oy)
		z.ClosePath()
	})
}

func (p *Painter) circle(dst *image.RGBA, cx, cy, r float64, c color.Color) {
	bounds := boundsOf(cx-r-1, cy-r-1, cx+r+1, cy+r+1)
	p.fill(dst, bounds, c, func(z *vector.Rasterizer, ox, oy float64) {
		circlePath(z, cx-ox, cy-oy, r, false)
	})
}

// ring strokes a circle outline centered on radius r
func (p *Painter) ring(dst *image.RGBA, cx, cy, r float64, stroke Stroke) {
	outer := r + stroke.Width/2
	inner := math.Max(0, r-stroke.Width/2)
	bounds := boundsOf(cx-outer-1, cy-outer-1, cx+outer+1, cy+outer+1)
	p.fill(dst, bounds, parseHexColor(stroke.Color), func(z *vector.Rasterizer, ox, oy float64) {
		circlePath(z, cx-ox, cy-oy, outer, false)
		if inner > 0 {
			circlePath(z, cx-ox, cy-oy, inner, true)
		}
	})
}

func (p *Painter) label(dst *image.RGBA, node *models.Node) {
	size := LabelFontSize(node.Radius)
	face := p.faces.face(size)
	textWidth := p.faces.measure(size, node.ID)

	x := node.X - textWidth/2 - LabelPadding
	y := node.Y - size/2 - LabelPadding
	w := textWidth + 2*LabelPadding
	h := size + 2*LabelPadding
	p.fill(dst, boundsOf(x-1, y-1, x+w+1, y+h+1), labelBackground, func(z *vector.Rasterizer, ox, oy float64) {
		moveTo(z, x-ox, y-oy)
		lineTo(z, x+w-ox, y-oy)
		lineTo(z, x+w-ox, y+h-oy)
		lineTo(z, x-ox, y+h-oy)
		z.ClosePath()
	})

	// Baseline sits so the glyph box is vertically centered on the node
	metrics := face.Metrics()
	baseline := node.Y + (fromFixed(metrics.Ascent)-fromFixed(metrics.Descent))/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(parseHexColor(ColorLabel)),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(node.X - textWidth/2), Y: toFixed(baseline)},
	}
	d.DrawString(node.ID)
}

// fill rasterizes the path built by build inside bounds. build receives the
// bounds origin, which it subtracts from every coordinate.
func (p *Painter) fill(dst *image.RGBA, bounds image.Rectangle, c color.Color, build func(z *vector.Rasterizer, ox, oy float64)) {
	bounds = bounds.Intersect(dst.Bounds())
	if bounds.Empty() {
		return
	}
	p.raster.Reset(bounds.Dx(), bounds.Dy())
	p.raster.DrawOp = draw.Over
	build(&p.raster, float64(bounds.Min.X), float64(bounds.Min.Y))
	p.raster.Draw(dst, bounds, image.NewUniform(c), image.Point{})
}

func circlePath(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	k := r * kappa
	moveTo(z, cx+r, cy)
	if reverse {
		cubeTo(z, cx+r, cy-k, cx+k, cy-r, cx, cy-r)
		cubeTo(z, cx-k, cy-r, cx-r, cy-k, cx-r, cy)
		cubeTo(z, cx-r, cy+k, cx-k, cy+r, cx, cy+r)
		cubeTo(z, cx+k, cy+r, cx+r, cy+k, cx+r, cy)
	} else {
		cubeTo(z, cx+r, cy+k, cx+k, cy+r, cx, cy+r)
		cubeTo(z, cx-k, cy+r, cx-r, cy+k, cx-r, cy)
		cubeTo(z, cx-r, cy-k, cx-k, cy-r, cx, cy-r)
		cubeTo(z, cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	}
	z.ClosePath()
}

func moveTo(z *vector.Rasterizer, x, y float64) {
	z.MoveTo(float32(x), float32(y))
}

func lineTo(z *vector.Rasterizer, x, y float64) {
	z.LineTo(float32(x), float32(y))
}

func cubeTo(z *vector.Rasterizer, bx, by, cx, cy, dx, dy float64) {
	z.CubeTo(float32(bx), float32(by), float32(cx), float32(cy), float32(dx), float32(dy))
}

func boundsOf(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}
