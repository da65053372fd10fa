// Package render paints the keyword graph and exports snapshots of it.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"image"
	"image/png"
	"strings"

	"github.com/TFMV/keywordgraph/interact"
	"github.com/TFMV/keywordgraph/models"
	"github.com/cockroachdb/errors"
)

// ExportBasename is the file name stem of exported snapshots
const ExportBasename = "keyword_network"

// Frame is everything an exporter may read: the model, the interaction
// state and the last painted surface.
type Frame struct {
	Graph      *models.Graph
	State      interact.State
	Surface    *image.RGBA
	Background string
}

// Renderer interface defines methods that all export backends must implement
type Renderer interface {
	// Render serializes the frame
	Render(frame *Frame) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// ContentType returns the MIME type of the output
	ContentType() string

	// Extension returns the file extension without the dot
	Extension() string
}

// Formats lists the supported export formats
var Formats = []string{"png", "svg", "json", "dot"}

// ErrUnsupportedFormat marks errors for export formats with no renderer
var ErrUnsupportedFormat = errors.New("unsupported output format")

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "png":
		return &PNGRenderer{}, nil
	case "svg":
		return &SVGRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "dot":
		return &DOTRenderer{}, nil
	default:
		return nil, errors.WithHintf(
			errors.Mark(errors.Newf("unsupported output format: %s", format), ErrUnsupportedFormat),
			"use one of %s", strings.Join(Formats, ", "))
	}
}

// Filename returns the download name for a renderer's output
func Filename(r Renderer) string {
	return ExportBasename + "." + r.Extension()
}

// PNGRenderer encodes the current surface as is
type PNGRenderer struct{}

// Name returns the name of the renderer
func (r *PNGRenderer) Name() string { return "PNG Renderer" }

// ContentType returns the MIME type of the output
func (r *PNGRenderer) ContentType() string { return "image/png" }

// Extension returns the file extension
func (r *PNGRenderer) Extension() string { return "png" }

// Render encodes the frame's surface without repainting it
func (r *PNGRenderer) Render(frame *Frame) ([]byte, error) {
	if frame.Surface == nil {
		return nil, errors.New("no surface has been painted yet")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Surface); err != nil {
		return nil, errors.Wrap(err, "encoding png")
	}
	return buf.Bytes(), nil
}

// SVGRenderer emits the paint rules as vector markup
type SVGRenderer struct {
	faces *faceCache
}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string { return "SVG Renderer" }

// ContentType returns the MIME type of the output
func (r *SVGRenderer) ContentType() string { return "image/svg+xml" }

// Extension returns the file extension
func (r *SVGRenderer) Extension() string { return "svg" }

// Render creates an SVG representation of the graph
func (r *SVGRenderer) Render(frame *Frame) ([]byte, error) {
	if r.faces == nil {
		faces, err := newFaceCache()
		if err != nil {
			return nil, err
		}
		r.faces = faces
	}

	g := frame.Graph
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg width="%g" height="%g" viewBox="0 0 %g %g" xmlns="http://www.w3.org/2000/svg">
<rect width="100%%" height="100%%" fill="%s"/>
`, g.Width, g.Height, g.Width, g.Height, frame.Background)

	for i := range g.Links {
		link := &g.Links[i]
		stroke := StyleLink(link, frame.State)
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="%.3f"/>
`, link.Source.X, link.Source.Y, link.Target.X, link.Target.Y, stroke.Color, stroke.Width)
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		style := StyleNode(node, frame.State)
		fmt.Fprintf(&buf, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="%s" stroke-width="%g"/>
`, node.X, node.Y, node.Radius, style.Fill, style.Border.Color, style.Border.Width)

		if !ShowLabel(node, frame.State) {
			continue
		}
		size := LabelFontSize(node.Radius)
		textWidth := r.faces.measure(size, node.ID)
		fmt.Fprintf(&buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="rgba(255,255,255,0.8)"/>
`, node.X-textWidth/2-LabelPadding, node.Y-size/2-LabelPadding, textWidth+2*LabelPadding, size+2*LabelPadding)
		fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" font-family="Go, sans-serif" font-size="%.2f" fill="%s" text-anchor="middle" dominant-baseline="middle">%s</text>
`, node.X, node.Y, size, ColorLabel, html.EscapeString(node.ID))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// JSONRenderer outputs positions, derived attributes and interaction flags
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string { return "JSON Renderer" }

// ContentType returns the MIME type of the output
func (r *JSONRenderer) ContentType() string { return "application/json" }

// Extension returns the file extension
func (r *JSONRenderer) Extension() string { return "json" }

// Render creates a JSON representation of the graph
func (r *JSONRenderer) Render(frame *Frame) ([]byte, error) {
	type jsonNode struct {
		ID        string  `json:"id"`
		Group     int     `json:"group"`
		Frequency float64 `json:"frequency"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		VX        float64 `json:"vx"`
		VY        float64 `json:"vy"`
		Radius    float64 `json:"radius"`
		Band      string  `json:"band"`
		Color     string  `json:"color"`
		Hovered   bool    `json:"hovered"`
		Selected  bool    `json:"selected"`
		Labeled   bool    `json:"labeled"`
	}

	type jsonLink struct {
		Source string  `json:"source"`
		Target string  `json:"target"`
		Value  float64 `json:"value"`
	}

	type jsonGraph struct {
		Width  float64        `json:"width"`
		Height float64        `json:"height"`
		Nodes  []jsonNode     `json:"nodes"`
		Links  []jsonLink     `json:"links"`
		Stats  models.Stats   `json:"stats"`
		State  interact.State `json:"state"`
	}

	g := frame.Graph
	out := jsonGraph{
		Width:  g.Width,
		Height: g.Height,
		Nodes:  make([]jsonNode, 0, len(g.Nodes)),
		Links:  make([]jsonLink, 0, len(g.Links)),
		Stats:  g.Stats(),
		State:  frame.State,
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		out.Nodes = append(out.Nodes, jsonNode{
			ID:        node.ID,
			Group:     node.Group,
			Frequency: node.Frequency,
			X:         node.X,
			Y:         node.Y,
			VX:        node.VX,
			VY:        node.VY,
			Radius:    node.Radius,
			Band:      node.Band.String(),
			Color:     node.Color,
			Hovered:   frame.State.IsHovered(node.ID),
			Selected:  frame.State.IsSelected(node.ID),
			Labeled:   ShowLabel(node, frame.State),
		})
	}

	for _, link := range g.Links {
		out.Links = append(out.Links, jsonLink{
			Source: link.Source.ID,
			Target: link.Target.ID,
			Value:  link.Weight,
		})
	}

	return json.MarshalIndent(out, "", "  ")
}

// DOTRenderer outputs an undirected Graphviz document with pinned positions
type DOTRenderer struct{}

// Name returns the name of the renderer
func (r *DOTRenderer) Name() string { return "DOT Renderer" }

// ContentType returns the MIME type of the output
func (r *DOTRenderer) ContentType() string { return "text/vnd.graphviz" }

// Extension returns the file extension
func (r *DOTRenderer) Extension() string { return "dot" }

// Render creates a DOT representation of the graph. Graphviz puts the
// origin bottom-left, so y is flipped.
func (r *DOTRenderer) Render(frame *Frame) ([]byte, error) {
	g := frame.Graph
	var buf bytes.Buffer

	buf.WriteString("graph keywords {\n")
	fmt.Fprintf(&buf, "  graph [bgcolor=%q, size=\"%g,%g\"];\n", frame.Background, g.Width/72.0, g.Height/72.0)
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, fontname=\"Go\"];\n")

	for i := range g.Nodes {
		node := &g.Nodes[i]
		style := StyleNode(node, frame.State)
		fmt.Fprintf(&buf, "  %q [fillcolor=%q, color=%q, penwidth=%g, width=%.3f, fontsize=%.2f, pos=\"%.2f,%.2f!\"];\n",
			node.ID, style.Fill, style.Border.Color, style.Border.Width, 2*node.Radius/72.0,
			LabelFontSize(node.Radius), node.X, g.Height-node.Y)
	}

	for i := range g.Links {
		link := &g.Links[i]
		stroke := StyleLink(link, frame.State)
		fmt.Fprintf(&buf, "  %q -- %q [color=%q, penwidth=%.3f, weight=%g];\n",
			link.Source.ID, link.Target.ID, stroke.Color, stroke.Width, link.Weight)
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
