package models

import (
	"math"

	"github.com/cockroachdb/errors"
)

// Layout constants for the initial placement
const (
	MinRadius       = 5.0
	RadiusScale     = 2.5
	PlacementFactor = 0.35

	// MaxViewport bounds each side of the viewport in pixels
	MaxViewport = 16384
)

// RadiusFor returns the rendered radius of a node with the given frequency
func RadiusFor(frequency float64) float64 {
	return math.Max(MinRadius, math.Sqrt(frequency)*RadiusScale)
}

// BandFor returns the color band of a node with the given frequency.
// NaN and negative input fall back to BandDefault.
func BandFor(frequency float64) Band {
	switch {
	case math.IsNaN(frequency) || frequency < 0:
		return BandDefault
	case frequency >= HighThreshold:
		return BandHigh
	case frequency >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// NewNode creates a node with its derived radius and color
func NewNode(rec NodeRecord) Node {
	band := BandFor(rec.Frequency)
	return Node{
		ID:        rec.ID,
		Group:     rec.Group,
		Frequency: rec.Frequency,
		Radius:    RadiusFor(rec.Frequency),
		Band:      band,
		Color:     band.Color(),
	}
}

// Build creates a graph from external records and places its nodes on a
// circle around the viewport center. Nothing is returned on error; a
// viewport outside (0, MaxViewport] on either side is a *ViewportError.
func Build(nodes []NodeRecord, links []LinkRecord, width, height float64) (*Graph, error) {
	if !(width > 0) || !(height > 0) || width > MaxViewport || height > MaxViewport {
		return nil, errors.WithStack(&ViewportError{Width: width, Height: height})
	}

	g := &Graph{
		Nodes:  make([]Node, 0, len(nodes)),
		Links:  make([]Link, 0, len(links)),
		Width:  width,
		Height: height,
		index:  make(map[string]int, len(nodes)),
	}

	for i, rec := range nodes {
		if rec.ID == "" {
			return nil, errors.WithStack(&InvalidRecordError{Kind: "node", Index: i, Field: "id", Reason: "empty"})
		}
		if math.IsNaN(rec.Frequency) || math.IsInf(rec.Frequency, 0) || rec.Frequency <= 0 {
			return nil, errors.WithStack(&InvalidRecordError{Kind: "node", Index: i, Field: "frequency", Reason: "must be a positive number"})
		}
		if first, ok := g.index[rec.ID]; ok {
			return nil, errors.WithStack(&DuplicateIdentifierError{NodeID: rec.ID, First: first, Second: i})
		}
		g.index[rec.ID] = i
		g.Nodes = append(g.Nodes, NewNode(rec))
	}

	// Links hold pointers into g.Nodes, which is not appended to past this point
	for i, rec := range links {
		si, ok := g.index[rec.Source]
		if !ok {
			return nil, errors.WithStack(&DanglingReferenceError{Link: i, Field: "source", NodeID: rec.Source})
		}
		ti, ok := g.index[rec.Target]
		if !ok {
			return nil, errors.WithStack(&DanglingReferenceError{Link: i, Field: "target", NodeID: rec.Target})
		}
		if si == ti {
			return nil, errors.WithStack(&InvalidRecordError{Kind: "link", Index: i, Field: "target", Reason: "link endpoints must differ"})
		}
		if math.IsNaN(rec.Value) || math.IsInf(rec.Value, 0) || rec.Value <= 0 {
			return nil, errors.WithStack(&InvalidRecordError{Kind: "link", Index: i, Field: "value", Reason: "must be a positive number"})
		}
		g.Links = append(g.Links, Link{
			Source: &g.Nodes[si],
			Target: &g.Nodes[ti],
			Weight: rec.Value,
		})
	}

	g.Place()
	return g, nil
}

// Place arranges the nodes evenly on a circle centered in the viewport and
// clears their velocities. The i-th node sits at angle 2πi/n.
func (g *Graph) Place() {
	n := float64(len(g.Nodes))
	centerX := g.Width / 2
	centerY := g.Height / 2
	radius := math.Min(g.Width, g.Height) * PlacementFactor

	for i := range g.Nodes {
		node := &g.Nodes[i]
		angle := 2 * math.Pi * float64(i) / n
		node.X = centerX + radius*math.Cos(angle)
		node.Y = centerY + radius*math.Sin(angle)
		node.VX = 0
		node.VY = 0
	}
}

// Clone returns a deep copy whose links point into the copy's own nodes
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes:  make([]Node, len(g.Nodes)),
		Links:  make([]Link, len(g.Links)),
		Width:  g.Width,
		Height: g.Height,
		index:  make(map[string]int, len(g.Nodes)),
	}
	copy(c.Nodes, g.Nodes)
	for i, n := range c.Nodes {
		c.index[n.ID] = i
	}
	for i, l := range g.Links {
		c.Links[i] = Link{
			Source: &c.Nodes[c.index[l.Source.ID]],
			Target: &c.Nodes[c.index[l.Target.ID]],
			Weight: l.Weight,
		}
	}
	return c
}
