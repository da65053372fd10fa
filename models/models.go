// Package models provides the graph model for the keywordgraph application.
// It defines the nodes, links and records that every other package works on.
package models

// Band is the frequency category a node's color is derived from.
type Band int

const (
	BandDefault Band = iota
	BandLow
	BandMedium
	BandHigh
)

// Frequency thresholds for the color bands
const (
	MediumThreshold = 10.0
	HighThreshold   = 15.0
)

// Band colors
const (
	ColorHigh    = "#1f77b4"
	ColorMedium  = "#2ca02c"
	ColorLow     = "#d62728"
	ColorDefault = "#7f7f7f"
)

// String returns the name of the band
func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandMedium:
		return "medium"
	case BandLow:
		return "low"
	default:
		return "default"
	}
}

// Color returns the hex color of the band
func (b Band) Color() string {
	switch b {
	case BandHigh:
		return ColorHigh
	case BandMedium:
		return ColorMedium
	case BandLow:
		return ColorLow
	default:
		return ColorDefault
	}
}

// Node is a keyword positioned on the canvas
type Node struct {
	ID        string  `json:"id"`
	Group     int     `json:"group"`
	Frequency float64 `json:"frequency"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Radius    float64 `json:"radius"`
	Band      Band    `json:"-"`
	Color     string  `json:"color"`
}

// Link is a weighted co-occurrence between two nodes of the same graph.
// Source and Target point into the owning Graph's node slice.
type Link struct {
	Source *Node   `json:"-"`
	Target *Node   `json:"-"`
	Weight float64 `json:"weight"`
}

// Touches reports whether the link has the node with the given id as an endpoint
func (l *Link) Touches(id string) bool {
	return l.Source.ID == id || l.Target.ID == id
}

// Graph is the model shared by the simulator, the picker and the painter.
// Nodes keep insertion order; the slice is never resized after Build.
type Graph struct {
	Nodes  []Node  `json:"nodes"`
	Links  []Link  `json:"links"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	index map[string]int
}

// NodeRecord is the external description of a keyword
type NodeRecord struct {
	ID        string  `json:"id" yaml:"id" validate:"required"`
	Group     int     `json:"group" yaml:"group" validate:"gte=1"`
	Frequency float64 `json:"frequency" yaml:"frequency" validate:"gt=0"`
}

// LinkRecord is the external description of a co-occurrence
type LinkRecord struct {
	Source string  `json:"source" yaml:"source" validate:"required"`
	Target string  `json:"target" yaml:"target" validate:"required,nefield=Source"`
	Value  float64 `json:"value" yaml:"value" validate:"gt=0"`
}

// Dataset groups the node and link records supplied by a data source
type Dataset struct {
	Nodes []NodeRecord `json:"nodes" yaml:"nodes" validate:"dive"`
	Links []LinkRecord `json:"links" yaml:"links" validate:"dive"`
}
