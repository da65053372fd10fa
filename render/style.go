package render

import (
	"math"

	"github.com/TFMV/keywordgraph/interact"
	"github.com/TFMV/keywordgraph/models"
)

// Highlight colors
const (
	ColorSelectedFill   = "#ff9800"
	ColorSelectedBorder = "#e65100"
	ColorHoveredFill    = "#03a9f4"
	ColorHoveredBorder  = "#0277bd"
	ColorBorder         = "#ffffff"
	ColorLabel          = "#000000"

	ColorLinkSelected = "#333333"
	ColorLinkFaded    = "#dddddd"
	ColorLinkHovered  = "#555555"
	ColorLinkDimmed   = "#cccccc"
	ColorLink         = "#999999"
)

// Label geometry
const (
	LabelThreshold   = 10.0
	LabelMinFontSize = 10.0
	LabelMaxFontSize = 14.0
	LabelFontScale   = 0.8
	LabelPadding     = 3.0
)

// Stroke is the color and width of a line
type Stroke struct {
	Color string
	Width float64
}

// NodeStyle is the paint of a single node
type NodeStyle struct {
	Fill   string
	Border Stroke
}

// StyleLink returns the stroke of a link. Selection takes priority over hover.
func StyleLink(l *models.Link, state interact.State) Stroke {
	emphasized := 2 * math.Sqrt(l.Weight) * 0.2
	switch {
	case state.Selected != "":
		if l.Touches(state.Selected) {
			return Stroke{Color: ColorLinkSelected, Width: emphasized}
		}
		return Stroke{Color: ColorLinkFaded, Width: 1}
	case state.Hovered != "":
		if l.Touches(state.Hovered) {
			return Stroke{Color: ColorLinkHovered, Width: emphasized}
		}
		return Stroke{Color: ColorLinkDimmed, Width: 1}
	default:
		return Stroke{Color: ColorLink, Width: math.Sqrt(l.Weight)*0.2 + 0.5}
	}
}

// StyleNode returns the fill and border of a node
func StyleNode(n *models.Node, state interact.State) NodeStyle {
	switch {
	case state.IsSelected(n.ID):
		return NodeStyle{Fill: ColorSelectedFill, Border: Stroke{Color: ColorSelectedBorder, Width: 3}}
	case state.IsHovered(n.ID):
		return NodeStyle{Fill: ColorHoveredFill, Border: Stroke{Color: ColorHoveredBorder, Width: 2}}
	default:
		return NodeStyle{Fill: n.Color, Border: Stroke{Color: ColorBorder, Width: 1}}
	}
}

// ShowLabel reports whether a node gets a text label
func ShowLabel(n *models.Node, state interact.State) bool {
	return n.Frequency > LabelThreshold || state.IsHovered(n.ID) || state.IsSelected(n.ID)
}

// LabelFontSize returns the label size in pixels for a node radius
func LabelFontSize(radius float64) float64 {
	return math.Max(LabelMinFontSize, math.Min(LabelMaxFontSize, radius*LabelFontScale))
}
