package interact

import (
	"github.com/TFMV/keywordgraph/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// State holds the hovered and selected node ids. The zero value has neither.
// Hover and selection change independently.
type State struct {
	Hovered  string `json:"hovered,omitempty"`
	Selected string `json:"selected,omitempty"`
}

// PointerMove hovers the node under p, or clears hover when there is none
func (s State) PointerMove(g *models.Graph, p r2.Vec) State {
	if node := Pick(g, p); node != nil {
		s.Hovered = node.ID
	} else {
		s.Hovered = ""
	}
	return s
}

// PointerClick toggles selection of the node under p. A click on empty
// canvas clears the selection.
func (s State) PointerClick(g *models.Graph, p r2.Vec) State {
	node := Pick(g, p)
	switch {
	case node == nil:
		s.Selected = ""
	case node.ID == s.Selected:
		s.Selected = ""
	default:
		s.Selected = node.ID
	}
	return s
}

// Reset clears hover and selection
func (s State) Reset() State {
	return State{}
}

// IsHovered reports whether id is the hovered node
func (s State) IsHovered(id string) bool {
	return s.Hovered != "" && s.Hovered == id
}

// IsSelected reports whether id is the selected node
func (s State) IsSelected(id string) bool {
	return s.Selected != "" && s.Selected == id
}

// Focus returns the id shown in the inspection panel: the selection if any,
// else the hovered node.
func (s State) Focus() (string, bool) {
	switch {
	case s.Selected != "":
		return s.Selected, true
	case s.Hovered != "":
		return s.Hovered, true
	default:
		return "", false
	}
}
