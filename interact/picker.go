// Package interact resolves pointer positions to nodes and tracks hover and
// selection.
package interact

import (
	"github.com/TFMV/keywordgraph/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// PickTolerance is added to a node's radius when hit-testing
const PickTolerance = 2.0

// Pick returns the first node in insertion order whose center lies within
// radius+PickTolerance of p, or nil.
func Pick(g *models.Graph, p r2.Vec) *models.Node {
	for i := range g.Nodes {
		node := &g.Nodes[i]
		center := r2.Vec{X: node.X, Y: node.Y}
		if r2.Norm(r2.Sub(p, center)) <= node.Radius+PickTolerance {
			return node
		}
	}
	return nil
}
