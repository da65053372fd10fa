// Package physics advances the keyword graph layout one tick at a time.
package physics

import (
	"math"

	"github.com/TFMV/keywordgraph/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// Default force parameters
const (
	DefaultGravity        = 0.0005
	DefaultRepulsionForce = 500.0
	DefaultMinDistanceSq  = 10.0
	DefaultSpringLength   = 100.0
	DefaultSpringConstant = 0.03
	DefaultWeightScale    = 0.05
	DefaultDampingFactor  = 0.9
)

// ForceDirectedLayout holds the force parameters and a scratch buffer
// reused between ticks. It never converges or stops on its own.
type ForceDirectedLayout struct {
	Gravity        float64 // pull towards the viewport center
	RepulsionForce float64 // numerator of the inverse square repulsion
	MinDistanceSq  float64 // floor of the repulsion denominator
	SpringLength   float64 // rest length of a link
	SpringConstant float64 // link stiffness
	WeightScale    float64 // multiplier applied to link weight
	DampingFactor  float64 // velocity retained between ticks

	forces []r2.Vec
}

// NewForceDirectedLayout creates a layout with the default parameters
func NewForceDirectedLayout() *ForceDirectedLayout {
	return &ForceDirectedLayout{
		Gravity:        DefaultGravity,
		RepulsionForce: DefaultRepulsionForce,
		MinDistanceSq:  DefaultMinDistanceSq,
		SpringLength:   DefaultSpringLength,
		SpringConstant: DefaultSpringConstant,
		WeightScale:    DefaultWeightScale,
		DampingFactor:  DefaultDampingFactor,
	}
}

// Tick advances g by one step with the default parameters
func Tick(g *models.Graph, width, height float64) {
	NewForceDirectedLayout().Step(g, width, height)
}

// Step advances every node of g by one tick in place. All forces are
// computed from the positions at the start of the tick before any node moves.
func (fd *ForceDirectedLayout) Step(g *models.Graph, width, height float64) {
	forces := fd.NetForces(g, width, height)

	for i := range g.Nodes {
		node := &g.Nodes[i]
		node.VX = node.VX*fd.DampingFactor + forces[i].X
		node.VY = node.VY*fd.DampingFactor + forces[i].Y
		node.X += node.VX
		node.Y += node.VY

		// Velocity survives the clamp
		node.X = clamp(node.X, node.Radius, width-node.Radius)
		node.Y = clamp(node.Y, node.Radius, height-node.Radius)
	}
}

// NetForces returns the force acting on each node, indexed like g.Nodes.
// The returned slice is reused by the next call.
func (fd *ForceDirectedLayout) NetForces(g *models.Graph, width, height float64) []r2.Vec {
	n := len(g.Nodes)
	if cap(fd.forces) < n {
		fd.forces = make([]r2.Vec, n)
	}
	forces := fd.forces[:n]

	center := r2.Vec{X: width / 2, Y: height / 2}
	for i := range g.Nodes {
		pos := position(&g.Nodes[i])
		f := r2.Scale(fd.Gravity, r2.Sub(center, pos))

		for j := range g.Nodes {
			if i == j {
				continue
			}
			f = r2.Add(f, fd.Repulsion(pos, position(&g.Nodes[j])))
		}
		forces[i] = f
	}

	for i := range g.Links {
		link := &g.Links[i]
		si, sok := g.IndexOf(link.Source.ID)
		ti, tok := g.IndexOf(link.Target.ID)
		if !sok || !tok {
			continue
		}
		f := fd.LinkForce(position(link.Source), position(link.Target), link.Weight)
		forces[si] = r2.Add(forces[si], f)
		forces[ti] = r2.Sub(forces[ti], f)
	}

	return forces
}

// Repulsion returns the force pushing a node at p away from a node at other.
// Coincident nodes contribute nothing.
func (fd *ForceDirectedLayout) Repulsion(p, other r2.Vec) r2.Vec {
	delta := r2.Sub(p, other)
	distSq := r2.Norm2(delta)
	if distSq == 0 {
		return r2.Vec{}
	}
	dist := math.Sqrt(distSq)
	magnitude := fd.RepulsionForce / math.Max(fd.MinDistanceSq, distSq)
	return r2.Scale(magnitude/dist, delta)
}

// LinkForce returns the spring force on the source endpoint of a link. The
// target receives the exact negation. Coincident endpoints contribute nothing.
func (fd *ForceDirectedLayout) LinkForce(source, target r2.Vec, weight float64) r2.Vec {
	delta := r2.Sub(target, source)
	dist := r2.Norm(delta)
	if dist == 0 {
		return r2.Vec{}
	}
	magnitude := (dist - fd.SpringLength) * fd.SpringConstant * weight * fd.WeightScale
	return r2.Scale(magnitude/dist, delta)
}

func position(n *models.Node) r2.Vec {
	return r2.Vec{X: n.X, Y: n.Y}
}

// clamp restricts v to [lo, hi]. When the range is empty the lower bound wins.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
