package interact

import (
	"testing"

	"github.com/TFMV/keywordgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func scenario(t *testing.T) *models.Graph {
	t.Helper()
	g, err := models.Build(
		[]models.NodeRecord{
			{ID: "A", Group: 1, Frequency: 16},
			{ID: "B", Group: 2, Frequency: 12},
			{ID: "C", Group: 3, Frequency: 4},
		},
		[]models.LinkRecord{{Source: "A", Target: "B", Value: 5}},
		800, 600,
	)
	require.NoError(t, err)
	return g
}

func TestPickTolerance(t *testing.T) {
	g := scenario(t)
	a := g.Nodes[0] // radius 10 at (610, 300)

	assert.Equal(t, "A", Pick(g, r2.Vec{X: a.X, Y: a.Y}).ID)
	assert.Equal(t, "A", Pick(g, r2.Vec{X: a.X + 12, Y: a.Y}).ID)
	assert.Nil(t, Pick(g, r2.Vec{X: a.X + 12.01, Y: a.Y}))
	assert.Nil(t, Pick(g, r2.Vec{X: 400, Y: 300}))
}

func TestPickInsertionOrder(t *testing.T) {
	g := scenario(t)
	for i := range g.Nodes {
		g.Nodes[i].X = 100
		g.Nodes[i].Y = 100
	}
	assert.Equal(t, "A", Pick(g, r2.Vec{X: 101, Y: 100}).ID)

	// With A moved away the next covering node in order wins
	g.Nodes[0].X = 500
	assert.Equal(t, "B", Pick(g, r2.Vec{X: 100, Y: 100}).ID)
}

func TestPointerMove(t *testing.T) {
	g := scenario(t)
	var s State

	s = s.PointerMove(g, r2.Vec{X: 610, Y: 300})
	assert.Equal(t, "A", s.Hovered)
	again := s.PointerMove(g, r2.Vec{X: 610, Y: 300})
	assert.Equal(t, s, again)

	s = s.PointerMove(g, r2.Vec{X: 0, Y: 0})
	assert.Empty(t, s.Hovered)
}

func TestSelectionToggle(t *testing.T) {
	g := scenario(t)
	var s State
	a := r2.Vec{X: 610, Y: 300}

	s = s.PointerClick(g, a)
	assert.Equal(t, "A", s.Selected)
	assert.True(t, s.IsSelected("A"))

	s = s.PointerClick(g, a)
	assert.Empty(t, s.Selected)

	s = s.PointerClick(g, a)
	b := g.Nodes[1]
	s = s.PointerClick(g, r2.Vec{X: b.X, Y: b.Y})
	assert.Equal(t, "B", s.Selected)

	s = s.PointerClick(g, r2.Vec{X: 1, Y: 1})
	assert.Empty(t, s.Selected)
}

func TestHoverAndSelectionIndependent(t *testing.T) {
	g := scenario(t)
	var s State

	s = s.PointerClick(g, r2.Vec{X: 610, Y: 300})
	c := g.Nodes[2]
	s = s.PointerMove(g, r2.Vec{X: c.X, Y: c.Y})
	assert.Equal(t, "A", s.Selected)
	assert.Equal(t, "C", s.Hovered)

	focus, ok := s.Focus()
	assert.True(t, ok)
	assert.Equal(t, "A", focus)

	s = s.PointerMove(g, r2.Vec{})
	assert.Equal(t, "A", s.Selected)

	s = s.Reset()
	assert.Equal(t, State{}, s)
	_, ok = s.Focus()
	assert.False(t, ok)
}
