package graph

import (
	"testing"

	"github.com/TFMV/keywordgraph/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	g, err := models.Build(
		[]models.NodeRecord{
			{ID: "a", Group: 1, Frequency: 10},
			{ID: "b", Group: 1, Frequency: 10},
			{ID: "c", Group: 2, Frequency: 5},
			{ID: "d", Group: 3, Frequency: 3},
			{ID: "e", Group: 3, Frequency: 3},
		},
		[]models.LinkRecord{
			{Source: "a", Target: "b", Value: 2},
			{Source: "b", Target: "a", Value: 3},
			{Source: "b", Target: "c", Value: 1},
			{Source: "e", Target: "d", Value: 4},
		},
		800, 600,
	)
	require.NoError(t, err)

	idx := NewIndex(g)

	assert.Equal(t, 1, idx.Degree("a"))
	assert.Equal(t, 2, idx.Degree("b"))
	assert.Equal(t, 0, idx.Degree("missing"))
	assert.Equal(t, 5.0, idx.WeightedDegree("a"))
	assert.Equal(t, 6.0, idx.WeightedDegree("b"))

	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e"}}, idx.Components())

	s := idx.Summary()
	assert.Equal(t, 2, s.Components)
	assert.Equal(t, 3, s.LargestComponent)
	assert.Equal(t, 0, s.Isolated)
	assert.Equal(t, 6.0, s.MaxWeightedDegree)
}

func TestIndexIsolated(t *testing.T) {
	g, err := models.Build([]models.NodeRecord{{ID: "solo", Group: 1, Frequency: 1}}, nil, 100, 100)
	require.NoError(t, err)

	s := NewIndex(g).Summary()
	assert.Equal(t, 1, s.Components)
	assert.Equal(t, 1, s.Isolated)
	assert.Zero(t, s.MaxWeightedDegree)
}
