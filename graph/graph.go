// Package graph keeps a gonum adjacency index of a keyword graph for the
// statistics panel.
package graph

import (
	"sort"

	"github.com/TFMV/keywordgraph/models"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Index is an undirected weighted view of a models.Graph. Repeated links
// between the same pair are merged and their weights summed.
type Index struct {
	graph *simple.WeightedUndirectedGraph
	ids   []string         // gonum id -> keyword
	nodes map[string]int64 // keyword -> gonum id
}

// Summary describes the connectivity of the graph
type Summary struct {
	Components        int     `json:"components"`
	LargestComponent  int     `json:"largest_component"`
	Isolated          int     `json:"isolated"`
	MaxWeightedDegree float64 `json:"max_weighted_degree"`
}

// NewIndex builds an index over the nodes and links of g
func NewIndex(g *models.Graph) *Index {
	idx := &Index{
		graph: simple.NewWeightedUndirectedGraph(0, 0),
		ids:   make([]string, len(g.Nodes)),
		nodes: make(map[string]int64, len(g.Nodes)),
	}

	for i, n := range g.Nodes {
		idx.ids[i] = n.ID
		idx.nodes[n.ID] = int64(i)
		idx.graph.AddNode(simple.Node(i))
	}

	for _, l := range g.Links {
		from := idx.nodes[l.Source.ID]
		to := idx.nodes[l.Target.ID]
		weight := l.Weight
		if w, ok := idx.graph.Weight(from, to); ok {
			weight += w
		}
		idx.graph.SetWeightedEdge(idx.graph.NewWeightedEdge(simple.Node(from), simple.Node(to), weight))
	}

	return idx
}

// Degree returns the number of distinct neighbors of a keyword
func (idx *Index) Degree(id string) int {
	n, ok := idx.nodes[id]
	if !ok {
		return 0
	}
	return idx.graph.From(n).Len()
}

// WeightedDegree returns the summed co-occurrence weight of a keyword
func (idx *Index) WeightedDegree(id string) float64 {
	n, ok := idx.nodes[id]
	if !ok {
		return 0
	}
	total := 0.0
	neighbors := idx.graph.From(n)
	for neighbors.Next() {
		w, _ := idx.graph.Weight(n, neighbors.Node().ID())
		total += w
	}
	return total
}

// Components returns the connected components. Members keep insertion order
// and components are ordered by their first member.
func (idx *Index) Components() [][]string {
	cc := topo.ConnectedComponents(idx.graph)
	result := make([][]string, 0, len(cc))
	for _, component := range cc {
		members := make([]int64, len(component))
		for i, n := range component {
			members[i] = n.ID()
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = idx.ids[m]
		}
		result = append(result, ids)
	}
	sort.Slice(result, func(i, j int) bool {
		return idx.nodes[result[i][0]] < idx.nodes[result[j][0]]
	})
	return result
}

// Summary computes the connectivity figures of the stats panel
func (idx *Index) Summary() Summary {
	var s Summary
	for _, c := range idx.Components() {
		s.Components++
		if len(c) > s.LargestComponent {
			s.LargestComponent = len(c)
		}
		if len(c) == 1 {
			s.Isolated++
		}
	}
	for _, id := range idx.ids {
		if w := idx.WeightedDegree(id); w > s.MaxWeightedDegree {
			s.MaxWeightedDegree = w
		}
	}
	return s
}
