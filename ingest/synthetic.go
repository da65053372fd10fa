package ingest

import (
	"fmt"
	"math"

	"github.com/TFMV/keywordgraph/models"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Synthetic generates a connected dataset of count keywords. The same count
// and seed always give the same records. Every keyword after the first links
// to an earlier one; simplex noise picks groups, frequencies, weights and a
// share of extra cross links.
func Synthetic(count int, seed int64) *models.Dataset {
	noise := opensimplex.NewNormalized(seed)
	ds := &models.Dataset{
		Nodes: make([]models.NodeRecord, 0, count),
		Links: make([]models.LinkRecord, 0, count+count/3),
	}

	for i := 0; i < count; i++ {
		x := float64(i)
		ds.Nodes = append(ds.Nodes, models.NodeRecord{
			ID:        syntheticID(i),
			Group:     1 + min(2, int(noise.Eval2(x*0.37, 0.5)*3)),
			Frequency: 1 + math.Round(noise.Eval2(x*0.21, 11.3)*24),
		})
	}

	seen := make(map[[2]int]bool)
	link := func(a, b int, v float64) {
		if a == b {
			return
		}
		key := [2]int{min(a, b), max(a, b)}
		if seen[key] {
			return
		}
		seen[key] = true
		ds.Links = append(ds.Links, models.LinkRecord{
			Source: syntheticID(a),
			Target: syntheticID(b),
			Value:  1 + math.Round(v*9),
		})
	}

	for i := 1; i < count; i++ {
		x := float64(i)
		parent := min(i-1, int(noise.Eval2(x*0.13, 7.1)*float64(i)))
		link(i, parent, noise.Eval2(x*0.41, 2.9))

		if noise.Eval2(x*0.29, 3.3) > 0.6 {
			other := (i + 1 + int(noise.Eval2(x*0.17, 5.7)*5)) % count
			link(i, other, noise.Eval2(x*0.53, 8.2))
		}
	}

	return ds
}

func syntheticID(i int) string {
	return fmt.Sprintf("keyword-%03d", i)
}
