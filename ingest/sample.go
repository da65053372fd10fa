package ingest

import "github.com/TFMV/keywordgraph/models"

// Sample returns the built-in academic keyword dataset: 15 keywords in
// three groups and 18 co-occurrence links.
func Sample() *models.Dataset {
	return &models.Dataset{
		Nodes: []models.NodeRecord{
			{ID: "social networks", Group: 1, Frequency: 15},
			{ID: "data mining", Group: 1, Frequency: 12},
			{ID: "machine learning", Group: 1, Frequency: 18},
			{ID: "artificial intelligence", Group: 1, Frequency: 10},
			{ID: "business strategy", Group: 2, Frequency: 8},
			{ID: "management systems", Group: 2, Frequency: 14},
			{ID: "resources management", Group: 2, Frequency: 9},
			{ID: "diversification", Group: 3, Frequency: 7},
			{ID: "marketing", Group: 3, Frequency: 11},
			{ID: "financial analysis", Group: 3, Frequency: 6},
			{ID: "big data", Group: 1, Frequency: 16},
			{ID: "investor relations", Group: 3, Frequency: 5},
			{ID: "security", Group: 2, Frequency: 13},
			{ID: "analytics", Group: 1, Frequency: 17},
			{ID: "software development", Group: 2, Frequency: 10},
		},
		Links: []models.LinkRecord{
			{Source: "social networks", Target: "data mining", Value: 5},
			{Source: "data mining", Target: "machine learning", Value: 8},
			{Source: "machine learning", Target: "artificial intelligence", Value: 10},
			{Source: "machine learning", Target: "big data", Value: 7},
			{Source: "big data", Target: "analytics", Value: 9},
			{Source: "analytics", Target: "data mining", Value: 6},
			{Source: "business strategy", Target: "marketing", Value: 7},
			{Source: "business strategy", Target: "diversification", Value: 5},
			{Source: "marketing", Target: "investor relations", Value: 3},
			{Source: "financial analysis", Target: "investor relations", Value: 8},
			{Source: "management systems", Target: "resources management", Value: 6},
			{Source: "management systems", Target: "software development", Value: 4},
			{Source: "security", Target: "resources management", Value: 5},
			{Source: "software development", Target: "security", Value: 7},
			{Source: "social networks", Target: "analytics", Value: 4},
			{Source: "machine learning", Target: "analytics", Value: 9},
			{Source: "artificial intelligence", Target: "software development", Value: 3},
			{Source: "business strategy", Target: "financial analysis", Value: 5},
		},
	}
}
