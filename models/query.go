package models

// MaxRelated is how many related keywords Details lists before truncating
const MaxRelated = 5

// Stats summarizes the size of a graph
type Stats struct {
	Nodes          int     `json:"nodes"`
	Links          int     `json:"links"`
	AvgConnections float64 `json:"avg_connections"`
}

// NodeDetails describes a single keyword for an inspection panel
type NodeDetails struct {
	ID          string   `json:"id"`
	Frequency   float64  `json:"frequency"`
	Group       int      `json:"group"`
	Category    string   `json:"category"`
	Connections int      `json:"connections"`
	Related     []string `json:"related"`
	More        int      `json:"more"`
}

// LegendEntry describes one color band
type LegendEntry struct {
	Band  string `json:"band"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// FindNode returns the node with the given id
func (g *Graph) FindNode(id string) (*Node, bool) {
	i, ok := g.IndexOf(id)
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// IndexOf returns the insertion position of the node with the given id.
// Graphs not made by Build or Clone have no index and are scanned.
func (g *Graph) IndexOf(id string) (int, bool) {
	if g.index == nil {
		for i := range g.Nodes {
			if g.Nodes[i].ID == id {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := g.index[id]
	return i, ok
}

// ConnectedNodes returns the ids at the other end of every link touching
// the node, in link order.
func (g *Graph) ConnectedNodes(id string) []string {
	var result []string
	for i := range g.Links {
		link := &g.Links[i]
		switch {
		case link.Source.ID == id:
			result = append(result, link.Target.ID)
		case link.Target.ID == id:
			result = append(result, link.Source.ID)
		}
	}
	return result
}

// Stats returns node and link counts and the average number of links per node
func (g *Graph) Stats() Stats {
	nodes := len(g.Nodes)
	denom := nodes
	if denom == 0 {
		denom = 1
	}
	return Stats{
		Nodes:          nodes,
		Links:          len(g.Links),
		AvgConnections: float64(len(g.Links)) / float64(denom),
	}
}

// Details returns the inspection view of a node
func (g *Graph) Details(id string) (NodeDetails, bool) {
	node, ok := g.FindNode(id)
	if !ok {
		return NodeDetails{}, false
	}

	connected := g.ConnectedNodes(id)
	related := connected
	more := 0
	if len(related) > MaxRelated {
		more = len(related) - MaxRelated
		related = related[:MaxRelated]
	}

	return NodeDetails{
		ID:          node.ID,
		Frequency:   node.Frequency,
		Group:       node.Group,
		Category:    GroupName(node.Group),
		Connections: len(connected),
		Related:     append([]string(nil), related...),
		More:        more,
	}, true
}

// GroupName returns the category label of a keyword group
func GroupName(group int) string {
	switch group {
	case 1:
		return "Data Science"
	case 2:
		return "Management & IT"
	case 3:
		return "Business"
	default:
		return "Other"
	}
}

// Legend returns the color bands from highest to lowest
func Legend() []LegendEntry {
	return []LegendEntry{
		{Band: BandHigh.String(), Label: "High Frequency (15+)", Color: ColorHigh},
		{Band: BandMedium.String(), Label: "Medium Frequency (10-14)", Color: ColorMedium},
		{Band: BandLow.String(), Label: "Low Frequency (<10)", Color: ColorLow},
	}
}
