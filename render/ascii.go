package render

import (
	"math"
	"strings"

	"github.com/TFMV/keywordgraph/interact"
	"github.com/TFMV/keywordgraph/models"
)

// CellKind tells a terminal host how to style a grid cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellLink
	CellLinkActive
	CellNode
	CellHovered
	CellSelected
	CellLabel
)

// Cell is one character of a text rendering
type Cell struct {
	Rune  rune
	Kind  CellKind
	Color string // fill color for node cells
}

// Grid is a text rendering of the graph where every cell covers
// CellWidth x CellHeight viewport pixels.
type Grid struct {
	Cols, Rows int
	CellWidth  float64
	CellHeight float64
	Cells      [][]Cell
}

var bandSymbols = map[models.Band]rune{
	models.BandHigh:    '@',
	models.BandMedium:  'O',
	models.BandLow:     'o',
	models.BandDefault: '.',
}

// Rasterize draws g onto a cols x rows character grid. The same styling
// rules as the raster painter decide which links are emphasized and which
// nodes get labels.
func Rasterize(g *models.Graph, state interact.State, cols, rows int, cellWidth, cellHeight float64) *Grid {
	grid := &Grid{
		Cols:       max(cols, 1),
		Rows:       max(rows, 1),
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
	}
	grid.Cells = make([][]Cell, grid.Rows)
	for i := range grid.Cells {
		grid.Cells[i] = make([]Cell, grid.Cols)
		for j := range grid.Cells[i] {
			grid.Cells[i][j] = Cell{Rune: ' '}
		}
	}

	for i := range g.Links {
		link := &g.Links[i]
		kind := CellLink
		if stroke := StyleLink(link, state); stroke.Color == ColorLinkSelected || stroke.Color == ColorLinkHovered {
			kind = CellLinkActive
		}
		x1, y1 := grid.CellAt(link.Source.X, link.Source.Y)
		x2, y2 := grid.CellAt(link.Target.X, link.Target.Y)
		grid.drawLine(x1, y1, x2, y2, kind)
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		x, y := grid.CellAt(node.X, node.Y)
		cell := Cell{Rune: bandSymbols[node.Band], Kind: CellNode, Color: node.Color}
		switch {
		case state.IsSelected(node.ID):
			cell = Cell{Rune: '#', Kind: CellSelected, Color: ColorSelectedFill}
		case state.IsHovered(node.ID):
			cell = Cell{Rune: '*', Kind: CellHovered, Color: ColorHoveredFill}
		}
		grid.Cells[y][x] = cell
	}

	// Labels go right of their node and never cover another node
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if !ShowLabel(node, state) {
			continue
		}
		x, y := grid.CellAt(node.X, node.Y)
		for j, r := range []rune(node.ID) {
			col := x + 1 + j
			if col >= grid.Cols || grid.isNode(col, y) {
				break
			}
			grid.Cells[y][col] = Cell{Rune: r, Kind: CellLabel}
		}
	}

	return grid
}

// CellAt returns the column and row covering a viewport point, clamped to the grid
func (g *Grid) CellAt(x, y float64) (int, int) {
	col := clampInt(int(math.Floor(x/g.CellWidth)), 0, g.Cols-1)
	row := clampInt(int(math.Floor(y/g.CellHeight)), 0, g.Rows-1)
	return col, row
}

// CellCenter returns the viewport point at the center of a cell
func (g *Grid) CellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * g.CellWidth, (float64(row) + 0.5) * g.CellHeight
}

// String returns the grid as plain text, one line per row
func (g *Grid) String() string {
	var result strings.Builder
	for _, row := range g.Cells {
		for _, cell := range row {
			result.WriteRune(cell.Rune)
		}
		result.WriteRune('\n')
	}
	return result.String()
}

func (g *Grid) isNode(x, y int) bool {
	switch g.Cells[y][x].Kind {
	case CellNode, CellHovered, CellSelected:
		return true
	}
	return false
}

// drawLine plots a link with Bresenham's algorithm without overwriting nodes
func (g *Grid) drawLine(x1, y1, x2, y2 int, kind CellKind) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if !g.isNode(x1, y1) && g.Cells[y1][x1].Kind != CellLinkActive {
			g.Cells[y1][x1] = Cell{Rune: '·', Kind: kind}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
