// Package tui is the terminal host: the graph is drawn as text cells and
// mouse input is mapped back to viewport coordinates.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/keywordgraph/render"
	"github.com/TFMV/keywordgraph/session"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// footerHeight is the number of rows below the graph
const footerHeight = 2

// Styles
var (
	linkStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	activeLinkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	hoveredStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(render.ColorHoveredFill))
	selectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(render.ColorSelectedFill))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

type keyMap struct {
	Reload key.Binding
	Export key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export png"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reload, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// Options configures the terminal host
type Options struct {
	CellWidth  float64
	CellHeight float64
	FPS        int
	ExportDir  string
}

// Model is the bubbletea model of the terminal host
type Model struct {
	ctx     context.Context
	session *session.Session
	opts    Options
	keys    keyMap
	help    help.Model

	width, height int
	grid          *render.Grid
	view          session.View
	snapshot      session.Snapshot
	message       string
	err           error
}

type frameMsg time.Time

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// New creates the terminal host for sess. The session should run without
// its own ticker; frames are driven by the program.
func New(ctx context.Context, sess *session.Session, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	return Model{
		ctx:     ctx,
		session: sess,
		opts:    opts,
		keys:    keys,
		help:    help.New(),
		width:   80,
		height:  24,
	}
}

// Init starts the frame ticker
func (m Model) Init() tea.Cmd {
	return m.frame()
}

// Update handles terminal events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		cols, rows := m.gridSize()
		m.err = m.session.Resize(m.ctx, float64(cols)*m.opts.CellWidth, float64(rows)*m.opts.CellHeight)
		m.refresh()
		return m, nil

	case frameMsg:
		if err := m.session.Advance(m.ctx, 1); err != nil {
			return m, tea.Quit
		}
		m.refresh()
		return m, m.frame()

	case tea.MouseMsg:
		m.pointer(msg)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			m.err = m.session.Reload(m.ctx)
			if m.err == nil {
				m.message = "reloaded"
			}
		case key.Matches(msg, m.keys.Export):
			m.export()
		}
		m.refresh()
	}
	return m, nil
}

// gridSize returns the graph area in cells
func (m Model) gridSize() (int, int) {
	return max(m.width, 1), max(m.height-footerHeight, 1)
}

// pointer sends mouse input to the session at the center of the cell
func (m *Model) pointer(msg tea.MouseMsg) {
	if m.grid == nil || msg.Y >= m.grid.Rows {
		return
	}
	x, y := m.grid.CellCenter(msg.X, msg.Y)

	var err error
	switch {
	case msg.Action == tea.MouseActionMotion:
		m.view, err = m.session.PointerMove(m.ctx, x, y)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.view, err = m.session.PointerClick(m.ctx, x, y)
	}
	if err != nil {
		m.err = err
	}
}

func (m *Model) export() {
	data, r, err := m.session.Export(m.ctx, "png")
	if err != nil {
		m.err = err
		return
	}
	path := filepath.Join(m.opts.ExportDir, render.Filename(r))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.message = "saved " + path
}

// refresh pulls the current grid and statistics from the session
func (m *Model) refresh() {
	cols, rows := m.gridSize()
	grid, err := m.session.Grid(m.ctx, cols, rows, m.opts.CellWidth, m.opts.CellHeight)
	if err != nil {
		m.err = err
		return
	}
	m.grid = grid

	if snap, err := m.session.Snapshot(m.ctx); err == nil {
		m.snapshot = snap
		m.view = snap.View
	}
}

// View renders the graph and the footer
func (m Model) View() string {
	var b strings.Builder
	if m.grid != nil {
		for _, row := range m.grid.Cells {
			renderRow(&b, row)
			b.WriteByte('\n')
		}
	}
	b.WriteString(m.status())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderRow styles runs of cells that share a style
func renderRow(b *strings.Builder, row []render.Cell) {
	var run []rune
	var style *lipgloss.Style
	flush := func() {
		if len(run) == 0 {
			return
		}
		if style == nil {
			b.WriteString(string(run))
		} else {
			b.WriteString(style.Render(string(run)))
		}
		run = run[:0]
	}

	for _, cell := range row {
		next := cellStyle(cell)
		if !sameStyle(next, style) {
			flush()
			style = next
		}
		run = append(run, cell.Rune)
	}
	flush()
}

var nodeStyles = map[string]lipgloss.Style{}

func cellStyle(cell render.Cell) *lipgloss.Style {
	switch cell.Kind {
	case render.CellLink:
		return &linkStyle
	case render.CellLinkActive:
		return &activeLinkStyle
	case render.CellLabel:
		return &labelStyle
	case render.CellHovered:
		return &hoveredStyle
	case render.CellSelected:
		return &selectedStyle
	case render.CellNode:
		style, ok := nodeStyles[cell.Color]
		if !ok {
			style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(cell.Color))
			nodeStyles[cell.Color] = style
		}
		return &style
	}
	return nil
}

func sameStyle(a, b *lipgloss.Style) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.GetForeground() == b.GetForeground() && a.GetBold() == b.GetBold()
}

func (m Model) status() string {
	if m.err != nil {
		return errorStyle.Render("error: " + m.err.Error())
	}

	stats := m.snapshot.Stats
	line := fmt.Sprintf("%d keywords  %d links  avg %.1f  frame %d",
		stats.Nodes, stats.Links, stats.AvgConnections, m.snapshot.Frames)
	if d := m.view.Focus; d != nil {
		line += fmt.Sprintf("  |  %s (%s) freq %g, %d connections: %s",
			d.ID, d.Category, d.Frequency, d.Connections, strings.Join(d.Related, ", "))
		if d.More > 0 {
			line += fmt.Sprintf(" +%d more", d.More)
		}
	} else if m.message != "" {
		line += "  |  " + m.message
	}
	return statusStyle.Render(line)
}
