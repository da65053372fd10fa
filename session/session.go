// Package session owns one live keyword graph: its model, interaction
// state, surface and animation loop. Everything runs on the goroutine that
// calls Run; other goroutines submit work through the exported methods.
package session

import (
	"context"
	"image"
	"time"

	"github.com/TFMV/keywordgraph/graph"
	"github.com/TFMV/keywordgraph/ingest"
	"github.com/TFMV/keywordgraph/interact"
	"github.com/TFMV/keywordgraph/logger"
	"github.com/TFMV/keywordgraph/loop"
	"github.com/TFMV/keywordgraph/metrics"
	"github.com/TFMV/keywordgraph/models"
	"github.com/TFMV/keywordgraph/physics"
	"github.com/TFMV/keywordgraph/render"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrClosed is returned by calls made after Run has returned
var ErrClosed = errors.New("session closed")

// Rebuild reasons
const (
	ReasonStart    = "start"
	ReasonReload   = "reload"
	ReasonViewport = "viewport"
)

// Options configures a session
type Options struct {
	Width      float64
	Height     float64
	FPS        int // frames per second; 0 means frames only run through Advance
	Background string
	Source     ingest.Source
	Logger     *zap.SugaredLogger
	Metrics    *metrics.Registry
}

// View is the interaction state with the details of the focused node
type View struct {
	State  interact.State      `json:"state"`
	Focus  *models.NodeDetails `json:"focus,omitempty"`
	Cursor string              `json:"cursor"`
}

// Snapshot is the data behind the statistics panel
type Snapshot struct {
	ID      string               `json:"id"`
	Width   float64              `json:"width"`
	Height  float64              `json:"height"`
	Frames  uint64               `json:"frames"`
	Stats   models.Stats         `json:"stats"`
	Summary graph.Summary        `json:"summary"`
	Legend  []models.LegendEntry `json:"legend"`
	View    View                 `json:"view"`
}

// Session is a single-threaded graph host
type Session struct {
	id       string
	opts     Options
	log      *zap.SugaredLogger
	metrics  *metrics.Registry
	requests chan func()
	done     chan struct{}

	// Owned by the Run goroutine
	queue   loop.Queue
	loop    *loop.Loop
	dataset *models.Dataset
	graph   *models.Graph
	index   *graph.Index
	state   interact.State
	layout  *physics.ForceDirectedLayout
	painter *render.Painter
	surface *image.RGBA
}

// New creates a session. Nothing is built until Run is called.
func New(opts Options) (*Session, error) {
	if opts.Source == nil {
		opts.Source = func() (*models.Dataset, error) { return ingest.Sample(), nil }
	}
	if opts.Background == "" {
		opts.Background = "#ffffff"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("session")
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultRegistry()
	}

	painter, err := render.NewPainter(opts.Background)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	return &Session{
		id:       id,
		opts:     opts,
		log:      opts.Logger.With("session", id),
		metrics:  opts.Metrics,
		requests: make(chan func()),
		done:     make(chan struct{}),
		layout:   physics.NewForceDirectedLayout(),
		painter:  painter,
	}, nil
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Done is closed once Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run builds the initial model and then serves frames and requests until
// ctx is done. It returns the initial build error, if any.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	ds, err := s.opts.Source()
	if err != nil {
		return errors.Wrap(err, "loading initial dataset")
	}
	if err := s.rebuild(ReasonStart, ds, s.opts.Width, s.opts.Height); err != nil {
		return err
	}
	s.log.Infow("session started", "fps", s.opts.FPS, "width", s.opts.Width, "height", s.opts.Height)
	defer func() {
		s.log.Infow("session stopped", "frames", s.loop.Frames())
	}()

	var ticks <-chan time.Time
	if s.opts.FPS > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(s.opts.FPS))
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.loop.Stop()
			return nil
		case fn := <-s.requests:
			fn()
		case <-ticks:
			s.queue.Flush()
		}
	}
}

// do runs fn on the session goroutine and waits for it to finish
func (s *Session) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case s.requests <- func() { fn(); close(finished) }:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// rebuild replaces the model. On error the current model keeps running.
func (s *Session) rebuild(reason string, ds *models.Dataset, width, height float64) error {
	g, err := models.Build(ds.Nodes, ds.Links, width, height)
	if err != nil {
		s.metrics.RecordRebuildFailure(reason)
		return errors.Wrapf(err, "%s rebuild", reason)
	}

	// The new frame is ready before anything of the old model is released
	state := s.state.Reset()
	surface := render.NewSurface(g.Width, g.Height)
	s.painter.Paint(surface, g, state)

	if s.loop != nil {
		s.loop.Stop()
	}

	s.dataset = ds
	s.graph = g
	s.index = graph.NewIndex(g)
	s.state = state
	s.surface = surface

	s.loop = loop.New(&s.queue, s.frame)
	s.loop.Start()

	s.metrics.RecordRebuild(reason, len(g.Nodes), len(g.Links))
	s.log.Infow("model built", "reason", reason, "nodes", len(g.Nodes), "links", len(g.Links),
		"width", width, "height", height)
	return nil
}

// frame is one loop iteration: tick, then paint
func (s *Session) frame() {
	start := time.Now()
	s.layout.Step(s.graph, s.graph.Width, s.graph.Height)
	tick := time.Since(start)

	start = time.Now()
	s.painter.Paint(s.surface, s.graph, s.state)
	s.metrics.RecordFrame(tick, time.Since(start))
}

func (s *Session) view() View {
	v := View{State: s.state, Cursor: "default"}
	if s.state.Hovered != "" {
		v.Cursor = "pointer"
	}
	if id, ok := s.state.Focus(); ok {
		if d, ok := s.graph.Details(id); ok {
			v.Focus = &d
		}
	}
	return v
}

// PointerMove hovers the node under (x, y)
func (s *Session) PointerMove(ctx context.Context, x, y float64) (View, error) {
	var v View
	err := s.do(ctx, func() {
		s.state = s.state.PointerMove(s.graph, r2.Vec{X: x, Y: y})
		s.metrics.RecordPointer("move")
		v = s.view()
	})
	return v, err
}

// PointerClick toggles selection of the node under (x, y)
func (s *Session) PointerClick(ctx context.Context, x, y float64) (View, error) {
	var v View
	err := s.do(ctx, func() {
		s.state = s.state.PointerClick(s.graph, r2.Vec{X: x, Y: y})
		s.metrics.RecordPointer("click")
		v = s.view()
		s.log.Debugw("pointer click", "x", x, "y", y, "selected", s.state.Selected)
	})
	return v, err
}

// Resize rebuilds the current dataset for a new viewport
func (s *Session) Resize(ctx context.Context, width, height float64) error {
	var err error
	if doErr := s.do(ctx, func() {
		if width == s.graph.Width && height == s.graph.Height {
			return
		}
		err = s.rebuild(ReasonViewport, s.dataset, width, height)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Reload fetches the dataset from the source again and rebuilds. The
// source is read on the caller's goroutine so frames keep running.
func (s *Session) Reload(ctx context.Context) error {
	ds, err := s.opts.Source()
	if err != nil {
		s.metrics.RecordRebuildFailure(ReasonReload)
		s.log.Warnw("reload failed", "error", err)
		return err
	}
	if doErr := s.do(ctx, func() {
		err = s.rebuild(ReasonReload, ds, s.graph.Width, s.graph.Height)
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		s.log.Warnw("reload rejected", "error", err)
	}
	return err
}

// Advance runs n frames immediately
func (s *Session) Advance(ctx context.Context, n int) error {
	return s.do(ctx, func() {
		for i := 0; i < n; i++ {
			s.queue.Flush()
		}
	})
}

// Export serializes the current frame in format
func (s *Session) Export(ctx context.Context, format string) ([]byte, render.Renderer, error) {
	r, err := render.GetRenderer(format)
	if err != nil {
		return nil, nil, err
	}

	var data []byte
	if doErr := s.do(ctx, func() {
		data, err = r.Render(&render.Frame{
			Graph:      s.graph,
			State:      s.state,
			Surface:    s.surface,
			Background: s.opts.Background,
		})
	}); doErr != nil {
		return nil, nil, doErr
	}
	if err != nil {
		return nil, nil, err
	}

	s.metrics.RecordExport(r.Extension())
	return data, r, nil
}

// Snapshot returns the statistics panel data
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		snap = Snapshot{
			ID:      s.id,
			Width:   s.graph.Width,
			Height:  s.graph.Height,
			Frames:  s.loop.Frames(),
			Stats:   s.graph.Stats(),
			Summary: s.index.Summary(),
			Legend:  models.Legend(),
			View:    s.view(),
		}
	})
	return snap, err
}

// Grid renders the current frame as text for a terminal of cols x rows
// cells, each covering cellWidth x cellHeight viewport pixels.
func (s *Session) Grid(ctx context.Context, cols, rows int, cellWidth, cellHeight float64) (*render.Grid, error) {
	var grid *render.Grid
	err := s.do(ctx, func() {
		grid = render.Rasterize(s.graph, s.state, cols, rows, cellWidth, cellHeight)
	})
	return grid, err
}

// Nodes returns a copy of the current nodes
func (s *Session) Nodes(ctx context.Context) ([]models.Node, error) {
	var nodes []models.Node
	err := s.do(ctx, func() {
		nodes = append(nodes, s.graph.Nodes...)
	})
	return nodes, err
}
