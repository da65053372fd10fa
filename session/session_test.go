package session

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TFMV/keywordgraph/metrics"
	"github.com/TFMV/keywordgraph/models"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func scenario() *models.Dataset {
	return &models.Dataset{
		Nodes: []models.NodeRecord{
			{ID: "A", Group: 1, Frequency: 16},
			{ID: "B", Group: 2, Frequency: 12},
			{ID: "C", Group: 3, Frequency: 4},
		},
		Links: []models.LinkRecord{{Source: "A", Target: "B", Value: 5}},
	}
}

type fixture struct {
	session *Session
	data    atomic.Pointer[models.Dataset]
	metrics *metrics.Registry
	cancel  context.CancelFunc
	errc    chan error
}

func start(t *testing.T, fps int) *fixture {
	t.Helper()
	f := &fixture{metrics: metrics.NewRegistry(), errc: make(chan error, 1)}
	f.data.Store(scenario())

	s, err := New(Options{
		Width:  800,
		Height: 600,
		FPS:    fps,
		Source: func() (*models.Dataset, error) {
			ds := f.data.Load()
			if ds == nil {
				return nil, errors.New("source unavailable")
			}
			return ds, nil
		},
		Logger:  zap.NewNop().Sugar(),
		Metrics: f.metrics,
	})
	require.NoError(t, err)
	f.session = s

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() { f.errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return f
}

func TestPointerInteraction(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	v, err := f.session.PointerMove(ctx, 610, 300)
	require.NoError(t, err)
	assert.Equal(t, "A", v.State.Hovered)
	assert.Equal(t, "pointer", v.Cursor)
	require.NotNil(t, v.Focus)
	assert.Equal(t, "A", v.Focus.ID)
	assert.Equal(t, []string{"B"}, v.Focus.Related)

	v, err = f.session.PointerClick(ctx, 610, 300)
	require.NoError(t, err)
	assert.Equal(t, "A", v.State.Selected)

	// Hovering another node keeps the focus on the selection
	v, err = f.session.PointerMove(ctx, 295, 118.13)
	require.NoError(t, err)
	assert.Equal(t, "C", v.State.Hovered)
	assert.Equal(t, "A", v.Focus.ID)

	v, err = f.session.PointerClick(ctx, 610, 300)
	require.NoError(t, err)
	assert.Empty(t, v.State.Selected)

	v, err = f.session.PointerMove(ctx, 400, 300)
	require.NoError(t, err)
	assert.Empty(t, v.State.Hovered)
	assert.Equal(t, "default", v.Cursor)
	assert.Nil(t, v.Focus)

	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.PointerEventsTotal.WithLabelValues("move")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.PointerEventsTotal.WithLabelValues("click")))
}

func TestAdvance(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	require.NoError(t, f.session.Advance(ctx, 5))
	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), snap.Frames)
	assert.Equal(t, 3, snap.Stats.Nodes)
	assert.Equal(t, 2, snap.Summary.Components)
	assert.Len(t, snap.Legend, 3)
	assert.Equal(t, f.session.ID(), snap.ID)

	nodes, err := f.session.Nodes(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, 610.0, nodes[0].X)
	assert.Equal(t, 5.0, testutil.ToFloat64(f.metrics.FramesTotal))
}

func TestTicker(t *testing.T) {
	f := start(t, 200)
	assert.Eventually(t, func() bool {
		snap, err := f.session.Snapshot(context.Background())
		return err == nil && snap.Frames > 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestResize(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	_, err := f.session.PointerClick(ctx, 610, 300)
	require.NoError(t, err)
	require.NoError(t, f.session.Advance(ctx, 3))

	// Same viewport is a no-op
	require.NoError(t, f.session.Resize(ctx, 800, 600))
	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", snap.View.State.Selected)

	require.NoError(t, f.session.Resize(ctx, 400, 300))
	snap, err = f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400.0, snap.Width)
	assert.Empty(t, snap.View.State.Selected)
	assert.Zero(t, snap.Frames)

	nodes, err := f.session.Nodes(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 305.0, nodes[0].X, 1e-9)
	assert.InDelta(t, 150.0, nodes[0].Y, 1e-9)

	err = f.session.Resize(ctx, 0, 300)
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RebuildFailures.WithLabelValues(ReasonViewport)))
}

func TestResizeOversizedKeepsModel(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	_, err := f.session.PointerClick(ctx, 610, 300)
	require.NoError(t, err)

	err = f.session.Resize(ctx, 1e10, 1e10)
	var vpErr *models.ViewportError
	require.True(t, errors.As(err, &vpErr))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RebuildFailures.WithLabelValues(ReasonViewport)))

	require.NoError(t, f.session.Advance(ctx, 1))
	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 800.0, snap.Width)
	assert.Equal(t, 600.0, snap.Height)
	assert.Equal(t, "A", snap.View.State.Selected)
	assert.Equal(t, uint64(1), snap.Frames)
}

func TestReload(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	next := scenario()
	next.Nodes = append(next.Nodes, models.NodeRecord{ID: "D", Group: 1, Frequency: 9})
	f.data.Store(next)
	require.NoError(t, f.session.Reload(ctx))

	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Stats.Nodes)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RebuildsTotal.WithLabelValues(ReasonReload)))
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.Nodes))
}

func TestReloadFailureKeepsModel(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	_, err := f.session.PointerClick(ctx, 610, 300)
	require.NoError(t, err)

	bad := scenario()
	bad.Links = append(bad.Links, models.LinkRecord{Source: "A", Target: "Z", Value: 1})
	f.data.Store(bad)
	err = f.session.Reload(ctx)
	var dangling *models.DanglingReferenceError
	require.True(t, errors.As(err, &dangling))
	assert.Equal(t, "Z", dangling.NodeID)

	f.data.Store(nil)
	assert.ErrorContains(t, f.session.Reload(ctx), "source unavailable")

	snap, err := f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Stats.Nodes)
	assert.Equal(t, "A", snap.View.State.Selected)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.RebuildFailures.WithLabelValues(ReasonReload)))

	// The old loop keeps running
	require.NoError(t, f.session.Advance(ctx, 2))
	snap, err = f.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Frames)
}

func TestExport(t *testing.T) {
	f := start(t, 0)
	ctx := context.Background()

	data, r, err := f.session.Export(ctx, "png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", r.ContentType())
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	_, err = f.session.PointerMove(ctx, 610, 300)
	require.NoError(t, err)
	data, _, err = f.session.Export(ctx, "json")
	require.NoError(t, err)
	var doc struct {
		State struct {
			Hovered string `json:"hovered"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "A", doc.State.Hovered)

	_, _, err = f.session.Export(ctx, "gif")
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExportsTotal.WithLabelValues("png")))
}

func TestGrid(t *testing.T) {
	f := start(t, 0)
	grid, err := f.session.Grid(context.Background(), 80, 30, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, '@', grid.Cells[15][61].Rune)
}

func TestClosed(t *testing.T) {
	f := start(t, 0)
	f.cancel()
	<-f.session.Done()
	assert.NoError(t, <-f.errc)

	_, err := f.session.PointerMove(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.session.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInitialBuildFailure(t *testing.T) {
	s, err := New(Options{
		Width:  800,
		Height: 600,
		Source: func() (*models.Dataset, error) {
			return &models.Dataset{Nodes: []models.NodeRecord{{ID: "A", Group: 1, Frequency: 1}, {ID: "A", Group: 1, Frequency: 2}}}, nil
		},
		Logger:  zap.NewNop().Sugar(),
		Metrics: metrics.NewRegistry(),
	})
	require.NoError(t, err)

	err = s.Run(context.Background())
	var dup *models.DuplicateIdentifierError
	assert.True(t, errors.As(err, &dup))
	<-s.Done()

	_, err = s.PointerClick(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrClosed)
}
