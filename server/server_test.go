package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TFMV/keywordgraph/metrics"
	"github.com/TFMV/keywordgraph/models"
	"github.com/TFMV/keywordgraph/session"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	sess, err := session.New(session.Options{
		Width:  800,
		Height: 600,
		Source: func() (*models.Dataset, error) {
			return &models.Dataset{
				Nodes: []models.NodeRecord{
					{ID: "A", Group: 1, Frequency: 16},
					{ID: "B", Group: 2, Frequency: 12},
					{ID: "C", Group: 3, Frequency: 4},
				},
				Links: []models.LinkRecord{{Source: "A", Target: "B", Value: 5}},
			}, nil
		},
		Logger:  zap.NewNop().Sugar(),
		Metrics: reg,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go sess.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-sess.Done()
	})
	return New(sess, reg, zap.NewNop().Sugar()), reg
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t)
	w := serve(s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Keyword Co-occurrence Network")
}

func TestFrame(t *testing.T) {
	s, reg := newTestServer(t)
	w := serve(s, http.MethodGet, "/frame.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dy())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.HTTPRequestsTotal.WithLabelValues("GET", "/frame.png", "200")))
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, http.MethodGet, "/export?format=svg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="keyword_network.svg"`, w.Header().Get("Content-Disposition"))

	w = serve(s, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "keyword_network.png")

	w = serve(s, http.MethodGet, "/export?format=bmp", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported output format")
}

func TestGraph(t *testing.T) {
	s, _ := newTestServer(t)
	w := serve(s, http.MethodGet, "/api/graph", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 3, snap.Stats.Nodes)
	assert.Equal(t, 1, snap.Stats.Links)
	assert.Len(t, snap.Legend, 3)
}

func TestPointer(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, http.MethodPost, "/api/pointer", `{"type":"click","x":610,"y":300}`)
	require.Equal(t, http.StatusOK, w.Code)
	var view session.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "A", view.State.Selected)
	require.NotNil(t, view.Focus)
	assert.Equal(t, "Data Science", view.Focus.Category)

	w = serve(s, http.MethodPost, "/api/pointer", `{"type":"drag","x":1,"y":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, http.MethodPost, "/api/pointer", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestViewport(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, http.MethodPost, "/api/viewport", `{"width":400,"height":300}`)
	require.Equal(t, http.StatusOK, w.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 400.0, snap.Width)
	assert.Equal(t, 300.0, snap.Height)

	w = serve(s, http.MethodPost, "/api/viewport", `{"width":0,"height":300}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, http.MethodPost, "/api/viewport", `{"width":1e10,"height":1e10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at most 16384 pixels")

	// The previous model still serves frames
	w = serve(s, http.MethodGet, "/frame.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestWriteError(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "closed session", err: errors.Wrap(session.ErrClosed, "export"), want: http.StatusServiceUnavailable},
		{name: "canceled", err: context.Canceled, want: http.StatusServiceUnavailable},
		{name: "viewport", err: errors.WithStack(&models.ViewportError{Width: -1, Height: 1}), want: http.StatusBadRequest},
		{name: "dangling link", err: errors.Wrap(&models.DanglingReferenceError{NodeID: "Z"}, "reload rebuild"), want: http.StatusBadRequest},
		{name: "internal render failure", err: errors.New("no surface has been painted yet"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.writeError(w, tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.err.Error())
		})
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	serve(s, http.MethodGet, "/api/graph", "")

	w := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "keywordgraph_http_requests_total")
	assert.Contains(t, w.Body.String(), "keywordgraph_nodes 3")
}

func TestWebsocket(t *testing.T) {
	s, reg := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(PointerEvent{Type: "move", X: 610, Y: 300}))
	var view session.View
	require.NoError(t, conn.ReadJSON(&view))
	assert.Equal(t, "A", view.State.Hovered)
	assert.Equal(t, "pointer", view.Cursor)

	require.NoError(t, conn.WriteJSON(PointerEvent{Type: "bogus"}))
	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Contains(t, reply["error"], "unknown pointer event type")

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.WebsocketClients))
}
