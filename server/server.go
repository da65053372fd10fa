// Package server is the HTTP host of a keyword graph session. The browser
// page pulls a fresh frame image on every animation frame and forwards
// pointer events over a websocket.
package server

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/TFMV/keywordgraph/metrics"
	"github.com/TFMV/keywordgraph/models"
	"github.com/TFMV/keywordgraph/render"
	"github.com/TFMV/keywordgraph/session"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

//go:embed static/*
var staticFiles embed.FS

const (
	maxMessageSize = 1024
	writeWait      = 5 * time.Second

	// Move events above this rate are dropped; clicks always go through
	movesPerSecond = 120
	moveBurst      = 30
)

var errInvalidEvent = errors.New("invalid pointer event")

// PointerEvent is a viewport-local pointer event from a client
type PointerEvent struct {
	Type string  `json:"type"` // "move" or "click"
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Viewport is a resize request from a client
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Server serves one session over HTTP
type Server struct {
	router   *mux.Router
	session  *session.Session
	metrics  *metrics.Registry
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader
}

// New creates a server for sess
func New(sess *session.Session, reg *metrics.Registry, log *zap.SugaredLogger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		session: sess,
		metrics: reg,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/frame.png", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/export", s.handleExport).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/pointer", s.handlePointer).Methods("POST")
	s.router.HandleFunc("/api/viewport", s.handleViewport).Methods("POST")
	s.router.HandleFunc("/ws", s.handleWebsocket).Methods("GET")
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS))).Methods("GET")
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infow("listening", "addr", addr, "session", s.session.ID())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down http server")
	}
	return nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	data, _, err := s.session.Export(r.Context(), "png")
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	data, renderer, err := s.session.Export(r.Context(), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Infow("export", "format", renderer.Extension(), "bytes", len(data))

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.Filename(renderer)+`"`)
	w.Write(data)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var ev PointerEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid pointer event: "+err.Error(), http.StatusBadRequest)
		return
	}

	view, err := s.pointer(r.Context(), ev)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var vp Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		http.Error(w, "invalid viewport: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.session.Resize(r.Context(), vp.Width, vp.Height); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Infow("viewport changed", "width", vp.Width, "height", vp.Height)
	s.handleGraph(w, r)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.metrics.WebsocketClients.Inc()
	defer s.metrics.WebsocketClients.Dec()
	s.log.Infow("websocket connected", "remote", r.RemoteAddr)
	defer s.log.Infow("websocket disconnected", "remote", r.RemoteAddr)

	conn.SetReadLimit(maxMessageSize)
	moves := rate.NewLimiter(movesPerSecond, moveBurst)
	for {
		var ev PointerEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugw("websocket read", "error", err)
			}
			return
		}
		if ev.Type == "move" && !moves.Allow() {
			continue
		}

		view, err := s.pointer(r.Context(), ev)
		if errors.Is(err, session.ErrClosed) {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err != nil {
			err = conn.WriteJSON(map[string]string{"error": err.Error()})
		} else {
			err = conn.WriteJSON(view)
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) pointer(ctx context.Context, ev PointerEvent) (session.View, error) {
	switch ev.Type {
	case "move":
		return s.session.PointerMove(ctx, ev.X, ev.Y)
	case "click":
		return s.session.PointerClick(ctx, ev.X, ev.Y)
	default:
		return session.View{}, errors.WithHint(
			errors.Mark(errors.Newf("unknown pointer event type %q", ev.Type), errInvalidEvent), "use move or click")
	}
}

// writeError maps session errors to status codes. Only rejected client
// input is a 400; anything unexpected is logged and reported as a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case invalidInput(err):
		status = http.StatusBadRequest
	default:
		s.log.Errorw("request failed", "error", err)
	}
	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += " (" + hints[0] + ")"
	}
	http.Error(w, msg, status)
}

func invalidInput(err error) bool {
	var (
		viewport  *models.ViewportError
		dangling  *models.DanglingReferenceError
		duplicate *models.DuplicateIdentifierError
		record    *models.InvalidRecordError
	)
	return errors.Is(err, errInvalidEvent) ||
		errors.Is(err, render.ErrUnsupportedFormat) ||
		errors.As(err, &viewport) ||
		errors.As(err, &dangling) ||
		errors.As(err, &duplicate) ||
		errors.As(err, &record)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(v)
}

// loggingMiddleware logs every request and records it under its route template
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		duration := time.Since(start)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(wrapper.statusCode), duration)

		// Frame polling runs at the browser frame rate
		if path == "/frame.png" {
			s.log.Debugw("request", "method", r.Method, "path", r.URL.Path, "status", wrapper.statusCode, "duration", duration)
			return
		}
		s.log.Infow("request", "method", r.Method, "path", r.URL.Path, "status", wrapper.statusCode, "duration", duration)
	})
}

// statusResponseWriter captures the status code and keeps websocket
// upgrades working
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
