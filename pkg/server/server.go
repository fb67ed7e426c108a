package server

import (
	"context"
	"crypto/sha256"
	_ "embed"
	stderrors "errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/bind/internal/config"
	"github.com/vango-dev/bind/pkg/anchor"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/events"
	"github.com/vango-dev/bind/pkg/metrics"
	"github.com/vango-dev/bind/pkg/publish"
	"github.com/vango-dev/bind/pkg/reactive"
)

// ClientPath is the route the client script is served from.
const ClientPath = "/_bind/client.js"

const shutdownTimeout = 10 * time.Second

//go:embed client.js
var clientJS []byte

var clientETag = func() string {
	sum := sha256.Sum256(clientJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:8]))
}()

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div id="bind-root">{{.Body}}</div>
<script src="{{.Client}}" data-ws="{{.WSPath}}"></script>
</body>
</html>
`))

// MountFunc builds the reactive nodes of a fresh session document.
type MountFunc func(doc *dom.Document, g *reactive.Graph, r *events.Router, slots *anchor.Registry) error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for event and render spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with and
// served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithSink adds publishing sinks to every session's slot registry.
func WithSink(sinks ...anchor.Sink) Option {
	return func(s *Server) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithCheckOrigin overrides the WebSocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// Server serves the shell page, the client script and live sessions.
type Server struct {
	cfg      *config.Config
	shell    string
	title    string
	mount    MountFunc
	logger   *slog.Logger
	tracer   trace.Tracer
	registry *prometheus.Registry
	metrics  *metrics.Collector
	sinks    []anchor.Sink
	upgrader websocket.Upgrader
	router   chi.Router

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a server. A nil cfg uses defaults.
func New(cfg *config.Config, shell string, mount MountFunc, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if mount == nil {
		return nil, stderrors.New("server: nil mount function")
	}

	s := &Server{
		cfg:    cfg,
		shell:  shell,
		title:  "bind",
		mount:  mount,
		logger: slog.Default().With("component", "server"),
		tracer: otel.Tracer("bind"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = metrics.New(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithRegistry(s.registry),
	)
	if cfg.PublishEnabled() {
		sink := publish.NewS3Sink(publish.NewClient(cfg.Publish), cfg.Publish.Bucket, cfg.Publish.Prefix).
			WithLogger(s.logger)
		s.sinks = append(s.sinks, sink)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.servePage)
	r.Get(ClientPath, s.serveClient)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get(s.cfg.Server.WSPath, s.HandleWebSocket)
	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler for all server routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then closes all sessions and shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", srv.Addr, "url", s.cfg.URL())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeSessions()
		return srv.Shutdown(shutdownCtx)
	}
}

// HandleWebSocket upgrades the request and runs a session until the
// connection closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	sess, err := s.newSession(conn)
	if err != nil {
		s.logger.Error("session mount failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "mount failed"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	s.track(sess)
	defer s.untrack(sess)
	sess.Serve(r.Context())
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	v, err := s.mountView(s.logger, false)
	if err != nil {
		s.logger.Error("prerender failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = pageTemplate.Execute(w, struct {
		Title  string
		Body   template.HTML
		Client string
		WSPath string
	}{
		Title:  s.title,
		Body:   template.HTML(v.doc.BodyHTML()),
		Client: ClientPath,
		WSPath: s.cfg.Server.WSPath,
	})
	if err != nil {
		s.logger.Error("page write failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
}

func (s *Server) serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", clientETag)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")

	if etagMatches(r.Header.Get("If-None-Match"), clientETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	_, _ = w.Write(clientJS)
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// view is one mounted document with its graph, router and slots.
type view struct {
	doc    *dom.Document
	graph  *reactive.Graph
	router *events.Router
	slots  *anchor.Registry
}

// mountView parses the shell and runs the mount function on it. Sinks are
// only attached for live sessions so page prerenders do not publish.
func (s *Server) mountView(logger *slog.Logger, live bool) (*view, error) {
	doc, err := dom.Parse(s.shell)
	if err != nil {
		return nil, err
	}
	g := reactive.NewGraph(
		reactive.WithLogger(logger),
		reactive.WithObserver(s.metrics),
		reactive.WithTracer(s.tracer),
		reactive.WithSlowRenderThreshold(s.cfg.Render.SlowRenderThreshold.D()),
		reactive.WithIdentityAttr(s.cfg.Render.IdentityAttr),
	)
	router := events.NewRouter(doc, g,
		events.WithLogger(logger),
		events.WithObserver(s.metrics),
	)
	slots := anchor.NewRegistry(doc)
	if live {
		for _, sink := range s.sinks {
			slots.AddSink(sink)
		}
	}
	if err := s.mount(doc, g, router, slots); err != nil {
		return nil, err
	}
	// The client starts from the mounted markup; mount-time ops are not sent.
	doc.TakeOps()
	return &view{doc: doc, graph: g, router: router, slots: slots}, nil
}

func (s *Server) track(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.metrics.RecordSessionOpen()
	sess.logger.Info("session opened")
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	s.metrics.RecordSessionClose()
	sess.logger.Info("session closed")
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
