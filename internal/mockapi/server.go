// Package mockapi serves the welfare backend's REST contract from a local
// SQLite database. It backs the -mock flag and the client tests.
package mockapi

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Options configures a Server.
type Options struct {
	Secret     []byte        // HMAC key for tokens, random when empty
	AccessTTL  time.Duration // default 5m
	RefreshTTL time.Duration // default 7 days
	Logger     *slog.Logger
}

// Server is the mock backend.
type Server struct {
	db         *sql.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time

	defs    map[string]*resourceDef
	router  *chi.Mux
	metrics *metrics
}

type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	logins    *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "welfaredesk",
			Subsystem: "mock",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "welfaredesk",
			Subsystem: "mock",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "welfaredesk",
			Subsystem: "mock",
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requests, m.logins, m.refreshes)
	return m
}

// New creates a server on an opened database. Call Seed first to get demo
// accounts.
func New(db *sql.DB, opts Options) *Server {
	s := &Server{
		db:         db,
		secret:     opts.Secret,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		logger:     opts.Logger,
		now:        time.Now,
		defs:       map[string]*resourceDef{},
		metrics:    newMetrics(),
	}
	if len(s.secret) == 0 {
		s.secret = make([]byte, 32)
		_, _ = rand.Read(s.secret)
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 5 * time.Minute
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 7 * 24 * time.Hour
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, d := range resourceDefs() {
		s.defs[d.path] = d
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLog)

	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Post("/auth/login/", s.handleLogin)
	r.Post("/auth/refresh/", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/auth/me/", s.handleMe)
		r.Route("/{resource}", func(r chi.Router) {
			r.Use(s.resourceMiddleware)
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Get("/{id}/", s.handleGet)
			r.Patch("/{id}/", s.handleUpdate)
			r.Put("/{id}/", s.handleUpdate)
			r.Delete("/{id}/", s.handleDelete)
			r.Post("/{id}/{action}/", s.handleAction)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"detail": "Method \"" + r.Method + "\" not allowed."})
	})
	return r
}

// ServeHTTP implements http.Handler so the server can run under httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Refreshes returns how many token refreshes ended with outcome
// ("success" or "failure").
func (s *Server) Refreshes(outcome string) int {
	var m dto.Metric
	if err := s.metrics.refreshes.WithLabelValues(outcome).Write(&m); err != nil {
		return 0
	}
	return int(m.GetCounter().GetValue())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.statusCode)).Inc()
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
