// Package server is the dispatch surface: it owns the HTTP routes, decodes
// and validates request bodies, routes each (model, operation) pair to its
// capability handler, and maps every failure kind to an HTTP status at the
// boundary.
package server

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/go-kit/log"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelplane/modelplane/internal/llm"
	"github.com/modelplane/modelplane/internal/promproxy"
	"github.com/modelplane/modelplane/internal/registry"
	"github.com/modelplane/modelplane/internal/sandbox"
	"github.com/modelplane/modelplane/internal/workspace"
)

// DefaultGitTimeout bounds one repository analysis end to end, clone
// included.
const DefaultGitTimeout = 60 * time.Second

// Config carries everything the server needs, constructed at startup and
// never mutated afterwards.
type Config struct {
	Logger     log.Logger
	Registry   *registry.Registry
	Sandbox    *sandbox.Sandbox
	Prometheus *promproxy.Client
	LLM        *llm.Client

	// Workspace options are shared by every git-backed handler.
	Workspace workspace.Options
	// GitTimeout bounds a single repository analysis; 0 selects
	// DefaultGitTimeout.
	GitTimeout time.Duration
	// GitWorkers caps concurrent repository analyses; 0 selects NumCPU.
	GitWorkers int

	// Gatherer backs the /metrics endpoint; Registerer receives the
	// server's own metrics. Both default to a fresh registry when nil.
	Gatherer   prometheus.Gatherer
	Registerer prometheus.Registerer
}

// Server dispatches requests to the capability handlers.
type Server struct {
	logger     log.Logger
	registry   *registry.Registry
	sandbox    *sandbox.Sandbox
	prom       *promproxy.Client
	llm        *llm.Client
	wsOpts     workspace.Options
	gitTimeout time.Duration
	pool       *tunny.Pool
	validate   *validator.Validate
	metrics    *metrics
	gatherer   prometheus.Gatherer
}

// New builds a Server from the config. Close must be called on shutdown to
// drain the analysis pool.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	gitTimeout := cfg.GitTimeout
	if gitTimeout <= 0 {
		gitTimeout = DefaultGitTimeout
	}
	workers := cfg.GitWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	registerer := cfg.Registerer
	gatherer := cfg.Gatherer
	if registerer == nil || gatherer == nil {
		reg := prometheus.NewRegistry()
		registerer, gatherer = reg, reg
	}
	server := &Server{
		logger:     logger,
		registry:   cfg.Registry,
		sandbox:    cfg.Sandbox,
		prom:       cfg.Prometheus,
		llm:        cfg.LLM,
		wsOpts:     cfg.Workspace,
		gitTimeout: gitTimeout,
		validate:   validator.New(),
		metrics:    newMetrics(registerer),
		gatherer:   gatherer,
	}
	server.pool = tunny.NewFunc(workers, func(payload interface{}) interface{} {
		return payload.(func() interface{})()
	})
	return server
}

// Close shuts the analysis pool down. In-flight jobs finish first.
func (s *Server) Close() {
	s.pool.Close()
}

// Router returns the configured route table. Literal model routes are
// registered before the {id} patterns so the built-in tools always win.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, s.logger, http.StatusNotFound, "unknown route "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, s.logger, http.StatusNotFound,
			fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path))
	})

	handle := func(method, path, name string, handler http.HandlerFunc) {
		router.Handle(path, s.instrument(name, handler)).Methods(method)
	}

	handle(http.MethodGet, "/v1/models", "models_list", s.handleListModels)
	handle(http.MethodPost, "/v1/models/git-analyzer/diff", "git_last_diff", s.handleLastCommitDiff)
	handle(http.MethodPost, "/v1/models/git-diff-analyzer/analyze", "git_analyze", s.handleAnalyzeDiff)
	handle(http.MethodPost, "/v1/models/git-diff-analyzer/analyze-requirements",
		"git_analyze_requirements", s.handleAnalyzeRequirements)
	handle(http.MethodPost, "/v1/git/analyze_comprehensive", "git_comprehensive", s.handleComprehensive)
	handle(http.MethodPost, "/v1/models/filesystem/{op}", "filesystem", s.handleFilesystem)
	handle(http.MethodPost, "/v1/models/prometheus/{op}", "prometheus_query", s.handlePrometheusPost)
	handle(http.MethodGet, "/v1/models/prometheus/{op}", "prometheus_read", s.handlePrometheusGet)
	handle(http.MethodGet, "/v1/models/{id}", "models_get", s.handleGetModel)
	handle(http.MethodPost, "/v1/models/{id}/chat", "chat", s.handleChat)
	handle(http.MethodPost, "/v1/models/{id}/completion", "completion", s.handleCompletion)

	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	router.HandleFunc("/-/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "modelplane is healthy")
	}).Methods(http.MethodGet)
	router.HandleFunc("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "modelplane is ready")
	}).Methods(http.MethodGet)
	return router
}
