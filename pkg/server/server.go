package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/ruleset"
	"mercator-hq/matchgram/pkg/telemetry/health"
	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
	"mercator-hq/matchgram/pkg/telemetry/tracing"
)

// Recorder receives every verdict the server produces.
type Recorder interface {
	RecordVerdict(ctx context.Context, source string, msg *message.Message, v *ruleset.Verdict) error
}

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options configures a Server. Manager is required; the rest may be nil.
type Options struct {
	Config      config.ServerConfig
	MetricsPath string

	Manager   *ruleset.Manager
	Recorder  Recorder
	Validator *message.Validator
	Health    *health.Checker
	Metrics   *metrics.Collector
	Tracer    *tracing.Tracer
	Logger    *logging.Logger
	Build     BuildInfo
}

// Server is the HTTP front end of the rule engine.
type Server struct {
	cfg       config.ServerConfig
	manager   *ruleset.Manager
	recorder  Recorder
	validator *message.Validator
	health    *health.Checker
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	logger    *logging.Logger

	mux     *http.ServeMux
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	running    bool
}

// New builds the server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	checker := opts.Health
	if checker == nil {
		checker = health.New(0)
	}
	cfg := opts.Config
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = config.DefaultShutdownTimeout
	}

	s := &Server{
		cfg:       cfg,
		manager:   opts.Manager,
		recorder:  opts.Recorder,
		validator: opts.Validator,
		health:    checker,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		logger:    logger.Component("server"),
		mux:       http.NewServeMux(),
	}

	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = config.DefaultMetricsPath
	}

	s.mux.HandleFunc("POST /v1/compile", s.handleCompile)
	s.mux.HandleFunc("POST /v1/match", s.handleMatch)
	s.mux.HandleFunc("GET /v1/rules", s.handleRules)
	s.mux.HandleFunc("GET /v1/match/stream", s.handleStream)
	s.mux.Handle("/health", checker.LivenessHandler())
	s.mux.Handle("/ready", checker.ReadinessHandler())
	s.mux.Handle("/version", health.VersionHandler(opts.Build.Version, opts.Build.Commit, opts.Build.BuildTime))
	if opts.Metrics != nil {
		s.mux.Handle("GET "+metricsPath, opts.Metrics.Handler())
	}

	// Recovery is outermost so panics in the other middleware are caught too.
	s.handler = chain(s.mux, s.recovery, s.requestID, s.observe)
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.ListenAddress
	if addr == "" {
		addr = config.DefaultListenAddress
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Context cancelled, shutting down")
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	running := s.running
	s.running = false
	s.mu.Unlock()

	if !running || srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Initiating graceful shutdown", "timeout", s.cfg.ShutdownTimeout.String())
	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
