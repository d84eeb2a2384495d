package webhook

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonny/anomaly-insight/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/anomaly-insight/pkg/health"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerMinute int
}

// Server wraps an HTTP server with graceful shutdown support.
type Server struct {
	cfg     ServerConfig
	handler *Handler
	checker *health.Checker
	logger  *log.Logger
	srv     *http.Server
}

// NewServer creates a new Server with the given config, webhook handler, and
// health checker.
func NewServer(cfg ServerConfig, handler *Handler, checker *health.Checker) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		checker: checker,
		logger:  log.Default(),
	}
}

// NewServerWithLogger creates a new Server with a custom logger.
func NewServerWithLogger(cfg ServerConfig, handler *Handler, checker *health.Checker, logger *log.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		checker: checker,
		logger:  logger,
	}
}

// SetupRoutes builds and returns an http.Handler with all middleware applied.
// Route layout:
//
//	GET  /healthz       - Liveness probe
//	GET  /readyz        - Readiness probe (dependency checks)
//	POST /webhook       - Anomaly webhook receiver
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.checker.LivenessHandler())
	mux.HandleFunc("/readyz", s.checker.ReadinessHandler())
	mux.Handle("/webhook", s.handler)
	mux.Handle("/webhook/", s.handler)

	// Apply middleware stack (outermost = first to execute):
	//   SecurityHeaders -> BodyReader -> Logging -> RateLimit
	limit := s.cfg.RateLimitPerMinute
	if limit <= 0 {
		limit = 120
	}

	var h http.Handler = mux
	h = middleware.NewRateLimiter(limit)(h)
	h = middleware.NewLoggingMiddleware(s.logger)(h)
	h = middleware.BodyReader(h)
	h = middleware.SecurityHeaders(h)

	return h
}

// Start starts the HTTP server and blocks until ctx is cancelled, then performs
// a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.SetupRoutes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("webhook server listening on :%d", s.cfg.Port)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
