package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/refresh"
	"financas/internal/services"
)

// Refresher runs a synchronous refresh.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
	State() refresh.State
}

type Server struct {
	http.Server
	query     *services.QueryService
	refresher Refresher
	logger    *log.Logger

	detector *security.Detector
	tracer   *trace.Middleware
	throttle *ratelimit.RefreshThrottle

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithRefreshRateLimit bounds POST /api/refresh per client per minute.
func WithRefreshRateLimit(perMinute int) Option {
	return func(s *Server) {
		s.throttle = ratelimit.NewRefreshThrottle(ratelimit.PerMinute(perMinute))
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l.WithComponent(log.ComponentHTTP) }
}

func NewServer(addr string, query *services.QueryService, refresher Refresher, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		query:     query,
		refresher: refresher,
		logger:    log.Discard(),
		detector:  security.NewDetector(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.throttle == nil {
		s.throttle = ratelimit.NewRefreshThrottle(ratelimit.DefaultConfig())
	}
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/statement", s.handleStatement)
	mux.HandleFunc("GET /api/rollup", s.handleRollup)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/daily", s.handleDaily)
	mux.HandleFunc("GET /api/distribution", s.handleDistribution)

	limited := s.throttle.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request, wait time.Duration) {
		w.Header().Set("Retry-After", ratelimit.RetryAfterSeconds(wait))
		WriteJSON(w, r, http.StatusTooManyRequests, ErrorResponse{
			Error:     "rate limit exceeded, try again later",
			RequestID: requestID(r),
		})
	})
	mux.Handle("POST /api/refresh", limited(http.HandlerFunc(s.handleRefresh)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.tracer.Middleware(headers.Middleware(mux))
	return s
}

// Shutdown stops the refresh throttle and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.throttle.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request counters and the number of throttled refreshes.
func (s *Server) Metrics() (trace.Metrics, int64) {
	return s.tracer.GetMetrics(), s.throttle.Rejected()
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}
