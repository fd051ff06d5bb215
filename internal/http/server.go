package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/worker"
)

// Server is the JSON API in front of an ExpenseService.
type Server struct {
	http.Server
	svc         *services.ExpenseService
	logger      *log.Logger
	syncStats   func() worker.Stats
	cacheStats  func() cache.Stats
	ready       func(context.Context) error
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSyncStats exposes the background saver state on /healthz.
func WithSyncStats(fn func() worker.Stats) Option {
	return func(s *Server) { s.syncStats = fn }
}

// WithCacheStats exposes the read cache counters on /healthz.
func WithCacheStats(fn func() cache.Stats) Option {
	return func(s *Server) { s.cacheStats = fn }
}

// WithReadiness sets the check behind /readyz, typically a storage read.
func WithReadiness(fn func(context.Context) error) Option {
	return func(s *Server) { s.ready = fn }
}

// WithRateLimit caps mutating requests per client IP within window.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		s.rateLimiter = newRateLimiter(limit, window)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.ExpenseService, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:     svc,
		metrics: &securityMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if s.rateLimiter == nil {
		s.rateLimiter = newRateLimiter(defaultRateLimit, defaultRateWindow)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses", s.handleClearExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSetBudget)
	mux.HandleFunc("DELETE /api/budget", s.handleClearBudget)
	mux.HandleFunc("GET /api/budget/status", s.handleBudgetStatus)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	s.Handler = log.Middleware(s.logger)(s.withSecurity(mux))
	return s
}

// withSecurity adds security headers, rate limits mutating requests and flags
// suspicious traffic.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		logger := log.FromContext(r.Context())

		if detectSuspiciousRequest(r, s.metrics) {
			logger.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"user_agent", r.Header.Get("User-Agent"))
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			logger.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later").
				Header("Retry-After", strconv.Itoa(int(s.rateLimiter.window.Seconds()))).
				Write(w)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type healthBody struct {
	Status   string        `json:"status"`
	Records  int           `json:"records"`
	Sync     *worker.Stats `json:"sync,omitempty"`
	Cache    *cache.Stats  `json:"cache,omitempty"`
	Security SecurityStats `json:"security"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{
		Status:   "ok",
		Records:  s.svc.Count(),
		Security: s.metrics.snapshot(),
	}
	if s.syncStats != nil {
		st := s.syncStats()
		body.Sync = &st
	}
	if s.cacheStats != nil {
		cs := s.cacheStats()
		body.Cache = &cs
	}
	NewJSONResponse().Body(body).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "not_ready", "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}
