package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gastos/internal/cache"
	"gastos/internal/ledger"
	"gastos/internal/log"
)

// Server exposes the ledger over a JSON API. Dashboard aggregates are
// cached per month and every mutation purges the cache.
type Server struct {
	http.Server
	ledger      *ledger.Ledger
	logger      *log.Logger
	rateLimiter *ipThrottle
	metrics     *securityMetrics

	dashboardCache *cache.LRUCache[dashboardResponse]
	cacheManager   *cache.Manager

	now func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, l *ledger.Ledger, logger *log.Logger, cacheTTL time.Duration, rateLimitPerMinute int) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if rateLimitPerMinute < 1 {
		rateLimitPerMinute = 60
	}
	mux := http.NewServeMux()
	handler := log.Middleware(logger.WithComponent(log.ComponentHTTP))(
		log.RequestIDMiddleware(requestIDFor)(mux))

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:         l,
		logger:         logger,
		rateLimiter:    newIPThrottle(rateLimitPerMinute),
		metrics:        &securityMetrics{},
		dashboardCache: cache.NewLRUCache[dashboardResponse](100, cacheTTL),
		cacheManager:   cache.NewManager(),
		now:            time.Now,
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/transactions", s.secured(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.secured(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secured(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions", s.secured(s.handleListTransactions))

	mux.HandleFunc("POST /api/categories", s.secured(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.secured(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secured(s.handleDeleteCategory))
	mux.HandleFunc("GET /api/categories", s.secured(s.handleListCategories))

	mux.HandleFunc("PUT /api/budgets", s.secured(s.handleSetBudget))
	mux.HandleFunc("GET /api/budgets", s.secured(s.handleBudgetStatuses))

	mux.HandleFunc("GET /api/dashboard", s.secured(s.handleDashboard))

	mux.HandleFunc("GET /api/export", s.secured(s.handleExport))
	mux.HandleFunc("POST /api/import", s.secured(s.handleImport))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// secured adds security headers, rate limiting on mutating methods, and
// request logging.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		ctx := r.Context()

		reqLogger := log.FromContext(ctx)
		structured := log.NewStructuredLogger(reqLogger)
		structured.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			reqLogger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, "url", r.URL.String())
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestIDFor keeps an inbound X-Request-ID so traces survive a proxy
// hop, and mints one otherwise.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
