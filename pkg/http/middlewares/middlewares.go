package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/eventatlas/eventatlas/pkg/http/response"
	"github.com/eventatlas/eventatlas/pkg/metrics"
	"github.com/eventatlas/eventatlas/pkg/ratelimiter"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var PanicRecovery = NewRecovery(nil).Handle

type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

func NewMetricsMiddleware(metrics *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

func (m *MetricsMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)
		m.metrics.RequestCounter.With("route", route, "status", strconv.Itoa(rw.status)).Add(1)
		m.metrics.RequestDurationHistogram.With("route", route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RateLimit limits requests per client ip, limiter failures let the request through
type RateLimit struct {
	limiter ratelimiter.RateLimiter
	quota   int
	period  time.Duration
}

func NewRateLimit(limiter ratelimiter.RateLimiter, quota int, period time.Duration) *RateLimit {
	return &RateLimit{limiter: limiter, quota: quota, period: period}
}

func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "eventatlas:ratelimit:" + clientIP(r)
		res, err := m.limiter.Allow(r.Context(), key, m.quota, m.period)
		if err != nil {
			zap.S().Named("api").Warnf("rate limiter unavailable: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		res.WriteHeaders(w.Header())
		if !res.Allowed {
			response.Error(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
