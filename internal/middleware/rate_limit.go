package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// RateLimitMiddleware rejects lookups over the per-client quota with 429.
// m is optional.
func RateLimitMiddleware(lim limiter.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if lim.Allow(r.Context(), ClientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}

			if m != nil {
				m.RateLimitRejections.WithLabelValues(routeLabel(r)).Inc()
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{
				Error: "Rate limit exceeded. Please try again later.",
			})
		})
	}
}

// ClientKey identifies the caller for rate limiting.
// chi's RealIP middleware has already folded proxy headers into RemoteAddr;
// here the port is dropped so reconnects share a bucket.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// routeLabel prefers the chi route pattern over the raw path to keep
// metric cardinality bounded
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
