package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			code := strconv.Itoa(status)
			route := routeLabel(r)

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
			m.HTTPResponseSize.WithLabelValues(r.Method, route, code).Observe(float64(ww.BytesWritten()))
		})
	}
}
