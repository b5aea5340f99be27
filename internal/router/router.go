package router

import (
	"net/http"

	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	custommiddleware "github.com/evyataryagoni/iptracker/internal/middleware"
	v1 "github.com/evyataryagoni/iptracker/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates the chi router with all middleware and routes.
//
// Only routes that reach the geolocation provider are rate limited; the page,
// state polling and operational endpoints are not.
// gatherer backs /metrics and should be the registry m was created with.
func SetupRouter(h *handler.ScreenHandler, rateLimiter limiter.Limiter, m *metrics.Metrics, gatherer prometheus.Gatherer, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	// Order matters: RequestID first so the logger can see it
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.MetricsMiddleware(m))

	limited := custommiddleware.RateLimitMiddleware(rateLimiter, m)

	r.Get("/", h.Index)
	r.With(limited).Post("/search", h.Search)

	r.Mount("/v1", v1.SetupRoutes(h, limited))

	r.Get("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// healthCheckHandler reports the process is up
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
