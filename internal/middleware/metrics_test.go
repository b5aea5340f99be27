package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsMiddleware_RecordsRoutePattern tests requests are labelled by route
func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/v1/state", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/state", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/state", "200")); got != 2 {
		t.Errorf("expected 2 requests counted, got %v", got)
	}
	if got := testutil.CollectAndCount(m.HTTPRequestsTotal); got != 2 {
		t.Errorf("expected 2 label sets (200 and 404), got %d", got)
	}
}

// TestLoggingMiddleware_LevelsByStatus tests log level follows the status code
func TestLoggingMiddleware_LevelsByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, `"level":"info"`},
		{http.StatusNotFound, `"level":"warn"`},
		{http.StatusBadGateway, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(logger.Config{Level: "debug", Output: &buf})

			handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			line := buf.String()
			if !strings.Contains(line, tt.level) {
				t.Errorf("expected %s in %s", tt.level, line)
			}
			if !strings.Contains(line, `"status":`) || !strings.Contains(line, "Request completed") {
				t.Errorf("expected structured completion line, got %s", line)
			}
		})
	}
}
