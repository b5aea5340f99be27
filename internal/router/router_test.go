package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/geolookup"
	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/mapview"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/screen"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T, lim limiter.Limiter) (chi.Router, *controller.Controller) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	mock := geolookup.NewMockLookuper()
	mv := mapview.New(mapview.Options{}, m, logger.Nop())
	s := screen.New(mv)
	c := controller.New(mock, m, logger.Nop())
	c.Subscribe(s)

	h, err := handler.NewScreenHandler(c, s, mv, mock, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return SetupRouter(h, lim, m, reg, logger.Nop()), c
}

// TestRouter_Routes tests every route is mounted
func TestRouter_Routes(t *testing.T) {
	r, c := newTestRouter(t, limiter.NewMockLimiter(true))
	c.Activate(context.Background())
	c.Wait()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/v1/state", http.StatusOK},
		{http.MethodGet, "/v1/lookup?q=1.1.1.1", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/search", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

// TestRouter_RateLimitScope tests only provider-bound routes are limited
func TestRouter_RateLimitScope(t *testing.T) {
	r, _ := newTestRouter(t, limiter.NewMockLimiter(false))

	limited := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/v1/lookup?q=1.1.1.1", nil),
		func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(url.Values{"q": {"1.1.1.1"}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req
		}(),
	}
	for _, req := range limited {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("%s %s: expected status 429, got %d", req.Method, req.URL.Path, rec.Code)
		}
	}

	for _, path := range []string{"/", "/v1/state", "/health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected status 200, got %d", path, rec.Code)
		}
	}
}

// TestRouter_Metrics tests the metrics endpoint serves the app registry
func TestRouter_Metrics(t *testing.T) {
	r, c := newTestRouter(t, limiter.NewMockLimiter(true))
	c.Activate(context.Background())
	c.Wait()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/state", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"http_requests_total", "map_mounts_total", "lookup_phase_transitions_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected metric %s in output", name)
		}
	}
}
