package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evyataryagoni/iptracker/internal/limiter"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRateLimitMiddleware_Allowed tests request allowed
func TestRateLimitMiddleware_Allowed(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(true)

	nextCalled := false
	handler := RateLimitMiddleware(mockLimiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.Write([]byte("success"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !nextCalled {
		t.Error("expected next handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "success" {
		t.Errorf("expected body 'success', got '%s'", rec.Body.String())
	}
}

// TestRateLimitMiddleware_RateLimited tests request blocked
func TestRateLimitMiddleware_RateLimited(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	mockLimiter := limiter.NewMockLimiter(false)

	nextCalled := false
	handler := RateLimitMiddleware(mockLimiter, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/search", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if nextCalled {
		t.Error("expected next handler NOT to be called")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var errResp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Error != "Rate limit exceeded. Please try again later." {
		t.Errorf("unexpected error message: %s", errResp.Error)
	}

	if got := testutil.ToFloat64(m.RateLimitRejections.WithLabelValues("/search")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
}

// TestClientKey tests how callers are identified
func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		expected   string
	}{
		{"IPv4 with port", "192.168.1.1:12345", "192.168.1.1"},
		{"IPv6 with port", "[2001:db8::1]:8080", "2001:db8::1"},
		{"bare IP from RealIP", "10.0.0.1", "10.0.0.1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLimiter := limiter.NewMockLimiter(true)
			handler := RateLimitMiddleware(mockLimiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			req := httptest.NewRequest(http.MethodGet, "/v1/lookup", nil)
			req.RemoteAddr = tt.remoteAddr
			handler.ServeHTTP(httptest.NewRecorder(), req)

			calls := mockLimiter.AllowCalls()
			if len(calls) != 1 {
				t.Fatalf("expected 1 limiter call, got %d", len(calls))
			}
			if calls[0] != tt.expected {
				t.Errorf("expected client %q, limiter called with %q", tt.expected, calls[0])
			}
		})
	}
}

// TestRateLimitMiddleware_WithMemoryLimiter tests the middleware over a real limiter
func TestRateLimitMiddleware_WithMemoryLimiter(t *testing.T) {
	handler := RateLimitMiddleware(limiter.NewMemoryLimiter(2, time.Minute), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/search", nil)
		req.RemoteAddr = "192.168.1.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: expected %d, got %d", i+1, want[i], codes[i])
		}
	}
}
