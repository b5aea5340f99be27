package geolookup

import (
	"context"
	"fmt"
	"sync"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// MockLookuper is a test double for the Lookuper interface.
// It is safe for concurrent use because the controller runs lookups in
// their own goroutines.
type MockLookuper struct {
	mu sync.Mutex

	// Records maps a query to the record returned for it
	Records map[string]*models.LocationRecord

	// Gates optionally blocks a query until its channel is closed,
	// letting tests decide the completion order of concurrent lookups
	Gates map[string]chan struct{}

	// LookupError, when set, is returned for every query
	LookupError error

	calls []string
}

// NewMockLookuper creates a mock that knows the self-lookup and two targets
func NewMockLookuper() *MockLookuper {
	return &MockLookuper{
		Records: map[string]*models.LocationRecord{
			"":                 Record("8.8.8.8", "Mountain View", "US", "94043", "37.4,-122.1", "America/Los_Angeles", "Google LLC"),
			"1.1.1.1/json":     Record("1.1.1.1", "Sydney", "AU", "2000", "-33.8688,151.2093", "Australia/Sydney", "Cloudflare, Inc."),
			"example.com/json": Record("93.184.216.34", "Norwell", "US", "02061", "42.1508,-70.8228", "America/New_York", "Edgecast Inc."),
		},
		Gates: map[string]chan struct{}{},
	}
}

// Lookup implements the Lookuper interface
func (m *MockLookuper) Lookup(ctx context.Context, query string) (*models.LocationRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	gate := m.Gates[query]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLookupFailed, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LookupError != nil {
		return nil, m.LookupError
	}

	record, ok := m.Records[query]
	if !ok {
		return nil, fmt.Errorf("%w: no record for %q", ErrLookupFailed, query)
	}
	return record, nil
}

// Calls returns the queries seen so far, in call order
func (m *MockLookuper) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Record builds a fully populated record the way the provider would return it
func Record(ip, city, country, postal, loc, timezone, isp string) *models.LocationRecord {
	return normalize(map[string]any{
		"ip":       ip,
		"city":     city,
		"country":  country,
		"postal":   postal,
		"loc":      loc,
		"timezone": timezone,
		"org":      isp,
	})
}
