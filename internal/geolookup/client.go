package geolookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/goccy/go-json"
)

// DefaultBaseURL is the ipinfo.io style provider used when none is configured
const DefaultBaseURL = "https://ipinfo.io"

const defaultUserAgent = "iptracker/1.0"

// ErrLookupFailed is the only error kind a lookup produces.
// Transport errors, non-2xx statuses (rate limiting included) and malformed
// bodies all collapse into it.
var ErrLookupFailed = errors.New("lookup failed")

// Lookuper resolves a query string to a location record
type Lookuper interface {
	Lookup(ctx context.Context, query string) (*models.LocationRecord, error)
}

// Config holds client settings
type Config struct {
	BaseURL    string       // Provider root, e.g. https://ipinfo.io
	HTTPClient *http.Client // Transport; nil means a client with no timeout override
	UserAgent  string
}

// Client talks to the geolocation provider.
//
// It issues exactly one GET per lookup and never retries. Timeouts are left
// to the transport.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewClient creates a provider client.
// Metrics and logger are optional and may be nil.
func NewClient(cfg Config, m *metrics.Metrics, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   baseURL,
		http:      httpClient,
		userAgent: userAgent,
		metrics:   m,
		logger:    log.WithComponent("GeoLookupClient"),
	}
}

// QueryFor turns a user supplied target (IP or domain) into a provider query.
// A blank target is the self-lookup and maps to the empty query.
func QueryFor(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	return target + "/json"
}

// Lookup resolves query against the provider.
//
// query is either empty (the caller's own address) or "<ip-or-domain>/json".
// On any failure the returned error wraps ErrLookupFailed and the record is nil;
// a partially populated record is never returned.
func (c *Client) Lookup(ctx context.Context, query string) (*models.LocationRecord, error) {
	log := c.logger.WithQuery(query)
	kind := lookupKind(query)
	start := time.Now()

	record, err := c.fetch(ctx, query)

	if c.metrics != nil {
		c.metrics.GeoLookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		log.Warn().Err(err).Msg("Geolocation lookup failed")
		if c.metrics != nil {
			c.metrics.GeoLookupsTotal.WithLabelValues(kind, "failure").Inc()
		}
		return nil, err
	}

	log.Info().
		Str("ip", models.Value(record.IPAddress)).
		Str("city", models.Value(record.City)).
		Str("country", models.Value(record.Country)).
		Bool("has_coordinates", record.Coordinates != nil).
		Msg("Geolocation lookup successful")
	if c.metrics != nil {
		c.metrics.GeoLookupsTotal.WithLabelValues(kind, "success").Inc()
	}

	return record, nil
}

func (c *Client) fetch(ctx context.Context, query string) (*models.LocationRecord, error) {
	endpoint, err := c.endpoint(query)
	if err != nil {
		return nil, fmt.Errorf("%w: build url: %v", ErrLookupFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrLookupFailed, err)
	}

	// Unmarshal rejects trailing data after the object
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrLookupFailed, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrLookupFailed)
	}

	return normalize(payload), nil
}

func (c *Client) endpoint(query string) (string, error) {
	if query == "" {
		return c.baseURL + "/", nil
	}
	return url.JoinPath(c.baseURL, query)
}

func lookupKind(query string) string {
	if query == "" {
		return "self"
	}
	return "search"
}
