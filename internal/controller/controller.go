package controller

import (
	"context"
	"strings"
	"sync"

	"github.com/evyataryagoni/iptracker/internal/geolookup"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"golang.org/x/sync/errgroup"
)

// Phase is the controller's coarse display state
type Phase int

const (
	// PhaseEmpty: nothing loaded yet, or the last lookup failed
	PhaseEmpty Phase = iota
	// PhaseLoading: a lookup is in flight
	PhaseLoading
	// PhaseReady: a record is available
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "empty"
	}
}

// MarshalText lets phases appear by name in JSON
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Snapshot is an immutable copy of the controller state
type Snapshot struct {
	Version   uint64                 `json:"version"`
	Query     string                 `json:"query"`
	Phase     Phase                  `json:"phase"`
	Record    *models.LocationRecord `json:"record,omitempty"`
	HasLoaded bool                   `json:"has_loaded"`
	Pending   int                    `json:"pending"`
}

// Observer receives every state change.
// Render is called with the controller lock held, so an observer must not
// call back into the controller.
type Observer interface {
	Render(Snapshot)
}

// ObserverFunc adapts a plain function to Observer
type ObserverFunc func(Snapshot)

// Render implements Observer
func (f ObserverFunc) Render(s Snapshot) { f(s) }

// Controller owns the lookup screen state.
//
// Lookups run in the background and are never cancelled by a newer one:
// whichever completes last decides the displayed state.
type Controller struct {
	client geolookup.Lookuper

	mu        sync.Mutex
	state     Snapshot
	observers []Observer

	activate sync.Once
	group    errgroup.Group

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// New creates a controller in PhaseEmpty.
// Metrics and logger are optional and may be nil.
func New(client geolookup.Lookuper, m *metrics.Metrics, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Controller{
		client:  client,
		metrics: m,
		logger:  log.WithComponent("LookupController"),
	}
}

// Subscribe registers an observer and immediately renders the current state to it
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observers = append(c.observers, o)
	o.Render(c.state)
}

// Snapshot returns the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Activate starts the self-lookup. Only the first call has any effect.
func (c *Controller) Activate(ctx context.Context) {
	c.activate.Do(func() {
		c.logger.Info().Msg("Activating, resolving own address")
		c.start(ctx, "")
	})
}

// SetQuery stores the search box contents
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Query == query {
		return
	}
	c.state.Query = query
	c.publishLocked()
}

// Submit looks up the current query.
// A blank query is ignored: no request, no state change. Submit reports
// whether a lookup was started.
func (c *Controller) Submit(ctx context.Context) bool {
	c.mu.Lock()
	target := strings.TrimSpace(c.state.Query)
	c.mu.Unlock()

	if target == "" {
		c.logger.Debug().Msg("Ignoring blank search")
		return false
	}

	c.start(ctx, geolookup.QueryFor(target))
	return true
}

// Search stores query and submits it in one step, so a concurrent SetQuery
// cannot replace the target between the two. It reports whether a lookup
// was started.
func (c *Controller) Search(ctx context.Context, query string) bool {
	c.mu.Lock()
	if c.state.Query != query {
		c.state.Query = query
		c.publishLocked()
	}
	target := strings.TrimSpace(query)
	if target == "" {
		c.mu.Unlock()
		c.logger.Debug().Msg("Ignoring blank search")
		return false
	}
	c.startLocked(ctx, geolookup.QueryFor(target))
	c.mu.Unlock()

	return true
}

// Wait blocks until every lookup started so far has completed
func (c *Controller) Wait() {
	_ = c.group.Wait()
}

func (c *Controller) start(ctx context.Context, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(ctx, query)
}

func (c *Controller) startLocked(ctx context.Context, query string) {
	c.state.Pending++
	c.transitionLocked(PhaseLoading)
	c.publishLocked()

	if c.metrics != nil {
		c.metrics.LookupsInFlight.Inc()
	}

	c.group.Go(func() error {
		record, err := c.client.Lookup(ctx, query)
		c.complete(query, record, err)
		return nil
	})
}

func (c *Controller) complete(query string, record *models.LocationRecord, err error) {
	if c.metrics != nil {
		c.metrics.LookupsInFlight.Dec()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Pending--

	log := c.logger.WithQuery(query)
	if err != nil || record == nil {
		// The last good record stays for the map; the panel collapses
		log.Warn().Err(err).Msg("Lookup failed, no data available")
		c.transitionLocked(PhaseEmpty)
	} else {
		c.state.Record = record
		c.state.HasLoaded = true
		c.transitionLocked(PhaseReady)
		log.Debug().Msg("Lookup completed")
	}

	c.publishLocked()
}

func (c *Controller) transitionLocked(to Phase) {
	if c.metrics != nil && c.state.Phase != to {
		c.metrics.PhaseTransitions.WithLabelValues(to.String()).Inc()
	}
	c.state.Phase = to
}

func (c *Controller) publishLocked() {
	c.state.Version++
	snapshot := c.state
	for _, o := range c.observers {
		o.Render(snapshot)
	}
}
