package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles lookups per client so a single browser tab (or script)
// cannot burn through the geolocation provider's quota.
type Limiter interface {
	// Allow reports whether client may start another lookup now
	Allow(ctx context.Context, client string) bool

	// Close releases connections held by the limiter
	Close() error
}

// idleTTL is how long an unused per-client bucket is kept in memory
const idleTTL = 5 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// MemoryLimiter keeps one token bucket per client in process memory.
// Suitable when a single tracker instance serves the UI.
type MemoryLimiter struct {
	every rate.Limit
	burst int

	buckets sync.Map // client -> *clientBucket

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewMemoryLimiter allows limit lookups per window for each client,
// with bursts of up to limit.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}

	return &MemoryLimiter{
		every:     rate.Limit(float64(limit) / window.Seconds()),
		burst:     limit,
		lastSweep: time.Now(),
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, client string) bool {
	bucket := l.bucket(client)
	bucket.lastSeen.Store(time.Now().UnixNano())

	allowed := bucket.limiter.Allow()
	l.maybeSweep()
	return allowed
}

func (l *MemoryLimiter) bucket(client string) *clientBucket {
	if b, ok := l.buckets.Load(client); ok {
		return b.(*clientBucket)
	}
	fresh := &clientBucket{limiter: rate.NewLimiter(l.every, l.burst)}
	actual, _ := l.buckets.LoadOrStore(client, fresh)
	return actual.(*clientBucket)
}

// maybeSweep drops buckets nobody used for idleTTL, at most once per idleTTL
func (l *MemoryLimiter) maybeSweep() {
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()

	if time.Since(l.lastSweep) < idleTTL {
		return
	}

	cutoff := time.Now().Add(-idleTTL).UnixNano()
	l.buckets.Range(func(key, value any) bool {
		if value.(*clientBucket).lastSeen.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
	l.lastSweep = time.Now()
}

// Close implements Limiter. Nothing to release in memory.
func (l *MemoryLimiter) Close() error {
	return nil
}
