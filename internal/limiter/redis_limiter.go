package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the window counter and arms its expiry on first use.
// KEYS[1] = counter key, ARGV[1] = TTL seconds. Returns the new count.
var fixedWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
end
return current
`)

// RedisLimiter shares lookup quotas between tracker instances through Redis.
//
// It counts lookups per client in fixed windows. Keys look like
// "iptracker:ratelimit:<client>:<window index>" and expire on their own.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewRedisLimiter connects to Redis and allows limit lookups per window per client
func NewRedisLimiter(addr, password string, db int, limit int, window time.Duration, log *logger.Logger) (*RedisLimiter, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	if limit < 1 {
		limit = 1
	}
	if window < time.Second {
		window = time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
		logger: log.WithComponent("RedisLimiter"),
	}, nil
}

// Allow implements Limiter.
// Redis errors fail open: a flaky limiter must not lock users out of the UI.
func (l *RedisLimiter) Allow(ctx context.Context, client string) bool {
	windowSeconds := int64(l.window / time.Second)
	index := l.now().Unix() / windowSeconds
	key := fmt.Sprintf("iptracker:ratelimit:%s:%d", client, index)

	count, err := fixedWindow.Run(ctx, l.client, []string{key}, windowSeconds*2).Int64()
	if err != nil {
		l.logger.Error().Err(err).Str("client", client).Msg("Rate limit check failed, allowing request")
		return true
	}

	return count <= l.limit
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
