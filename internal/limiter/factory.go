package limiter

import (
	"fmt"
	"strings"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
)

// Config holds configuration for creating a rate limiter
type Config struct {
	Type   string        // "memory" or "redis"
	Limit  int           // lookups allowed per window
	Window time.Duration // window length

	// Redis-specific config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates the limiter named by cfg.Type
func New(cfg Config, log *logger.Logger) (Limiter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "memory", "":
		return NewMemoryLimiter(cfg.Limit, cfg.Window), nil

	case "redis":
		l, err := NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Limit, cfg.Window, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis limiter: %w", err)
		}
		return l, nil

	default:
		return nil, fmt.Errorf("unknown rate limiter type: %s (supported: 'memory', 'redis')", cfg.Type)
	}
}
