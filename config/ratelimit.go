package config

import (
	"fmt"
	"strings"
	"time"
)

// RateLimitBackend selects where sliding-window attempts are kept.
type RateLimitBackend string

const (
	// RateLimitBackendMemory keeps attempts in process memory. Budgets are per instance.
	RateLimitBackendMemory RateLimitBackend = "memory"
	// RateLimitBackendRedis keeps attempts in Redis sorted sets shared by all instances.
	RateLimitBackendRedis RateLimitBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for RateLimitBackend.
func (b *RateLimitBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*b = RateLimitBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid RateLimitBackend: %q (valid options: memory, redis)", v)
	}
}

// longestPolicyWindow is the largest window any rate limit policy uses.
const longestPolicyWindow = 10 * time.Minute

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	Backend RateLimitBackend `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`

	// RedisPrefix namespaces the sorted sets used by the redis backend.
	RedisPrefix string `env:"RATE_LIMIT_REDIS_PREFIX" envDefault:"ratelimit:"`

	// SweepInterval runs the memory janitor; zero keeps pruning lazy only.
	SweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"0s"`
	// SweepMaxAge drops memory buckets whose newest attempt is older than this.
	SweepMaxAge time.Duration `env:"RATE_LIMIT_SWEEP_MAX_AGE" envDefault:"10m"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.Backend == "" {
		r.Backend = RateLimitBackendMemory
	}
	if r.SweepInterval < 0 {
		r.SweepInterval = 0
	}
	// A sweep must never drop attempts that still count towards a budget.
	if r.SweepMaxAge < longestPolicyWindow {
		r.SweepMaxAge = longestPolicyWindow
	}
}
