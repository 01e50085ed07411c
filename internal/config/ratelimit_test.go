package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestLifecycleLimiterDefaults(t *testing.T) {
    cfg := LoadRateLimitConfig()
    // Burst of 10, one token back every 6s: 10 requests/minute.
    require.Equal(t, 10, cfg.Capacity)
    require.Equal(t, 1, cfg.RefillTokens)
    require.Equal(t, 6*time.Second, cfg.RefillInterval)
    require.Equal(t, "rl", cfg.Prefix)
}

func TestReadLimiterDefaults(t *testing.T) {
    cfg := LoadReadRateLimitConfig()
    // Reads get triple the lifecycle budget: 30 requests/minute.
    require.Equal(t, 30, cfg.Capacity)
    require.Equal(t, 2*time.Second, cfg.RefillInterval)
    require.Equal(t, "rlr", cfg.Prefix)
}

func TestReadLimiterSeparateBuckets(t *testing.T) {
    // Distinct prefixes keep read traffic from draining the lifecycle
    // buckets for the same device.
    require.NotEqual(t, LoadRateLimitConfig().Prefix, LoadReadRateLimitConfig().Prefix)
}

func TestReadLimiterEnvOverride(t *testing.T) {
    t.Setenv("RATE_LIMIT_READ_CAPACITY", "60")
    t.Setenv("RATE_LIMIT_READ_REFILL_INTERVAL", "1s")

    cfg := LoadReadRateLimitConfig()
    require.Equal(t, 60, cfg.Capacity)
    require.Equal(t, time.Second, cfg.RefillInterval)
}
