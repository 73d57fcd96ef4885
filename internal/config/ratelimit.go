package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig is one token-bucket policy.  Capacity is the burst;
// RefillTokens are added every RefillInterval.  Name keeps the Redis keys
// of different policies apart.
type RateLimitConfig struct {
    Name           string
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // ip | user | ip_route | user_route | ip_user_route
    Prefix         string
    Debug          bool // expose X-RateLimit-* headers
}

// RateLimits groups the policies the router applies.  Public covers
// registration, member login and password reset (per client IP).  Scan
// covers the check-in endpoint, where a single scanner at an event door
// legitimately fires bursts, so it is keyed by admin and allows more.
type RateLimits struct {
    Public RateLimitConfig
    Scan   RateLimitConfig
}

// LoadRateLimits reads RATE_LIMIT_ENABLED / RATE_LIMIT_PREFIX plus one
// RATE_LIMIT_<POLICY>_* group per policy.
func LoadRateLimits() RateLimits {
    enabled := envBool("RATE_LIMIT_ENABLED", true)
    prefix := envStr("RATE_LIMIT_PREFIX", "odwyaty:rl")
    debug := envBool("RATE_LIMIT_DEBUG", false)

    return RateLimits{
        Public: loadPolicy("public", enabled, prefix, debug, RateLimitConfig{
            Capacity:       10,
            RefillTokens:   1,
            RefillInterval: 6 * time.Second,
            KeyStrategy:    "ip_route",
        }),
        Scan: loadPolicy("scan", enabled, prefix, debug, RateLimitConfig{
            Capacity:       60,
            RefillTokens:   2,
            RefillInterval: time.Second,
            KeyStrategy:    "user",
        }),
    }
}

func loadPolicy(name string, enabled bool, prefix string, debug bool, def RateLimitConfig) RateLimitConfig {
    k := "RATE_LIMIT_" + strings.ToUpper(name) + "_"
    p := RateLimitConfig{
        Name:           name,
        Enabled:        enabled && envBool(k+"ENABLED", true),
        Capacity:       envInt(k+"CAPACITY", def.Capacity),
        RefillTokens:   envInt(k+"REFILL_TOKENS", def.RefillTokens),
        RefillInterval: envDur(k+"REFILL_INTERVAL", def.RefillInterval),
        TTL:            envDur(k+"TTL", 10*time.Minute),
        KeyStrategy:    envStr(k+"KEY_STRATEGY", def.KeyStrategy),
        Prefix:         prefix + ":" + name,
        Debug:          debug,
    }
    if p.Capacity < 1 { p.Capacity = 1 }
    if p.RefillTokens < 1 { p.RefillTokens = 1 }
    if p.RefillInterval <= 0 { p.RefillInterval = time.Second }
    if minTTL := 5 * p.RefillInterval; p.TTL < minTTL { p.TTL = minTTL }
    return p
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
