package config

import (
	"strings"
	"time"
)

// Response cache key strategies.
const (
	CacheByView  = "view"  // canonical dashboard view state
	CacheByQuery = "query" // raw query parameters, sorted
	CacheByRoute = "route" // route only
)

// CacheConfig defines settings for the API response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Responses larger than MaxBodyBytes are served but not stored.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  Entries live 30 seconds unless
// CACHE_TTL says otherwise.
func LoadCacheConfig() CacheConfig {
	methods := map[string]bool{}
	for _, m := range envList("CACHE_METHODS", "GET") {
		methods[strings.ToUpper(m)] = true
	}
	strategy := strings.ToLower(envStr("CACHE_KEY_STRATEGY", CacheByView))
	if strategy != CacheByQuery && strategy != CacheByRoute {
		strategy = CacheByView
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methods,
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strategy,
		Prefix:       envStr("CACHE_PREFIX", "cache:api"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
