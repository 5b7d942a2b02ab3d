package config

import (
	"strings"
	"time"
)

// CacheConfig tunes the quote-response cache. When Enabled is false
// or no Redis client is available, the middleware is a no-op.
// Methods lists the HTTP methods eligible for caching; only GET
// makes sense for quote previews. The TTL bounds how stale a cached
// breakdown can get after an owner edits their pricing config.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the cache settings from the environment.
// The defaults cache GET responses for two minutes under keys that
// include the route and the full query string, since every query
// parameter of a quote changes its price.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 2*time.Minute),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "quote"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
