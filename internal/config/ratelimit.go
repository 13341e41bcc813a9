package config

import (
	"strings"
	"time"
)

// Login limiter key strategies.
const (
	LimitByIP      = "ip"       // one bucket per client address
	LimitByEmail   = "email"    // one bucket per submitted email
	LimitByIPEmail = "ip_email" // one bucket per address and email pair
)

// RateLimitConfig drives the Redis token bucket in front of the login
// endpoints.  A bucket holds Burst attempts and regains one every
// RefillEvery.
type RateLimitConfig struct {
	Enabled     bool
	Burst       int
	RefillEvery time.Duration
	TTL         time.Duration
	KeyStrategy string
	Prefix      string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  The defaults allow a
// burst of 5 login attempts per client ip, refilling one every 12 seconds.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Burst:       envInt("RATE_LIMIT_BURST", 5),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 12*time.Second),
		TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", LimitByIP),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl:login"),
	}.normalize()
}

func (c RateLimitConfig) normalize() RateLimitConfig {
	if c.Burst < 1 {
		c.Burst = 1
	}
	if c.RefillEvery <= 0 {
		c.RefillEvery = time.Second
	}
	// an idle bucket must outlive a full refill or it resets early
	if full := time.Duration(c.Burst) * c.RefillEvery; c.TTL < full {
		c.TTL = full
	}
	switch s := strings.ToLower(c.KeyStrategy); s {
	case LimitByIP, LimitByEmail, LimitByIPEmail:
		c.KeyStrategy = s
	default:
		c.KeyStrategy = LimitByIP
	}
	return c
}
