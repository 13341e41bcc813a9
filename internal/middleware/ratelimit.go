package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-dashboard/internal/config"
)

// takeScript refills the bucket for the time elapsed since its last refill
// and takes one token if it can.  It returns {allowed, tokens left, ms until
// the next token}.
var takeScript = redis.NewScript(`
local burst = tonumber(ARGV[2])
local every = tonumber(ARGV[3])
local now = tonumber(ARGV[1])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last'))
if tokens == nil or last == nil then
    tokens, last = burst, now
end

local gained = math.floor(math.max(0, now - last) / every)
if gained > 0 then
    tokens = math.min(burst, tokens + gained)
    last = last + gained * every
end

local allowed, wait = 0, 0
if tokens > 0 then
    allowed, tokens = 1, tokens - 1
else
    wait = math.max(0, every - (now - last))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last', last)
redis.call('EXPIRE', KEYS[1], ARGV[4])
return {allowed, tokens, wait}
`)

type verdict struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

// loginBucket is one token bucket per login key, shared by every instance
// through Redis.
type loginBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	now func() time.Time
}

func (b *loginBucket) take(ctx context.Context, key string) (verdict, error) {
	vals, err := takeScript.Run(ctx, b.rdb, []string{key},
		b.now().UnixMilli(),
		b.cfg.Burst,
		b.cfg.RefillEvery.Milliseconds(),
		int64(math.Ceil(b.cfg.TTL.Seconds())),
	).Int64Slice()
	if err != nil {
		return verdict{}, err
	}
	if len(vals) != 3 {
		return verdict{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
	}
	return verdict{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		wait:      time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// key names the bucket for this attempt.  The email comes from the login
// form; JSON logins only carry it in the body, which is left unread, so
// they fall back to the client address.
func (b *loginBucket) key(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	switch {
	case b.cfg.KeyStrategy == config.LimitByEmail && email != "":
		return b.cfg.Prefix + ":email:" + email
	case b.cfg.KeyStrategy == config.LimitByIPEmail && email != "":
		return b.cfg.Prefix + ":ip:" + ip + ":email:" + email
	default:
		return b.cfg.Prefix + ":ip:" + ip
	}
}

// NewLoginLimiter guards the login endpoints against password guessing
// with a token bucket kept in Redis, so the limit holds across server
// instances.  Without Redis, or when disabled, it lets everything through.
// Redis errors fail open.
func NewLoginLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := &loginBucket{cfg: cfg, rdb: rdb, now: time.Now}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := b.key(c)
			v, err := b.take(c.Request().Context(), key)
			if err != nil {
				log.Printf("ratelimit: %s: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
			if v.allowed {
				return next(c)
			}

			secs := int(math.Ceil(v.wait.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			log.Printf("ratelimit: blocked %s for %ds", key, secs)
			if wantsJSON(c) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many login attempts",
					"retry_after": secs,
				})
			}
			return c.String(http.StatusTooManyRequests, fmt.Sprintf("Too many login attempts. Try again in %ds.", secs))
		}
	}
}

// wantsJSON reports whether the client is an API caller rather than the
// HTML login form.
func wantsJSON(c echo.Context) bool {
	r := c.Request()
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
