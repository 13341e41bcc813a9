package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-dashboard/internal/config"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// cachedResponse is what a HIT replays.  Body is base64 in the stored JSON.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// recorder tees the response into a buffer until it outgrows limit.
type recorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.overflow = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey hashes the parts of the request that select a response.  With
// the "view" strategy the query is first decoded as a dashboard view state
// and re-encoded, so URLs naming the same view share one entry.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	var q string
	switch cfg.KeyStrategy {
	case config.CacheByRoute:
	case config.CacheByQuery:
		q = r.URL.Query().Encode()
	default:
		q = viewstate.Decode(r.URL.Query()).Encode().Encode()
	}
	sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + q))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}

func replay(c echo.Context, cr cachedResponse) error {
	h := c.Response().Header()
	for k, vals := range cr.Header {
		if k == echo.HeaderContentLength {
			continue
		}
		h[k] = vals
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(cr.Status)
	_, err := c.Response().Write(cr.Body)
	return err
}

// NewRedisCache caches successful API responses in Redis so repeated
// views of the same URL skip the derivation.  Headers are stored with the
// body so a HIT is byte-identical to the MISS that filled it.  Without
// Redis, or when disabled, it lets everything through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] {
				return next(c)
			}
			if strings.Contains(req.Header.Get(echo.HeaderCacheControl), "no-cache") {
				c.Response().Header().Set("X-Cache", "BYPASS")
				return next(c)
			}

			ctx := req.Context()
			key := cacheKey(cfg, c)
			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var cr cachedResponse
				if json.Unmarshal(raw, &cr) == nil {
					return replay(c, cr)
				}
			} else if err != redis.Nil {
				log.Printf("cache: get %s: %v", key, err)
			}

			rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}

			raw, err := json.Marshal(cachedResponse{
				Status: rec.status,
				Header: c.Response().Header().Clone(),
				Body:   rec.buf.Bytes(),
			})
			if err == nil {
				err = rdb.Set(context.WithoutCancel(ctx), key, raw, ttl).Err()
			}
			if err != nil {
				log.Printf("cache: set %s: %v", key, err)
			}
			return nil
		}
	}
}

// PurgeCache deletes every response cached under prefix.  The feed retry
// endpoints call it so that a manual refresh is visible immediately.
func PurgeCache(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	var keys []string
	iter := rdb.Scan(ctx, 0, prefix+":*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del %s: %w", prefix, err)
	}
	return int(n), nil
}
