package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-dashboard/internal/config"
	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/session"
	"github.com/iliyamo/event-dashboard/internal/utils"
)

const secret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user": c.Get(KeyUserID), "role": c.Get(KeyRole)})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestJWTAuth(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, "ops@example.com", model.RoleAdmin, 5)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/api/me", whoami, JWTAuth(secret, DenyJSON))
	e.GET("/events", whoami, JWTAuth(secret, DenyRedirect("/login")))

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		rec := serve(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user":"ops@example.com"`)
		assert.Contains(t, rec.Body.String(), `"role":"ADMIN"`)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieSession, Value: tok.Token})
		assert.Equal(t, http.StatusOK, serve(e, req).Code)
	})

	t.Run("missing on api", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"missing token"}`, rec.Body.String())
	})

	t.Run("forged on api", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Token+"x")
		rec := serve(e, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
	})

	t.Run("page redirects to login", func(t *testing.T) {
		rec := serve(e, httptest.NewRequest(http.MethodGet, "/events?status=live&page=2", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?next=%2Fevents%3Fstatus%3Dlive%26page%3D2", rec.Header().Get(echo.HeaderLocation))
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	set := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if role != "" {
					c.Set(KeyRole, role)
				}
				return next(c)
			}
		}
	}
	e.GET("/admin", whoami, set(model.RoleAdmin), RequireRole(model.RoleAdmin))
	e.GET("/viewer", whoami, set("VIEWER"), RequireRole(model.RoleAdmin))
	e.GET("/none", whoami, set(""), RequireRole(model.RoleAdmin))

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/viewer", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/none", nil)).Code)
}

func TestSessionMiddleware(t *testing.T) {
	m := session.NewManager(secret, time.Hour, false)
	tok, err := utils.NewAccessToken(secret, "ops@example.com", model.RoleAdmin, 5)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		s := session.From(c)
		return c.JSON(http.StatusOK, echo.Map{"auth": s.Authenticated, "theme": s.Theme, "user": c.Get(KeyUserID)})
	}, Session(m))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieSession, Value: tok.Token})
	req.AddCookie(&http.Cookie{Name: session.CookieTheme, Value: "dark"})
	assert.JSONEq(t, `{"auth":true,"theme":"dark","user":"ops@example.com"}`, serve(e, req).Body.String())

	assert.JSONEq(t, `{"auth":false,"theme":"system","user":null}`, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String())
}

func TestRedisCache(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  config.CacheByView,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}

	var hits atomic.Int32
	e := echo.New()
	e.GET("/api/events", func(c echo.Context) error {
		n := hits.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"n": n, "q": c.QueryString()})
	}, NewRedisCache(cfg, rdb))
	e.GET("/api/fail", func(c echo.Context) error {
		hits.Add(1)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Failed to load events."})
	}, NewRedisCache(cfg, rdb))

	get := func(target string, hdr ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		for i := 0; i+1 < len(hdr); i += 2 {
			req.Header.Set(hdr[i], hdr[i+1])
		}
		return serve(e, req)
	}

	first := get("/api/events?page=2")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("/api/events?page=2")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, strings.TrimSpace(first.Header().Get(echo.HeaderContentType)), second.Header().Get(echo.HeaderContentType))
	assert.EqualValues(t, 1, hits.Load())

	assert.Equal(t, "HIT", get("/api/events?perPage=20&page=2&sort=date").Header().Get("X-Cache"), "same view, different spelling")
	assert.Equal(t, "MISS", get("/api/events?page=3").Header().Get("X-Cache"))
	assert.Equal(t, "BYPASS", get("/api/events?page=2", "Cache-Control", "no-cache").Header().Get("X-Cache"))
	assert.EqualValues(t, 3, hits.Load())

	get("/api/fail")
	get("/api/fail")
	assert.EqualValues(t, 5, hits.Load(), "errors are never cached")

	n, err := PurgeCache(context.Background(), rdb, "cache")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "MISS", get("/api/events?page=2").Header().Get("X-Cache"))
}

func TestRedisCacheDisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewRedisCache(config.CacheConfig{Enabled: true}, nil))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	n, err := PurgeCache(context.Background(), nil, "cache")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoginLimiter(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:     true,
		Burst:       2,
		RefillEvery: time.Minute,
		TTL:         10 * time.Minute,
		KeyStrategy: config.LimitByIP,
		Prefix:      "rl",
	}
	e := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.POST("/login", ok, NewLoginLimiter(cfg, rdb))
	e.POST("/api/login", ok, NewLoginLimiter(cfg, rdb))

	post := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		return serve(e, req)
	}

	assert.Equal(t, http.StatusOK, post("/login", "10.0.0.1").Code)
	second := post("/login", "10.0.0.1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := post("/login", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Equal(t, "Too many login attempts. Try again in 60s.", blocked.Body.String())

	// the key is per ip, and the api path shares it
	assert.Equal(t, http.StatusOK, post("/login", "10.0.0.2").Code)
	api := post("/api/login", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, api.Code)
	assert.JSONEq(t, `{"error":"too many login attempts","retry_after":60}`, api.Body.String())
}

func TestLoginLimiterRefills(t *testing.T) {
	_, rdb := newRedis(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	b := &loginBucket{
		cfg: config.RateLimitConfig{Burst: 1, RefillEvery: 10 * time.Second, TTL: time.Minute},
		rdb: rdb,
		now: func() time.Time { return now },
	}

	v, err := b.take(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, v.allowed)

	now = now.Add(4 * time.Second)
	v, err = b.take(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, v.allowed)
	assert.Equal(t, 6*time.Second, v.wait)

	now = now.Add(6 * time.Second)
	v, err = b.take(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, v.allowed)
}

func TestLoginLimiterKeys(t *testing.T) {
	form := func(email string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email="+email))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.9")
		return echo.New().NewContext(req, httptest.NewRecorder())
	}
	bucket := func(strategy string) *loginBucket {
		return &loginBucket{cfg: config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}}
	}

	assert.Equal(t, "rl:ip:10.0.0.9", bucket(config.LimitByIP).key(form("Ops@Example.com")))
	assert.Equal(t, "rl:email:ops@example.com", bucket(config.LimitByEmail).key(form("Ops@Example.com")))
	assert.Equal(t, "rl:ip:10.0.0.9:email:ops@example.com", bucket(config.LimitByIPEmail).key(form("ops@example.com")))
	assert.Equal(t, "rl:ip:10.0.0.9", bucket(config.LimitByEmail).key(form("")), "no email falls back to the address")
}
