package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-dashboard/internal/config"
	"github.com/iliyamo/event-dashboard/internal/feed"
	"github.com/iliyamo/event-dashboard/internal/handler"
	"github.com/iliyamo/event-dashboard/internal/middleware"
	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/session"
	"github.com/iliyamo/event-dashboard/internal/utils"
)

const secret = "router-secret"

type staticSource []model.Event

func (s staticSource) Events(context.Context) ([]model.Event, error) { return s, nil }
func (s staticSource) Retry(context.Context) ([]model.Event, error) { return s, nil }
func (s staticSource) State() feed.Snapshot {
	return feed.Snapshot{Phase: feed.PhaseReady, Events: s}
}

func newApp(t *testing.T) *echo.Echo {
	t.Helper()
	src := staticSource{{
		ID: "evt-1", Type: "run", Date: time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC),
		Zone:   model.Zone{Name: "Kreuzberg", City: model.City{Name: "Berlin", Country: model.Country{Name: "Germany"}}},
		Booked: 3, Capacity: 10, Status: model.StatusUpcoming,
	}}
	acc, err := utils.NewAccount("ops@example.com", "hunter2", 4)
	require.NoError(t, err)
	sm := session.NewManager(secret, time.Hour, false)
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	e := echo.New()
	e.Renderer = handler.MustRenderer()
	e.Use(middleware.Session(sm))
	RegisterRoutes(e, src.State, &handler.SettingsHandler{Sessions: sm})
	RegisterAuth(e, handler.NewAuthHandler(acc, sm), passthrough, secret)
	events := handler.NewEventsHandler(src, time.UTC, config.Dashboard{})
	RegisterDashboard(e, events, secret)
	RegisterAPI(e, events, secret, passthrough)
	return e
}

func get(e *echo.Echo, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, role string) *http.Cookie {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, "ops@example.com", role, 10)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieSession, Value: tok.Token}
}

func TestAnonymousAccess(t *testing.T) {
	e := newApp(t)

	rec := get(e, "/events?status=upcoming", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fevents%3Fstatus%3Dupcoming", rec.Header().Get(echo.HeaderLocation))

	rec = get(e, "/api/events", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing token"}`, rec.Body.String())

	rec = get(e, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, handler.EventsPath, rec.Header().Get(echo.HeaderLocation))

	rec = get(e, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Header().Get("X-Feed-Phase"))

	assert.Equal(t, http.StatusOK, get(e, "/login", nil).Code)
}

func TestSignedInAccess(t *testing.T) {
	e := newApp(t)
	ck := sessionCookie(t, model.RoleAdmin)

	rec := get(e, "/events", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Berlin, Kreuzberg")
	assert.Contains(t, rec.Body.String(), "ops@example.com")

	rec = get(e, "/api/events/evt-1", ck)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(e, "/api/feed", ck)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"ready"`)
}

func TestWrongRoleForbidden(t *testing.T) {
	e := newApp(t)
	ck := sessionCookie(t, "VIEWER")

	assert.Equal(t, http.StatusForbidden, get(e, "/events", ck).Code)
	assert.Equal(t, http.StatusForbidden, get(e, "/api/events", ck).Code)
}
