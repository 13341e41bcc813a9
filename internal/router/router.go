package router // package router defines how HTTP routes are registered

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-dashboard/internal/feed"
	"github.com/iliyamo/event-dashboard/internal/handler"
	"github.com/iliyamo/event-dashboard/internal/middleware"
	"github.com/iliyamo/event-dashboard/internal/model"
)

// RegisterRoutes registers routes that do not require authentication: the
// health check, the root redirect and the theme switch (which the login
// page offers too).
func RegisterRoutes(e *echo.Echo, state func() feed.Snapshot, s *handler.SettingsHandler) {
	e.GET("/healthz", handler.Health(state))
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, handler.EventsPath)
	})
	e.POST("/settings/theme", s.SetTheme)
}

// RegisterAuth registers the login and logout routes.  limiter guards the
// two credential-checking endpoints against guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc, jwtSecret string) {
	e.GET("/login", a.LoginPage)
	e.POST("/login", a.Login, limiter)
	e.POST("/logout", a.Logout)

	e.POST("/api/login", a.APILogin, limiter)
	e.GET("/api/me", a.Me, middleware.JWTAuth(jwtSecret, middleware.DenyJSON))
}

// RegisterDashboard registers the HTML pages.  Unauthenticated browsers are
// redirected to /login and come back afterwards.
func RegisterDashboard(e *echo.Echo, h *handler.EventsHandler, jwtSecret string) {
	g := e.Group(
		handler.EventsPath,
		middleware.JWTAuth(jwtSecret, middleware.DenyRedirect("/login")),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("", h.Page)
	g.POST("/retry", h.Retry)
	g.GET("/export.ics", h.Export)
	g.GET("/views/:name", h.SavedView)
}

// RegisterAPI registers the JSON API under /api.  cache wraps the list
// endpoint only; detail and feed state are cheap and must stay current.
func RegisterAPI(e *echo.Echo, h *handler.EventsHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(jwtSecret, middleware.DenyJSON),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/events", h.List, cache)
	g.GET("/events/:id", h.Get)
	g.GET("/feed", h.Feed)
	g.POST("/feed/retry", h.FeedRetry)
}
