package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-dashboard/internal/session"
)

// Session loads the cookie-backed settings once per request and stores
// them for handlers.  It never rejects a request; gating is JWTAuth's job.
func Session(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := m.Load(c)
			session.Put(c, s)
			if s.Authenticated {
				c.Set(KeyUserID, s.Email)
				c.Set(KeyRole, s.Role)
			}
			return next(c)
		}
	}
}
