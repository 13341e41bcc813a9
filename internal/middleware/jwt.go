package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"net/url"  // escaping the return path on redirects
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/event-dashboard/internal/session" // session cookie name
	"github.com/iliyamo/event-dashboard/internal/utils"   // token parsing
)

// DenyFunc writes the response for a request that failed authentication.
type DenyFunc func(c echo.Context, reason string) error

// DenyJSON answers 401 with the usual error body.  It is used for /api.
func DenyJSON(c echo.Context, reason string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": reason})
}

// DenyRedirect sends browsers to loginPath, remembering where they were
// going in the next parameter.
func DenyRedirect(loginPath string) DenyFunc {
	return func(c echo.Context, _ string) error {
		next := c.Request().URL.RequestURI()
		return c.Redirect(http.StatusSeeOther, loginPath+"?next="+url.QueryEscape(next))
	}
}

// JWTAuth returns an Echo middleware that validates the session token and
// injects its subject and role claims into the request context.  The token
// is read from a Bearer Authorization header when present and from the
// session cookie otherwise.  Handlers can read the authenticated operator
// via `c.Get("user_id")` and `c.Get("role")`.
func JWTAuth(secret string, deny DenyFunc) echo.MiddlewareFunc {
	if deny == nil {
		deny = DenyJSON
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				if ck, err := c.Cookie(session.CookieSession); err == nil {
					raw = ck.Value
				}
			}
			if raw == "" {
				return deny(c, "missing token")
			}

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return deny(c, "invalid token")
			}

			c.Set(KeyUserID, claims.Subject)
			c.Set(KeyRole, claims.Role)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
