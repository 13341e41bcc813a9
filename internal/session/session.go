// Package session holds the per-request settings of the dashboard: whether
// the operator is signed in and which colour theme they chose.  Settings
// live in two cookies, are loaded once per request by middleware and are
// passed to handlers explicitly through the echo context.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/utils"
)

// Cookie names.
const (
	CookieSession = "session"
	CookieTheme   = "theme"
)

// contextKey is where the session middleware stores Settings.
const contextKey = "settings"

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Themes lists the accepted preferences in menu order.
var Themes = []Theme{ThemeLight, ThemeDark, ThemeSystem}

// ParseTheme returns the theme named by s, or ThemeSystem.
func ParseTheme(s string) Theme {
	switch t := Theme(s); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t
	}
	return ThemeSystem
}

// Settings is the explicit context every page renders with.
type Settings struct {
	Authenticated bool
	Email         string
	Role          string
	Theme         Theme
}

// Manager reads and writes the session cookies.
type Manager struct {
	secret string
	ttl    time.Duration
	secure bool
}

// NewManager returns a Manager signing sessions with secret.  ttl is the
// lifetime of a login; secure marks cookies Secure.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{secret: secret, ttl: ttl, secure: secure}
}

// Secret is the signing key for session tokens.
func (m *Manager) Secret() string { return m.secret }

// Load builds Settings from the request cookies.  A missing, expired or
// forged session cookie simply yields an anonymous session.
func (m *Manager) Load(c echo.Context) Settings {
	s := Settings{Theme: ThemeSystem}
	if ck, err := c.Cookie(CookieTheme); err == nil {
		s.Theme = ParseTheme(ck.Value)
	}
	if ck, err := c.Cookie(CookieSession); err == nil {
		if cl, err := utils.ParseAccessToken(m.secret, ck.Value); err == nil {
			s.Authenticated = true
			s.Email = cl.Subject
			s.Role = cl.Role
		}
	}
	return s
}

// SignIn issues a session token for acc and stores it in the session
// cookie.  The token is returned for API clients.
func (m *Manager) SignIn(c echo.Context, acc model.Account) (utils.AccessToken, error) {
	tok, err := utils.NewAccessToken(m.secret, acc.Email, acc.Role, int(m.ttl/time.Minute))
	if err != nil {
		return utils.AccessToken{}, err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieSession,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return tok, nil
}

// SignOut clears the session cookie.
func (m *Manager) SignOut(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieSession,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetTheme persists the theme preference for a year.
func (m *Manager) SetTheme(c echo.Context, t Theme) {
	c.SetCookie(&http.Cookie{
		Name:     CookieTheme,
		Value:    string(ParseTheme(string(t))),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Put stores s on the request context.
func Put(c echo.Context, s Settings) { c.Set(contextKey, s) }

// From returns the Settings stored by Put, or anonymous defaults.
func From(c echo.Context) Settings {
	if s, ok := c.Get(contextKey).(Settings); ok {
		return s
	}
	return Settings{Theme: ThemeSystem}
}
