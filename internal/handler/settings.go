package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-dashboard/internal/session"
)

// SettingsHandler saves per-browser preferences.
type SettingsHandler struct {
	Sessions *session.Manager
}

// SetTheme handles POST /settings/theme and goes back to the page the form
// was on.
func (h *SettingsHandler) SetTheme(c echo.Context) error {
	h.Sessions.SetTheme(c, session.ParseTheme(c.FormValue("theme")))
	return c.Redirect(http.StatusSeeOther, safeReturn(c.FormValue("return"), EventsPath))
}
