package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-dashboard/internal/config"
	"github.com/iliyamo/event-dashboard/internal/export"
	"github.com/iliyamo/event-dashboard/internal/feed"
	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/pipeline"
	"github.com/iliyamo/event-dashboard/internal/session"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// LoadFailedMessage is the only feed error text users ever see.
const LoadFailedMessage = "Failed to load events."

// EventSource is what the events handlers need from the feed store.
type EventSource interface {
	Events(ctx context.Context) ([]model.Event, error)
	Retry(ctx context.Context) ([]model.Event, error)
	State() feed.Snapshot
}

// EventsHandler serves the dashboard page, its JSON API and exports.
type EventsHandler struct {
	Source  EventSource
	Loc     *time.Location
	Views   config.Dashboard
	BaseURL string                    // absolute URL used in exported calendars
	Purge   func(ctx context.Context) // drops cached API responses; may be nil
	Now     func() time.Time
}

// NewEventsHandler returns a handler reading from src and showing dates in
// loc.
func NewEventsHandler(src EventSource, loc *time.Location, views config.Dashboard) *EventsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventsHandler{Source: src, Loc: loc, Views: views, Now: time.Now}
}

func newChrome(c echo.Context, title string) chrome {
	return chrome{
		Title:    title,
		Settings: session.From(c),
		Themes:   session.Themes,
		Return:   c.Request().URL.RequestURI(),
	}
}

// Page renders GET /events.
func (h *EventsHandler) Page(c echo.Context) error {
	s := viewstate.Decode(c.QueryParams())
	evs, err := h.Source.Events(c.Request().Context())
	if err != nil {
		return c.Render(http.StatusBadGateway, "events.html", dashboardView{
			chrome: newChrome(c, "Events"),
			State:  s,
			Error:  LoadFailedMessage,
		})
	}

	res := pipeline.Derive(evs, s, h.Loc)
	v := newDashboardView(res, h.Source.State(), h.Loc)
	v.chrome = newChrome(c, "Events")
	for _, name := range h.Views.ViewNames() {
		saved, _ := h.Views.View(name)
		v.SavedViews = append(v.SavedViews, savedView{
			Name:   name,
			URL:    EventsPath + "/views/" + name,
			Active: saved.Equal(res.State),
		})
	}
	return c.Render(http.StatusOK, "events.html", v)
}

// Retry handles the Retry button: POST /events/retry.  It refetches the
// feed and sends the browser back to the view it came from.
func (h *EventsHandler) Retry(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Source.Retry(ctx); err == nil {
		h.purge(ctx)
	}
	return c.Redirect(http.StatusSeeOther, safeReturn(c.FormValue("return"), EventsPath))
}

// SavedView redirects GET /events/views/:name to the stored view.
func (h *EventsHandler) SavedView(c echo.Context) error {
	v, err := h.Views.View(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown saved view")
	}
	return c.Redirect(http.StatusSeeOther, v.URL(EventsPath))
}

// Export serves GET /events/export.ics: every event of the current
// filtered and sorted view, unpaginated.
func (h *EventsHandler) Export(c echo.Context) error {
	evs, err := h.Source.Events(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": LoadFailedMessage})
	}
	res := pipeline.Derive(evs, viewstate.Decode(c.QueryParams()), h.Loc)
	body := export.Calendar(res.Filtered, h.Now(), h.BaseURL)

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="events.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (h *EventsHandler) purge(ctx context.Context) {
	if h.Purge == nil {
		return
	}
	h.Purge(ctx)
	log.Printf("handler: api cache purged after feed retry")
}
