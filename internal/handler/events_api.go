package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/pipeline"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

type eventsResp struct {
	Items     []model.Event  `json:"items"`
	Page      int            `json:"page"`
	PerPage   int            `json:"per_page"`
	PageCount int            `json:"page_count"`
	Total     int            `json:"total"`
	From      int            `json:"from"`
	To        int            `json:"to"`
	Stats     pipeline.Stats `json:"stats"`
	Query     string         `json:"query"`
	Selected  *model.Event   `json:"selected"`
}

type feedResp struct {
	Phase        string     `json:"phase"`
	URL          string     `json:"url,omitempty"`
	FetchedAt    *time.Time `json:"fetched_at"`
	Count        int        `json:"count"`
	FromCache    bool       `json:"from_cache"`
	TTLSeconds   int        `json:"ttl_seconds,omitempty"`
	Error        string     `json:"error,omitempty"`
	RefreshError string     `json:"refresh_error,omitempty"` // last warm-up failed, list kept
}

// List serves GET /api/events: the derivation of the query's view state.
func (h *EventsHandler) List(c echo.Context) error {
	evs, err := h.Source.Events(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": LoadFailedMessage})
	}
	res := pipeline.Derive(evs, viewstate.Decode(c.QueryParams()), h.Loc)
	return c.JSON(http.StatusOK, eventsResp{
		Items:     res.Page.Items,
		Page:      res.Page.Number,
		PerPage:   res.Page.Size,
		PageCount: res.Page.PageCount,
		Total:     res.Page.Total,
		From:      res.Page.From,
		To:        res.Page.To,
		Stats:     res.Stats,
		Query:     res.State.Encode().Encode(),
		Selected:  res.Selected,
	})
}

// Get serves GET /api/events/:id from the unfiltered list.
func (h *EventsHandler) Get(c echo.Context) error {
	evs, err := h.Source.Events(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": LoadFailedMessage})
	}
	e, ok := pipeline.Find(evs, c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	return c.JSON(http.StatusOK, e)
}

// Feed serves GET /api/feed: the store's state without triggering a fetch.
func (h *EventsHandler) Feed(c echo.Context) error {
	return c.JSON(http.StatusOK, h.feedResp())
}

// FeedRetry serves POST /api/feed/retry.
func (h *EventsHandler) FeedRetry(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.Source.Retry(ctx); err != nil {
		return c.JSON(http.StatusBadGateway, h.feedResp())
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, h.feedResp())
}

func (h *EventsHandler) feedResp() feedResp {
	snap := h.Source.State()
	r := feedResp{
		Phase:     string(snap.Phase),
		Count:     len(snap.Events),
		FromCache: snap.FromCache,
	}
	if u, ok := h.Source.(interface{ URL() string }); ok {
		r.URL = u.URL()
	}
	if t, ok := h.Source.(interface{ TTL() time.Duration }); ok {
		r.TTLSeconds = int(t.TTL() / time.Second)
	}
	if !snap.FetchedAt.IsZero() {
		at := snap.FetchedAt.UTC()
		r.FetchedAt = &at
	}
	if snap.Err != nil {
		r.Error = LoadFailedMessage
	}
	if snap.RefreshErr != nil {
		r.RefreshError = LoadFailedMessage
	}
	return r
}
