package handler

import (
	"strconv"
	"time"

	"github.com/iliyamo/event-dashboard/internal/feed"
	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/pipeline"
	"github.com/iliyamo/event-dashboard/internal/session"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// EventsPath is where the dashboard lives.  Every link the page emits is
// this path plus an encoded view state.
const EventsPath = "/events"

// DateTimeLayout is how event dates are shown in the table.
const DateTimeLayout = "Mon 2 Jan 2006, 15:04"

// chrome is the data every page layout needs.
type chrome struct {
	Title    string
	Settings session.Settings
	Themes   []session.Theme
	Return   string // current URL, for forms that redirect back
}

type column struct {
	ID, Label string
	URL       string
	Indicator string // "asc", "desc" or ""
}

var columns = []struct{ id, label string }{
	{viewstate.SortType, "Type"},
	{viewstate.SortDate, "Date"},
	{viewstate.SortLocation, "Location"},
	{viewstate.SortCapacity, "Booked"},
	{viewstate.SortStatus, "Status"},
}

type option struct {
	Value, Label string
	Selected     bool
	URL          string
}

type row struct {
	Event    model.Event
	Category string // "" for uncategorised types
	Date     string
	URL      string
	Selected bool
}

type pager struct {
	Number, PageCount int
	From, To, Total   int
	FirstURL, PrevURL string
	NextURL, LastURL  string
	Sizes             []option
}

type detail struct {
	Event    model.Event
	Category string
	Date     string
	CloseURL string
}

type savedView struct {
	Name, URL string
	Active    bool
}

// dashboardView is the template data of the events page.
type dashboardView struct {
	chrome
	State        viewstate.State
	Error        string
	Stats        pipeline.Stats
	Columns      []column
	Rows         []row
	Pager        pager
	Statuses     []option
	Types        []option
	ActiveCount  int
	ClearURL     string
	ExportURL    string
	Detail       *detail
	Feed         feedInfo
	SavedViews   []savedView
	EmptyMessage string
}

type feedInfo struct {
	FetchedAt string
	FromCache bool
}

func categoryClass(e model.Event) string {
	if c, ok := e.Category(); ok {
		return string(c)
	}
	return ""
}

func newDashboardView(res pipeline.Result, snap feed.Snapshot, loc *time.Location) dashboardView {
	s := res.State
	v := dashboardView{
		State:       s,
		Stats:       res.Stats,
		ActiveCount: s.ActiveFilterCount(),
		ClearURL:    s.ClearFilters().URL(EventsPath),
		ExportURL:   s.ClearSelected().WithPage(1).URL(EventsPath + "/export.ics"),
	}
	for _, c := range columns {
		v.Columns = append(v.Columns, column{
			ID:        c.id,
			Label:     c.label,
			URL:       s.ToggleSort(c.id).URL(EventsPath),
			Indicator: s.SortIndicator(c.id),
		})
	}
	v.Statuses = append(v.Statuses, option{Value: "", Label: "All statuses", Selected: s.Status == ""})
	for _, st := range model.Statuses {
		v.Statuses = append(v.Statuses, option{Value: string(st), Label: st.Label(), Selected: s.Status == st})
	}
	for _, c := range model.Categories {
		v.Types = append(v.Types, option{Value: string(c), Label: c.Label(), Selected: s.HasType(c), URL: s.ToggleType(c).URL(EventsPath)})
	}
	for _, e := range res.Page.Items {
		v.Rows = append(v.Rows, row{
			Event:    e,
			Category: categoryClass(e),
			Date:     e.Date.In(loc).Format(DateTimeLayout),
			URL:      s.WithSelected(e.ID).URL(EventsPath),
			Selected: e.ID == s.SelectedID,
		})
	}
	v.Pager = newPager(res.Page, s)
	if res.Selected != nil {
		e := *res.Selected
		v.Detail = &detail{
			Event:    e,
			Category: categoryClass(e),
			Date:     e.Date.In(loc).Format(DateTimeLayout),
			CloseURL: s.ClearSelected().URL(EventsPath),
		}
	}
	if !snap.FetchedAt.IsZero() {
		v.Feed = feedInfo{FetchedAt: snap.FetchedAt.In(loc).Format("15:04:05"), FromCache: snap.FromCache}
	}
	switch {
	case res.Stats.Total == 0 && s.HasFilters():
		v.EmptyMessage = "No events match the current filters."
	case res.Stats.Total == 0:
		v.EmptyMessage = "No events yet."
	case len(res.Page.Items) == 0:
		v.EmptyMessage = "Page " + strconv.Itoa(s.Page) + " is past the end of the list."
	}
	return v
}

func newPager(p pipeline.Page, s viewstate.State) pager {
	pg := pager{
		Number:    p.Number,
		PageCount: p.PageCount,
		From:      p.From,
		To:        p.To,
		Total:     p.Total,
	}
	if p.HasPrev() {
		pg.FirstURL = s.WithPage(1).URL(EventsPath)
		pg.PrevURL = s.WithPage(min(p.Number-1, p.PageCount)).URL(EventsPath)
	}
	if p.HasNext() {
		pg.NextURL = s.WithPage(p.Number + 1).URL(EventsPath)
		pg.LastURL = s.WithPage(p.PageCount).URL(EventsPath)
	}
	for _, n := range viewstate.PageSizes {
		pg.Sizes = append(pg.Sizes, option{
			Value:    strconv.Itoa(n),
			Label:    strconv.Itoa(n),
			Selected: n == s.PerPage,
			URL:      s.WithPerPage(n).URL(EventsPath),
		})
	}
	return pg
}
