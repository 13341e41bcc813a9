package pipeline

import (
	"time"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// Result is everything the presentation layer renders for one view.
type Result struct {
	State    viewstate.State
	Filtered []model.Event // filtered and sorted, before pagination
	Page     Page
	Stats    Stats
	Selected *model.Event // detail panel; nil when closed
}

// Derive runs filter → sort → paginate → aggregate.  Aggregates cover the
// whole filtered list.  The selected event is looked up in the unfiltered
// list, so a filtered-out event can still be shown.
func Derive(events []model.Event, s viewstate.State, loc *time.Location) Result {
	s = s.Normalize()
	filtered := Filter(events, Predicates(s, loc)...)
	sorted := Sort(filtered, s.Sort, s.Order)

	r := Result{
		State:    s,
		Filtered: sorted,
		Page:     Paginate(sorted, s.Page, s.PerPage),
		Stats:    Aggregate(filtered),
	}
	if e, ok := Find(events, s.SelectedID); ok {
		r.Selected = &e
	}
	return r
}

// Find returns the event with the given id.  An empty id never matches.
func Find(events []model.Event, id string) (model.Event, bool) {
	if id == "" {
		return model.Event{}, false
	}
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}
