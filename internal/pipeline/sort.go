package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// Comparator orders two events, returning <0, 0 or >0.
type Comparator func(a, b model.Event) int

// statusRank puts live events first, then upcoming, then past.
var statusRank = map[model.Status]int{
	model.StatusLive:     0,
	model.StatusUpcoming: 1,
	model.StatusPast:     2,
}

// Comparators is keyed by column id.  The capacity column is labelled
// "Booked" but sorts by fill rate, not by the raw booked count.
var Comparators = map[string]Comparator{
	viewstate.SortDate: func(a, b model.Event) int {
		return a.Date.Compare(b.Date)
	},
	viewstate.SortCapacity: func(a, b model.Event) int {
		return cmp.Compare(a.FillRate(), b.FillRate())
	},
	viewstate.SortStatus: func(a, b model.Event) int {
		return cmp.Compare(statusRank[a.Status], statusRank[b.Status])
	},
	viewstate.SortType: func(a, b model.Event) int {
		return strings.Compare(a.Type, b.Type)
	},
	viewstate.SortLocation: func(a, b model.Event) int {
		return strings.Compare(a.Location(), b.Location())
	},
	viewstate.SortID: func(a, b model.Event) int {
		return strings.Compare(a.ID, b.ID)
	},
}

// Sort returns a stably sorted copy of events.  desc negates the
// comparator, so equal elements keep their input order either way.  An
// unknown field leaves the order untouched.
func Sort(events []model.Event, field string, order viewstate.Order) []model.Event {
	out := slices.Clone(events)
	c, ok := Comparators[field]
	if !ok {
		return out
	}
	if order == viewstate.Desc {
		slices.SortStableFunc(out, func(a, b model.Event) int { return -c(a, b) })
	} else {
		slices.SortStableFunc(out, c)
	}
	return out
}
