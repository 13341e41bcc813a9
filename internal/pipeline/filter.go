// Package pipeline derives what the dashboard renders from the full event
// list and a view state: filter, sort, paginate, aggregate.  Every
// function is pure and total on validated events.
package pipeline

import (
	"strings"
	"time"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// Predicate reports whether an event should be kept.
type Predicate func(model.Event) bool

// Predicates builds the active filters for s.  Calendar dates are
// interpreted in loc.
func Predicates(s viewstate.State, loc *time.Location) []Predicate {
	if loc == nil {
		loc = time.UTC
	}
	var ps []Predicate
	if s.Status != "" {
		ps = append(ps, StatusIs(s.Status))
	}
	if s.Search != "" {
		ps = append(ps, Matches(s.Search))
	}
	if !s.DateFrom.IsZero() {
		ps = append(ps, NotBefore(s.DateFrom.Start(loc)))
	}
	if !s.DateTo.IsZero() {
		ps = append(ps, NotAfter(s.DateTo.End(loc)))
	}
	if len(s.Types) > 0 {
		ps = append(ps, TypeIn(s.Types))
	}
	return ps
}

// Filter returns the events that satisfy every predicate, in input order.
func Filter(events []model.Event, ps ...Predicate) []model.Event {
	out := make([]model.Event, 0, len(events))
next:
	for _, e := range events {
		for _, p := range ps {
			if !p(e) {
				continue next
			}
		}
		out = append(out, e)
	}
	return out
}

// StatusIs keeps events with exactly status st.
func StatusIs(st model.Status) Predicate {
	return func(e model.Event) bool { return e.Status == st }
}

// Matches is a case-insensitive substring search over type, city,
// country and zone name.
func Matches(term string) Predicate {
	term = strings.ToLower(term)
	return func(e model.Event) bool {
		for _, field := range [...]string{e.Type, e.Zone.City.Name, e.Zone.City.Country.Name, e.Zone.Name} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	}
}

// NotBefore keeps events at or after t.
func NotBefore(t time.Time) Predicate {
	return func(e model.Event) bool { return !e.Date.Before(t) }
}

// NotAfter keeps events at or before t.
func NotAfter(t time.Time) Predicate {
	return func(e model.Event) bool { return !e.Date.After(t) }
}

// TypeIn keeps events whose lowercased type is one of cats.  There is no
// normalisation beyond lowercasing.
func TypeIn(cats []model.Category) Predicate {
	set := make(map[model.Category]bool, len(cats))
	for _, c := range cats {
		set[c] = true
	}
	return func(e model.Event) bool { return set[model.Category(strings.ToLower(e.Type))] }
}
