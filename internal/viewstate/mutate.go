package viewstate

import (
	"slices"

	"github.com/iliyamo/event-dashboard/internal/model"
)

// Every method here returns a new State; the receiver is never modified.
// Filter changes reset Page in the same value, so no URL ever carries a
// stale page next to a new filter.

func (s State) resetPage() State {
	s.Page = DefaultPage
	return s
}

// WithSearch sets the free-text search.
func (s State) WithSearch(q string) State {
	s.Search = q
	return s.resetPage().Normalize()
}

// WithStatus sets the status filter; "" clears it.
func (s State) WithStatus(st model.Status) State {
	s.Status = st
	return s.resetPage().Normalize()
}

// WithDateRange sets both bounds; zero Dates clear them.
func (s State) WithDateRange(from, to Date) State {
	s.DateFrom, s.DateTo = from, to
	return s.resetPage().Normalize()
}

// WithTypes replaces the category selection.
func (s State) WithTypes(types ...model.Category) State {
	s.Types = slices.Clone(types)
	return s.resetPage().Normalize()
}

// ToggleType adds c to the selection, or removes it when present.
func (s State) ToggleType(c model.Category) State {
	if s.HasType(c) {
		next := make([]model.Category, 0, len(s.Types))
		for _, t := range s.Types {
			if t != c {
				next = append(next, t)
			}
		}
		return s.WithTypes(next...)
	}
	return s.WithTypes(append(slices.Clone(s.Types), c)...)
}

// ClearFilters drops search, status, date range and types.
func (s State) ClearFilters() State {
	s.Search = ""
	s.Status = ""
	s.DateFrom, s.DateTo = Date{}, Date{}
	s.Types = nil
	return s.resetPage().Normalize()
}

// WithPage moves to page p.  Values past the last page are kept; the
// pipeline renders them as an empty page.
func (s State) WithPage(p int) State {
	s.Page = p
	return s.Normalize()
}

// WithPerPage changes the page size and returns to the first page.
func (s State) WithPerPage(n int) State {
	s.PerPage = n
	return s.resetPage().Normalize()
}

// ToggleSort is the column header click: a new column sorts ascending,
// the current ascending column flips to descending, and the current
// descending column goes back to the default date/asc.
func (s State) ToggleSort(field string) State {
	switch {
	case field != s.Sort:
		s.Sort, s.Order = field, Asc
	case s.Order == Asc:
		s.Order = Desc
	default:
		s.Sort, s.Order = DefaultSort, DefaultOrder
	}
	return s.resetPage().Normalize()
}

// SortIndicator reports how field is currently sorted: "asc", "desc" or "".
func (s State) SortIndicator(field string) string {
	if s.Sort != field {
		return ""
	}
	return string(s.Order)
}

// WithSelected opens the detail panel for id.
func (s State) WithSelected(id string) State {
	s.SelectedID = id
	return s.Normalize()
}

// ClearSelected closes the detail panel.
func (s State) ClearSelected() State {
	s.SelectedID = ""
	return s.Normalize()
}
