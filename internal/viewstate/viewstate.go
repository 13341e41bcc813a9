// Package viewstate converts between the dashboard's typed view parameters
// and the URL query string.  Both directions are total: anything the
// decoder does not understand falls back to the default.
package viewstate

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/event-dashboard/internal/model"
)

// Query parameter names.
const (
	ParamPage     = "page"
	ParamPerPage  = "perPage"
	ParamSort     = "sort"
	ParamOrder    = "order"
	ParamStatus   = "status"
	ParamSearch   = "search"
	ParamEvent    = "event"
	ParamDateFrom = "dateFrom"
	ParamDateTo   = "dateTo"
	ParamTypes    = "types"
)

// DateLayout is the ISO calendar date format used by dateFrom and dateTo.
const DateLayout = "2006-01-02"

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sortable column ids.
const (
	SortDate     = "date"
	SortCapacity = "capacity"
	SortStatus   = "status"
	SortType     = "type"
	SortLocation = "location"
	SortID       = "id"
)

// SortFields lists the column ids accepted in the sort parameter.
var SortFields = []string{SortDate, SortCapacity, SortStatus, SortType, SortLocation, SortID}

// PageSizes is the fixed set of allowed page sizes.
var PageSizes = []int{10, 20, 50}

const (
	DefaultPage    = 1
	DefaultPerPage = 20
	DefaultSort    = SortDate
	DefaultOrder   = Asc
)

// Date is a calendar day without a time of day.  The zero Date means
// "unbounded".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// Start is 00:00:00 of the day in loc.
func (d Date) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// End is 23:59:59.999 of the day in loc, the last instant an inclusive
// upper bound admits.
func (d Date) End(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.  Malformed input
// yields the zero Date rather than an error.
func (d *Date) UnmarshalText(b []byte) error {
	*d, _ = ParseDate(string(b))
	return nil
}

// State is everything that decides what the dashboard shows.  The yaml
// tags let saved views be declared in the config file with the same
// vocabulary as the query string.
type State struct {
	Page       int              `yaml:"page,omitempty" json:"page"`
	PerPage    int              `yaml:"perPage,omitempty" json:"per_page"`
	Sort       string           `yaml:"sort,omitempty" json:"sort"`
	Order      Order            `yaml:"order,omitempty" json:"order"`
	Status     model.Status     `yaml:"status,omitempty" json:"status,omitempty"`
	Search     string           `yaml:"search,omitempty" json:"search,omitempty"`
	DateFrom   Date             `yaml:"dateFrom,omitempty" json:"date_from,omitempty"`
	DateTo     Date             `yaml:"dateTo,omitempty" json:"date_to,omitempty"`
	Types      []model.Category `yaml:"types,omitempty" json:"types,omitempty"`
	SelectedID string           `yaml:"event,omitempty" json:"event,omitempty"`
}

// Default returns the state of a bare /events URL.
func Default() State {
	return State{Page: DefaultPage, PerPage: DefaultPerPage, Sort: DefaultSort, Order: DefaultOrder}
}

// Decode reads a state from query values.  It never fails.
func Decode(q url.Values) State {
	s := State{
		Page:       positiveInt(q.Get(ParamPage), 0),
		PerPage:    positiveInt(q.Get(ParamPerPage), 0),
		Sort:       q.Get(ParamSort),
		Order:      Order(q.Get(ParamOrder)),
		Status:     model.Status(q.Get(ParamStatus)),
		Search:     q.Get(ParamSearch),
		SelectedID: q.Get(ParamEvent),
	}
	s.DateFrom, _ = ParseDate(q.Get(ParamDateFrom))
	s.DateTo, _ = ParseDate(q.Get(ParamDateTo))
	for _, raw := range q[ParamTypes] {
		for _, part := range strings.Split(raw, ",") {
			s.Types = append(s.Types, model.Category(strings.TrimSpace(part)))
		}
	}
	return s.Normalize()
}

// ParseQuery decodes a raw query string; a malformed string decodes as
// whatever url.ParseQuery salvaged.
func ParseQuery(raw string) State {
	q, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return Decode(q)
}

// Normalize replaces every invalid field with its default and puts types
// into canonical order.
func (s State) Normalize() State {
	if s.Page < 1 {
		s.Page = DefaultPage
	}
	if !slices.Contains(PageSizes, s.PerPage) {
		s.PerPage = DefaultPerPage
	}
	if !slices.Contains(SortFields, s.Sort) {
		s.Sort = DefaultSort
	}
	if s.Order != Asc && s.Order != Desc {
		s.Order = DefaultOrder
	}
	if _, ok := model.ParseStatus(string(s.Status)); !ok {
		s.Status = ""
	}
	s.Search = strings.TrimSpace(s.Search)
	s.SelectedID = strings.TrimSpace(s.SelectedID)
	s.Types = canonicalTypes(s.Types)
	return s
}

// canonicalTypes drops unknown and duplicate categories and returns the
// rest in model.Categories order.  An empty result is nil.
func canonicalTypes(in []model.Category) []model.Category {
	var out []model.Category
	for _, c := range model.Categories {
		if slices.Contains(in, c) {
			out = append(out, c)
		}
	}
	return out
}

// Encode writes the state as query values, omitting defaults.
func (s State) Encode() url.Values {
	s = s.Normalize()
	q := url.Values{}
	if s.Page != DefaultPage {
		q.Set(ParamPage, strconv.Itoa(s.Page))
	}
	if s.PerPage != DefaultPerPage {
		q.Set(ParamPerPage, strconv.Itoa(s.PerPage))
	}
	if s.Sort != DefaultSort {
		q.Set(ParamSort, s.Sort)
	}
	if s.Order != DefaultOrder {
		q.Set(ParamOrder, string(s.Order))
	}
	if s.Status != "" {
		q.Set(ParamStatus, string(s.Status))
	}
	if s.Search != "" {
		q.Set(ParamSearch, s.Search)
	}
	if s.SelectedID != "" {
		q.Set(ParamEvent, s.SelectedID)
	}
	if !s.DateFrom.IsZero() {
		q.Set(ParamDateFrom, s.DateFrom.String())
	}
	if !s.DateTo.IsZero() {
		q.Set(ParamDateTo, s.DateTo.String())
	}
	for _, c := range s.Types {
		q.Add(ParamTypes, string(c))
	}
	return q
}

// URL returns path with the encoded state as its query.
func (s State) URL(path string) string {
	q := s.Encode().Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

// Equal reports whether two states encode to the same URL.
func (s State) Equal(o State) bool {
	return s.Encode().Encode() == o.Encode().Encode()
}

// HasType reports whether c is among the selected categories.
func (s State) HasType(c model.Category) bool { return slices.Contains(s.Types, c) }

// HasFilters reports whether any filter narrows the event list.
func (s State) HasFilters() bool {
	return s.ActiveFilterCount() > 0
}

// ActiveFilterCount counts active filters; the date range counts once.
func (s State) ActiveFilterCount() int {
	n := 0
	if s.Search != "" {
		n++
	}
	if s.Status != "" {
		n++
	}
	if !s.DateFrom.IsZero() || !s.DateTo.IsZero() {
		n++
	}
	if len(s.Types) > 0 {
		n++
	}
	return n
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
