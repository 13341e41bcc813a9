package model

import (
	"math"
	"strings"
	"time"
)

// Status is the lifecycle state of an event as reported by the feed.  The
// feed is authoritative: the status is never recomputed from Date.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusPast     Status = "past"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusUpcoming, StatusLive, StatusPast}

// ParseStatus returns the status named by s and whether it is known.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusUpcoming, StatusLive, StatusPast:
		return Status(s), true
	}
	return "", false
}

// Label is the human readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusUpcoming:
		return "Upcoming"
	case StatusLive:
		return "Live"
	case StatusPast:
		return "Past"
	}
	return string(s)
}

// Category is the closed set of event kinds used for grouping and styling.
type Category string

const (
	CategoryDinner Category = "dinner"
	CategoryDrink  Category = "drink"
	CategoryRun    Category = "run"
)

// Categories lists every category in canonical order.
var Categories = []Category{CategoryDinner, CategoryDrink, CategoryRun}

// ParseCategory maps a free-text type to a category.  The match is a plain
// lowercase lookup: "Dinner" is a dinner, "Dinner Party" is not.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(s)); c {
	case CategoryDinner, CategoryDrink, CategoryRun:
		return c, true
	}
	return "", false
}

// Label is the human readable name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryDinner:
		return "Dinner"
	case CategoryDrink:
		return "Drink"
	case CategoryRun:
		return "Run"
	}
	return string(c)
}

// Country, City and Zone form the nested location of an event.  Names are
// display strings; the numeric ids are carried through but never checked
// against each other.
type Country struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type City struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name" validate:"required"`
	Country Country `json:"country"`
}

type Zone struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
	City City   `json:"city"`
}

// Event represents a single record delivered by the event feed.  Events
// are immutable once fetched.
//
// Fields:
//
//	ID       – opaque unique identifier.
//	Type     – free-text category label (see ParseCategory).
//	Date     – absolute start time of the event.
//	Zone     – nested location (zone → city → country).
//	Booked   – number of seats taken.
//	Capacity – number of seats offered; may be zero.
//	Status   – upcoming, live or past.
type Event struct {
	ID       string    `json:"id" validate:"required"`
	Type     string    `json:"type" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Zone     Zone      `json:"zone"`
	Booked   int       `json:"booked" validate:"min=0"`
	Capacity int       `json:"capacity" validate:"min=0"`
	Status   Status    `json:"status" validate:"required,oneof=upcoming live past"`
}

// Category returns the event's category and whether its type maps to one.
func (e Event) Category() (Category, bool) {
	return ParseCategory(e.Type)
}

// FillRate is booked/capacity, or 0 when the event has no capacity.
func (e Event) FillRate() float64 {
	if e.Capacity <= 0 {
		return 0
	}
	return float64(e.Booked) / float64(e.Capacity)
}

// FillPercent is the fill rate rounded to a whole percentage.
func (e Event) FillPercent() int {
	return int(math.Round(e.FillRate() * 100))
}

// FillBand classifies the fill percentage for progress bar colouring.
func (e Event) FillBand() string {
	switch p := e.FillPercent(); {
	case p >= 90:
		return "high"
	case p >= 70:
		return "medium"
	default:
		return "low"
	}
}

// Remaining is the number of free seats, never negative.
func (e Event) Remaining() int {
	if r := e.Capacity - e.Booked; r > 0 {
		return r
	}
	return 0
}

// Location is the "city, zone" string shown in the location column.
func (e Event) Location() string {
	return e.Zone.City.Name + ", " + e.Zone.Name
}
