// Package export renders event lists in formats other tools can import.
package export

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/iliyamo/event-dashboard/internal/model"
	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// ProductID identifies the generator in exported calendars.
const ProductID = "-//timeleft//event-dashboard//EN"

// eventsPath is where the dashboard is mounted.
const eventsPath = "/events"

// DefaultDuration is the length given to exported events; the feed only
// carries a start time.
const DefaultDuration = 2 * time.Hour

// Calendar builds an iCalendar document with one VEVENT per event, in the
// given order.  stamp is the DTSTAMP of every entry; baseURL, when set,
// links each entry to its detail view.
func Calendar(events []model.Event, stamp time.Time, baseURL string) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName("Events")

	for _, e := range events {
		ve := cal.AddEvent(e.ID + "@event-dashboard")
		ve.SetDtStampTime(stamp.UTC())
		ve.SetStartAt(e.Date.UTC())
		ve.SetEndAt(e.Date.Add(DefaultDuration).UTC())
		ve.SetSummary(Summary(e))
		ve.SetLocation(fmt.Sprintf("%s, %s, %s", e.Zone.Name, e.Zone.City.Name, e.Zone.City.Country.Name))
		ve.SetDescription(Description(e))
		if cat, ok := e.Category(); ok {
			ve.AddProperty(ical.ComponentPropertyCategories, cat.Label())
		}
		ve.AddProperty(ical.ComponentPropertyStatus, icsStatus(e.Status))
		if baseURL != "" {
			ve.SetURL(DetailURL(baseURL, e.ID))
		}
	}
	return cal.Serialize()
}

// DetailURL is the absolute link to the dashboard with the detail panel of
// id open.
func DetailURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + viewstate.Default().WithSelected(id).URL(eventsPath)
}

// Summary is the calendar title of an event, e.g. "Dinner in Paris".
func Summary(e model.Event) string {
	label := e.Type
	if cat, ok := e.Category(); ok {
		label = cat.Label()
	}
	return label + " in " + e.Zone.City.Name
}

// Description lists booking figures.
func Description(e model.Event) string {
	if e.Remaining() == 0 {
		return fmt.Sprintf("%s. %d/%d booked, fully booked.", e.Status.Label(), e.Booked, e.Capacity)
	}
	return fmt.Sprintf("%s. %d/%d booked (%d%%), %d spots left.", e.Status.Label(), e.Booked, e.Capacity, e.FillPercent(), e.Remaining())
}

func icsStatus(s model.Status) string {
	if s == model.StatusPast {
		return "COMPLETED"
	}
	return "CONFIRMED"
}
