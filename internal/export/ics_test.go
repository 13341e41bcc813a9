package export

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-dashboard/internal/model"
)

func sample() []model.Event {
	paris := model.Zone{Name: "Le Marais", City: model.City{Name: "Paris", Country: model.Country{Name: "France"}}}
	berlin := model.Zone{Name: "Kreuzberg", City: model.City{Name: "Berlin", Country: model.Country{Name: "Germany"}}}
	return []model.Event{
		{ID: "evt-1", Type: "Dinner", Date: time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC), Zone: paris, Booked: 5, Capacity: 6, Status: model.StatusUpcoming},
		{ID: "evt-2", Type: "Dinner Party", Date: time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC), Zone: berlin, Booked: 12, Capacity: 12, Status: model.StatusPast},
	}
}

func prop(ve *ical.VEvent, p ical.ComponentProperty) string {
	if v := ve.GetProperty(p); v != nil {
		return v.Value
	}
	return ""
}

// text drops iCalendar escaping so assertions do not depend on whether the
// parser unescapes TEXT values.
func text(s string) string { return strings.ReplaceAll(s, `\`, "") }

func TestDetailURL(t *testing.T) {
	cases := []struct {
		base, id, want string
	}{
		{"https://dash.example.com/", "evt-1", "https://dash.example.com/events?event=evt-1"},
		{"https://dash.example.com", "a&b #1", "https://dash.example.com/events?event=a%26b+%231"},
		{"http://localhost:8080", "x?y=z", "http://localhost:8080/events?event=x%3Fy%3Dz"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DetailURL(tc.base, tc.id), tc.id)
	}
}

func TestCalendarRoundTrip(t *testing.T) {
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := Calendar(sample(), stamp, "https://dash.example.com/")

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:"+ProductID)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "evt-1@event-dashboard", prop(first, ical.ComponentPropertyUniqueId))
	assert.Equal(t, "Dinner in Paris", prop(first, ical.ComponentPropertySummary))
	assert.Equal(t, "Le Marais, Paris, France", text(prop(first, ical.ComponentPropertyLocation)))
	assert.Equal(t, "20250314T193000Z", prop(first, ical.ComponentPropertyDtStart))
	assert.Equal(t, "20250314T213000Z", prop(first, ical.ComponentPropertyDtEnd))
	assert.Equal(t, "Dinner", prop(first, ical.ComponentPropertyCategories))
	assert.Equal(t, "CONFIRMED", prop(first, ical.ComponentPropertyStatus))
	assert.Equal(t, "https://dash.example.com/events?event=evt-1", prop(first, ical.ComponentPropertyUrl))

	second := events[1]
	assert.Equal(t, "Dinner Party in Berlin", prop(second, ical.ComponentPropertySummary))
	assert.Empty(t, prop(second, ical.ComponentPropertyCategories))
	assert.Equal(t, "COMPLETED", prop(second, ical.ComponentPropertyStatus))
}

func TestCalendarEmpty(t *testing.T) {
	out := Calendar(nil, time.Now(), "")
	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Empty(t, cal.Events())
}

func TestDescription(t *testing.T) {
	ev := sample()
	assert.Equal(t, "Upcoming. 5/6 booked (83%), 1 spots left.", Description(ev[0]))
	assert.Equal(t, "Past. 12/12 booked, fully booked.", Description(ev[1]))
}
