package pipeline

import (
	"math"

	"github.com/iliyamo/event-dashboard/internal/model"
)

// Stats summarises a filtered list.
type Stats struct {
	Total    int     `json:"total"`
	Upcoming int     `json:"upcoming"`
	Live     int     `json:"live"`
	Past     int     `json:"past"`
	AvgFill  float64 `json:"avg_fill"`
}

// AvgFillPercent is AvgFill as a rounded percentage.
func (s Stats) AvgFillPercent() int { return int(math.Round(s.AvgFill * 100)) }

// Aggregate counts events per status and averages their fill rate.  The
// average of an empty list is 0.
func Aggregate(events []model.Event) Stats {
	var st Stats
	var fill float64
	for _, e := range events {
		st.Total++
		switch e.Status {
		case model.StatusUpcoming:
			st.Upcoming++
		case model.StatusLive:
			st.Live++
		case model.StatusPast:
			st.Past++
		}
		fill += e.FillRate()
	}
	if st.Total > 0 {
		st.AvgFill = fill / float64(st.Total)
	}
	return st
}
