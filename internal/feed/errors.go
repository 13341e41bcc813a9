// Package feed fetches the event feed, validates its shape and keeps the
// last good copy for a short freshness window.
package feed

import (
	"fmt"
)

// FetchError reports that the feed could not be retrieved: either the
// request failed in transit (StatusCode 0) or the server answered with a
// non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch events: unexpected status %s", e.Status)
	}
	return fmt.Sprintf("fetch events: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DataShapeError reports that the feed body is not a JSON array of
// well-formed events.  Index is the offending record, or -1 when the body
// as a whole could not be decoded.
type DataShapeError struct {
	Index int
	Err   error
}

func (e *DataShapeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decode events: %v", e.Err)
	}
	return fmt.Sprintf("decode events: record %d: %v", e.Index, e.Err)
}

func (e *DataShapeError) Unwrap() error { return e.Err }

// ParseError is the name used by callers that think of a bad body as a
// parse failure.
type ParseError = DataShapeError
