package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator"

	"github.com/iliyamo/event-dashboard/internal/model"
)

// DefaultURL is the public feed the dashboard was built against.
const DefaultURL = "https://cdn.timeleft.com/frontend-tech-test/events.json"

// maxBodyBytes caps how much of the feed response is read.
const maxBodyBytes = 32 << 20

var validate = validator.New()

// Client performs the single GET that retrieves the whole event list.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a Client for url.  A non-positive timeout leaves the
// transport default in place.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{url: url, http: hc}
}

// URL returns the feed endpoint.
func (c *Client) URL() string { return c.url }

// FetchEvents downloads and decodes the feed.
func (c *Client) FetchEvents(ctx context.Context) ([]model.Event, error) {
	body, err := c.FetchBody(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(body)
}

// FetchBody downloads the raw feed body.  Any non-2xx answer is a
// *FetchError; the body is not inspected.
func (c *Client) FetchBody(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &FetchError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        errors.New(resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: c.url, StatusCode: resp.StatusCode, Err: err}
	}
	return body, nil
}

// Decode parses a feed body into events.  The body must be a JSON array
// and every record must carry the full zone → city → country nesting.
func Decode(body []byte) ([]model.Event, error) {
	var events []model.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, &DataShapeError{Index: -1, Err: err}
	}
	if events == nil {
		return nil, &DataShapeError{Index: -1, Err: errors.New("body is not a JSON array")}
	}
	for i := range events {
		if err := validate.Struct(events[i]); err != nil {
			log.Printf("feed: rejecting record %d (id=%q): %v", i, events[i].ID, err)
			return nil, &DataShapeError{Index: i, Err: err}
		}
	}
	return events, nil
}
