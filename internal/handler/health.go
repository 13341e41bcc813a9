package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers

	"github.com/labstack/echo/v4" // echo is the web framework used for this project

	"github.com/iliyamo/event-dashboard/internal/feed" // feed snapshot for the phase header
)

// Health is the health-check endpoint used by load balancers.  The
// process is healthy as long as it serves requests; a failing feed is
// reported in the X-Feed-Phase header but does not fail the check.
func Health(state func() feed.Snapshot) echo.HandlerFunc {
	return func(c echo.Context) error {
		if state != nil {
			c.Response().Header().Set("X-Feed-Phase", string(state().Phase))
		}
		return c.String(http.StatusOK, "ok")
	}
}
