package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/event-dashboard/internal/viewstate"
)

// Dashboard is the YAML side of the configuration:
//
//	timezone: Europe/Paris
//	saved_views:
//	  live-now:
//	    status: live
//	    sort: capacity
//	    order: desc
//	  this-week-runs:
//	    types: [run]
//	    dateFrom: 2025-03-10
//	    dateTo: 2025-03-16
type Dashboard struct {
	Timezone   string                     `yaml:"timezone"`
	SavedViews map[string]viewstate.State `yaml:"saved_views"`
}

var viewName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// LoadDashboard reads and validates the YAML file at path.  An empty path
// yields the zero Dashboard.
func LoadDashboard(path string) (Dashboard, error) {
	var d Dashboard
	if path == "" {
		return d, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseDashboard(raw)
}

// ParseDashboard decodes YAML bytes.  Saved views are normalized the same
// way a query string is, so they can never name an invalid state.
func ParseDashboard(raw []byte) (Dashboard, error) {
	var d Dashboard
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Dashboard{}, fmt.Errorf("parse dashboard config: %w", err)
	}
	for name, v := range d.SavedViews {
		if !viewName.MatchString(name) {
			return Dashboard{}, fmt.Errorf("saved view %q: name must match %s", name, viewName)
		}
		d.SavedViews[name] = v.Normalize()
	}
	if _, err := d.Location(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Location resolves Timezone, defaulting to UTC.
func (d Dashboard) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// ErrUnknownView is returned by View for names not in the file.
var ErrUnknownView = errors.New("unknown saved view")

// View returns the saved view called name.
func (d Dashboard) View(name string) (viewstate.State, error) {
	v, ok := d.SavedViews[name]
	if !ok {
		return viewstate.State{}, ErrUnknownView
	}
	return v, nil
}

// ViewNames lists saved views alphabetically.
func (d Dashboard) ViewNames() []string {
	names := make([]string, 0, len(d.SavedViews))
	for n := range d.SavedViews {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
