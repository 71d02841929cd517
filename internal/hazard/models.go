// Package hazard models externally sourced, time-bounded hazard advisories
// (weather alerts and NOTAMs) and matches them against the active flight
// set. Advisories are read-only to the core and expire naturally once their
// validity window passes.
package hazard

import (
	"time"

	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/interval"
)

// WeatherAlert is a weather advisory from the external feed. It targets
// flights either directly by id or by a region expressed as a set of
// airport codes.
type WeatherAlert struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // e.g. "thunderstorm", "icing", "wind_shear"
	Severity    string          `json:"severity"`
	Description string          `json:"description,omitempty"`
	FlightIDs   []string        `json:"flight_ids,omitempty"` // directly affected flights
	Airports    []string        `json:"airports,omitempty"`   // region, used when no flight ids are listed
	Window      interval.Window `json:"window"`               // valid_from .. valid_to
}

// Validate checks the advisory shape
func (a *WeatherAlert) Validate() error {
	if a.Type == "" {
		return &flight.ValidationError{Field: "type", Message: "weather alert type is required"}
	}
	if len(a.FlightIDs) == 0 && len(a.Airports) == 0 {
		return &flight.ValidationError{Field: "flight_ids", Message: "weather alert must list affected flights or a region"}
	}
	if err := a.Window.Validate(); err != nil {
		return &flight.ValidationError{Field: "window", Message: err.Error()}
	}
	return nil
}

// Expired reports whether the advisory's validity window has passed
func (a *WeatherAlert) Expired(now time.Time) bool {
	return now.After(a.Window.End)
}

// NOTAMAlert is a published aeronautical notice with a validity window and
// a set of affected airports. Matched by airport rather than by direct
// flight reference.
type NOTAMAlert struct {
	ID          string          `json:"id"`
	NotamNumber string          `json:"notam_number"`
	Type        string          `json:"type"` // e.g. "runway_closure", "airspace_restriction"
	Description string          `json:"description,omitempty"`
	Airports    []string        `json:"airports"`
	Priority    string          `json:"priority"`
	Window      interval.Window `json:"window"`
}

// Validate checks the advisory shape
func (a *NOTAMAlert) Validate() error {
	if a.NotamNumber == "" {
		return &flight.ValidationError{Field: "notam_number", Message: "NOTAM number is required"}
	}
	if len(a.Airports) == 0 {
		return &flight.ValidationError{Field: "airports", Message: "NOTAM must list at least one affected airport"}
	}
	if err := a.Window.Validate(); err != nil {
		return &flight.ValidationError{Field: "window", Message: err.Error()}
	}
	return nil
}

// Expired reports whether the advisory's validity window has passed
func (a *NOTAMAlert) Expired(now time.Time) bool {
	return now.After(a.Window.End)
}
