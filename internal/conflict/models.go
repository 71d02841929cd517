// Package conflict defines the conflict record produced by detection and
// the detector that classifies resource overlaps and hazard impacts across
// the schedule.
package conflict

import (
	"sort"
	"strings"
	"time"
)

// Type classifies a detected scheduling problem
type Type string

const (
	TypeAircraftOverlap     Type = "aircraft_overlap"
	TypeCrewOverlap         Type = "crew_overlap"
	TypeMaintenanceConflict Type = "maintenance_conflict"
	TypeWeatherImpact       Type = "weather_impact"
	TypeNotamImpact         Type = "notam_impact"
	TypeFuelConflict        Type = "fuel_conflict"
)

// Valid reports whether t is a known conflict type
func (t Type) Valid() bool {
	switch t {
	case TypeAircraftOverlap, TypeCrewOverlap, TypeMaintenanceConflict,
		TypeWeatherImpact, TypeNotamImpact, TypeFuelConflict:
		return true
	}
	return false
}

// Severity grades how serious a conflict is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the numeric ordering of the severity, higher is worse
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// AtLeast reports whether s is as severe as other
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// Valid reports whether s is a known severity value
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// MapSeverity translates a raw advisory severity/priority string to a
// conflict severity. The second return is false for unknown values, which
// default to medium and must be logged by the caller as a data-quality
// warning rather than dropped.
func MapSeverity(raw string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return SeverityLow, true
	case "medium", "moderate":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical", "urgent":
		return SeverityCritical, true
	}
	return SeverityMedium, false
}

// Status is the operator-facing lifecycle of a conflict
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
	StatusIgnored  Status = "ignored"
)

// Conflict is a detected scheduling problem. Once Resolved or Ignored it
// is never reopened: if the underlying condition recurs a new Open
// conflict is created and the old record stays for audit.
type Conflict struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	FlightIDs   []string  `json:"flight_ids"`          // ordered by departure time
	SourceID    string    `json:"source_id,omitempty"` // advisory or maintenance record behind hazard conflicts
	Resolution  string    `json:"resolution"`          // suggested resolution hint
	Status      Status    `json:"status"`
	Note        string    `json:"note,omitempty"` // set when resolved/ignored
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the deduplication identity of the conflict condition:
// type + source + affected flight set. Two detections of the same
// condition produce the same key regardless of detection order.
func (c *Conflict) Key() string {
	return MakeKey(c.Type, c.SourceID, c.FlightIDs)
}

// MakeKey builds a conflict condition key
func MakeKey(t Type, sourceID string, flightIDs []string) string {
	ids := make([]string, len(flightIDs))
	copy(ids, flightIDs)
	sort.Strings(ids)
	return string(t) + "|" + sourceID + "|" + strings.Join(ids, ",")
}

// Involves reports whether the conflict references the flight
func (c *Conflict) Involves(flightID string) bool {
	for _, id := range c.FlightIDs {
		if id == flightID {
			return true
		}
	}
	return false
}

// Clone returns a copy safe to hand outside the service
func (c *Conflict) Clone() *Conflict {
	dup := *c
	dup.FlightIDs = make([]string, len(c.FlightIDs))
	copy(dup.FlightIDs, c.FlightIDs)
	return &dup
}
