// Package flight defines the flight domain model shared by the scheduling
// core: the Flight record itself, its status and type enums, maintenance
// windows, and the validated request shape used to create or reschedule a
// flight.
package flight

import (
	"strings"
	"time"

	"github.com/mmarais/flightops/internal/interval"
)

// Status represents the lifecycle state of a flight
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusBoarding  Status = "boarding"
	StatusDeparted  Status = "departed"
	StatusInFlight  Status = "in_flight"
	StatusArrived   Status = "arrived"
	StatusCancelled Status = "cancelled"
	StatusDelayed   Status = "delayed"
	StatusDiverted  Status = "diverted"
)

// Valid reports whether s is a known status value
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusBoarding, StatusDeparted, StatusInFlight,
		StatusArrived, StatusCancelled, StatusDelayed, StatusDiverted:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
// Cancelled is the only terminal state.
func (s Status) Terminal() bool {
	return s == StatusCancelled
}

// Type categorizes the purpose of a flight
type Type string

const (
	TypeTraining    Type = "training"
	TypeCharter     Type = "charter"
	TypeMaintenance Type = "maintenance"
	TypeFerry       Type = "ferry"
	TypeTest        Type = "test"
)

// Valid reports whether t is a known flight type
func (t Type) Valid() bool {
	switch t {
	case TypeTraining, TypeCharter, TypeMaintenance, TypeFerry, TypeTest:
		return true
	}
	return false
}

// Flight is a planned flight. The schedule service owns the canonical
// collection; everything else works on copies.
type Flight struct {
	ID               string          `json:"id"`
	FlightNumber     string          `json:"flight_number"`
	AircraftID       string          `json:"aircraft_id"`
	PilotID          string          `json:"pilot_id"`
	CoPilotID        string          `json:"co_pilot_id,omitempty"`
	DepartureAirport string          `json:"departure_airport"`
	ArrivalAirport   string          `json:"arrival_airport"`
	Window           interval.Window `json:"window"` // departure to arrival
	Status           Status          `json:"status"`
	Type             Type            `json:"type"`
	Purpose          string          `json:"purpose,omitempty"`
	Passengers       int             `json:"passengers"`
	CargoKg          float64         `json:"cargo_kg"`
	FuelRequiredKg   float64         `json:"fuel_required_kg"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Active reports whether the flight participates in conflict detection.
// Cancelled flights stay in the collection for audit but are inactive.
func (f *Flight) Active() bool {
	return f.Status != StatusCancelled
}

// CrewIDs returns the distinct crew member ids assigned to the flight
func (f *Flight) CrewIDs() []string {
	ids := []string{f.PilotID}
	if f.CoPilotID != "" && f.CoPilotID != f.PilotID {
		ids = append(ids, f.CoPilotID)
	}
	return ids
}

// UsesAirport reports whether the flight departs from or arrives at the
// given airport code (case-insensitive)
func (f *Flight) UsesAirport(code string) bool {
	return strings.EqualFold(f.DepartureAirport, code) || strings.EqualFold(f.ArrivalAirport, code)
}

// Clone returns a copy of the flight safe to hand outside the service
func (f *Flight) Clone() *Flight {
	c := *f
	return &c
}

// MaintenanceRecord is a pending maintenance window for an aircraft,
// supplied read-only by the external maintenance schedule.
type MaintenanceRecord struct {
	ID          string          `json:"id"`
	AircraftID  string          `json:"aircraft_id"`
	Description string          `json:"description"`
	Window      interval.Window `json:"window"`
}

// Validate checks the maintenance record fields
func (m *MaintenanceRecord) Validate() error {
	if m.AircraftID == "" {
		return &ValidationError{Field: "aircraft_id", Message: "aircraft id is required"}
	}
	if err := m.Window.Validate(); err != nil {
		return &ValidationError{Field: "window", Message: err.Error()}
	}
	return nil
}

// Request is the external mutation shape for creating or rescheduling a
// flight. Validation errors come back as *ValidationError, never panics.
type Request struct {
	ID               string    `json:"id,omitempty"` // optional caller-supplied identity; generated when empty
	FlightNumber     string    `json:"flight_number"`
	AircraftID       string    `json:"aircraft_id"`
	PilotID          string    `json:"pilot_id"`
	CoPilotID        string    `json:"co_pilot_id,omitempty"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalTime      time.Time `json:"arrival_time"`
	Type             Type      `json:"flight_type"`
	Purpose          string    `json:"purpose,omitempty"`
	Passengers       int       `json:"passengers"`
	CargoKg          float64   `json:"cargo_kg"`
	FuelRequiredKg   float64   `json:"fuel_required_kg"`
}

// Validate checks the request and returns a field-level error for the
// first problem found
func (r *Request) Validate() error {
	if r.FlightNumber == "" {
		return &ValidationError{Field: "flight_number", Message: "flight number is required"}
	}
	if r.AircraftID == "" {
		return &ValidationError{Field: "aircraft_id", Message: "aircraft id is required"}
	}
	if r.PilotID == "" {
		return &ValidationError{Field: "pilot_id", Message: "pilot id is required"}
	}
	if r.DepartureAirport == "" {
		return &ValidationError{Field: "departure_airport", Message: "departure airport is required"}
	}
	if r.ArrivalAirport == "" {
		return &ValidationError{Field: "arrival_airport", Message: "arrival airport is required"}
	}
	w := interval.Window{Start: r.DepartureTime, End: r.ArrivalTime}
	if err := w.Validate(); err != nil {
		return &ValidationError{Field: "departure_time", Message: err.Error()}
	}
	if !r.Type.Valid() {
		return &ValidationError{Field: "flight_type", Message: "unknown flight type: " + string(r.Type)}
	}
	if r.Passengers < 0 {
		return &ValidationError{Field: "passengers", Message: "passenger count cannot be negative"}
	}
	if r.CargoKg < 0 {
		return &ValidationError{Field: "cargo_kg", Message: "cargo weight cannot be negative"}
	}
	if r.FuelRequiredKg < 0 {
		return &ValidationError{Field: "fuel_required_kg", Message: "fuel required cannot be negative"}
	}
	return nil
}

// Window returns the flight time window described by the request
func (r *Request) TimeWindow() interval.Window {
	return interval.Window{Start: r.DepartureTime, End: r.ArrivalTime}
}
