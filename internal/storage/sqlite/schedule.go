// Package sqlite persists the schedule (flights and conflicts) in a SQLite
// database so the service survives restarts. The schedule service remains
// the source of truth at runtime; this layer only records committed state.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mmarais/flightops/internal/conflict"
	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/interval"
	"github.com/mmarais/flightops/pkg/logger"
)

// ScheduleStorage is a SQLite-based storage for flights and conflicts
type ScheduleStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewScheduleStorage opens (creating if needed) the schedule database
func NewScheduleStorage(dbPath string, log *logger.Logger) (*ScheduleStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	storage := &ScheduleStorage{
		db:     db,
		logger: storageLogger,
	}

	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// Close closes the database connection
func (s *ScheduleStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetDB returns the database connection
func (s *ScheduleStorage) GetDB() *sql.DB {
	return s.db
}

// initDB initializes the database schema
func (s *ScheduleStorage) initDB() error {
	s.logger.Info("Initializing database schema")

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			id TEXT PRIMARY KEY,
			flight_number TEXT NOT NULL,
			aircraft_id TEXT NOT NULL,
			pilot_id TEXT NOT NULL,
			co_pilot_id TEXT,
			departure_airport TEXT NOT NULL,
			arrival_airport TEXT NOT NULL,
			departure_time TIMESTAMP NOT NULL,
			arrival_time TIMESTAMP NOT NULL,
			status TEXT NOT NULL,
			flight_type TEXT NOT NULL,
			purpose TEXT,
			passengers INTEGER NOT NULL DEFAULT 0,
			cargo_kg REAL NOT NULL DEFAULT 0,
			fuel_required_kg REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flights table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_flights_aircraft ON flights(aircraft_id)`)
	if err != nil {
		return fmt.Errorf("failed to create aircraft index: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_flights_departure ON flights(departure_time)`)
	if err != nil {
		return fmt.Errorf("failed to create departure index: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conflicts (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			description TEXT NOT NULL,
			flight_ids TEXT NOT NULL,
			source_id TEXT,
			resolution TEXT,
			status TEXT NOT NULL,
			note TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create conflicts table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_conflicts_status ON conflicts(status)`)
	if err != nil {
		return fmt.Errorf("failed to create conflict status index: %w", err)
	}

	return nil
}

// SaveFlight inserts or replaces a flight record
func (s *ScheduleStorage) SaveFlight(f *flight.Flight) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO flights
		(id, flight_number, aircraft_id, pilot_id, co_pilot_id, departure_airport, arrival_airport,
		 departure_time, arrival_time, status, flight_type, purpose, passengers, cargo_kg, fuel_required_kg,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.FlightNumber,
		f.AircraftID,
		f.PilotID,
		f.CoPilotID,
		f.DepartureAirport,
		f.ArrivalAirport,
		f.Window.Start.Format(time.RFC3339),
		f.Window.End.Format(time.RFC3339),
		string(f.Status),
		string(f.Type),
		f.Purpose,
		f.Passengers,
		f.CargoKg,
		f.FuelRequiredKg,
		f.CreatedAt.Format(time.RFC3339),
		f.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save flight: %w", err)
	}
	return nil
}

// LoadFlights returns every stored flight
func (s *ScheduleStorage) LoadFlights() ([]*flight.Flight, error) {
	rows, err := s.db.Query(
		`SELECT id, flight_number, aircraft_id, pilot_id, co_pilot_id, departure_airport, arrival_airport,
		 departure_time, arrival_time, status, flight_type, purpose, passengers, cargo_kg, fuel_required_kg,
		 created_at, updated_at
		FROM flights
		ORDER BY departure_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var flights []*flight.Flight
	for rows.Next() {
		var f flight.Flight
		var coPilot, purpose sql.NullString
		var depTime, arrTime, createdAt, updatedAt string
		var status, ftype string

		if err := rows.Scan(
			&f.ID,
			&f.FlightNumber,
			&f.AircraftID,
			&f.PilotID,
			&coPilot,
			&f.DepartureAirport,
			&f.ArrivalAirport,
			&depTime,
			&arrTime,
			&status,
			&ftype,
			&purpose,
			&f.Passengers,
			&f.CargoKg,
			&f.FuelRequiredKg,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}

		f.Status = flight.Status(status)
		f.Type = flight.Type(ftype)
		if coPilot.Valid {
			f.CoPilotID = coPilot.String
		}
		if purpose.Valid {
			f.Purpose = purpose.String
		}

		var window interval.Window
		if window.Start, err = time.Parse(time.RFC3339, depTime); err != nil {
			return nil, fmt.Errorf("failed to parse departure_time: %w", err)
		}
		if window.End, err = time.Parse(time.RFC3339, arrTime); err != nil {
			return nil, fmt.Errorf("failed to parse arrival_time: %w", err)
		}
		f.Window = window
		if f.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if f.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		flights = append(flights, &f)
	}

	return flights, rows.Err()
}

// SaveConflict inserts or replaces a conflict record
func (s *ScheduleStorage) SaveConflict(c *conflict.Conflict) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO conflicts
		(id, type, severity, description, flight_ids, source_id, resolution, status, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		string(c.Type),
		string(c.Severity),
		c.Description,
		strings.Join(c.FlightIDs, ","),
		c.SourceID,
		c.Resolution,
		string(c.Status),
		c.Note,
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save conflict: %w", err)
	}
	return nil
}

// LoadConflicts returns every stored conflict
func (s *ScheduleStorage) LoadConflicts() ([]*conflict.Conflict, error) {
	rows, err := s.db.Query(
		`SELECT id, type, severity, description, flight_ids, source_id, resolution, status, note, created_at, updated_at
		FROM conflicts
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*conflict.Conflict
	for rows.Next() {
		var c conflict.Conflict
		var ctype, severity, status string
		var flightIDs string
		var sourceID, resolution, note sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(
			&c.ID,
			&ctype,
			&severity,
			&c.Description,
			&flightIDs,
			&sourceID,
			&resolution,
			&status,
			&note,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}

		c.Type = conflict.Type(ctype)
		c.Severity = conflict.Severity(severity)
		c.Status = conflict.Status(status)
		if flightIDs != "" {
			c.FlightIDs = strings.Split(flightIDs, ",")
		}
		if sourceID.Valid {
			c.SourceID = sourceID.String
		}
		if resolution.Valid {
			c.Resolution = resolution.String
		}
		if note.Valid {
			c.Note = note.String
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}

		conflicts = append(conflicts, &c)
	}

	return conflicts, rows.Err()
}
