package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/interval"
)

func mkFlight(id, aircraft, pilot string, startHour, endHour float64) *flight.Flight {
	day := time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	return &flight.Flight{
		ID:         id,
		AircraftID: aircraft,
		PilotID:    pilot,
		Status:     flight.StatusScheduled,
		Window: interval.Window{
			Start: day.Add(time.Duration(startHour * float64(time.Hour))),
			End:   day.Add(time.Duration(endHour * float64(time.Hour))),
		},
	}
}

func TestAddReturnsNewPairs(t *testing.T) {
	l := New()

	pairs := l.Add(mkFlight("F1", "AC1", "P1", 8, 9.5))
	assert.Empty(t, pairs)

	pairs = l.Add(mkFlight("F2", "AC1", "P2", 9, 10))
	require.Len(t, pairs, 1)
	assert.Equal(t, DimensionAircraft, pairs[0].Dimension)
	assert.Equal(t, "AC1", pairs[0].ResourceID)
	assert.Equal(t, "F1", pairs[0].FlightA)
	assert.Equal(t, "F2", pairs[0].FlightB)
}

func TestTouchingWindowsDoNotPair(t *testing.T) {
	l := New()
	l.Add(mkFlight("F1", "AC1", "P1", 8, 9))
	pairs := l.Add(mkFlight("F2", "AC1", "P2", 9, 10))
	assert.Empty(t, pairs)
}

func TestResourcePartitioning(t *testing.T) {
	l := New()
	l.Add(mkFlight("F1", "AC1", "P1", 8, 10))
	// Same window, different aircraft and pilot: no contested resource
	pairs := l.Add(mkFlight("F2", "AC2", "P2", 8, 10))
	assert.Empty(t, pairs)
}

func TestCrewOverlapIncludesCoPilot(t *testing.T) {
	l := New()
	l.Add(mkFlight("F1", "AC1", "P1", 8, 10))

	f2 := mkFlight("F2", "AC2", "P2", 9, 11)
	f2.CoPilotID = "P1" // shares F1's pilot as co-pilot
	pairs := l.Add(f2)
	require.Len(t, pairs, 1)
	assert.Equal(t, DimensionCrew, pairs[0].Dimension)
	assert.Equal(t, "P1", pairs[0].ResourceID)
}

func TestRemoveReturnsResolvedPairs(t *testing.T) {
	l := New()
	f1 := mkFlight("F1", "AC1", "P1", 8, 10)
	f2 := mkFlight("F2", "AC1", "P2", 9, 11)
	l.Add(f1)
	l.Add(f2)

	resolved := l.Remove(f2)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Involves("F1"))
	assert.True(t, resolved[0].Involves("F2"))

	// F1 now has no overlaps
	assert.Empty(t, l.OverlapsFor(f1))
}

func TestUpdateMovesBooking(t *testing.T) {
	l := New()
	f1 := mkFlight("F1", "AC1", "P1", 8, 9.5)
	f2 := mkFlight("F2", "AC1", "P2", 14, 15.5)
	l.Add(f1)
	l.Add(f2)
	assert.Empty(t, l.AllPairs())

	moved := mkFlight("F2", "AC1", "P2", 8.5, 10)
	created, resolved := l.Update(f2, moved)
	assert.Empty(t, resolved)
	require.Len(t, created, 1)
	assert.Equal(t, "F1", created[0].FlightA)
	assert.Equal(t, "F2", created[0].FlightB)
}

func TestFindOverlapsPerResource(t *testing.T) {
	l := New()
	l.Add(mkFlight("F1", "AC1", "P1", 8, 10))
	l.Add(mkFlight("F2", "AC1", "P2", 9, 11))
	l.Add(mkFlight("F3", "AC1", "P3", 10, 12)) // touches F1, overlaps F2

	pairs := l.FindOverlaps(DimensionAircraft, "AC1")
	require.Len(t, pairs, 2)
	assert.Empty(t, l.FindOverlaps(DimensionAircraft, "AC9"))
}

func TestMaintenance(t *testing.T) {
	l := New()
	f := mkFlight("F1", "AC1", "P1", 8, 10)
	l.Add(f)

	rec := flight.MaintenanceRecord{
		ID:         "M1",
		AircraftID: "AC1",
		Window:     mkFlight("x", "", "", 9, 12).Window,
	}
	affected := l.AddMaintenance(rec)
	assert.Equal(t, []string{"F1"}, affected)

	hits := l.MaintenanceHits(f)
	require.Len(t, hits, 1)
	assert.Equal(t, "M1", hits[0].ID)

	// Different aircraft is untouched
	other := mkFlight("F2", "AC2", "P2", 8, 10)
	l.Add(other)
	assert.Empty(t, l.MaintenanceHits(other))
}

func TestRebuild(t *testing.T) {
	l := New()
	f1 := mkFlight("F1", "AC1", "P1", 8, 10)
	f2 := mkFlight("F2", "AC1", "P2", 9, 11)
	cancelled := mkFlight("F3", "AC1", "P3", 9, 11)
	cancelled.Status = flight.StatusCancelled

	l.Rebuild([]*flight.Flight{f1, f2, cancelled}, nil)
	assert.True(t, l.Has(f1))
	assert.False(t, l.Has(cancelled))
	assert.Len(t, l.AllPairs(), 1)
}
