package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmarais/flightops/internal/config"
	"github.com/mmarais/flightops/internal/conflict"
	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/hazard"
	"github.com/mmarais/flightops/internal/interval"
	"github.com/mmarais/flightops/internal/websocket"
	"github.com/mmarais/flightops/pkg/logger"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func newTestService() *Service {
	return NewService(config.ScheduleConfig{
		AlertSeverity:   "high",
		AlertBufferSize: 50,
	}, logger.NewNop(), nil, nil)
}

func request(number, aircraft, pilot string, start, end time.Time) *flight.Request {
	return &flight.Request{
		FlightNumber:     number,
		AircraftID:       aircraft,
		PilotID:          pilot,
		DepartureAirport: "FAPM",
		ArrivalAirport:   "FADN",
		DepartureTime:    start,
		ArrivalTime:      end,
		Type:             flight.TypeTraining,
	}
}

// capturingSink records broadcast messages for assertions
type capturingSink struct {
	messages []*websocket.Message
}

func (s *capturingSink) Broadcast(m *websocket.Message) {
	s.messages = append(s.messages, m)
}

func TestScheduleFlightDetectsAircraftOverlap(t *testing.T) {
	svc := newTestService()

	f1, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	assert.Equal(t, flight.StatusScheduled, f1.Status)
	assert.Empty(t, svc.OpenConflicts())

	f2, err := svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	c := open[0]
	assert.Equal(t, conflict.TypeAircraftOverlap, c.Type)
	assert.Equal(t, conflict.SeverityHigh, c.Severity)
	assert.ElementsMatch(t, []string{f1.ID, f2.ID}, c.FlightIDs)
}

func TestSequentialFlightsNoConflict(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB002", "AC001", "P001", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	assert.Empty(t, svc.OpenConflicts())
}

func TestDuplicateFlightIDRejected(t *testing.T) {
	svc := newTestService()

	req := request("PMB001", "AC001", "P001", at(8, 0), at(9, 0))
	req.ID = "fixed-id"
	_, err := svc.ScheduleFlight(req)
	require.NoError(t, err)

	dup := request("PMB002", "AC002", "P002", at(10, 0), at(11, 0))
	dup.ID = "fixed-id"
	_, err = svc.ScheduleFlight(dup)
	var verr *flight.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)
}

func TestUpdateFlightResolvesStaleConflict(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	f2, err := svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	require.Len(t, svc.OpenConflicts(), 1)

	// Move PMB003 clear of PMB001
	_, err = svc.UpdateFlight(f2.ID, request("PMB003", "AC001", "P002", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	assert.Empty(t, svc.OpenConflicts())
	resolved := svc.Conflicts(conflict.StatusResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, "condition no longer present", resolved[0].Note)
}

func TestCancelFlightAutoResolvesConflicts(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	f2, err := svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	require.Len(t, svc.OpenConflicts(), 1)

	require.NoError(t, svc.CancelFlight(f2.ID))

	assert.Empty(t, svc.OpenConflicts())
	resolved := svc.Conflicts(conflict.StatusResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, "flight cancelled", resolved[0].Note)

	got, err := svc.GetFlight(f2.ID)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusCancelled, got.Status)
}

func TestCancelledFlightIsTerminal(t *testing.T) {
	svc := newTestService()

	f, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.CancelFlight(f.ID))

	var serr *flight.StateError
	err = svc.UpdateFlightStatus(f.ID, flight.StatusBoarding)
	require.ErrorAs(t, err, &serr)

	_, err = svc.UpdateFlight(f.ID, request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.ErrorAs(t, err, &serr)
}

func TestCancelledFlightDoesNotConflict(t *testing.T) {
	svc := newTestService()

	f1, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	require.NoError(t, svc.CancelFlight(f1.ID))

	// Same aircraft, overlapping window: no conflict against a cancelled flight
	_, err = svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	assert.Empty(t, svc.OpenConflicts())
}

func TestResolvedConflictIsNotReopened(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	f2, err := svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	original := open[0]
	require.NoError(t, svc.ResolveConflict(original.ID, "ops approved the overlap"))
	assert.Empty(t, svc.OpenConflicts())

	// The same condition detected again becomes a NEW open conflict; the
	// resolved record stays untouched for audit.
	_, err = svc.UpdateFlight(f2.ID, request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	open = svc.OpenConflicts()
	require.Len(t, open, 1)
	assert.NotEqual(t, original.ID, open[0].ID)

	resolved := svc.Conflicts(conflict.StatusResolved)
	require.Len(t, resolved, 1)
	assert.Equal(t, "ops approved the overlap", resolved[0].Note)
}

func TestCloseConflictRequiresOpen(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	require.NoError(t, svc.IgnoreConflict(open[0].ID, "known overlap"))

	var serr *flight.StateError
	err = svc.ResolveConflict(open[0].ID, "again")
	require.ErrorAs(t, err, &serr)

	var nerr *flight.NotFoundError
	err = svc.ResolveConflict("no-such-conflict", "")
	require.ErrorAs(t, err, &nerr)
}

func TestApplyNOTAMIsIdempotent(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.NoError(t, err)

	notam := &hazard.NOTAMAlert{
		ID:          "notam-1",
		NotamNumber: "A0042/25",
		Type:        "runway_closure",
		Airports:    []string{"FAPM"},
		Priority:    "high",
		Window:      interval.Window{Start: at(7, 0), End: at(12, 0)},
	}
	require.NoError(t, svc.ApplyNOTAM(notam))
	require.Len(t, svc.OpenConflicts(), 1)

	// Re-applying the same advisory must not duplicate the conflict
	require.NoError(t, svc.ApplyNOTAM(notam))
	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	assert.Equal(t, conflict.TypeNotamImpact, open[0].Type)
	assert.Equal(t, "notam-1", open[0].SourceID)
}

func TestUpdatedAdvisoryResolvesStaleConflicts(t *testing.T) {
	svc := newTestService()

	f1, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.NoError(t, err)
	f2, err := svc.ScheduleFlight(request("PMB002", "AC002", "P002", at(10, 0), at(11, 0)))
	require.NoError(t, err)

	alert := &hazard.WeatherAlert{
		ID:        "wx-1",
		Type:      "thunderstorm",
		Severity:  "high",
		FlightIDs: []string{f1.ID, f2.ID},
		Window:    interval.Window{Start: at(7, 0), End: at(12, 0)},
	}
	require.NoError(t, svc.ApplyWeatherAlert(alert))
	require.Len(t, svc.OpenConflicts(), 2)

	// Advisory narrows to one flight; the other's conflict auto-resolves
	alert.FlightIDs = []string{f1.ID}
	require.NoError(t, svc.ApplyWeatherAlert(alert))

	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	assert.Equal(t, []string{f1.ID}, open[0].FlightIDs)
	assert.Len(t, svc.Conflicts(conflict.StatusResolved), 1)
}

func TestApplyMaintenanceFlagsBookedFlights(t *testing.T) {
	svc := newTestService()

	f, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(10, 0)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB002", "AC002", "P002", at(8, 0), at(10, 0)))
	require.NoError(t, err)

	rec := flight.MaintenanceRecord{
		ID:          "mx-1",
		AircraftID:  "AC001",
		Description: "100-hour inspection",
		Window:      interval.Window{Start: at(9, 0), End: at(12, 0)},
	}
	require.NoError(t, svc.ApplyMaintenance(rec))

	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	assert.Equal(t, conflict.TypeMaintenanceConflict, open[0].Type)
	assert.Equal(t, []string{f.ID}, open[0].FlightIDs)

	// A new flight booked into the window is caught on schedule
	_, err = svc.ScheduleFlight(request("PMB003", "AC001", "P003", at(11, 0), at(11, 30)))
	require.NoError(t, err)
	assert.Len(t, svc.OpenConflicts(), 2)
}

func TestGetScheduleFilters(t *testing.T) {
	svc := newTestService()

	f1, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB002", "AC002", "P002", at(10, 0), at(11, 0)))
	require.NoError(t, err)
	f3, err := svc.ScheduleFlight(request("ZU-TST", "AC003", "P003", at(14, 0), at(15, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.CancelFlight(f3.ID))

	all := svc.GetSchedule(Filters{})
	assert.Len(t, all.Flights, 3)
	// Sorted by departure time
	assert.Equal(t, "PMB001", all.Flights[0].FlightNumber)
	assert.Equal(t, "ZU-TST", all.Flights[2].FlightNumber)

	byStatus := svc.GetSchedule(Filters{Status: flight.StatusCancelled})
	require.Len(t, byStatus.Flights, 1)
	assert.Equal(t, f3.ID, byStatus.Flights[0].ID)

	bySearch := svc.GetSchedule(Filters{Search: "pmb001"})
	require.Len(t, bySearch.Flights, 1)
	assert.Equal(t, f1.ID, bySearch.Flights[0].ID)

	from, to := at(9, 30), at(12, 0)
	byWindow := svc.GetSchedule(Filters{From: &from, To: &to})
	require.Len(t, byWindow.Flights, 1)
	assert.Equal(t, "PMB002", byWindow.Flights[0].FlightNumber)
}

func TestGetScheduleIncludesTouchingConflicts(t *testing.T) {
	svc := newTestService()

	f1, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	view := svc.GetSchedule(Filters{Search: "PMB001"})
	require.Len(t, view.Flights, 1)
	require.Len(t, view.Conflicts, 1)
	assert.True(t, view.Conflicts[0].Involves(f1.ID))
}

func TestAlertStream(t *testing.T) {
	sink := &capturingSink{}
	svc := NewService(config.ScheduleConfig{
		AlertSeverity:   "high",
		AlertBufferSize: 50,
	}, logger.NewNop(), sink, nil)

	// Crew overlap is medium severity: below the alert threshold
	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB002", "AC002", "P001", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	assert.Empty(t, svc.Alerts())

	// Aircraft overlap is high severity: alerted
	_, err = svc.ScheduleFlight(request("PMB003", "AC002", "P003", at(9, 15), at(10, 30)))
	require.NoError(t, err)

	alerts := svc.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, conflict.TypeAircraftOverlap, alerts[0].Conflict.Type)

	var alertMessages int
	for _, m := range sink.messages {
		if m.Type == websocket.MessageTypeConflictAlert {
			alertMessages++
		}
	}
	assert.Equal(t, 1, alertMessages)
}

func TestBroadcastsFlightAndConflictEvents(t *testing.T) {
	sink := &capturingSink{}
	svc := NewService(config.ScheduleConfig{AlertSeverity: "high"}, logger.NewNop(), sink, nil)

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)

	counts := map[string]int{}
	for _, m := range sink.messages {
		counts[m.Type]++
	}
	assert.Equal(t, 2, counts[websocket.MessageTypeFlightUpdate])
	assert.Equal(t, 1, counts[websocket.MessageTypeConflictUpdate])
	assert.Equal(t, 1, counts[websocket.MessageTypeConflictAlert])
}

func TestIncrementalMatchesFullDetection(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	f2, err := svc.ScheduleFlight(request("PMB003", "AC001", "P001", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB005", "AC002", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	_, err = svc.UpdateFlight(f2.ID, request("PMB003", "AC002", "P001", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.ApplyMaintenance(flight.MaintenanceRecord{
		ID:         "mx-1",
		AircraftID: "AC001",
		Window:     interval.Window{Start: at(9, 0), End: at(11, 0)},
	}))

	fullKeys := make(map[string]bool)
	for _, c := range svc.Detect() {
		fullKeys[c.Key()] = true
	}
	openKeys := make(map[string]bool)
	for _, c := range svc.OpenConflicts() {
		openKeys[c.Key()] = true
	}
	assert.Equal(t, fullKeys, openKeys)
}

func TestResolutionHintNamesLaterFlight(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	_, err = svc.ScheduleFlight(request("PMB003", "AC001", "P002", at(8, 30), at(10, 0)))
	require.NoError(t, err)

	open := svc.OpenConflicts()
	require.Len(t, open, 1)
	assert.Contains(t, open[0].Resolution, "Reschedule PMB003")
}

func TestPruneExpiredAdvisories(t *testing.T) {
	svc := newTestService()

	_, err := svc.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 0)))
	require.NoError(t, err)
	require.NoError(t, svc.ApplyNOTAM(&hazard.NOTAMAlert{
		ID:          "notam-1",
		NotamNumber: "A0042/25",
		Type:        "runway_closure",
		Airports:    []string{"FAPM"},
		Priority:    "low",
		Window:      interval.Window{Start: at(7, 0), End: at(12, 0)},
	}))

	svc.pruneExpired(at(13, 0))

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Empty(t, svc.notams)
}

// fakeStorage is an in-memory Storage for restore tests
type fakeStorage struct {
	flights   map[string]*flight.Flight
	conflicts map[string]*conflict.Conflict
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		flights:   make(map[string]*flight.Flight),
		conflicts: make(map[string]*conflict.Conflict),
	}
}

func (s *fakeStorage) SaveFlight(f *flight.Flight) error {
	s.flights[f.ID] = f.Clone()
	return nil
}

func (s *fakeStorage) SaveConflict(c *conflict.Conflict) error {
	s.conflicts[c.ID] = c.Clone()
	return nil
}

func (s *fakeStorage) LoadFlights() ([]*flight.Flight, error) {
	out := make([]*flight.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		out = append(out, f.Clone())
	}
	return out, nil
}

func (s *fakeStorage) LoadConflicts() ([]*conflict.Conflict, error) {
	out := make([]*conflict.Conflict, 0, len(s.conflicts))
	for _, c := range s.conflicts {
		out = append(out, c.Clone())
	}
	return out, nil
}

func TestRestoreFromStorage(t *testing.T) {
	store := newFakeStorage()

	first := NewService(config.ScheduleConfig{AlertSeverity: "high"}, logger.NewNop(), nil, store)
	f1, err := first.ScheduleFlight(request("PMB001", "AC001", "P001", at(8, 0), at(9, 30)))
	require.NoError(t, err)
	_, err = first.ScheduleFlight(request("PMB003", "AC001", "P002", at(9, 0), at(10, 0)))
	require.NoError(t, err)
	require.Len(t, first.OpenConflicts(), 1)

	second := NewService(config.ScheduleConfig{AlertSeverity: "high"}, logger.NewNop(), nil, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, second.Start(ctx))
	defer second.Stop()

	view := second.GetSchedule(Filters{})
	assert.Len(t, view.Flights, 2)
	require.Len(t, second.OpenConflicts(), 1)

	// The restored ledger keeps incremental detection consistent: cancelling
	// one flight resolves the restored conflict.
	require.NoError(t, second.CancelFlight(f1.ID))
	assert.Empty(t, second.OpenConflicts())
}
