// Package schedule owns the canonical flight collection and the current
// conflict set. It is the single writer over the resource ledger and the
// only entry point for mutations; reads serve from committed state.
package schedule

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmarais/flightops/internal/config"
	"github.com/mmarais/flightops/internal/conflict"
	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/hazard"
	"github.com/mmarais/flightops/internal/ledger"
	"github.com/mmarais/flightops/internal/websocket"
	"github.com/mmarais/flightops/pkg/logger"
)

// EventSink receives schedule events for streaming to clients
type EventSink interface {
	Broadcast(message *websocket.Message)
}

// Storage defines the persistence collaborator for the schedule view.
// Persistence is best-effort: failures are logged, never block a mutation.
type Storage interface {
	SaveFlight(f *flight.Flight) error
	SaveConflict(c *conflict.Conflict) error
	LoadFlights() ([]*flight.Flight, error)
	LoadConflicts() ([]*conflict.Conflict, error)
}

// Alert is one entry on the timestamped conflict alert stream
type Alert struct {
	Timestamp time.Time          `json:"timestamp"`
	Conflict  *conflict.Conflict `json:"conflict"`
}

// View is the read-only schedule projection handed to collaborators
type View struct {
	Flights   []*flight.Flight     `json:"flights"`
	Conflicts []*conflict.Conflict `json:"conflicts"`
}

// Filters narrows a GetSchedule projection
type Filters struct {
	From   *time.Time    // only flights whose window overlaps [From, To)
	To     *time.Time
	Status flight.Status // exact status match when set
	Type   flight.Type   // exact type match when set
	Search string        // case-insensitive substring over flight number, aircraft id, pilot id
}

// Service is the schedule aggregator
type Service struct {
	mu sync.RWMutex

	flights     map[string]*flight.Flight
	conflicts   map[string]*conflict.Conflict
	openKeys    map[string]string // condition key -> open conflict id
	weather     map[string]*hazard.WeatherAlert
	notams      map[string]*hazard.NOTAMAlert
	maintenance map[string]flight.MaintenanceRecord

	led      *ledger.Ledger
	detector *conflict.Detector

	alerts         []Alert
	alertCap       int
	alertThreshold conflict.Severity

	pruneInterval time.Duration

	events  EventSink
	storage Storage
	logger  *logger.Logger

	// Service lifecycle
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewService creates the schedule aggregator. events and storage may be
// nil; the core works as a pure in-memory library without them.
func NewService(cfg config.ScheduleConfig, log *logger.Logger, events EventSink, storage Storage) *Service {
	policy := conflict.DefaultPolicy()
	policy.MaxFuelKg = cfg.MaxFuelKg
	for ctype, sev := range cfg.SeverityOverrides {
		severity := conflict.Severity(sev)
		switch conflict.Type(ctype) {
		case conflict.TypeAircraftOverlap:
			policy.AircraftOverlapSeverity = severity
		case conflict.TypeCrewOverlap:
			policy.CrewOverlapSeverity = severity
		case conflict.TypeMaintenanceConflict:
			policy.MaintenanceConflictSeverity = severity
		case conflict.TypeFuelConflict:
			policy.FuelConflictSeverity = severity
		}
	}

	threshold := conflict.Severity(cfg.AlertSeverity)
	if !threshold.Valid() {
		threshold = conflict.SeverityHigh
	}
	alertCap := cfg.AlertBufferSize
	if alertCap <= 0 {
		alertCap = 200
	}
	pruneInterval := time.Duration(cfg.AdvisoryPruneIntervalMinutes) * time.Minute
	if pruneInterval <= 0 {
		pruneInterval = 15 * time.Minute
	}

	return &Service{
		flights:        make(map[string]*flight.Flight),
		conflicts:      make(map[string]*conflict.Conflict),
		openKeys:       make(map[string]string),
		weather:        make(map[string]*hazard.WeatherAlert),
		notams:         make(map[string]*hazard.NOTAMAlert),
		maintenance:    make(map[string]flight.MaintenanceRecord),
		led:            ledger.New(),
		detector:       conflict.NewDetector(policy, log),
		alertCap:       alertCap,
		alertThreshold: threshold,
		pruneInterval:  pruneInterval,
		events:         events,
		storage:        storage,
		logger:         log.Named("schedule"),
	}
}

// Start loads persisted state and begins the advisory pruning loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.storage != nil {
		if err := s.restoreLocked(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pruneLoop(ctx)
	}()

	s.started = true
	s.logger.Info("Schedule service started",
		logger.Int("flights", len(s.flights)),
		logger.Int("conflicts", len(s.conflicts)))
	return nil
}

// Stop shuts down background work
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Schedule service stopped")
}

// restoreLocked reseeds in-memory state from the storage collaborator
func (s *Service) restoreLocked() error {
	flights, err := s.storage.LoadFlights()
	if err != nil {
		return err
	}
	conflicts, err := s.storage.LoadConflicts()
	if err != nil {
		return err
	}

	for _, f := range flights {
		s.flights[f.ID] = f
	}
	for _, c := range conflicts {
		s.conflicts[c.ID] = c
		if c.Status == conflict.StatusOpen {
			s.openKeys[c.Key()] = c.ID
		}
	}
	s.rebuildLedgerLocked()
	return nil
}

// ScheduleFlight validates and stores a new flight, indexes it, and runs
// incremental conflict detection scoped to it.
func (s *Service) ScheduleFlight(req *flight.Request) (*flight.Flight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, exists := s.flights[id]; exists {
		return nil, &flight.ValidationError{Field: "id", Message: "flight id already exists: " + id}
	}

	now := time.Now().UTC()
	f := &flight.Flight{
		ID:               id,
		FlightNumber:     req.FlightNumber,
		AircraftID:       req.AircraftID,
		PilotID:          req.PilotID,
		CoPilotID:        req.CoPilotID,
		DepartureAirport: strings.ToUpper(req.DepartureAirport),
		ArrivalAirport:   strings.ToUpper(req.ArrivalAirport),
		Window:           req.TimeWindow(),
		Status:           flight.StatusScheduled,
		Type:             req.Type,
		Purpose:          req.Purpose,
		Passengers:       req.Passengers,
		CargoKg:          req.CargoKg,
		FuelRequiredKg:   req.FuelRequiredKg,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	s.flights[f.ID] = f
	s.led.Add(f)
	s.refreshConflictsForFlightLocked(f.ID)

	s.persistFlight(f)
	s.broadcastFlight(f)

	s.logger.Info("Flight scheduled",
		logger.String("flight_id", f.ID),
		logger.String("flight_number", f.FlightNumber),
		logger.String("aircraft_id", f.AircraftID))
	return f.Clone(), nil
}

// UpdateFlight reschedules or edits a flight and re-runs detection for it
func (s *Service) UpdateFlight(flightID string, req *flight.Request) (*flight.Flight, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[flightID]
	if !ok {
		return nil, &flight.NotFoundError{Kind: "flight", ID: flightID}
	}
	if f.Status.Terminal() {
		return nil, &flight.StateError{ID: flightID, Message: "cancelled flights cannot be modified"}
	}

	s.checkLedgerLocked(f)
	old := f.Clone()

	f.FlightNumber = req.FlightNumber
	f.AircraftID = req.AircraftID
	f.PilotID = req.PilotID
	f.CoPilotID = req.CoPilotID
	f.DepartureAirport = strings.ToUpper(req.DepartureAirport)
	f.ArrivalAirport = strings.ToUpper(req.ArrivalAirport)
	f.Window = req.TimeWindow()
	f.Type = req.Type
	f.Purpose = req.Purpose
	f.Passengers = req.Passengers
	f.CargoKg = req.CargoKg
	f.FuelRequiredKg = req.FuelRequiredKg
	f.UpdatedAt = time.Now().UTC()

	s.led.Update(old, f)
	s.refreshConflictsForFlightLocked(f.ID)

	s.persistFlight(f)
	s.broadcastFlight(f)

	s.logger.Info("Flight updated",
		logger.String("flight_id", f.ID),
		logger.String("flight_number", f.FlightNumber))
	return f.Clone(), nil
}

// UpdateFlightStatus applies a status transition. Cancelled is terminal:
// it removes the flight from the active index and auto-resolves the open
// conflicts it was part of, while keeping the records for audit.
func (s *Service) UpdateFlightStatus(flightID string, status flight.Status) error {
	if !status.Valid() {
		return &flight.ValidationError{Field: "status", Message: "unknown status: " + string(status)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flights[flightID]
	if !ok {
		return &flight.NotFoundError{Kind: "flight", ID: flightID}
	}
	if f.Status.Terminal() {
		return &flight.StateError{ID: flightID, Message: "flight is cancelled and cannot transition"}
	}

	if status == flight.StatusCancelled {
		s.cancelLocked(f)
	} else {
		f.Status = status
		f.UpdatedAt = time.Now().UTC()
	}

	s.persistFlight(f)
	s.broadcastFlight(f)

	s.logger.Info("Flight status updated",
		logger.String("flight_id", f.ID),
		logger.String("status", string(f.Status)))
	return nil
}

// CancelFlight is shorthand for transitioning to Cancelled
func (s *Service) CancelFlight(flightID string) error {
	return s.UpdateFlightStatus(flightID, flight.StatusCancelled)
}

// cancelLocked removes the flight from the active index and resolves the
// open conflicts that depended on it being active.
func (s *Service) cancelLocked(f *flight.Flight) {
	s.checkLedgerLocked(f)
	s.led.Remove(f)
	f.Status = flight.StatusCancelled
	f.UpdatedAt = time.Now().UTC()

	for _, c := range s.conflicts {
		if c.Status == conflict.StatusOpen && c.Involves(f.ID) {
			s.resolveLocked(c, "flight cancelled")
		}
	}
}

// ApplyWeatherAlert ingests or updates a weather advisory and merges the
// conflicts it generates against the current active flight set.
func (s *Service) ApplyWeatherAlert(a *hazard.WeatherAlert) error {
	if err := a.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.weather[a.ID] = a

	detected := s.detector.DetectForWeather(a, s.flights)
	s.mergeSourceLocked(a.ID, detected)

	s.logger.Info("Weather advisory applied",
		logger.String("advisory_id", a.ID),
		logger.String("type", a.Type),
		logger.Int("conflicts", len(detected)))
	return nil
}

// ApplyNOTAM ingests or updates a NOTAM and merges the conflicts it
// generates against the current active flight set.
func (s *Service) ApplyNOTAM(a *hazard.NOTAMAlert) error {
	if err := a.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.notams[a.ID] = a

	detected := s.detector.DetectForNOTAM(a, s.flights)
	s.mergeSourceLocked(a.ID, detected)

	s.logger.Info("NOTAM applied",
		logger.String("advisory_id", a.ID),
		logger.String("notam_number", a.NotamNumber),
		logger.Int("conflicts", len(detected)))
	return nil
}

// ApplyMaintenance ingests a maintenance window from the external
// maintenance schedule and flags flights booked during it.
func (s *Service) ApplyMaintenance(rec flight.MaintenanceRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.maintenance[rec.ID] = rec
	s.led.AddMaintenance(rec)

	detected := s.detector.DetectForMaintenance(rec, s.flights)
	s.mergeSourceLocked(rec.ID, detected)

	s.logger.Info("Maintenance window applied",
		logger.String("record_id", rec.ID),
		logger.String("aircraft_id", rec.AircraftID),
		logger.Int("conflicts", len(detected)))
	return nil
}

// ResolveConflict marks an open conflict resolved. Terminal: if the same
// condition recurs later a new conflict is created instead of reopening.
func (s *Service) ResolveConflict(conflictID, note string) error {
	return s.closeConflict(conflictID, conflict.StatusResolved, note)
}

// IgnoreConflict marks an open conflict ignored. Terminal like resolve.
func (s *Service) IgnoreConflict(conflictID, note string) error {
	return s.closeConflict(conflictID, conflict.StatusIgnored, note)
}

func (s *Service) closeConflict(conflictID string, status conflict.Status, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conflicts[conflictID]
	if !ok {
		return &flight.NotFoundError{Kind: "conflict", ID: conflictID}
	}
	if c.Status != conflict.StatusOpen {
		return &flight.StateError{ID: conflictID, Message: "conflict is already " + string(c.Status)}
	}

	c.Status = status
	c.Note = note
	c.UpdatedAt = time.Now().UTC()
	delete(s.openKeys, c.Key())

	s.persistConflict(c)
	s.broadcastConflict(c)

	s.logger.Info("Conflict closed",
		logger.String("conflict_id", c.ID),
		logger.String("status", string(status)))
	return nil
}

// GetSchedule returns the filtered read-only schedule projection:
// matching flights plus the conflicts touching them.
func (s *Service) GetSchedule(filters Filters) *View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var flights []*flight.Flight
	included := make(map[string]bool)
	for _, f := range s.flights {
		if !matchesFilters(f, filters) {
			continue
		}
		flights = append(flights, f.Clone())
		included[f.ID] = true
	}
	sort.Slice(flights, func(i, j int) bool {
		if !flights[i].Window.Start.Equal(flights[j].Window.Start) {
			return flights[i].Window.Start.Before(flights[j].Window.Start)
		}
		return flights[i].ID < flights[j].ID
	})

	var conflicts []*conflict.Conflict
	for _, c := range s.conflicts {
		for _, id := range c.FlightIDs {
			if included[id] {
				conflicts = append(conflicts, c.Clone())
				break
			}
		}
	}
	conflict.Sort(conflicts, s.flights)

	return &View{Flights: flights, Conflicts: conflicts}
}

// Snapshot returns the complete unfiltered schedule view
func (s *Service) Snapshot() *View {
	return s.GetSchedule(Filters{})
}

// GetFlight returns a single flight by id
func (s *Service) GetFlight(flightID string) (*flight.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[flightID]
	if !ok {
		return nil, &flight.NotFoundError{Kind: "flight", ID: flightID}
	}
	return f.Clone(), nil
}

// Conflicts returns all conflicts, optionally filtered by status
func (s *Service) Conflicts(status conflict.Status) []*conflict.Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*conflict.Conflict
	for _, c := range s.conflicts {
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c.Clone())
	}
	conflict.Sort(out, s.flights)
	return out
}

// OpenConflicts returns the current open conflict set
func (s *Service) OpenConflicts() []*conflict.Conflict {
	return s.Conflicts(conflict.StatusOpen)
}

// Alerts returns the recent alert stream entries, newest first
func (s *Service) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alert, len(s.alerts))
	for i, a := range s.alerts {
		out[len(s.alerts)-1-i] = Alert{Timestamp: a.Timestamp, Conflict: a.Conflict.Clone()}
	}
	return out
}

// Detect runs a full recompute over current state without mutating the
// cached conflict set. Used for cold-start verification and debugging.
func (s *Service) Detect() []*conflict.Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detector.Detect(s.inputLocked())
}

// refreshConflictsForFlightLocked re-derives the conflicts touching one
// flight and reconciles them with the cached set: stale open conflicts
// are auto-resolved, new conditions become new open conflicts, and
// conditions that already have an open conflict are left alone.
func (s *Service) refreshConflictsForFlightLocked(flightID string) {
	detected := s.detector.DetectForFlight(flightID, s.led, s.inputLocked())

	detectedKeys := make(map[string]bool, len(detected))
	for _, c := range detected {
		detectedKeys[c.Key()] = true
	}

	for _, c := range s.conflicts {
		if c.Status == conflict.StatusOpen && c.Involves(flightID) && !detectedKeys[c.Key()] {
			s.resolveLocked(c, "condition no longer present")
		}
	}

	for _, c := range detected {
		s.admitLocked(c)
	}
}

// mergeSourceLocked reconciles the conflicts generated by one advisory or
// maintenance record (identified by source id) with the cached set.
func (s *Service) mergeSourceLocked(sourceID string, detected []*conflict.Conflict) {
	detectedKeys := make(map[string]bool, len(detected))
	for _, c := range detected {
		detectedKeys[c.Key()] = true
	}

	for _, c := range s.conflicts {
		if c.Status == conflict.StatusOpen && c.SourceID == sourceID && !detectedKeys[c.Key()] {
			s.resolveLocked(c, "condition no longer present")
		}
	}

	for _, c := range detected {
		s.admitLocked(c)
	}
}

// admitLocked adds a detected conflict unless the same open condition
// already exists (deduplication by type + source + affected flight set).
func (s *Service) admitLocked(c *conflict.Conflict) {
	key := c.Key()
	if _, open := s.openKeys[key]; open {
		return
	}

	s.conflicts[c.ID] = c
	s.openKeys[key] = c.ID
	s.persistConflict(c)
	s.broadcastConflict(c)

	if c.Severity.AtLeast(s.alertThreshold) {
		s.emitAlertLocked(c)
	}
}

// resolveLocked closes an open conflict with a note (internal auto-resolve)
func (s *Service) resolveLocked(c *conflict.Conflict, note string) {
	c.Status = conflict.StatusResolved
	c.Note = note
	c.UpdatedAt = time.Now().UTC()
	delete(s.openKeys, c.Key())
	s.persistConflict(c)
	s.broadcastConflict(c)
}

// emitAlertLocked appends to the alert ring and broadcasts the event
func (s *Service) emitAlertLocked(c *conflict.Conflict) {
	alert := Alert{Timestamp: time.Now().UTC(), Conflict: c.Clone()}
	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.alertCap {
		s.alerts = s.alerts[len(s.alerts)-s.alertCap:]
	}

	if s.events != nil {
		s.events.Broadcast(&websocket.Message{
			Type: websocket.MessageTypeConflictAlert,
			Data: map[string]any{
				"timestamp": alert.Timestamp,
				"severity":  string(c.Severity),
				"conflict":  alert.Conflict,
			},
		})
	}

	s.logger.Warn("Conflict alert",
		logger.String("conflict_id", c.ID),
		logger.String("type", string(c.Type)),
		logger.String("severity", string(c.Severity)),
		logger.String("description", c.Description))
}

// checkLedgerLocked verifies the ledger agrees with the flight collection
// about one active flight. Disagreement is a programming defect; rather
// than crash the scheduling service, rebuild the index from the canonical
// collection and keep going.
func (s *Service) checkLedgerLocked(f *flight.Flight) {
	if !f.Active() || s.led.Has(f) {
		return
	}
	s.logger.Error("Ledger out of sync with flight collection, rebuilding",
		logger.String("flight_id", f.ID))
	s.rebuildLedgerLocked()
}

// rebuildLedgerLocked re-derives the ledger from the flight collection
func (s *Service) rebuildLedgerLocked() {
	flights := make([]*flight.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		flights = append(flights, f)
	}
	maintenance := make([]flight.MaintenanceRecord, 0, len(s.maintenance))
	for _, rec := range s.maintenance {
		maintenance = append(maintenance, rec)
	}
	s.led.Rebuild(flights, maintenance)
}

// inputLocked snapshots current state as detector input. Advisory and
// maintenance slices are ordered by id so detection is deterministic.
func (s *Service) inputLocked() conflict.Input {
	weather := make([]*hazard.WeatherAlert, 0, len(s.weather))
	for _, a := range s.weather {
		weather = append(weather, a)
	}
	sort.Slice(weather, func(i, j int) bool { return weather[i].ID < weather[j].ID })

	notams := make([]*hazard.NOTAMAlert, 0, len(s.notams))
	for _, a := range s.notams {
		notams = append(notams, a)
	}
	sort.Slice(notams, func(i, j int) bool { return notams[i].ID < notams[j].ID })

	maintenance := make([]flight.MaintenanceRecord, 0, len(s.maintenance))
	for _, rec := range s.maintenance {
		maintenance = append(maintenance, rec)
	}
	sort.Slice(maintenance, func(i, j int) bool { return maintenance[i].ID < maintenance[j].ID })

	return conflict.Input{
		Flights:     s.flights,
		Weather:     weather,
		NOTAMs:      notams,
		Maintenance: maintenance,
	}
}

// pruneLoop drops advisories whose validity window has passed
func (s *Service) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pruneExpired(time.Now().UTC())
		}
	}
}

// pruneExpired removes expired advisories and maintenance windows
func (s *Service) pruneExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, a := range s.weather {
		if a.Expired(now) {
			delete(s.weather, id)
			pruned++
		}
	}
	for id, a := range s.notams {
		if a.Expired(now) {
			delete(s.notams, id)
			pruned++
		}
	}
	if pruned > 0 {
		s.logger.Debug("Pruned expired advisories", logger.Int("count", pruned))
	}
}

// persistFlight hands a flight to the storage collaborator
func (s *Service) persistFlight(f *flight.Flight) {
	if s.storage == nil {
		return
	}
	if err := s.storage.SaveFlight(f); err != nil {
		s.logger.Error("Failed to persist flight",
			logger.Error(err),
			logger.String("flight_id", f.ID))
	}
}

// persistConflict hands a conflict to the storage collaborator
func (s *Service) persistConflict(c *conflict.Conflict) {
	if s.storage == nil {
		return
	}
	if err := s.storage.SaveConflict(c); err != nil {
		s.logger.Error("Failed to persist conflict",
			logger.Error(err),
			logger.String("conflict_id", c.ID))
	}
}

// broadcastFlight emits a flight_update event
func (s *Service) broadcastFlight(f *flight.Flight) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeFlightUpdate,
		Data: map[string]any{"flight": f.Clone()},
	})
}

// broadcastConflict emits a conflict_update event
func (s *Service) broadcastConflict(c *conflict.Conflict) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeConflictUpdate,
		Data: map[string]any{
			"severity": string(c.Severity),
			"conflict": c.Clone(),
		},
	})
}

// matchesFilters applies the GetSchedule filters to one flight
func matchesFilters(f *flight.Flight, filters Filters) bool {
	if filters.Status != "" && f.Status != filters.Status {
		return false
	}
	if filters.Type != "" && f.Type != filters.Type {
		return false
	}
	if filters.From != nil && !f.Window.End.After(*filters.From) {
		return false
	}
	if filters.To != nil && !f.Window.Start.Before(*filters.To) {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		if !strings.Contains(strings.ToLower(f.FlightNumber), needle) &&
			!strings.Contains(strings.ToLower(f.AircraftID), needle) &&
			!strings.Contains(strings.ToLower(f.PilotID), needle) {
			return false
		}
	}
	return true
}
