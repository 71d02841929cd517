package conflict

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/hazard"
	"github.com/mmarais/flightops/internal/interval"
	"github.com/mmarais/flightops/internal/ledger"
	"github.com/mmarais/flightops/pkg/logger"
)

// Policy holds the tunable detection rules: default severities per overlap
// class and the fuel ceiling. The shipped defaults follow the documented
// severity table but deployments may override them through configuration.
type Policy struct {
	AircraftOverlapSeverity     Severity
	CrewOverlapSeverity         Severity
	MaintenanceConflictSeverity Severity
	FuelConflictSeverity        Severity
	MaxFuelKg                   float64 // 0 disables the fuel check
}

// DefaultPolicy returns the standard detection policy
func DefaultPolicy() Policy {
	return Policy{
		AircraftOverlapSeverity:     SeverityHigh,
		CrewOverlapSeverity:         SeverityMedium,
		MaintenanceConflictSeverity: SeverityHigh,
		FuelConflictSeverity:        SeverityMedium,
	}
}

// Input is everything a detection pass reads: the canonical flight
// collection and the current hazard/maintenance streams.
type Input struct {
	Flights     map[string]*flight.Flight
	Weather     []*hazard.WeatherAlert
	NOTAMs      []*hazard.NOTAMAlert
	Maintenance []flight.MaintenanceRecord
}

// Detector classifies overlaps and hazard matches into conflicts with
// severity and a deterministic resolution hint.
type Detector struct {
	policy  Policy
	matcher *hazard.Matcher
	logger  *logger.Logger
	now     func() time.Time
}

// NewDetector creates a detector
func NewDetector(policy Policy, log *logger.Logger) *Detector {
	return &Detector{
		policy:  policy,
		matcher: hazard.NewMatcher(log),
		logger:  log.Named("conflict-detector"),
		now:     time.Now,
	}
}

// Detect runs a full recompute over the input. Used on cold start and bulk
// import. Output ordering is deterministic: severity descending, then
// earliest affected departure ascending, then condition key.
func (d *Detector) Detect(in Input) []*Conflict {
	led := ledger.New()
	for _, f := range sortedByID(in.Flights) {
		if f.Active() {
			led.Add(f)
		}
	}
	for _, rec := range in.Maintenance {
		led.AddMaintenance(rec)
	}

	var conflicts []*Conflict
	seen := make(map[string]bool)

	for _, pair := range led.AllPairs() {
		c := d.overlapConflict(pair, in.Flights)
		if c != nil && !seen[c.Key()] {
			seen[c.Key()] = true
			conflicts = append(conflicts, c)
		}
	}

	for _, f := range sortedByID(in.Flights) {
		if !f.Active() {
			continue
		}
		for _, rec := range led.MaintenanceHits(f) {
			c := d.maintenanceConflict(f, rec)
			if !seen[c.Key()] {
				seen[c.Key()] = true
				conflicts = append(conflicts, c)
			}
		}
		if c := d.fuelConflict(f); c != nil && !seen[c.Key()] {
			seen[c.Key()] = true
			conflicts = append(conflicts, c)
		}
	}

	for _, m := range d.matcher.MatchAll(in.Weather, in.NOTAMs, in.Flights) {
		c := d.hazardConflict(m, in.Flights)
		if c != nil && !seen[c.Key()] {
			seen[c.Key()] = true
			conflicts = append(conflicts, c)
		}
	}

	d.sortConflicts(conflicts, in.Flights)
	return conflicts
}

// DetectForFlight recomputes the conflicts touching a single flight using
// the live ledger. The result equals filtering a full Detect() to
// conflicts mentioning the flight.
func (d *Detector) DetectForFlight(flightID string, led *ledger.Ledger, in Input) []*Conflict {
	f, ok := in.Flights[flightID]
	if !ok || !f.Active() {
		return nil
	}

	var conflicts []*Conflict
	seen := make(map[string]bool)

	for _, pair := range led.OverlapsFor(f) {
		c := d.overlapConflict(pair, in.Flights)
		if c != nil && !seen[c.Key()] {
			seen[c.Key()] = true
			conflicts = append(conflicts, c)
		}
	}
	for _, rec := range led.MaintenanceHits(f) {
		c := d.maintenanceConflict(f, rec)
		if !seen[c.Key()] {
			seen[c.Key()] = true
			conflicts = append(conflicts, c)
		}
	}
	if c := d.fuelConflict(f); c != nil {
		conflicts = append(conflicts, c)
	}

	// Advisory matching stays advisory-driven for parity with the full
	// pass; only matches for this flight are kept.
	for _, m := range d.matcher.MatchAll(in.Weather, in.NOTAMs, in.Flights) {
		if m.FlightID != flightID {
			continue
		}
		c := d.hazardConflict(m, in.Flights)
		if c != nil && !seen[c.Key()] {
			seen[c.Key()] = true
			conflicts = append(conflicts, c)
		}
	}

	d.sortConflicts(conflicts, in.Flights)
	return conflicts
}

// DetectForWeather recomputes the hazard conflicts a single weather
// advisory generates against the current flight collection. Used when an
// advisory arrives or is updated.
func (d *Detector) DetectForWeather(a *hazard.WeatherAlert, flights map[string]*flight.Flight) []*Conflict {
	var conflicts []*Conflict
	for _, m := range d.matcher.MatchWeather(a, flights) {
		if c := d.hazardConflict(m, flights); c != nil {
			conflicts = append(conflicts, c)
		}
	}
	d.sortConflicts(conflicts, flights)
	return conflicts
}

// DetectForNOTAM recomputes the hazard conflicts a single NOTAM generates
// against the current flight collection.
func (d *Detector) DetectForNOTAM(a *hazard.NOTAMAlert, flights map[string]*flight.Flight) []*Conflict {
	var conflicts []*Conflict
	for _, m := range d.matcher.MatchNOTAM(a, flights) {
		if c := d.hazardConflict(m, flights); c != nil {
			conflicts = append(conflicts, c)
		}
	}
	d.sortConflicts(conflicts, flights)
	return conflicts
}

// DetectForMaintenance returns the conflicts a maintenance window creates
// against active flights on its aircraft.
func (d *Detector) DetectForMaintenance(rec flight.MaintenanceRecord, flights map[string]*flight.Flight) []*Conflict {
	var conflicts []*Conflict
	for _, f := range sortedByID(flights) {
		if !f.Active() || f.AircraftID != rec.AircraftID {
			continue
		}
		if interval.Overlaps(f.Window, rec.Window) {
			conflicts = append(conflicts, d.maintenanceConflict(f, rec))
		}
	}
	d.sortConflicts(conflicts, flights)
	return conflicts
}

// overlapConflict builds the conflict for one resource overlap pair
func (d *Detector) overlapConflict(pair ledger.Pair, flights map[string]*flight.Flight) *Conflict {
	a, okA := flights[pair.FlightA]
	b, okB := flights[pair.FlightB]
	if !okA || !okB {
		// Ledger and flight collection disagree: report upstream via log,
		// skip the pair rather than abort the pass.
		d.logger.Error("Overlap pair references flight missing from collection",
			logger.String("flight_a", pair.FlightA),
			logger.String("flight_b", pair.FlightB),
			logger.String("resource", pair.ResourceID))
		return nil
	}

	first, second := a, b
	if second.Window.Start.Before(first.Window.Start) {
		first, second = second, first
	}
	move := moveCandidate(a, b)
	keep := a
	if move == a {
		keep = b
	}

	var ctype Type
	var severity Severity
	var description, hint string
	switch pair.Dimension {
	case ledger.DimensionAircraft:
		ctype = TypeAircraftOverlap
		severity = d.policy.AircraftOverlapSeverity
		description = fmt.Sprintf("Aircraft %s is double-booked: %s (%s-%s) overlaps %s (%s-%s)",
			pair.ResourceID,
			first.FlightNumber, clock(first.Window.Start), clock(first.Window.End),
			second.FlightNumber, clock(second.Window.Start), clock(second.Window.End))
		hint = fmt.Sprintf("Reschedule %s to a window that does not overlap %s, or assign a different aircraft",
			move.FlightNumber, keep.FlightNumber)
	case ledger.DimensionCrew:
		ctype = TypeCrewOverlap
		severity = d.policy.CrewOverlapSeverity
		description = fmt.Sprintf("Crew member %s is assigned to overlapping flights %s and %s",
			pair.ResourceID, first.FlightNumber, second.FlightNumber)
		hint = fmt.Sprintf("Reschedule %s to a window that does not overlap %s, or assign different crew",
			move.FlightNumber, keep.FlightNumber)
	default:
		return nil
	}

	now := d.now().UTC()
	return &Conflict{
		ID:          uuid.NewString(),
		Type:        ctype,
		Severity:    severity,
		Description: description,
		FlightIDs:   []string{first.ID, second.ID},
		Resolution:  hint,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// maintenanceConflict builds the conflict for a flight scheduled during a
// pending maintenance window on its aircraft
func (d *Detector) maintenanceConflict(f *flight.Flight, rec flight.MaintenanceRecord) *Conflict {
	now := d.now().UTC()
	desc := rec.Description
	if desc == "" {
		desc = "maintenance"
	}
	return &Conflict{
		ID:       uuid.NewString(),
		Type:     TypeMaintenanceConflict,
		Severity: d.policy.MaintenanceConflictSeverity,
		Description: fmt.Sprintf("Aircraft %s has %s scheduled %s-%s during flight %s",
			f.AircraftID, desc, clock(rec.Window.Start), clock(rec.Window.End), f.FlightNumber),
		FlightIDs: []string{f.ID},
		SourceID:  rec.ID,
		Resolution: fmt.Sprintf("Move %s outside the maintenance window or reschedule the maintenance",
			f.FlightNumber),
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// fuelConflict flags a flight whose required fuel exceeds the policy
// ceiling. Returns nil when the check is disabled or the flight passes.
func (d *Detector) fuelConflict(f *flight.Flight) *Conflict {
	if d.policy.MaxFuelKg <= 0 || f.FuelRequiredKg <= d.policy.MaxFuelKg {
		return nil
	}
	now := d.now().UTC()
	return &Conflict{
		ID:       uuid.NewString(),
		Type:     TypeFuelConflict,
		Severity: d.policy.FuelConflictSeverity,
		Description: fmt.Sprintf("Flight %s requires %.0fkg fuel, exceeding the %.0fkg limit",
			f.FlightNumber, f.FuelRequiredKg, d.policy.MaxFuelKg),
		FlightIDs: []string{f.ID},
		Resolution: fmt.Sprintf("Reduce the fuel load for %s or split the mission across flights",
			f.FlightNumber),
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// hazardConflict builds the conflict for one advisory match
func (d *Detector) hazardConflict(m hazard.Match, flights map[string]*flight.Flight) *Conflict {
	f, ok := flights[m.FlightID]
	if !ok {
		d.logger.Warn("Hazard match references flight missing from collection",
			logger.String("advisory_id", m.AdvisoryID),
			logger.String("flight_id", m.FlightID))
		return nil
	}

	severity, known := MapSeverity(m.RawSeverity)
	if !known {
		d.logger.Warn("Unknown advisory severity, defaulting to medium",
			logger.String("advisory_id", m.AdvisoryID),
			logger.String("severity", m.RawSeverity))
	}

	var ctype Type
	var description, hint string
	switch m.Kind {
	case hazard.KindWeather:
		ctype = TypeWeatherImpact
		description = fmt.Sprintf("Weather advisory (%s, severity %s) affects flight %s",
			m.AdvisoryType, string(severity), f.FlightNumber)
		hint = fmt.Sprintf("Review the %s advisory and consider delaying or rerouting %s",
			m.AdvisoryType, f.FlightNumber)
	case hazard.KindNOTAM:
		ctype = TypeNotamImpact
		description = fmt.Sprintf("NOTAM %s affects %s during flight %s",
			m.AdvisoryType, m.Airport, f.FlightNumber)
		hint = fmt.Sprintf("Review NOTAM %s and consider delaying or rerouting %s",
			m.AdvisoryType, f.FlightNumber)
	default:
		return nil
	}

	now := d.now().UTC()
	return &Conflict{
		ID:          uuid.NewString(),
		Type:        ctype,
		Severity:    severity,
		Description: description,
		FlightIDs:   []string{f.ID},
		SourceID:    m.AdvisoryID,
		Resolution:  hint,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// moveCandidate picks which flight of an overlapping pair the hint should
// propose to move: the shorter flight, then the later one, then the higher
// flight number lexicographically.
func moveCandidate(a, b *flight.Flight) *flight.Flight {
	da, db := a.Window.Duration(), b.Window.Duration()
	if da != db {
		if da < db {
			return a
		}
		return b
	}
	if !a.Window.Start.Equal(b.Window.Start) {
		if a.Window.Start.After(b.Window.Start) {
			return a
		}
		return b
	}
	if a.FlightNumber > b.FlightNumber {
		return a
	}
	return b
}

// sortConflicts orders output for stable, testable results
func (d *Detector) sortConflicts(conflicts []*Conflict, flights map[string]*flight.Flight) {
	Sort(conflicts, flights)
}

// Sort orders conflicts by severity descending, then earliest affected
// departure ascending, then condition key. Both full and incremental
// detection output use this ordering so results are stable and testable.
func Sort(conflicts []*Conflict, flights map[string]*flight.Flight) {
	earliest := func(c *Conflict) time.Time {
		var t time.Time
		set := false
		for _, id := range c.FlightIDs {
			f, ok := flights[id]
			if !ok {
				continue
			}
			if !set || f.Window.Start.Before(t) {
				t = f.Window.Start
				set = true
			}
		}
		return t
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Severity.Rank() != conflicts[j].Severity.Rank() {
			return conflicts[i].Severity.Rank() > conflicts[j].Severity.Rank()
		}
		ti, tj := earliest(conflicts[i]), earliest(conflicts[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return conflicts[i].Key() < conflicts[j].Key()
	})
}

// clock formats an instant as HH:MM UTC for descriptions
func clock(t time.Time) string {
	return t.UTC().Format("15:04")
}

// sortedByID returns flights ordered by id for deterministic iteration
func sortedByID(flights map[string]*flight.Flight) []*flight.Flight {
	out := make([]*flight.Flight, 0, len(flights))
	for _, f := range flights {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
