// Package ledger indexes active flights by their contested resources
// (aircraft, crew) plus pending maintenance windows, and answers overlap
// queries per resource. Partitioning by resource id is what keeps overlap
// detection linear in practice: flights that share no resource are never
// compared.
//
// The ledger is owned by the schedule service; only its single writer path
// mutates it, and no internal slices are handed out.
package ledger

import (
	"sort"

	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/interval"
)

// Dimension names a contested resource class
type Dimension string

const (
	DimensionAircraft Dimension = "aircraft"
	DimensionCrew     Dimension = "crew"
)

// Pair is an overlap between two flights on one resource. FlightA sorts
// before FlightB so a pair has a single canonical form.
type Pair struct {
	Dimension  Dimension
	ResourceID string
	FlightA    string
	FlightB    string
}

func makePair(dim Dimension, resource, a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{Dimension: dim, ResourceID: resource, FlightA: a, FlightB: b}
}

// Involves reports whether the pair touches the given flight id
func (p Pair) Involves(flightID string) bool {
	return p.FlightA == flightID || p.FlightB == flightID
}

// Other returns the counterpart flight id in the pair
func (p Pair) Other(flightID string) string {
	if p.FlightA == flightID {
		return p.FlightB
	}
	return p.FlightA
}

type booking struct {
	window   interval.Window
	flightID string
}

// Ledger holds per-resource sorted booking lists
type Ledger struct {
	aircraft    map[string][]booking
	crew        map[string][]booking
	maintenance map[string][]flight.MaintenanceRecord // by aircraft id
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		aircraft:    make(map[string][]booking),
		crew:        make(map[string][]booking),
		maintenance: make(map[string][]flight.MaintenanceRecord),
	}
}

// Add indexes an active flight and returns the overlap pairs it creates.
// Only the flight's own resource lists are touched.
func (l *Ledger) Add(f *flight.Flight) []Pair {
	var pairs []Pair
	pairs = append(pairs, l.insert(l.aircraft, DimensionAircraft, f.AircraftID, f)...)
	for _, crewID := range f.CrewIDs() {
		pairs = append(pairs, l.insert(l.crew, DimensionCrew, crewID, f)...)
	}
	return pairs
}

// Remove drops a flight from its resource lists and returns the pairs
// that are resolved by its removal.
func (l *Ledger) Remove(f *flight.Flight) []Pair {
	var pairs []Pair
	pairs = append(pairs, l.drop(l.aircraft, DimensionAircraft, f.AircraftID, f)...)
	for _, crewID := range f.CrewIDs() {
		pairs = append(pairs, l.drop(l.crew, DimensionCrew, crewID, f)...)
	}
	return pairs
}

// Update replaces a flight's bookings. It returns the pairs resolved by
// removing the old version and the pairs created by the new one.
func (l *Ledger) Update(old, updated *flight.Flight) (created, resolved []Pair) {
	resolved = l.Remove(old)
	created = l.Add(updated)
	return created, resolved
}

// Has reports whether the flight is currently indexed. Used as the
// invariant check between the ledger and the canonical flight collection.
func (l *Ledger) Has(f *flight.Flight) bool {
	for _, b := range l.aircraft[f.AircraftID] {
		if b.flightID == f.ID {
			return true
		}
	}
	return false
}

// OverlapsFor returns every current overlap pair involving the flight
func (l *Ledger) OverlapsFor(f *flight.Flight) []Pair {
	var pairs []Pair
	pairs = append(pairs, l.scan(l.aircraft, DimensionAircraft, f.AircraftID, f)...)
	for _, crewID := range f.CrewIDs() {
		pairs = append(pairs, l.scan(l.crew, DimensionCrew, crewID, f)...)
	}
	return pairs
}

// FindOverlaps returns the overlap pairs within one resource's bookings
func (l *Ledger) FindOverlaps(dim Dimension, resourceID string) []Pair {
	var list []booking
	switch dim {
	case DimensionAircraft:
		list = l.aircraft[resourceID]
	case DimensionCrew:
		list = l.crew[resourceID]
	}
	return pairwise(dim, resourceID, list)
}

// AllPairs sweeps every resource list and returns the full overlap set
func (l *Ledger) AllPairs() []Pair {
	var pairs []Pair
	for resource, list := range l.aircraft {
		pairs = append(pairs, pairwise(DimensionAircraft, resource, list)...)
	}
	for resource, list := range l.crew {
		pairs = append(pairs, pairwise(DimensionCrew, resource, list)...)
	}
	return pairs
}

// AddMaintenance records a pending maintenance window and returns the ids
// of indexed flights whose windows it overlaps.
func (l *Ledger) AddMaintenance(rec flight.MaintenanceRecord) []string {
	l.maintenance[rec.AircraftID] = append(l.maintenance[rec.AircraftID], rec)
	var affected []string
	for _, b := range l.aircraft[rec.AircraftID] {
		if interval.Overlaps(b.window, rec.Window) {
			affected = append(affected, b.flightID)
		}
	}
	return affected
}

// MaintenanceHits returns the maintenance records overlapping the flight's
// window on its aircraft.
func (l *Ledger) MaintenanceHits(f *flight.Flight) []flight.MaintenanceRecord {
	var hits []flight.MaintenanceRecord
	for _, rec := range l.maintenance[f.AircraftID] {
		if interval.Overlaps(f.Window, rec.Window) {
			hits = append(hits, rec)
		}
	}
	return hits
}

// Rebuild reconstructs the index from the canonical flight collection.
// This is the self-heal path for ledger/collection disagreement: rather
// than crash, re-derive the index from the source of truth.
func (l *Ledger) Rebuild(flights []*flight.Flight, maintenance []flight.MaintenanceRecord) {
	l.aircraft = make(map[string][]booking)
	l.crew = make(map[string][]booking)
	l.maintenance = make(map[string][]flight.MaintenanceRecord)
	for _, f := range flights {
		if !f.Active() {
			continue
		}
		l.Add(f)
	}
	for _, rec := range maintenance {
		l.maintenance[rec.AircraftID] = append(l.maintenance[rec.AircraftID], rec)
	}
}

// insert adds a booking to one resource list, keeping it sorted by start
// time, and returns the new overlap pairs against existing bookings.
func (l *Ledger) insert(index map[string][]booking, dim Dimension, resourceID string, f *flight.Flight) []Pair {
	list := index[resourceID]
	var pairs []Pair
	for _, b := range list {
		if !b.window.Start.Before(f.Window.End) {
			break // sorted by start: nothing later can overlap
		}
		if b.flightID != f.ID && interval.Overlaps(b.window, f.Window) {
			pairs = append(pairs, makePair(dim, resourceID, b.flightID, f.ID))
		}
	}
	entry := booking{window: f.Window, flightID: f.ID}
	pos := sort.Search(len(list), func(i int) bool {
		if list[i].window.Start.Equal(entry.window.Start) {
			return list[i].flightID > entry.flightID
		}
		return list[i].window.Start.After(entry.window.Start)
	})
	list = append(list, booking{})
	copy(list[pos+1:], list[pos:])
	list[pos] = entry
	index[resourceID] = list
	return pairs
}

// drop removes a flight's booking from one resource list and returns the
// pairs that removal resolves.
func (l *Ledger) drop(index map[string][]booking, dim Dimension, resourceID string, f *flight.Flight) []Pair {
	list := index[resourceID]
	var pairs []Pair
	out := list[:0]
	for _, b := range list {
		if b.flightID == f.ID {
			continue
		}
		if interval.Overlaps(b.window, f.Window) {
			pairs = append(pairs, makePair(dim, resourceID, b.flightID, f.ID))
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		delete(index, resourceID)
	} else {
		index[resourceID] = out
	}
	return pairs
}

// scan returns pairs between the flight and the other bookings of one
// resource, without mutating the list.
func (l *Ledger) scan(index map[string][]booking, dim Dimension, resourceID string, f *flight.Flight) []Pair {
	var pairs []Pair
	for _, b := range index[resourceID] {
		if !b.window.Start.Before(f.Window.End) {
			break
		}
		if b.flightID != f.ID && interval.Overlaps(b.window, f.Window) {
			pairs = append(pairs, makePair(dim, resourceID, b.flightID, f.ID))
		}
	}
	return pairs
}

// pairwise checks all bookings of one resource against each other
func pairwise(dim Dimension, resourceID string, list []booking) []Pair {
	var pairs []Pair
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if !list[j].window.Start.Before(list[i].window.End) {
				break
			}
			if interval.Overlaps(list[i].window, list[j].window) {
				pairs = append(pairs, makePair(dim, resourceID, list[i].flightID, list[j].flightID))
			}
		}
	}
	return pairs
}
