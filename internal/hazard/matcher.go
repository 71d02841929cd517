package hazard

import (
	"sort"
	"strings"

	"github.com/mmarais/flightops/internal/flight"
	"github.com/mmarais/flightops/internal/interval"
	"github.com/mmarais/flightops/pkg/logger"
)

// Kind distinguishes the advisory class behind a match
type Kind string

const (
	KindWeather Kind = "weather"
	KindNOTAM   Kind = "notam"
)

// Match is one (advisory, flight) hit. The detector turns matches into
// hazard-impact conflicts; one advisory yields at most one match per flight.
type Match struct {
	Kind         Kind
	AdvisoryID   string
	AdvisoryType string // weather type, or NOTAM number for NOTAMs
	Description  string
	RawSeverity  string // advisory severity/priority as received from the feed
	FlightID     string
	Airport      string // matched airport, when matched by airport
}

// Matcher maps advisories to affected flights. Matching iterates
// advisories rather than flights: advisories are the smaller and more
// volatile set, so a single new advisory stays cheap.
type Matcher struct {
	logger *logger.Logger
}

// NewMatcher creates a matcher
func NewMatcher(log *logger.Logger) *Matcher {
	return &Matcher{logger: log.Named("hazard-matcher")}
}

// MatchAll matches every advisory against the flight collection
func (m *Matcher) MatchAll(weather []*WeatherAlert, notams []*NOTAMAlert, flights map[string]*flight.Flight) []Match {
	var matches []Match
	for _, a := range weather {
		matches = append(matches, m.MatchWeather(a, flights)...)
	}
	for _, a := range notams {
		matches = append(matches, m.MatchNOTAM(a, flights)...)
	}
	return matches
}

// MatchWeather returns the matches for a single weather advisory. Flights
// listed directly are matched as-is; a region-only advisory matches active
// flights touching one of its airports during the validity window.
func (m *Matcher) MatchWeather(a *WeatherAlert, flights map[string]*flight.Flight) []Match {
	var matches []Match

	if len(a.FlightIDs) > 0 {
		for _, id := range a.FlightIDs {
			f, ok := flights[id]
			if !ok {
				// Race with cancellation/removal: skip, warn, keep going.
				m.logger.Warn("Weather advisory references unknown flight",
					logger.String("advisory_id", a.ID),
					logger.String("flight_id", id))
				continue
			}
			if !f.Active() {
				continue
			}
			matches = append(matches, Match{
				Kind:         KindWeather,
				AdvisoryID:   a.ID,
				AdvisoryType: a.Type,
				Description:  a.Description,
				RawSeverity:  a.Severity,
				FlightID:     f.ID,
			})
		}
		return matches
	}

	for _, f := range sortedActive(flights) {
		airport, ok := airportHit(f, a.Airports)
		if !ok || !interval.Overlaps(f.Window, a.Window) {
			continue
		}
		matches = append(matches, Match{
			Kind:         KindWeather,
			AdvisoryID:   a.ID,
			AdvisoryType: a.Type,
			Description:  a.Description,
			RawSeverity:  a.Severity,
			FlightID:     f.ID,
			Airport:      airport,
		})
	}
	return matches
}

// MatchNOTAM returns the matches for a single NOTAM: active flights whose
// departure or arrival airport is affected and whose window overlaps the
// NOTAM's validity window.
func (m *Matcher) MatchNOTAM(a *NOTAMAlert, flights map[string]*flight.Flight) []Match {
	var matches []Match
	for _, f := range sortedActive(flights) {
		airport, ok := airportHit(f, a.Airports)
		if !ok || !interval.Overlaps(f.Window, a.Window) {
			continue
		}
		matches = append(matches, Match{
			Kind:         KindNOTAM,
			AdvisoryID:   a.ID,
			AdvisoryType: a.NotamNumber,
			Description:  a.Description,
			RawSeverity:  a.Priority,
			FlightID:     f.ID,
			Airport:      airport,
		})
	}
	return matches
}

// airportHit returns the first advisory airport the flight touches
func airportHit(f *flight.Flight, airports []string) (string, bool) {
	for _, code := range airports {
		if f.UsesAirport(code) {
			return strings.ToUpper(code), true
		}
	}
	return "", false
}

// sortedActive returns the active flights ordered by id so matching output
// is deterministic regardless of map iteration order.
func sortedActive(flights map[string]*flight.Flight) []*flight.Flight {
	out := make([]*flight.Flight, 0, len(flights))
	for _, f := range flights {
		if f.Active() {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
