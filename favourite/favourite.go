package favourite

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
)

// ErrNoStops is returned when a route has no stops to choose from.
var ErrNoStops = errors.New("favourite: route has no stops")

// StopMode selects how a favourite picks its stop.
type StopMode string

const (
	ModeFixed   StopMode = "FIXED"
	ModeClosest StopMode = "CLOSEST"
)

// ParseStopMode returns the mode named s, case-insensitively. Unknown names
// are FIXED.
func ParseStopMode(s string) StopMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeClosest)) {
		return ModeClosest
	}
	return ModeFixed
}

func (m *StopMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseStopMode(s)
	return nil
}

// RouteStop is a saved stop on a route.
type RouteStop struct {
	ID     int            `json:"favouriteId"`
	StopID string         `json:"stopId"`
	Co     hkbus.Operator `json:"co"`
	Index  int            `json:"index"` // 1-based position in the merged stop list
	Stop   hkbus.Stop     `json:"stop"`
	Route  hkbus.Route    `json:"route"`
	Mode   StopMode       `json:"favouriteStopMode"`
}

// Closest reports whether the favourite follows the user. An empty mode is
// FIXED.
func (f *RouteStop) Closest() bool { return f.Mode == ModeClosest }

// Query returns the registry query listing the stops of the favourite's route.
func (f *RouteStop) Query() registry.RouteQuery { return registry.QueryFor(f.Route, f.Co) }

// Fixed returns the stored stop.
func (f *RouteStop) Fixed() ResolvedStop {
	return ResolvedStop{Index: f.Index, StopID: f.StopID, Stop: f.Stop, Route: f.Route}
}

// SameAs reports whether the favourite already points at the given stop. A
// CLOSEST favourite matches any stop of the same route direction.
func (f *RouteStop) SameAs(stopID string, co hkbus.Operator, index int, stop hkbus.Stop, route hkbus.Route) bool {
	if f.Co != co || f.Route.RouteNumber != route.RouteNumber || f.Route.Bound[co] != route.Bound[co] {
		return false
	}
	if !f.Closest() {
		return f.Index == index && f.StopID == stopID && f.Stop.Name.Zh == stop.Name.Zh
	}
	return true
}

// ResolvedStop is the stop a favourite points at right now.
type ResolvedStop struct {
	Index  int         `json:"index"`
	StopID string      `json:"stopId"`
	Stop   hkbus.Stop  `json:"stop"`
	Route  hkbus.Route `json:"route"`
}

// ClosestStop returns the stop nearest to origin, the first one on ties.
func ClosestStop(stops []hkbus.StopData, origin hkbus.Coordinates) (ResolvedStop, error) {
	i, _, ok := closestIndex(stops, origin)
	if !ok {
		return ResolvedStop{}, ErrNoStops
	}
	return resolved(stops, i), nil
}

func resolved(stops []hkbus.StopData, i int) ResolvedStop {
	s := stops[i]
	return ResolvedStop{Index: i + 1, StopID: s.StopID, Stop: s.Stop, Route: s.Route}
}

func closestIndex(stops []hkbus.StopData, origin hkbus.Coordinates) (int, float64, bool) {
	best, bestDist := -1, 0.0
	for i, s := range stops {
		if d := s.Stop.Location.DistanceKM(origin); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist, best >= 0
}
