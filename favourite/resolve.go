package favourite

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/metrics"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
)

// SharedStopRadiusKM is how far a favourite's stop may be from the stop
// closest to the user for ResolveAll to pick it.
const SharedStopRadiusKM = 0.15

// StopSource lists the merged stops of a route direction. Both
// *registry.Registry and *registry.Snapshot implement it.
type StopSource interface {
	AllStops(q registry.RouteQuery) (*registry.StopList, error)
}

// Resolver resolves favourites against a stop source.
type Resolver struct {
	Stops   StopSource
	Metrics *metrics.Metrics
}

func NewResolver(stops StopSource, m *metrics.Metrics) *Resolver {
	return &Resolver{Stops: stops, Metrics: m}
}

// Resolve returns the stop fav points at. FIXED favourites, a nil origin and
// a route without stops all yield the stored stop.
func (r *Resolver) Resolve(fav RouteStop, origin *hkbus.Coordinates) (ResolvedStop, error) {
	if !fav.Closest() || origin == nil {
		r.Metrics.ObserveResolution("fixed")
		return fav.Fixed(), nil
	}
	list, err := r.Stops.AllStops(fav.Query())
	if err != nil {
		return ResolvedStop{}, fmt.Errorf("resolve favourite %d: %w", fav.ID, err)
	}
	s, err := ClosestStop(list.Stops, *origin)
	if err != nil {
		r.Metrics.ObserveResolution("fixed")
		return fav.Fixed(), nil
	}
	r.Metrics.ObserveResolution("closest")
	return s, nil
}

// Resolution pairs a favourite with the stop it resolved to. Stop is nil when
// the favourite has no stop near the user.
type Resolution struct {
	Favourite RouteStop
	Stop      *ResolvedStop
}

// ResolveAll resolves a group of favourites around one shared point: the stop
// closest to origin among all of their routes. Each favourite takes its own
// stop nearest to that point, if within SharedStopRadiusKM. If any favourite
// is FIXED every favourite resolves to its stored stop. A nil origin defaults
// to the first favourite's stop.
func (r *Resolver) ResolveAll(favs []RouteStop, origin *hkbus.Coordinates) ([]Resolution, error) {
	if len(favs) == 0 {
		return nil, nil
	}
	out := make([]Resolution, len(favs))
	if slices.ContainsFunc(favs, func(f RouteStop) bool { return !f.Closest() }) {
		for i, f := range favs {
			s := f.Fixed()
			out[i] = Resolution{Favourite: f, Stop: &s}
		}
		r.Metrics.ObserveResolution("fixed")
		return out, nil
	}

	o := favs[0].Stop.Location
	if origin != nil {
		o = *origin
	}
	lists := make([][]hkbus.StopData, len(favs))
	var all []hkbus.StopData
	for i, f := range favs {
		list, err := r.Stops.AllStops(f.Query())
		if err != nil {
			return nil, fmt.Errorf("resolve favourite %d: %w", f.ID, err)
		}
		lists[i] = list.Stops
		all = append(all, list.Stops...)
	}

	shared, _, ok := closestIndex(all, o)
	for i, f := range favs {
		out[i] = Resolution{Favourite: f}
		if !ok {
			continue
		}
		j, d, found := closestIndex(lists[i], all[shared].Stop.Location)
		if found && d <= SharedStopRadiusKM {
			s := resolved(lists[i], j)
			out[i].Stop = &s
		}
	}
	r.Metrics.ObserveResolution("closest")
	return out, nil
}

// CircularPivotIndex returns the 1-based index of the stop marking the far
// end of a circular route, or -1 when route is not circular. The stop whose
// name best matches the destination wins; airport routes match the terminal
// building instead. Without a match the stop farthest from the first stop is
// used.
func CircularPivotIndex(route hkbus.Route, stops []hkbus.StopData) int {
	if !route.IsCircular() || len(stops) == 0 {
		return -1
	}
	middle := strings.TrimSpace(strings.ReplaceAll(route.Dest.Zh, "(循環線)", ""))
	airport := strings.Contains(middle, "機場")

	best, bestDist := -1, math.MaxInt
	for i, s := range stops {
		name := strings.TrimSpace(s.Stop.Name.Zh)
		var match bool
		if airport {
			match = strings.Contains(name, "客運大樓")
		} else {
			match = hkbus.EitherContains(name, middle)
		}
		if !match {
			continue
		}
		if d := hkbus.EditDistance(name, middle); d < bestDist {
			best, bestDist = i+1, d
		}
	}
	if best > 0 {
		return best
	}

	first := stops[0].Stop.Location
	farthest, farthestDist := 0, -1.0
	for i, s := range stops {
		if d := s.Stop.Location.DistanceKM(first); d > farthestDist {
			farthest, farthestDist = i, d
		}
	}
	return farthest + 1
}

// DestWithBranch returns the destination of branch shown at the selected stop
// of route. On KMB and GMB circular routes a stop at or past the pivot shows
// the terminus it returns to, tagged with the circular remark of the branch.
// stops is the merged stop list of route; selectedStop is the favourite index.
func DestWithBranch(route, branch hkbus.Route, stops []hkbus.StopData, selectedStop int, selectedStopID string, prependTo bool) hkbus.BilingualText {
	co, _ := route.FirstCo()
	if (co != hkbus.KMB && co != hkbus.GMB) || !branch.IsCircular() {
		return branchDest(route, branch, prependTo)
	}
	pivot := CircularPivotIndex(branch, stops)
	if pivot < 0 {
		return branchDest(route, branch, prependTo)
	}

	stopIndex := -1
	for i, s := range stops {
		if s.StopID != selectedStopID {
			continue
		}
		if stopIndex < 0 || abs(i-selectedStop) < abs(stopIndex-selectedStop) {
			stopIndex = i
		}
	}
	if stopIndex < 0 || stopIndex+1 < pivot {
		return branchDest(route, branch, prependTo)
	}

	dest := stops[len(stops)-1].Stop.Name
	if co == hkbus.GMB {
		dest = dest.RemoveBrackets()
	}
	dest = dest.RemoveTerminus()
	if prependTo {
		dest = dest.PrependTo()
	}
	return dest.Concat(branch.Dest.CircularBracket())
}

func branchDest(route, branch hkbus.Route, prependTo bool) hkbus.BilingualText {
	if route.LRTCircular != nil {
		return *route.LRTCircular
	}
	if prependTo {
		return branch.Dest.PrependTo()
	}
	return branch.Dest
}

// ResolvedDestWithBranch looks up the stops of route and calls
// DestWithBranch.
func (r *Resolver) ResolvedDestWithBranch(route, branch hkbus.Route, selectedStop int, selectedStopID string, prependTo bool) (hkbus.BilingualText, error) {
	co, ok := route.FirstCo()
	if !ok || (co != hkbus.KMB && co != hkbus.GMB) || !branch.IsCircular() {
		return branchDest(route, branch, prependTo), nil
	}
	list, err := r.Stops.AllStops(registry.QueryFor(route, co))
	if err != nil {
		return hkbus.BilingualText{}, fmt.Errorf("resolve destination of %s: %w", route.RouteNumber, err)
	}
	return DestWithBranch(route, branch, list.Stops, selectedStop, selectedStopID, prependTo), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
