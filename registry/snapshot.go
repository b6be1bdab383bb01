package registry

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/hkbus-eta/branchedlist"
	"github.com/theoremus-urban-solutions/hkbus-eta/datasheet"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
)

// RouteQuery selects every branch of one route direction. Bound is compared
// against Route.IDBound, so NLB queries carry the NLB id.
type RouteQuery struct {
	RouteNumber string
	Bound       string
	Co          hkbus.Operator
	GMBRegion   hkbus.GMBRegion
}

// QueryFor returns the query selecting the branches of route run by co.
func QueryFor(route hkbus.Route, co hkbus.Operator) RouteQuery {
	return RouteQuery{
		RouteNumber: route.RouteNumber,
		Bound:       route.IDBound(co),
		Co:          co,
		GMBRegion:   route.GMBRegion,
	}
}

// Matches reports whether route is a branch of q.
func (q RouteQuery) Matches(route *hkbus.Route) bool {
	if route.RouteNumber != q.RouteNumber || !route.HasCo(q.Co) {
		return false
	}
	if route.IDBound(q.Co) != q.Bound {
		return false
	}
	return q.Co != hkbus.GMB || route.GMBRegion == q.GMBRegion
}

func (q RouteQuery) String() string {
	return fmt.Sprintf("%s/%s/%s%s", q.RouteNumber, q.Co, q.Bound, q.GMBRegion)
}

// StopList is the merged stop sequence of one route direction.
type StopList struct {
	Branches []hkbus.Route
	Stops    []hkbus.StopData
}

// IndexesOf returns the positions of stopID in the list.
func (l *StopList) IndexesOf(stopID string) []int {
	var out []int
	for i, s := range l.Stops {
		if s.StopID == stopID {
			out = append(out, i)
		}
	}
	return out
}

// Snapshot answers registry queries against one data sheet.
type Snapshot struct {
	index *datasheet.Index
	opts  Options
}

func NewSnapshot(index *datasheet.Index, opts Options) *Snapshot {
	return &Snapshot{index: index, opts: opts}
}

func (s *Snapshot) Index() *datasheet.Index { return s.index }

func (s *Snapshot) Holidays() []datasheet.Date { return s.index.Holidays() }

func (s *Snapshot) ServiceDayMap() map[string][]string { return s.index.ServiceDayMap() }

func (s *Snapshot) StopMap() map[string][]datasheet.StopRef { return s.index.StopMap() }

func (s *Snapshot) StopList() map[string]hkbus.Stop { return s.index.StopList() }

func (s *Snapshot) Stop(stopID string) (hkbus.Stop, bool) { return s.index.Stop(stopID) }

func (s *Snapshot) Route(key string) (hkbus.Route, bool) { return s.index.Route(key) }

func (s *Snapshot) MTRBusStopAlias() map[string][]string { return s.index.MTRBusStopAlias() }

// SortedStopIDs returns the stop ids of the stop list in lexical order.
func (s *Snapshot) SortedStopIDs() []string {
	ids := make([]string, 0, len(s.index.StopList()))
	for id := range s.index.StopList() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllBranchRoutes returns the branches of q ordered by service type, then by
// GTFS id, data sheet order breaking ties.
func (s *Snapshot) AllBranchRoutes(q RouteQuery) []hkbus.Route {
	var out []hkbus.Route
	for _, key := range s.index.RouteKeysForNumber(q.RouteNumber) {
		route, _ := s.index.Route(key)
		if q.Matches(&route) {
			out = append(out, route)
		}
	}
	slices.SortStableFunc(out, func(a, b hkbus.Route) int {
		if c := a.ServiceTypeInt() - b.ServiceTypeInt(); c != 0 {
			return c
		}
		switch ag, bg := a.GTFSIDInt(), b.GTFSIDInt(); {
		case ag < bg:
			return -1
		case ag > bg:
			return 1
		}
		return 0
	})
	return out
}

// AllStops merges the stop sequences of every branch of q into one ordered
// list. Branch ids are indexes into the returned Branches.
func (s *Snapshot) AllStops(q RouteQuery) (*StopList, error) {
	start := time.Now()
	branches := s.AllBranchRoutes(q)

	opts := branchedlist.Options[string, hkbus.StopData]{
		ConflictResolve: preferMainBranch,
		Offset:          s.opts.Offset,
	}
	merged := branchedlist.NewWithOptions[string, hkbus.StopData, int](-1, opts)
	for i, route := range branches {
		list := branchedlist.NewWithOptions[string, hkbus.StopData, int](i, opts)
		for _, stopID := range route.Stops[q.Co] {
			stop, ok := s.index.Stop(stopID)
			if !ok {
				return nil, fmt.Errorf("route %s stop %s: %w", route.Key(), stopID, ErrUnknownStop)
			}
			list.Add(stopID, hkbus.StopData{
				StopID:      stopID,
				ServiceType: route.ServiceTypeInt(),
				Stop:        stop,
				Route:       route,
				BranchIndex: i,
			})
		}
		merged.Merge(list, s.opts.MergeToFrontIfNotFound)
	}

	stops := make([]hkbus.StopData, 0, merged.Len())
	for _, e := range merged.All() {
		data := e.Value()
		data.BranchIDs = e.BranchIDs()
		stops = append(stops, data)
	}
	s.opts.Metrics.ObserveMerge(len(branches), time.Since(start))
	return &StopList{Branches: branches, Stops: stops}, nil
}

// preferMainBranch keeps the stop of the lower service type, and on equal
// service types the lower GTFS id.
func preferMainBranch(existing, incoming hkbus.StopData) hkbus.StopData {
	if existing.ServiceType == incoming.ServiceType {
		if existing.Route.GTFSIDInt() > incoming.Route.GTFSIDInt() {
			return incoming
		}
		return existing
	}
	if incoming.ServiceType < existing.ServiceType {
		return incoming
	}
	return existing
}

// IsMTRStopEndOfLine reports whether no train runs on from stopID along line
// in the given direction. Bounds such as "LMC-DT" match the suffix "DT".
func (s *Snapshot) IsMTRStopEndOfLine(stopID, line, bound string) bool {
	for _, key := range s.index.RouteKeysForNumber(line) {
		route, _ := s.index.Route(key)
		if !strings.HasSuffix(route.Bound[hkbus.MTR], bound) {
			continue
		}
		stops := route.Stops[hkbus.MTR]
		if i := slices.Index(stops, stopID); i >= 0 && i+1 < len(stops) {
			return false
		}
	}
	return true
}

// Destinations lists the destinations of a route number. Direction holds
// those of branches that serve the stop and mostly share stops with the
// reference route; All holds every branch destination.
type Destinations struct {
	Direction []hkbus.BilingualText `json:"direction"`
	All       []hkbus.BilingualText `json:"all"`
}

// AllDestinationsByDirection collects destinations of routeNumber under co.
// Empty nlbID or gmbRegion match any route.
func (s *Snapshot) AllDestinationsByDirection(routeNumber string, co hkbus.Operator, nlbID string, gmbRegion hkbus.GMBRegion, ref hkbus.Route, stopID string) Destinations {
	var d Destinations
	refStops := ref.Stops[co]
	for _, key := range s.index.RouteKeysForNumber(routeNumber) {
		route, _ := s.index.Route(key)
		stops, ok := route.Stops[co]
		if !ok {
			continue
		}
		if nlbID != "" && string(route.NLBID) != nlbID {
			continue
		}
		if gmbRegion != "" && route.GMBRegion != gmbRegion {
			continue
		}
		if slices.Contains(stops, stopID) && commonElementPercentage(stops, refStops) > 0.5 {
			d.Direction = appendUnique(d.Direction, route.Dest)
		}
		d.All = appendUnique(d.All, route.Dest)
	}
	return d
}

// commonElementPercentage is the share of other covered by elements of list.
func commonElementPercentage(list, other []string) float64 {
	if len(other) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(other))
	for _, v := range other {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range list {
		if _, ok := set[v]; ok {
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(count) / float64(len(other))
}

func appendUnique(list []hkbus.BilingualText, v hkbus.BilingualText) []hkbus.BilingualText {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
