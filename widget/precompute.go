package widget

import (
	"errors"
	"fmt"
	"slices"

	"github.com/theoremus-urban-solutions/hkbus-eta/branchedlist"
	"github.com/theoremus-urban-solutions/hkbus-eta/datasheet"
	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/metrics"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
)

// ErrStopNotOnRoute is returned when the favourite's stop cannot be found
// where the operator specific data needs it.
var ErrStopNotOnRoute = errors.New("widget: stop not on route")

const (
	jointCTBRadiusKM = 0.4
	sameStopRadiusKM = 0.1
)

// StopData is a stop of the merged stop list. Route indexes AllBranches.
type StopData struct {
	StopID string     `json:"stopId"`
	Stop   hkbus.Stop `json:"stop"`
	Route  int        `json:"route"`
}

// PrecomputedData is everything a widget needs to render a favourite without
// access to the data sheet. Operator specific fields are only set for the
// operator that uses them.
type PrecomputedData struct {
	Language      string              `json:"language"`
	Fav           favourite.RouteStop `json:"fav"`
	ServiceDayMap map[string][]string `json:"serviceDayMap"`
	Holidays      []datasheet.Date    `json:"holidays"`
	Co            hkbus.Operator      `json:"co"`
	AllBranches   []hkbus.Route       `json:"allBranches"`
	AllStops      []StopData          `json:"allStops"`

	CTBStopIDs      []string               `json:"ctbStopIds,omitempty"`
	CTBByDirection  *registry.Destinations `json:"ctbByDirectionResult,omitempty"`
	KMBStopIDs      []string               `json:"kmbStopIds,omitempty"`
	MTRBusStopAlias []string               `json:"mtrBusStopAlias,omitempty"`
	GMBBranches     []string               `json:"gmbBranches,omitempty"`
	LRTStopList     map[string]hkbus.Stop  `json:"lrtStopList,omitempty"`
	IsMTREndOfLine  *bool                  `json:"isMtrEndOfLine,omitempty"`
	HKKFStopCode    *[2]string             `json:"hkkfStopCode,omitempty"`
}

// Builder assembles precomputed widget data from one data sheet snapshot.
type Builder struct {
	snap     *registry.Snapshot
	language string
	metrics  *metrics.Metrics
}

func NewBuilder(snap *registry.Snapshot, language string, m *metrics.Metrics) *Builder {
	return &Builder{snap: snap, language: language, metrics: m}
}

// Build precomputes the widget data of fav.
func (b *Builder) Build(fav favourite.RouteStop) (*PrecomputedData, error) {
	data, err := b.build(fav)
	b.metrics.ObservePrecompute(string(fav.Co), err)
	return data, err
}

func (b *Builder) build(fav favourite.RouteStop) (*PrecomputedData, error) {
	list, err := b.snap.AllStops(fav.Query())
	if err != nil {
		return nil, fmt.Errorf("precompute favourite %d: %w", fav.ID, err)
	}

	used := map[string]struct{}{}
	for _, r := range list.Branches {
		for k := range r.Freq {
			used[k] = struct{}{}
		}
	}
	serviceDayMap := map[string][]string{}
	for k, v := range b.snap.ServiceDayMap() {
		if _, ok := used[k]; ok {
			serviceDayMap[k] = v
		}
	}

	data := &PrecomputedData{
		Language:      b.language,
		Fav:           fav,
		ServiceDayMap: serviceDayMap,
		Holidays:      b.snap.Holidays(),
		Co:            fav.Co,
		AllBranches:   list.Branches,
		AllStops:      make([]StopData, 0, len(list.Stops)),
	}
	for _, s := range list.Stops {
		data.AllStops = append(data.AllStops, StopData{StopID: s.StopID, Stop: s.Stop, Route: s.BranchIndex})
	}

	switch {
	case fav.Route.KMBCTBJoint:
		ids, err := b.jointCTBStopIDs(fav.StopID)
		if err != nil {
			return nil, err
		}
		data.CTBStopIDs = ids
		d := b.snap.AllDestinationsByDirection(fav.Route.RouteNumber, hkbus.KMB, "", "", fav.Route, fav.StopID)
		data.CTBByDirection = &d
	case fav.Co == hkbus.KMB:
		ids, err := sameStopIDs(list.Stops, fav.StopID)
		if err != nil {
			return nil, err
		}
		data.KMBStopIDs = ids
	case fav.Co == hkbus.MTRBus:
		data.MTRBusStopAlias = b.snap.MTRBusStopAlias()[fav.StopID]
	case fav.Co == hkbus.GMB:
		data.GMBBranches = gmbBranchIDs(list, fav)
	case fav.Co == hkbus.LRT:
		data.LRTStopList = map[string]hkbus.Stop{}
		for id, s := range b.snap.StopList() {
			if slices.Contains(hkbus.IdentifyStopCo(id), hkbus.LRT) {
				data.LRTStopList[id] = s
			}
		}
	case fav.Co == hkbus.MTR:
		end := b.snap.IsMTRStopEndOfLine(fav.StopID, fav.Route.RouteNumber, fav.Route.Bound[hkbus.MTR])
		data.IsMTREndOfLine = &end
	case fav.Co == hkbus.HKKF:
		code, err := b.hkkfStopCode(fav)
		if err != nil {
			return nil, err
		}
		data.HKKFStopCode = code
	}
	return data, nil
}

// jointCTBStopIDs returns the CTB stops matching a KMB stop of a joint route:
// the stop map entries if any, else every CTB stop nearby.
func (b *Builder) jointCTBStopIDs(stopID string) ([]string, error) {
	var ids []string
	if refs, ok := b.snap.StopMap()[stopID]; ok {
		for _, ref := range refs {
			if ref.Co == hkbus.CTB {
				ids = append(ids, ref.StopID)
			}
		}
		return ids, nil
	}
	stop, ok := b.snap.Stop(stopID)
	if !ok {
		return nil, fmt.Errorf("joint stop %s: %w", stopID, ErrStopNotOnRoute)
	}
	for _, id := range b.snap.SortedStopIDs() {
		s, _ := b.snap.Stop(id)
		if hkbus.CTB.MatchStopIDPattern(id) && stop.Location.DistanceKM(s.Location) < jointCTBRadiusKM {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// sameStopIDs returns the ids of stops sharing the name of stopID within
// sameStopRadiusKM, one per group of stops served by a common branch.
func sameStopIDs(stops []hkbus.StopData, stopID string) ([]string, error) {
	i := slices.IndexFunc(stops, func(s hkbus.StopData) bool { return s.StopID == stopID })
	if i < 0 {
		return nil, fmt.Errorf("kmb stop %s: %w", stopID, ErrStopNotOnRoute)
	}
	target := stops[i].Stop

	var near []hkbus.StopData
	for _, s := range stops {
		if s.Stop.Name == target.Name && s.Stop.Location.DistanceKM(target.Location) < sameStopRadiusKM {
			near = append(near, s)
		}
	}
	near = branchedlist.DistinctBy(near,
		func(s hkbus.StopData) branchedlist.BranchSet[int] { return s.BranchIDs },
		branchedlist.IntersectingBranches[int])

	var ids []string
	for _, s := range near {
		if !slices.Contains(ids, s.StopID) {
			ids = append(ids, s.StopID)
		}
	}
	return ids, nil
}

// gmbBranchIDs returns the GTFS ids of the branches serving the occurrence
// of the favourite's stop nearest to its index.
func gmbBranchIDs(list *registry.StopList, fav favourite.RouteStop) []string {
	best := -1
	for _, i := range list.IndexesOf(fav.StopID) {
		if best < 0 || absInt(i-fav.Index) < absInt(best-fav.Index) {
			best = i
		}
	}
	if best < 0 {
		return []string{string(fav.Route.GTFSID)}
	}
	var ids []string
	for _, r := range list.Stops[best].Branches(list.Branches) {
		if id := string(r.GTFSID); !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// hkkfStopCode returns the pier codes of the favourite stop and the next stop.
func (b *Builder) hkkfStopCode(fav favourite.RouteStop) (*[2]string, error) {
	stops := fav.Route.Stops[hkbus.HKKF]
	if fav.Index < 1 || fav.Index >= len(stops) {
		return nil, fmt.Errorf("ferry stop index %d of %d: %w", fav.Index, len(stops), ErrStopNotOnRoute)
	}
	from, ok := b.snap.Stop(stops[fav.Index-1])
	if !ok {
		return nil, fmt.Errorf("ferry pier %s: %w", stops[fav.Index-1], ErrStopNotOnRoute)
	}
	to, ok := b.snap.Stop(stops[fav.Index])
	if !ok {
		return nil, fmt.Errorf("ferry pier %s: %w", stops[fav.Index], ErrStopNotOnRoute)
	}
	return &[2]string{from.HKKFStopCode(), to.HKKFStopCode()}, nil
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
