package datasheet

import (
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
)

// Index stores a data sheet in memory for fast lookups. It is read-only once
// built and safe for concurrent use.
type Index struct {
	container       Container
	routeKeys       []string            // route keys in data sheet order
	routesByNumber  map[string][]string // route number -> route keys
	routeKeysByStop map[string][]string // stop id -> route keys
	builtAt         time.Time
}

// NewIndex indexes c. Routes keep the order recorded in c.RouteOrder; keys
// missing from it follow in lexical order.
func NewIndex(c Container) *Index {
	idx := &Index{
		container:       c,
		routesByNumber:  map[string][]string{},
		routeKeysByStop: map[string][]string{},
		builtAt:         time.Now(),
	}

	seen := make(map[string]struct{}, len(c.DataSheet.RouteList))
	for _, key := range c.RouteOrder {
		if _, ok := c.DataSheet.RouteList[key]; ok {
			if _, dup := seen[key]; !dup {
				idx.routeKeys = append(idx.routeKeys, key)
				seen[key] = struct{}{}
			}
		}
	}
	var rest []string
	for key := range c.DataSheet.RouteList {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	idx.routeKeys = append(idx.routeKeys, rest...)

	for _, key := range idx.routeKeys {
		r := c.DataSheet.RouteList[key]
		idx.routesByNumber[r.RouteNumber] = append(idx.routesByNumber[r.RouteNumber], key)
		for _, stops := range r.Stops {
			for _, stopID := range stops {
				keys := idx.routeKeysByStop[stopID]
				if len(keys) == 0 || keys[len(keys)-1] != key {
					idx.routeKeysByStop[stopID] = append(keys, key)
				}
			}
		}
	}
	return idx
}

// Accessor methods
func (i *Index) Container() Container { return i.container }

func (i *Index) BuiltAt() time.Time { return i.builtAt }

func (i *Index) UpdatedTime() int64 { return i.container.UpdatedTime }

func (i *Index) Holidays() []Date { return i.container.DataSheet.Holidays }

func (i *Index) ServiceDayMap() map[string][]string { return i.container.DataSheet.ServiceDayMap }

func (i *Index) StopMap() map[string][]StopRef { return i.container.DataSheet.StopMap }

func (i *Index) StopList() map[string]hkbus.Stop { return i.container.DataSheet.StopList }

func (i *Index) MTRBusStopAlias() map[string][]string { return i.container.MTRBusStopAlias }

func (i *Index) RouteKeys() []string { return i.routeKeys }

func (i *Index) RouteKeysForNumber(routeNumber string) []string { return i.routesByNumber[routeNumber] }

func (i *Index) RouteKeysByStop(stopID string) []string { return i.routeKeysByStop[stopID] }

func (i *Index) Stop(stopID string) (hkbus.Stop, bool) {
	s, ok := i.container.DataSheet.StopList[stopID]
	return s, ok
}

// Route returns a copy of the route stored under key.
func (i *Index) Route(key string) (hkbus.Route, bool) {
	r, ok := i.container.DataSheet.RouteList[key]
	return r, ok
}

// RouteNumbers returns every distinct route number in lexical order.
func (i *Index) RouteNumbers() []string {
	out := make([]string, 0, len(i.routesByNumber))
	for n := range i.routesByNumber {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
