package favourite

import (
	"errors"
	"fmt"
	"slices"

	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
)

var (
	// ErrUnknownRoute is returned for a route key missing from the data sheet.
	ErrUnknownRoute = errors.New("favourite: unknown route")
	// ErrNotOnRoute is returned when the stop is not served where requested.
	ErrNotOnRoute = errors.New("favourite: stop not on route")
)

// New builds a favourite for stopID on the route stored under routeKey. An
// empty co picks the route's first operator. index is the 1-based position
// in the merged stop list; zero picks the first occurrence of the stop. An
// empty mode is FIXED.
func New(snap *registry.Snapshot, routeKey string, co hkbus.Operator, stopID string, index int, mode StopMode) (RouteStop, error) {
	route, ok := snap.Route(routeKey)
	if !ok {
		return RouteStop{}, fmt.Errorf("%w: %q", ErrUnknownRoute, routeKey)
	}
	if co == "" {
		co, _ = route.FirstCo()
	}
	if !route.HasCo(co) {
		return RouteStop{}, fmt.Errorf("%w: %q is not operated by %s", ErrUnknownRoute, routeKey, co)
	}
	list, err := snap.AllStops(registry.QueryFor(route, co))
	if err != nil {
		return RouteStop{}, err
	}

	indexes := list.IndexesOf(stopID)
	if len(indexes) == 0 {
		return RouteStop{}, fmt.Errorf("%w: %s on %s", ErrNotOnRoute, stopID, routeKey)
	}
	pos := indexes[0]
	if index > 0 {
		if !slices.Contains(indexes, index-1) {
			return RouteStop{}, fmt.Errorf("%w: %s at %d on %s", ErrNotOnRoute, stopID, index, routeKey)
		}
		pos = index - 1
	}
	if mode == "" {
		mode = ModeFixed
	}
	return RouteStop{
		StopID: stopID,
		Co:     co,
		Index:  pos + 1,
		Stop:   list.Stops[pos].Stop,
		Route:  route,
		Mode:   mode,
	}, nil
}
