package widget

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
)

// Result is the outcome of one favourite in a batch build.
type Result struct {
	Favourite favourite.RouteStop
	Data      *PrecomputedData
	Payload   []byte
	Err       error
}

// BuildAll precomputes favs with at most workers builds in flight and
// returns results in input order. A failing favourite does not stop the
// batch; its error is kept in its Result. Only cancellation of ctx aborts.
func (b *Builder) BuildAll(ctx context.Context, favs []favourite.RouteStop, workers int, compress bool) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, len(favs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, fav := range favs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := Result{Favourite: fav}
			res.Data, res.Err = b.Build(fav)
			if res.Err == nil {
				res.Payload, res.Err = Encode(res.Data, compress)
			}
			if res.Err != nil {
				slog.Warn("widget precompute failed", "favourite", fav.ID, "route", fav.Route.RouteNumber, "co", fav.Co, "err", res.Err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
