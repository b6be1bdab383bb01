/*
Package registry answers route and stop queries over a loaded data sheet.

A route direction usually has several branches (service types) that share
most of their stops. AllStops merges the per-branch stop sequences into one
ordered list with the branchedlist package; every stop records which branches
serve it and which branch supplied its data (the lowest service type, then the
lowest GTFS id).

# Basic Usage

	reg := registry.New(nil, registry.DefaultOptions())
	if err := reg.Load(ctx, cfg.DataSheet); err != nil {
	    log.Fatal(err)
	}
	snap, _ := reg.Snapshot()
	stops, err := snap.AllStops(registry.RouteQuery{
	    RouteNumber: "1A", Bound: "O", Co: hkbus.KMB,
	})

# Reloading

Load prefers the gob cache, Reload always reads the source. Watch calls Reload
whenever the data sheet file changes. Snapshots taken before a reload keep
answering from the data sheet they were taken on.
*/
package registry
