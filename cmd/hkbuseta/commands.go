package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/hkbus-eta/favourite"
	"github.com/theoremus-urban-solutions/hkbus-eta/hkbus"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
	"github.com/theoremus-urban-solutions/hkbus-eta/server"
	"github.com/theoremus-urban-solutions/hkbus-eta/store"
	"github.com/theoremus-urban-solutions/hkbus-eta/widget"
)

const outputDirPerm = 0o750

func (a *app) serveCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the favourites and widget HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			reg, err := a.loadRegistry(ctx)
			if err != nil {
				return err
			}
			db, err := store.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			srv := server.New(a.cfg, reg, db, a.metrics)
			if err := srv.Start(); err != nil {
				return err
			}
			if src := a.cfg.SelectSource(a.source); src.Watch {
				go func() {
					if err := reg.Watch(ctx, src, registry.DefaultDebounce); err != nil {
						slog.Error("data sheet watch stopped", "err", err)
					}
				}()
			}
			srv.WaitForShutdown(ctx)
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func (a *app) stopsCommand() *cobra.Command {
	var q registry.RouteQuery
	var co, region string
	cmd := &cobra.Command{
		Use:   "stops",
		Short: "Print the merged stop list of a route direction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.Co = hkbus.Operator(co)
			q.GMBRegion = hkbus.GMBRegion(strings.ToUpper(region))
			reg, err := a.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			list, err := reg.AllStops(q)
			if err != nil {
				return err
			}
			if len(list.Branches) == 0 {
				return fmt.Errorf("no branches match %s", q)
			}
			lang := a.cfg.Widget.Language

			branches := table.NewWriter()
			branches.SetOutputMirror(cmd.OutOrStdout())
			branches.SetStyle(table.StyleLight)
			branches.AppendHeader(table.Row{"Branch", "Service Type", "GTFS ID", "Destination", "Stops"})
			for i, r := range list.Branches {
				branches.AppendRow(table.Row{i, r.ServiceType, r.GTFSID, r.Dest.Get(lang), len(r.Stops[q.Co])})
			}
			branches.Render()

			stops := table.NewWriter()
			stops.SetOutputMirror(cmd.OutOrStdout())
			stops.SetStyle(table.StyleLight)
			stops.AppendHeader(table.Row{"#", "Stop ID", "Name", "Branches", "Owner"})
			for i, s := range list.Stops {
				ids := s.BranchIDs.Slice()
				slices.Sort(ids)
				stops.AppendRow(table.Row{i + 1, s.StopID, s.Stop.Name.Get(lang), joinInts(ids), s.BranchIndex})
			}
			stops.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.RouteNumber, "route", "r", "", "route number")
	cmd.Flags().StringVarP(&q.Bound, "bound", "b", "O", "bound (O, I, OI, NLB route id)")
	cmd.Flags().StringVar(&co, "co", string(hkbus.KMB), "operator")
	cmd.Flags().StringVar(&region, "gmb-region", "", "minibus region (HKI, KLN, NT)")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func (a *app) resolveCommand() *cobra.Command {
	var (
		routeKey, stopID, co, mode string
		index                      int
		lat, lng                   float64
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a favourite stop for a location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := reg.Snapshot()
			if err != nil {
				return err
			}
			fav, err := favourite.New(snap, routeKey, hkbus.Operator(co), stopID, index, favourite.ParseStopMode(mode))
			if err != nil {
				return err
			}
			var origin *hkbus.Coordinates
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				origin = &hkbus.Coordinates{Lat: lat, Lng: lng}
			}

			resolver := favourite.NewResolver(snap, a.metrics)
			stop, err := resolver.Resolve(fav, origin)
			if err != nil {
				return err
			}
			dest, err := resolver.ResolvedDestWithBranch(stop.Route, stop.Route, stop.Index, stop.StopID, stop.Route.ShouldPrependTo())
			if err != nil {
				return err
			}
			lang := a.cfg.Widget.Language
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode:  %s\n", fav.Mode)
			fmt.Fprintf(out, "stop:  %d. %s (%s)\n", stop.Index, stop.Stop.Name.Get(lang), stop.StopID)
			fmt.Fprintf(out, "route: %s %s\n", stop.Route.RouteNumber, stop.Route.GTFSID)
			fmt.Fprintf(out, "dest:  %s\n", dest.Get(lang))
			return nil
		},
	}
	cmd.Flags().StringVar(&routeKey, "route-key", "", "data sheet route key, e.g. 1A+1+kmb+O")
	cmd.Flags().StringVar(&stopID, "stop", "", "stop id")
	cmd.Flags().StringVar(&co, "co", "", "operator (default: the route's first)")
	cmd.Flags().IntVar(&index, "index", 0, "1-based stop index in the merged list")
	cmd.Flags().StringVar(&mode, "mode", string(favourite.ModeFixed), "FIXED or CLOSEST")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the user")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude of the user")
	_ = cmd.MarkFlagRequired("route-key")
	_ = cmd.MarkFlagRequired("stop")
	return cmd
}

func (a *app) precomputeCommand() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "precompute",
		Short: "Precompute widget data for every stored favourite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reg, err := a.loadRegistry(ctx)
			if err != nil {
				return err
			}
			snap, err := reg.Snapshot()
			if err != nil {
				return err
			}
			db, err := store.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			favs, err := db.Favourites()
			if err != nil {
				return err
			}
			builder := widget.NewBuilder(snap, a.cfg.Widget.Language, a.metrics)
			results, err := builder.BuildAll(ctx, favs, a.cfg.Widget.Workers, a.cfg.Widget.Compress)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, outputDirPerm); err != nil {
					return err
				}
			}

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"ID", "Route", "Co", "Stop", "Bytes", "Fingerprint", "Status"})
			now := time.Now()
			var failed int
			for _, res := range results {
				f := res.Favourite
				status, fingerprint := "", ""
				if res.Err != nil {
					failed++
					status = res.Err.Error()
				} else {
					fingerprint = widget.Fingerprint(res.Payload)[:12]
					changed, err := db.PutSnapshot(f.ID, res.Payload, now)
					if err != nil {
						return err
					}
					status = "unchanged"
					if changed {
						status = "updated"
					}
					if outDir != "" {
						if err := os.WriteFile(filepath.Join(outDir, payloadName(f.ID, a.cfg.Widget.Compress)), res.Payload, 0o600); err != nil {
							return err
						}
					}
				}
				tbl.AppendRow(table.Row{f.ID, f.Route.RouteNumber, f.Co, f.StopID, len(res.Payload), fingerprint, status})
			}
			tbl.AppendFooter(table.Row{"", "", "", "", "", "failed", failed})
			tbl.Render()
			if failed > 0 {
				return fmt.Errorf("%d of %d favourites failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "also write each payload into this directory")
	return cmd
}

func payloadName(id int, compressed bool) string {
	if compressed {
		return fmt.Sprintf("%d.json.gz", id)
	}
	return fmt.Sprintf("%d.json", id)
}
