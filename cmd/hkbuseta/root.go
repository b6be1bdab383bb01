package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theoremus-urban-solutions/hkbus-eta/config"
	"github.com/theoremus-urban-solutions/hkbus-eta/internal"
	"github.com/theoremus-urban-solutions/hkbus-eta/metrics"
	"github.com/theoremus-urban-solutions/hkbus-eta/registry"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	source     string
	language   string

	cfg     config.AppConfig
	metrics *metrics.Metrics
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "hkbuseta",
		Short: "HK Bus ETA route data, favourites and widget precompute",
		Long: `hkbuseta merges route branches from the HK Bus ETA data sheet, resolves
favourite stops and precomputes widget data.

Commands:
  serve       Run the favourites and widget HTTP server
  stops       Print the merged stop list of a route direction
  resolve     Resolve a favourite stop for a location
  precompute  Precompute widget data for every stored favourite`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: config.yml, ./config/config.yml)")
	root.PersistentFlags().StringVar(&a.source, "source", "", "data sheet source name from config sources[]")
	root.PersistentFlags().StringVar(&a.language, "lang", "", "display language, zh or en (overrides config)")

	root.AddCommand(a.serveCommand(), a.stopsCommand(), a.resolveCommand(), a.precomputeCommand())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	switch a.language {
	case "":
	case "zh", "en":
		cfg.Widget.Language = a.language
	default:
		return fmt.Errorf("unsupported language %q", a.language)
	}
	a.cfg = cfg
	a.metrics = metrics.New()
	internal.InitLogging(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}

// loadRegistry builds a registry and installs the selected data sheet.
func (a *app) loadRegistry(ctx context.Context) (*registry.Registry, error) {
	opts, err := registry.OptionsFromConfig(a.cfg.Merge)
	if err != nil {
		return nil, err
	}
	opts.Metrics = a.metrics
	reg := registry.New(nil, opts)
	if err := reg.Load(ctx, a.cfg.SelectSource(a.source)); err != nil {
		return nil, err
	}
	return reg, nil
}
