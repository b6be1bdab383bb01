package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/theoremus-urban-solutions/hkbus-eta/branchedlist"
	"github.com/theoremus-urban-solutions/hkbus-eta/config"
	"github.com/theoremus-urban-solutions/hkbus-eta/datasheet"
	"github.com/theoremus-urban-solutions/hkbus-eta/metrics"
)

var (
	// ErrNoData is returned while no data sheet has been loaded.
	ErrNoData = errors.New("registry: no data sheet loaded")
	// ErrUnknownStop is returned when a route references a stop missing from
	// the stop list.
	ErrUnknownStop = errors.New("registry: unknown stop")
)

// Options tunes stop list merging.
type Options struct {
	Offset                 branchedlist.OffsetStrategy
	MergeToFrontIfNotFound bool
	Metrics                *metrics.Metrics
}

// DefaultOptions matches the behaviour of the published apps.
func DefaultOptions() Options {
	return Options{Offset: branchedlist.OffsetMatchIndex, MergeToFrontIfNotFound: true}
}

// OptionsFromConfig converts the merge section of the configuration.
func OptionsFromConfig(cfg config.MergeConfig) (Options, error) {
	offset, err := branchedlist.ParseOffsetStrategy(cfg.OffsetStrategy)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", config.ErrInvalidStrategy, err)
	}
	return Options{Offset: offset, MergeToFrontIfNotFound: cfg.MergeToFront()}, nil
}

// Registry serves route and stop queries over the current data sheet. The
// data sheet can be replaced at any time; callers that need several
// consistent answers take a Snapshot.
type Registry struct {
	mu    sync.RWMutex
	index *datasheet.Index
	opts  Options
}

// New creates a registry over index, which may be nil until the first Swap.
func New(index *datasheet.Index, opts Options) *Registry {
	return &Registry{index: index, opts: opts}
}

// Options returns the merge options of the registry.
func (r *Registry) Options() Options { return r.opts }

// Snapshot returns a read-only view of the current data sheet.
func (r *Registry) Snapshot() (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.index == nil {
		return nil, ErrNoData
	}
	return NewSnapshot(r.index, r.opts), nil
}

// Swap installs index and returns the previous one.
func (r *Registry) Swap(index *datasheet.Index) *datasheet.Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.index
	r.index = index
	return old
}

// Load installs the data sheet described by cfg, preferring its cache.
func (r *Registry) Load(ctx context.Context, cfg config.DataSheetConfig) error {
	return r.load(ctx, cfg, datasheet.NewIndexFromConfig)
}

// Reload installs a fresh copy of the data sheet from its source. On failure
// the current data sheet stays in place.
func (r *Registry) Reload(ctx context.Context, cfg config.DataSheetConfig) error {
	return r.load(ctx, cfg, datasheet.NewIndexFromSource)
}

func (r *Registry) load(ctx context.Context, cfg config.DataSheetConfig,
	loader func(context.Context, config.DataSheetConfig) (*datasheet.Index, error)) error {
	index, err := loader(ctx, cfg)
	if err != nil {
		r.opts.Metrics.ObserveDataSheetLoad(0, err)
		return fmt.Errorf("load data sheet %q: %w", cfg.Name, err)
	}
	r.opts.Metrics.ObserveDataSheetLoad(len(index.RouteKeys()), nil)
	r.Swap(index)
	slog.Info("data sheet installed", "source", cfg.Name, "routes", len(index.RouteKeys()), "updated", index.UpdatedTime())
	return nil
}

// AllStops is a shortcut for Snapshot().AllStops.
func (r *Registry) AllStops(q RouteQuery) (*StopList, error) {
	s, err := r.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.AllStops(q)
}
