// Package app wires configuration, the store and the ingest sink together.
package app

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"

	"feedcache/internal/flusher"
	"feedcache/pkg/config"
	"feedcache/pkg/ingest"
	"feedcache/pkg/state"
	"feedcache/pkg/state/logger"
	"feedcache/pkg/state/shutdown"
	"feedcache/pkg/store"
	"feedcache/pkg/store/db"
	"feedcache/pkg/telemetry"
)

// App owns the open store for the lifetime of one command.
type App struct {
	eff      config.EffectiveConfigResult
	paths    state.Paths
	readOnly bool

	Store    *store.Store
	Ingestor *ingest.Ingestor
	Registry *prometheus.Registry

	stopFlusher context.CancelFunc
}

// New opens the store described by eff. A read-only app never creates
// directories and fails when the store does not exist yet.
func New(eff config.EffectiveConfigResult, readOnly bool) (*App, error) {
	cfg := eff.Config
	if cfg == nil {
		return nil, errors.New("effective config is nil")
	}

	a := &App{eff: eff, readOnly: readOnly, Registry: prometheus.NewRegistry()}
	if readOnly {
		a.paths = state.PathsFor(cfg.Store.DBPath)
		if _, err := os.Stat(a.paths.Store); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "no store at %s", a.paths.Store), store.ErrOpen)
		}
	} else {
		paths, err := state.Init(cfg.Store.DBPath)
		if err != nil {
			return nil, err
		}
		a.paths = paths
	}

	tel := telemetry.Options{
		BufferSize:    int(cfg.Telemetry.BufferSize.Int64()),
		QueueCapacity: cfg.Telemetry.QueueCapacity,
		FlushInterval: cfg.Telemetry.FlushInterval.Duration(),
		MaxFileSize:   cfg.Telemetry.FileMaxSize.Int64(),
	}
	if cfg.Telemetry.Dir != "" && !readOnly {
		tel.Dir = cfg.Telemetry.Dir
		if tel.Dir == "state" {
			tel.Dir = a.paths.Tel
		}
	}
	if err := telemetry.Init(tel, a.Registry); err != nil {
		return nil, errors.Wrap(err, "init telemetry")
	}

	profileCache := cfg.Store.ProfileCacheEntries
	if profileCache < 0 {
		profileCache = 0
	}
	st, err := store.Open(a.paths.Store, store.Options{
		Engine: db.Options{
			CacheSize:    cfg.Store.CacheSize.Int64(),
			MemTableSize: uint64(cfg.Store.MemTableSize.Int64()),
			DisableWAL:   cfg.Store.DisableWAL,
			Sync:         cfg.Store.SyncWrites,
			ReadOnly:     readOnly,
		},
		ProfileCacheSize: profileCache,
		Registerer:       a.Registry,
	})
	if err != nil {
		telemetry.Close()
		return nil, err
	}
	a.Store = st

	a.Ingestor, err = ingest.New(st, ingest.Options{
		Owner:          cfg.Owner(),
		Workers:        cfg.Ingest.Workers,
		SkipValidation: cfg.Ingest.SkipValidation,
		Registerer:     a.Registry,
	})
	if err != nil {
		_ = st.Close()
		telemetry.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Config() *config.Config { return a.eff.Config }

func (a *App) Paths() state.Paths { return a.paths }

// Start launches background work: the periodic flusher when enabled.
func (a *App) Start(ctx context.Context) error {
	if a.readOnly {
		return nil
	}
	stop, err := flusher.Start(ctx, a.eff.Config.Flush, a.Store)
	if err != nil {
		return err
	}
	a.stopFlusher = stop
	return nil
}

// Import reads JSON-lines events from r and applies them.
func (a *App) Import(ctx context.Context, r io.Reader) (ingest.Counts, error) {
	if a.readOnly {
		return ingest.Counts{}, errors.New("store opened read-only")
	}
	evs, err := ingest.ReadEvents(r)
	if err != nil {
		return a.Ingestor.Counts(), err
	}
	logger.Info("import_started", "events", len(evs))
	err = a.Ingestor.ApplyAll(ctx, evs)
	counts := a.Ingestor.Counts()
	logger.Info("import_finished", "applied", counts.Applied, "skipped", counts.Skipped, "rejected", counts.Rejected)
	return counts, err
}

// Close stops background work and closes the store.
func (a *App) Close() error {
	return shutdown.ShutdownApp(a.stopFlusher, a.Store)
}
