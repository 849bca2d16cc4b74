package cli

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/notewatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notewatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/notewatch/internal/connectors/filesystem"
	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/core/ports/driving"
	"github.com/custodia-labs/notewatch/internal/core/services"
	"github.com/custodia-labs/notewatch/internal/logger"
	"github.com/custodia-labs/notewatch/internal/normalisers/frontmatter"
	"github.com/custodia-labs/notewatch/internal/workflows"
)

// App holds the wired services used by the commands.
type App struct {
	Config    domain.Config
	Poller    driving.Poller
	Audit     driving.AuditService
	Rules     driving.RuleCatalog
	Workflows []string

	closers []func() error
}

// Close releases the trigger and the store, in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// stores groups the durable tables of one backend.
type stores struct {
	snapshots driven.SnapshotStore
	events    driven.EventLog
	runs      driven.RunLog
	artifacts driven.ArtifactStore
	close     func() error
}

func openStores(cfg domain.Config) (*stores, error) {
	switch cfg.Storage {
	case domain.StorageMemory:
		logger.Warn("using in-memory storage; nothing survives a restart")
		return &stores{
			snapshots: memory.NewSnapshotStore(),
			events:    memory.NewEventLog(),
			runs:      memory.NewRunLog(),
			artifacts: memory.NewArtifactStore(),
			close:     func() error { return nil },
		}, nil
	case domain.StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Debug("store: %s", store.Path())
		return &stores{
			snapshots: store.SnapshotStore(),
			events:    store.EventLog(),
			runs:      store.RunLog(),
			artifacts: store.ArtifactStore(),
			close:     store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage %q", domain.ErrInvalidConfig, cfg.Storage)
	}
}

// buildApp wires the pipeline for cfg.
func buildApp(cfg domain.Config) (*App, error) {
	logger.Section("Startup")

	builders := workflows.NewRegistry()
	workflows.RegisterDefaults(builders)
	registry := services.NewWorkflowRegistry()
	if err := workflows.Install(builders, registry, cfg); err != nil {
		return nil, err
	}

	rules, err := services.BuildRuleRegistry(cfg.Rules, registry)
	if err != nil {
		return nil, err
	}

	tracked := append([]string(nil), cfg.TrackedFields...)
	for _, field := range rules.Fields() {
		if !cfg.IsTracked(field) {
			logger.Warn("rule field %q is not in tracked_fields; tracking it", field)
			tracked = append(tracked, field)
		}
	}

	st, err := openStores(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:    cfg,
		Audit:     services.NewAuditService(st.events, st.runs, st.artifacts),
		Rules:     rules,
		Workflows: registry.Names(),
		closers:   []func() error{st.close},
	}

	var limiter *rate.Limiter
	if cfg.DispatchRate > 0 {
		burst := cfg.DispatchBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.DispatchRate), burst)
	}

	dispatcher := services.NewDispatcher(services.DispatcherConfig{
		RunLog:    st.runs,
		Workflows: registry,
		Artifacts: st.artifacts,
		Window:    cfg.IdempotencyWindow,
		Timeout:   cfg.HandlerTimeout,
		Limiter:   limiter,
	})

	var trigger driven.ChangeTrigger
	if cfg.Watch {
		t := filesystem.NewTrigger(cfg.NotesDir, filesystem.DefaultDebounce)
		a.closers = append(a.closers, t.Close)
		trigger = t
	}

	a.Poller = services.NewPoller(services.PollerConfig{
		Source:        filesystem.New(cfg.NotesDir, cfg.Extensions),
		Extractor:     frontmatter.New(),
		Snapshots:     st.snapshots,
		Events:        st.events,
		Rules:         rules,
		Dispatcher:    dispatcher,
		Trigger:       trigger,
		TrackedFields: tracked,
		Interval:      cfg.PollInterval,
		Workers:       cfg.Workers,
	})

	logger.Debug("notes: %s, %d rules, workflows %v", cfg.NotesDir, rules.Len(), a.Workflows)
	return a, nil
}
