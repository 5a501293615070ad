// Package server provides the event-driven daemon components: the
// stats watcher feeding the bus and the engine loop consuming it.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aniarr/aniarr/internal/events"
	"github.com/aniarr/aniarr/internal/hierarchy"
	"github.com/aniarr/aniarr/internal/library"
	"github.com/aniarr/aniarr/internal/membership"
)

// Config for the event-driven server.
type Config struct {
	PollInterval   time.Duration
	FlushInterval  time.Duration
	EventBuffer    int
	EventRetention time.Duration
	RebuildOnStart bool
}

// Runner wires the store, hierarchy resolver, membership engine,
// stats watcher, and event bus together and manages their lifecycle.
type Runner struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// NewRunner creates a new runner.
func NewRunner(db *sql.DB, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

// Run starts all components and blocks until the context is canceled
// or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	eventLog := events.NewEventLog(r.db)
	bus := events.NewBus(eventLog, r.logger.With("component", "bus"))
	defer bus.Close()

	store := library.NewStore(r.db)
	resolver := hierarchy.NewResolver(store, r.logger.With("component", "hierarchy"))
	blobs := membership.NewSnapshotStore(r.db)
	engine := membership.NewEngine(store, resolver, store, blobs, store, r.logger.With("component", "engine"))

	defs, err := store.ListFilters()
	if err != nil {
		return err
	}
	engine.SetFilters(defs)

	if r.config.RebuildOnStart {
		err = engine.RebuildAll(ctx)
	} else {
		err = engine.LoadOrRebuild(ctx)
	}
	if err != nil {
		return err
	}

	watcher := NewStatsWatcher(store, bus, r.config.PollInterval, r.logger)

	seriesCh := bus.Subscribe(events.EventSeriesStatsUpdated, r.config.EventBuffer)
	groupCh := bus.Subscribe(events.EventGroupStatsUpdated, r.config.EventBuffer)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Run(ctx)
	})

	g.Go(func() error {
		return r.consume(ctx, engine, bus, seriesCh, groupCh)
	})

	g.Go(func() error {
		return r.flushLoop(ctx, engine)
	})

	if r.config.EventRetention > 0 {
		g.Go(func() error {
			return r.pruneLoop(ctx, eventLog)
		})
	}

	return g.Wait()
}

// consume applies stats events to the engine and publishes a
// membership-change event for every filter whose members moved.
func (r *Runner) consume(ctx context.Context, engine *membership.Engine, bus *events.Bus, chans ...<-chan events.Event) error {
	logger := r.logger.With("component", "engine-loop")

	merged := make(chan events.Event)
	var g errgroup.Group
	for _, ch := range chans {
		g.Go(func() error {
			for e := range ch {
				select {
				case merged <- e:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-merged:
			if !ok {
				return nil
			}
			upd, ok := e.(*events.StatsUpdated)
			if !ok {
				logger.Warn("unexpected event", "type", e.EventType())
				continue
			}
			changed, err := engine.NotifyEntityChanged(ctx, upd.Level, upd.EntityID(), upd.Old, upd.New)
			if err != nil {
				logger.Error("apply stats change", "level", upd.Level, "entity_id", upd.EntityID(), "error", err)
				continue
			}
			for _, filterID := range changed {
				if err := bus.Publish(ctx, events.NewMembershipChanged(filterID, upd.Level, upd.EntityID())); err != nil {
					logger.Error("publish membership change", "filter_id", filterID, "error", err)
				}
			}
		}
	}
}

func (r *Runner) flushLoop(ctx context.Context, engine *membership.Engine) error {
	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush so a clean shutdown loses nothing.
			engine.FlushDirty(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			engine.FlushDirty(ctx)
		}
	}
}

func (r *Runner) pruneLoop(ctx context.Context, eventLog *events.EventLog) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pruned, err := eventLog.Prune(r.config.EventRetention)
			if err != nil {
				r.logger.Error("prune events", "error", err)
				continue
			}
			if pruned > 0 {
				r.logger.Info("pruned events", "count", pruned)
			}
		}
	}
}
