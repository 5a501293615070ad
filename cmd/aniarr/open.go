package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/aniarr/aniarr/internal/config"
	"github.com/aniarr/aniarr/internal/filter"
	"github.com/aniarr/aniarr/internal/hierarchy"
	"github.com/aniarr/aniarr/internal/library"
	"github.com/aniarr/aniarr/internal/membership"
	"github.com/aniarr/aniarr/internal/migrations"
	"github.com/aniarr/aniarr/pkg/match"
)

// openDB loads the config and opens the library database, applying
// migrations so every command works against a fresh file.
func openDB() (*sql.DB, *config.Config, error) {
	path := configFile
	if path == "" {
		var err error
		path, err = config.Discover()
		if err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return db, cfg, nil
}

// cliLogger only surfaces warnings so command output stays clean.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// newEngine builds a membership engine over the store with persisted
// memberships loaded (rebuilding any that are stale or missing).
func newEngine(ctx context.Context, db *sql.DB, store *library.Store) (*membership.Engine, error) {
	logger := cliLogger()
	resolver := hierarchy.NewResolver(store, logger)
	blobs := membership.NewSnapshotStore(db)
	engine := membership.NewEngine(store, resolver, store, blobs, store, logger)

	defs, err := store.ListFilters()
	if err != nil {
		return nil, err
	}
	engine.SetFilters(defs)

	if err := engine.LoadOrRebuild(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

// resolveFilter looks a filter up by ID, exact name, then fuzzy name.
func resolveFilter(store *library.Store, nameOrID string) (*filter.Definition, error) {
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		return store.GetFilter(id)
	}

	defs, err := store.ListFilters()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		if d.Name == nameOrID {
			return d, nil
		}
		names = append(names, d.Name)
	}

	best := match.Name(nameOrID, names)
	if best.Confidence >= match.ConfidenceMedium {
		for _, d := range defs {
			if d.Name == best.Name {
				return d, nil
			}
		}
	}
	if best.Confidence > match.ConfidenceNone {
		return nil, fmt.Errorf("no filter named %q (did you mean %q?)", nameOrID, best.Name)
	}
	return nil, fmt.Errorf("no filter named %q", nameOrID)
}

// readDefinition loads a filter definition from a JSON file, or stdin
// when path is "-".
func readDefinition(path string) (*filter.Definition, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var def filter.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}
	return &def, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
