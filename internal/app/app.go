// Package app wires configuration, storage and the services together and
// exposes the comparison pipeline they form.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/waydiffer/waydiffer/internal/archive"
	"github.com/waydiffer/waydiffer/internal/config"
	"github.com/waydiffer/waydiffer/internal/diff"
	"github.com/waydiffer/waydiffer/internal/history"
	"github.com/waydiffer/waydiffer/internal/page"
	"github.com/waydiffer/waydiffer/internal/snapshot"
)

type App struct {
	Config    *config.Config
	Storage   *Storage
	Archive   *archive.Client
	Snapshots snapshot.Service
	History   history.Service
	Engine    *diff.Engine
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	dataDir := cfg.Data.Directory
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(cfg.WorkingDir, dataDir)
	}

	storage, err := OpenStorage(dataDir)
	if err != nil {
		return nil, err
	}

	client := archive.NewClient(cfg.Archive)

	app := &App{
		Config:    cfg,
		Storage:   storage,
		Archive:   client,
		Snapshots: snapshot.NewService(client, storage, cfg.Archive.CacheMaxAge()),
		History:   history.NewService(storage),
		Engine:    diff.NewEngine(),
	}

	slog.Info("app initialized", "dataDir", dataDir)
	return app, nil
}

// Result is the outcome of one comparison.
type Result struct {
	Identical bool
	Lines     int
	HTML      string
	Run       history.Run
}

// Compare resolves both snapshots, diffs them, and renders the diff page.
// Identical documents short-circuit with Result.Identical set before any
// line reassembly runs. Failure to resolve either document aborts the run;
// failure to record history does not.
func (a *App) Compare(ctx context.Context, oldURL, newURL string, mode snapshot.Mode) (Result, error) {
	oldSnap, err := a.Snapshots.Resolve(ctx, oldURL, mode)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", oldURL, err)
	}
	newSnap, err := a.Snapshots.Resolve(ctx, newURL, mode)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", newURL, err)
	}

	ops, err := a.Engine.Compute(oldSnap.Body, newSnap.Body)
	if errors.Is(err, diff.ErrIdentical) {
		slog.Info("documents are identical", "old", oldURL, "new", newURL)
		run := a.record(ctx, history.Run{
			OldURL: oldURL, NewURL: newURL, Mode: string(mode), Identical: true,
		})
		return Result{Identical: true, Run: run}, nil
	}
	if err != nil {
		return Result{}, err
	}

	lines := diff.Reassemble(ops)
	html, err := page.Render(lines)
	if err != nil {
		return Result{}, err
	}

	run := a.record(ctx, history.Run{
		OldURL: oldURL, NewURL: newURL, Mode: string(mode), Lines: len(lines),
	})

	slog.Info("comparison complete", "old", oldURL, "new", newURL, "lines", len(lines))
	return Result{Lines: len(lines), HTML: html, Run: run}, nil
}

func (a *App) record(ctx context.Context, run history.Run) history.Run {
	recorded, err := a.History.Create(ctx, run)
	if err != nil {
		slog.Warn("failed to record run", "error", err)
		return run
	}
	return recorded
}

// Save writes the rendered page to path and returns its absolute location.
// The run record is updated to carry the path; failure to update it only
// warns, like failure to record the run in the first place.
func (a *App) Save(ctx context.Context, result *Result, path string) (string, error) {
	if err := os.WriteFile(path, []byte(result.HTML), 0o644); err != nil {
		return "", fmt.Errorf("saving diff page: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	slog.Info("diff page saved", "path", abs)

	result.Run.OutputPath = abs
	if result.Run.ID != "" {
		if _, err := a.History.Update(ctx, result.Run); err != nil {
			slog.Warn("failed to record saved path on run", "error", err)
		}
	}
	return abs, nil
}

func (a *App) Shutdown() {
	a.Snapshots.Shutdown()
	a.History.Shutdown()
	if err := a.Storage.Close(); err != nil {
		slog.Warn("failed to close storage", "error", err)
	}
}
