package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"log/slog"

	charmlog "github.com/charmbracelet/log"

	"github.com/waydiffer/waydiffer/internal/app"
	"github.com/waydiffer/waydiffer/internal/config"
	"github.com/waydiffer/waydiffer/internal/format"
	"github.com/waydiffer/waydiffer/internal/snapshot"
)

// syncWriter is a thread-safe writer that prevents interleaved output
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

// Write implements io.Writer
func (sw *syncWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// newSyncWriter creates a new synchronized writer
func newSyncWriter(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

type compareOptions struct {
	OldURL  string
	NewURL  string
	Mode    snapshot.Mode
	Format  format.OutputFormat
	Save    string
	Quiet   bool
	Verbose bool
}

// handleCompareMode diffs two snapshots without the web UI.
func handleCompareMode(ctx context.Context, cfg *config.Config, opts compareOptions) error {
	slog.Info("Running in compare mode", "old", opts.OldURL, "new", opts.NewURL,
		"mode", opts.Mode, "format", opts.Format, "quiet", opts.Quiet, "verbose", opts.Verbose)

	// Sanity check for mutually exclusive flags
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose flags cannot be used together")
	}

	// Set up logging to stderr if verbose mode is enabled
	if opts.Verbose {
		charmLogger := charmlog.NewWithOptions(newSyncWriter(os.Stderr), charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "waydiffer",
		})
		charmlog.SetDefault(charmLogger)
		slog.SetDefault(slog.New(charmLogger))
		charmLogger.Info("Verbose logging enabled")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create app", "error", err)
		return err
	}
	defer a.Shutdown()

	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "Comparing %s against %s...\n", opts.OldURL, opts.NewURL)
	}

	result, err := a.Compare(ctx, opts.OldURL, opts.NewURL, opts.Mode)
	if err != nil {
		return err
	}

	if result.Identical {
		out, err := format.FormatOutput("The two snapshots are identical.", opts.Format)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	if opts.Save != "" {
		path, err := a.Save(ctx, &result, opts.Save)
		if err != nil {
			return err
		}
		// The saved path is the result of the run, not progress chatter,
		// so quiet mode still prints it.
		fmt.Printf("Diff page saved to %s\n", path)
	}

	content := fmt.Sprintf("Rendered diff with %d lines.", result.Lines)
	if opts.Format == format.HTMLFormat {
		content = result.HTML
	}
	out, err := format.FormatOutput(content, opts.Format)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
