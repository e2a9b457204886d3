package cmd

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/waydiffer/waydiffer/internal/app"
	"github.com/waydiffer/waydiffer/internal/archive"
	"github.com/waydiffer/waydiffer/internal/config"
	"github.com/waydiffer/waydiffer/internal/format"
)

// handleHistoryMode prints the most recent comparison runs.
func handleHistoryMode(ctx context.Context, cfg *config.Config, limit int, outputFormat format.OutputFormat) error {
	slog.Info("Running in history mode", "limit", limit)

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	runs, err := a.History.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no comparison runs recorded yet")
	}

	var sb strings.Builder
	for _, run := range runs {
		state := fmt.Sprintf("%d lines", run.Lines)
		if run.Identical {
			state = "identical"
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s -> %s\t%s\n",
			run.CreatedAt.Format("2006-01-02 15:04"), run.Mode, run.OldURL, run.NewURL, state)
	}
	out, err := format.FormatOutput(strings.TrimRight(sb.String(), "\n"), outputFormat)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// handleListMode prints the mementos available for a URL.
func handleListMode(ctx context.Context, cfg *config.Config, target string, days int, filter string, outputFormat format.OutputFormat) error {
	if days <= 0 {
		days = cfg.Archive.HistoryDays
	}
	slog.Info("Running in list mode", "url", target, "days", days, "filter", filter)

	client := archive.NewClient(cfg.Archive)
	mementos, err := client.Mementos(ctx, target, days)
	if err != nil {
		return err
	}
	if filter != "" {
		mementos = archive.Filter(mementos, filter)
	}
	if len(mementos) == 0 {
		return fmt.Errorf("no mementos found for %s within %d days", target, days)
	}

	var sb strings.Builder
	for _, m := range mementos {
		fmt.Fprintf(&sb, "%s\t%s\n", m.Label(), m.URL)
	}
	out, err := format.FormatOutput(strings.TrimRight(sb.String(), "\n"), outputFormat)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
