package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/waydiffer/waydiffer/internal/app"
	"github.com/waydiffer/waydiffer/internal/config"
	"github.com/waydiffer/waydiffer/internal/format"
	"github.com/waydiffer/waydiffer/internal/logging"
	"github.com/waydiffer/waydiffer/internal/server"
	"github.com/waydiffer/waydiffer/internal/snapshot"
	"github.com/waydiffer/waydiffer/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "waydiffer",
	Short: "Compare archived snapshots of web resources",
	Long: `Waydiffer fetches two snapshots of a web resource, typically Wayback
Machine mementos, normalizes them per content type and renders a
self-contained HTML page showing the character-level differences.
Without flags it starts a local web UI for picking snapshots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("help").Changed {
			cmd.Help()
			return nil
		}
		if cmd.Flag("version").Changed {
			fmt.Println(version.Version)
			return nil
		}

		// Setup logging
		if err := logging.InitService(); err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(logging.NewWriter(), nil))
		slog.SetDefault(logger)

		// Load the config
		debug, _ := cmd.Flags().GetBool("debug")
		cwd, _ := cmd.Flags().GetString("cwd")
		if cwd != "" {
			err := os.Chdir(cwd)
			if err != nil {
				return fmt.Errorf("failed to change directory: %v", err)
			}
		}
		if cwd == "" {
			c, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current working directory: %v", err)
			}
			cwd = c
		}
		cfg, err := config.Load(cwd, debug)
		if err != nil {
			return err
		}

		outputFormatStr, _ := cmd.Flags().GetString("output-format")
		outputFormat := format.OutputFormat(outputFormatStr)
		if !outputFormat.IsValid() {
			return fmt.Errorf("invalid output format: %s", outputFormatStr)
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		verbose, _ := cmd.Flags().GetBool("verbose")

		serve, _ := cmd.Flags().GetBool("serve")

		// History mode: print recent comparison runs and exit.
		if historyLimit, _ := cmd.Flags().GetInt("history"); historyLimit > 0 && !serve {
			return handleHistoryMode(cmd.Context(), cfg, historyLimit, outputFormat)
		}

		// List mode: print the available mementos for a URL and exit.
		listURL, _ := cmd.Flags().GetString("list")
		if listURL != "" && !serve {
			days, _ := cmd.Flags().GetInt("days")
			filter, _ := cmd.Flags().GetString("filter")
			return handleListMode(cmd.Context(), cfg, listURL, days, filter, outputFormat)
		}

		// Compare mode: diff two snapshots without the web UI.
		oldURL, _ := cmd.Flags().GetString("old")
		newURL, _ := cmd.Flags().GetString("new")
		if (oldURL != "" || newURL != "") && !serve {
			if oldURL == "" || newURL == "" {
				return fmt.Errorf("--old and --new must be given together")
			}
			modeStr, _ := cmd.Flags().GetString("mode")
			mode := snapshot.Mode(modeStr)
			if !mode.IsValid() {
				return fmt.Errorf("invalid compare mode: %s", modeStr)
			}
			savePath, _ := cmd.Flags().GetString("save")
			return handleCompareMode(cmd.Context(), cfg, compareOptions{
				OldURL:  oldURL,
				NewURL:  newURL,
				Mode:    mode,
				Format:  outputFormat,
				Save:    savePath,
				Quiet:   quiet,
				Verbose: verbose,
			})
		}

		// Default: serve the local web UI.
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := app.New(ctx, cfg)
		if err != nil {
			slog.Error("Failed to create app", "error", err)
			return err
		}
		defer a.Shutdown()

		go func() {
			defer logging.RecoverPanic("signal-handler", cancel)
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sig:
				slog.Info("shutdown signal received")
				cancel()
			case <-ctx.Done():
			}
		}()

		srv := server.New(a)
		if !quiet {
			fmt.Printf("waydiffer listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
		}
		return srv.Start(ctx)
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.Flags().BoolP("debug", "d", false, "Debug")
	rootCmd.Flags().StringP("cwd", "c", "", "Current working directory")

	rootCmd.Flags().StringP("list", "l", "", "List available mementos for a URL")
	rootCmd.Flags().Int("days", 0, "History window in days for --list (default from config)")
	rootCmd.Flags().String("filter", "", "Fuzzy filter for --list results")
	rootCmd.Flags().Int("history", 0, "List the N most recent comparison runs")

	rootCmd.Flags().String("old", "", "Old snapshot URL for non-interactive compare")
	rootCmd.Flags().String("new", "", "New snapshot URL for non-interactive compare")
	rootCmd.Flags().StringP("mode", "m", "source", "Compare mode (source, text)")
	rootCmd.Flags().StringP("output-format", "f", "text", "Output format for non-interactive mode (text, json, html)")
	rootCmd.Flags().StringP("save", "s", "", "Write the rendered diff page to this path")
	rootCmd.Flags().BoolP("quiet", "q", false, "Suppress progress output")
	rootCmd.Flags().Bool("verbose", false, "Log details to stderr while comparing")

	rootCmd.Flags().IntP("port", "p", 0, "Port for the web UI (default from config)")
	rootCmd.Flags().Bool("serve", false, "Start the web UI even when other mode flags are set")
}
