package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/oneofjob/internal/browse"
	"github.com/amishk599/oneofjob/internal/model"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse jobs interactively (TUI)",
	Long:  "Loads the listing through the cache, then opens the full-screen browser with filters, sorting and detail view.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Anything logged once the alt-screen is up corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	snapshots, closeStore, err := openSnapshotStore(cfg, silentLogger)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	client := newUpstreamClient(cfg, silentLogger)
	jobCache := buildCache(cfg, client, snapshots, silentLogger)

	var companies []string
	jobs, err := browse.RunLoader("jobs", cfg.Upstream.Timeout, func(ctx context.Context) ([]model.Job, error) {
		companies = jobCache.Companies(ctx)
		return jobCache.Jobs(ctx)
	})
	if errors.Is(err, browse.ErrCancelled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}

	return browse.Run(jobs, companies, cfg.Listing.PageSize)
}
