package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/oneofjob/internal/cache"
	"github.com/amishk599/oneofjob/internal/config"
	"github.com/amishk599/oneofjob/internal/model"
	"github.com/amishk599/oneofjob/internal/ratelimit"
	"github.com/amishk599/oneofjob/internal/store"
	"github.com/amishk599/oneofjob/internal/upstream"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "oneofjob",
	Short: "Job listings served from the daily crawl",
	Long:  "oneofjob serves the crawled job listings over HTTP, caching them until the crawler's next daily run.",
	// `oneofjob` with no subcommand runs the server.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: ONEOFJOB_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > ONEOFJOB_CONFIG env var > "./config.yaml".
// A missing ./config.yaml falls back to the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	explicit := true
	if path == "" {
		if env := os.Getenv("ONEOFJOB_CONFIG"); env != "" {
			path = env
		} else {
			path = defaultConfigPath
			explicit = false
		}
	}
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func newUpstreamClient(cfg *config.Config, logger *slog.Logger) *upstream.Client {
	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	return upstream.NewClient(cfg.Upstream.BaseURL, httpClient, logger)
}

func openSnapshotStore(cfg *config.Config, logger *slog.Logger) (model.SnapshotStore, func(), error) {
	if cfg.Cache.PersistPath == "" {
		return store.NewNopStore(), func() {}, nil
	}
	s, err := store.NewSQLiteStore(cfg.Cache.PersistPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("cache snapshots enabled", "path", cfg.Cache.PersistPath)
	return s, func() { s.Close() }, nil
}

// buildCache wires the upstream client, the fetch rate limit and the
// snapshot store into a Cache and restores any snapshot of the current crawl.
func buildCache(cfg *config.Config, client *upstream.Client, snapshots model.SnapshotStore, logger *slog.Logger) *cache.Cache {
	limited := ratelimit.NewRateLimitedUpstream(client, ratelimit.NewLimiter(cfg.Upstream.MinInterval))
	schedule := cache.DailyAt(cfg.Cache.CrawlHour, cfg.Cache.CrawlMinute, cfg.Cache.Location)

	c := cache.New(limited, limited, schedule, logger,
		cache.WithFallbackCompanies(cfg.Companies),
		cache.WithSnapshotStore(snapshots),
	)
	if _, err := c.Restore(); err != nil {
		logger.Warn("failed to restore cache snapshots", "error", err)
	}
	return c
}
