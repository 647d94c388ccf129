package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/oneofjob/internal/cache"
	"github.com/amishk599/oneofjob/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Serves the job listing and cache admin API; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"environment", cfg.Environment,
		"upstream", cfg.Upstream.BaseURL,
		"crawl", cache.DailyAt(cfg.Cache.CrawlHour, cfg.Cache.CrawlMinute, cfg.Cache.Location).String(),
		"auth_enforced", cfg.Enforced(),
	)

	snapshots, closeStore, err := openSnapshotStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	client := newUpstreamClient(cfg, logger)
	jobCache := buildCache(cfg, client, snapshots, logger)

	srv := server.New(server.Config{
		Addr:                 cfg.Server.Addr,
		ReadTimeout:          cfg.Server.ReadTimeout,
		WriteTimeout:         cfg.Server.WriteTimeout,
		ShutdownTimeout:      cfg.Server.ShutdownTimeout,
		Environment:          cfg.Environment,
		Enforce:              cfg.Enforced(),
		AdminAPIKey:          cfg.Auth.AdminAPIKey,
		CrawlerWebhookSecret: cfg.Auth.CrawlerWebhookSecret,
		InvalidateCooldown:   cfg.Auth.InvalidateCooldown,
		PageSize:             cfg.Listing.PageSize,
		LatestCount:          cfg.Listing.LatestCount,
	}, jobCache, cache.NewDetails(jobCache, client, cfg.Cache.DefaultTTL), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
