package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/oneofjob/internal/config"
)

var cacheFlags struct {
	server string
	key    string
	secret string
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or refresh a running server's cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print cache status",
	Long:  "Calls GET /api/cache with the admin key and prints the response.",
	RunE:  runCacheStatus,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Invalidate the cache",
	Long:  "Calls POST /api/cache/invalidate the way the crawler does after a run. Uses the webhook secret when set, else the admin key.",
	RunE:  runCacheRefresh,
}

func init() {
	pf := cacheCmd.PersistentFlags()
	pf.StringVar(&cacheFlags.server, "server", "", "server base URL (default: derived from server.addr)")
	pf.StringVar(&cacheFlags.key, "key", "", "admin API key (default: auth.admin_api_key)")
	pf.StringVar(&cacheFlags.secret, "secret", "", "crawler webhook secret (default: auth.crawler_webhook_secret)")

	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheRefreshCmd)
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	req, err := newAdminRequest(cmd.Context(), cfg, http.MethodGet, "/api/cache")
	if err != nil {
		return err
	}
	if key := orFlag(cacheFlags.key, cfg.Auth.AdminAPIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return doAdminRequest(req)
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	req, err := newAdminRequest(cmd.Context(), cfg, http.MethodPost, "/api/cache/invalidate")
	if err != nil {
		return err
	}
	if secret := orFlag(cacheFlags.secret, cfg.Auth.CrawlerWebhookSecret); secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	} else if key := orFlag(cacheFlags.key, cfg.Auth.AdminAPIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return doAdminRequest(req)
}

func newAdminRequest(ctx context.Context, cfg *config.Config, method, path string) (*http.Request, error) {
	base := cacheFlags.server
	if base == "" {
		base = serverURL(cfg.Server.Addr)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func doAdminRequest(req *http.Request) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	fmt.Fprintln(os.Stdout, string(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: HTTP %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return nil
}

// serverURL turns a listen address like ":8080" into a client base URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "http://localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return "http://" + addr
}

func orFlag(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
