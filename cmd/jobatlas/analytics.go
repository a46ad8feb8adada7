package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobatlas/internal/analytics"
	"github.com/amishk599/jobatlas/internal/model"
)

var analyticsLive bool

var analyticsCmd = &cobra.Command{
	Use:   "analytics <key>",
	Short: "Print a precomputed analytics document",
	Long: "Prints the cached analytics document for key as JSON. Expired entries are still printed.\n" +
		"Keys: " + strings.Join(analytics.Keys(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: analytics.Keys(),
	RunE:      runAnalytics,
}

func init() {
	analyticsCmd.Flags().BoolVar(&analyticsLive, "live", false, "compute from the cache when the stored entry is missing or expired")
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	get := a.reader.GetCached
	if analyticsLive {
		get = a.reader.Get
	}
	entry, err := get(ctx, args[0])
	switch {
	case errors.Is(err, model.ErrUnknownAnalyticsKey):
		return fmt.Errorf("unknown key %q (want one of %s)", args[0], strings.Join(analytics.Keys(), ", "))
	case errors.Is(err, model.ErrCacheMiss):
		return fmt.Errorf("no cached entry for %q; run `jobatlas sync` or pass --live", args[0])
	case err != nil:
		return err
	}

	if !entry.IsFresh && !entry.Live {
		logger.Warn("analytics entry is expired", "key", entry.Key, "expired_at", entry.ExpiresAt)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, entry.Data, "", "  "); err != nil {
		return fmt.Errorf("formatting %s: %w", entry.Key, err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(os.Stdout)
	return err
}
