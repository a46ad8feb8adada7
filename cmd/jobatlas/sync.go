package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobatlas/internal/audit"
	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/syncer"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full sync now",
	Long:  "One-shot sync: reads the source, classifies every posting, replaces the cache and refreshes analytics.",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "classify the source and print a summary without writing the cache")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The spinner renders inline; component logs would corrupt it, so they
	// are only shown with --debug, which also disables the spinner.
	componentLogger := discardLogger()
	if debug {
		componentLogger = logger
	}

	a, err := newApp(ctx, cfg, true, componentLogger)
	if err != nil {
		logger.Error("failed to set up sync", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if syncDryRun {
		return runPreview(ctx, a.syncer, logger)
	}

	report, err := withSpinner(ctx, "Syncing postings", func(ctx context.Context) (model.SyncReport, error) {
		return a.syncer.FullSync(ctx), nil
	})
	if err != nil {
		logger.Error("sync interrupted", "error", err)
		os.Exit(1)
	}

	printReport(report)
	if !report.Success {
		os.Exit(1)
	}
	return nil
}

func runPreview(ctx context.Context, s *syncer.Syncer, logger *slog.Logger) error {
	preview, err := withSpinner(ctx, "Classifying source postings", s.Preview)
	if err != nil {
		logger.Error("dry run failed", "error", err)
		os.Exit(1)
	}

	counts := map[string]int{}
	flagged := 0
	for _, r := range preview.Rows {
		counts[r.PrimaryCategory]++
		if audit.NeedsReview(r) {
			flagged++
		}
	}
	type catCount struct {
		id string
		n  int
	}
	var cats []catCount
	for id, n := range counts {
		cats = append(cats, catCount{id, n})
	}
	slices.SortFunc(cats, func(a, b catCount) int {
		if c := cmp.Compare(b.n, a.n); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	fmt.Printf("Dry run: %d source rows, %d duplicates, %d postings would be cached (%d flagged for review)\n\n",
		preview.TotalSource, preview.Duplicates, len(preview.Rows), flagged)
	for _, c := range cats {
		fmt.Printf("  %-32s %6d\n", c.id, c.n)
	}
	return nil
}

// withSpinner runs fn behind the inline spinner, or directly with --debug.
func withSpinner[T any](ctx context.Context, label string, fn func(ctx context.Context) (T, error)) (T, error) {
	if debug {
		return fn(ctx)
	}
	return audit.RunLoader(ctx, label, fn)
}

func printReport(r model.SyncReport) {
	if r.Success {
		fmt.Printf("✅ Sync %s completed in %s\n", r.RunID, time.Duration(r.DurationMs)*time.Millisecond)
	} else {
		fmt.Printf("❌ Sync %s failed: %s\n", r.RunID, r.Error)
	}
	fmt.Printf("   source rows: %d  cached: %d  duplicates: %d\n", r.TotalSource, r.TotalProcessed, r.Duplicates)
}
