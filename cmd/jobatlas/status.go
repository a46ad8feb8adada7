package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobatlas/internal/analytics"
	"github.com/amishk599/jobatlas/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status and cache freshness",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var (
	statusHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	statusCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	statusGood        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusBad         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusWarn        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func runStatus(cmd *cobra.Command, args []string) error {
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

	meta, err := a.store.GetSyncMetadata(ctx)
	if err != nil {
		logger.Error("failed to read sync metadata", "error", err)
		os.Exit(1)
	}
	count, err := a.store.CountPostings(ctx)
	if err != nil {
		logger.Error("failed to count postings", "error", err)
		os.Exit(1)
	}

	fmt.Println(syncTable(meta, count).Render())
	fmt.Println()

	now := time.Now()
	rows := make([][]string, 0, len(analytics.Keys()))
	for _, key := range analytics.Keys() {
		entry, err := a.reader.GetCached(ctx, key)
		switch {
		case errors.Is(err, model.ErrCacheMiss):
			rows = append(rows, []string{key, statusWarn.Render("missing"), "", ""})
		case err != nil:
			rows = append(rows, []string{key, statusBad.Render("error"), err.Error(), ""})
		default:
			state := statusGood.Render("fresh")
			if !entry.IsFresh {
				state = statusWarn.Render("expired")
			}
			rows = append(rows, []string{key, state, entry.CreatedAt.Local().Format(time.DateTime), humanAge(now.Sub(entry.CreatedAt))})
		}
	}
	fmt.Println(newTable("Analytics", "State", "Computed", "Age").Rows(rows...).Render())
	return nil
}

func syncTable(meta model.SyncMetadata, cached int) *table.Table {
	status := meta.Status
	switch meta.Status {
	case model.SyncCompleted:
		status = statusGood.Render(status)
	case model.SyncFailed:
		status = statusBad.Render(status)
	case model.SyncSyncing:
		status = statusWarn.Render(status)
	}

	t := newTable("Sync", "").
		Row("Status", status).
		Row("Run ID", meta.RunID).
		Row("Started", fmtTime(meta.StartedAt)).
		Row("Last success", fmtTime(meta.LastSyncAt)).
		Row("Total jobs", fmt.Sprintf("%d", meta.TotalJobs)).
		Row("Cached rows", fmt.Sprintf("%d", cached)).
		Row("Duration", (time.Duration(meta.DurationMs) * time.Millisecond).String())
	if meta.LastError != "" {
		t.Row("Last error", statusBad.Render(meta.LastError))
	}
	return t
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return statusHeaderStyle
			}
			return statusCellStyle
		}).
		Headers(headers...)
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}

func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
