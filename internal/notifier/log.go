package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobatlas/internal/model"
)

// Ensure LogNotifier implements model.SyncNotifier.
var _ model.SyncNotifier = (*LogNotifier)(nil)

// LogNotifier writes sync outcomes to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each sync report via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifySync logs the report. Returns nil (stdout logging does not fail).
func (n *LogNotifier) NotifySync(_ context.Context, r model.SyncReport) error {
	args := []any{
		"run_id", r.RunID,
		"success", r.Success,
		"total_source", r.TotalSource,
		"total", r.TotalProcessed,
		"duplicates", r.Duplicates,
		"duration_ms", r.DurationMs,
	}
	if r.Error != "" {
		n.logger.Warn("sync report", append(args, "error", r.Error)...)
		return nil
	}
	n.logger.Info("sync report", args...)
	return nil
}
