package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobatlas/internal/classifier"
	"github.com/amishk599/jobatlas/internal/config"
	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/notifier"
)

var (
	cfgPath   string
	debug     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "jobatlas",
	Short: "Job-vacancy classification cache and analytics",
	Long:  "jobatlas mirrors job postings from the source database into a classified local cache and serves analytics over it.",
	// Default to `start` so that `jobatlas` with no args runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBATLAS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format: text or json")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBATLAS_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	return config.Load(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	return newLogger(os.Stdout, dbg, logFormat)
}

func newLogger(w io.Writer, dbg bool, format string) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.SyncNotifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupClassifier builds the classifier from the configured dictionary file,
// or the built-in dictionary when none is set.
func setupClassifier(dictPath string, leadershipMin int) (*classifier.Classifier, error) {
	dict := classifier.DefaultDictionary()
	if dictPath != "" {
		d, err := classifier.LoadDictionary(dictPath)
		if err != nil {
			return nil, fmt.Errorf("loading dictionary: %w", err)
		}
		dict = d
	}
	opts := classifier.DefaultOptions()
	if leadershipMin > 0 {
		opts.LeadershipMinProfessional = leadershipMin
	}
	return classifier.New(dict, opts), nil
}
