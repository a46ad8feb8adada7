package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobatlas/internal/audit"
	"github.com/amishk599/jobatlas/internal/model"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Review cached classifications interactively (TUI)",
	Long:  "Shows the category picker TUI, then the split-pane review of that category's postings.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Audit mode runs a TUI and any log output before the alt-screen starts
	// corrupts the display.
	a, err := newApp(context.Background(), cfg, false, discardLogger())
	if err != nil {
		logger.Error("failed to open cache", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	runAudit(a)
	return nil
}

func runAudit(a *app) {
	ctx := context.Background()
	dict := a.classifier.Dictionary()

	stats, err := a.store.CategoryStats(ctx)
	if err != nil {
		fmt.Printf("Error reading categories: %v\n", err)
		return
	}
	if len(stats) == 0 {
		fmt.Println("The cache is empty. Run `jobatlas sync` first.")
		return
	}
	options := make([]audit.CategoryOption, 0, len(stats))
	for _, s := range stats {
		options = append(options, audit.CategoryOption{ID: s.Category, Name: dict.Name(s.Category), Count: s.Total})
	}

	for {
		choice, err := audit.RunCategoryPicker(options)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		category := options[choice]

		postings, err := audit.RunLoader(ctx, "Loading "+category.Name, func(ctx context.Context) ([]model.ClassifiedPosting, error) {
			return audit.LoadCategory(ctx, a.store, category.ID)
		})
		if err != nil {
			fmt.Printf("Error loading postings: %v\n", err)
			continue
		}

		wantQuit, err := audit.RunAuditTUI(category.ID, postings, dict.Name)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
