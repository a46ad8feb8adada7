package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobatlas/internal/model"
	"github.com/amishk599/jobatlas/internal/source"
)

var (
	classifyTitle         string
	classifyDescription   string
	classifyGrade         string
	classifyLabels        string
	classifyDictionary    string
	classifyLeadershipMin int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single posting and print the result",
	Long:  "Runs the classifier on one posting given by flags. No config, database or cache is needed.",
	RunE:  runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyTitle, "title", "", "posting title")
	f.StringVar(&classifyDescription, "description", "", "posting description")
	f.StringVar(&classifyGrade, "grade", "", "grade, e.g. P-4 or D-1")
	f.StringVar(&classifyLabels, "labels", "", "comma-separated labels")
	f.StringVar(&classifyDictionary, "dictionary", "", "YAML dictionary file (default: built-in)")
	f.IntVar(&classifyLeadershipMin, "leadership-min", 0, "lowest P-grade treated as leadership (default 5)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if classifyTitle == "" && classifyDescription == "" {
		return fmt.Errorf("--title or --description is required")
	}

	cls, err := setupClassifier(classifyDictionary, classifyLeadershipMin)
	if err != nil {
		return err
	}

	res := cls.Classify(model.Posting{
		Title:       classifyTitle,
		Description: classifyDescription,
		Grade:       classifyGrade,
		Labels:      source.ParseLabels(classifyLabels),
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
