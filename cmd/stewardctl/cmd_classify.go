package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/act-community/steward/modules/contacts/domain/types"
	contactservices "github.com/act-community/steward/modules/contacts/services"
)

var classifyRulesPath string

var classifyCmd = &cobra.Command{
	Use:   "classify [file]",
	Short: "Run the review classifier over a contact document",
	Long: `Reads a contact document ({"id": ..., "tags": [...], "fields": {...}})
from a file, or from stdin when the argument is omitted or "-", and
prints the resulting review flag.

Example:
  stewardctl classify contact.json --rules config/policy/review_rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyRulesPath, "rules", "", "Review rules config file (default: built-in rules)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := contactservices.LoadReviewConfig(classifyRulesPath)
	if err != nil {
		return err
	}
	classifier, err := contactservices.NewClassifier(cfg)
	if err != nil {
		return err
	}

	reader := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		reader = f
	}

	var doc struct {
		ID     string         `json:"id"`
		Tags   []string       `json:"tags"`
		Fields map[string]any `json:"fields"`
	}
	if err := json.NewDecoder(reader).Decode(&doc); err != nil {
		return fmt.Errorf("parse contact: %w", err)
	}

	flag := classifier.Classify(types.Contact{ID: doc.ID, Tags: doc.Tags, Fields: doc.Fields})
	if flag.RequiresReview {
		logger.Debug("contact flagged",
			zap.String("contact_id", doc.ID),
			zap.String("reason", flag.Reason),
		)
	}
	return printJSON(cmd, flag)
}
