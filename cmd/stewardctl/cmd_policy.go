package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/act-community/steward/pkg/fieldpolicy"
)

var (
	policyConfigPath string
	checkField       string
	checkAction      string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and query field access tiers",
}

var policyFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the blocked and read-only fields",
	RunE:  runPolicyFields,
}

var policyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Answer whether an action is permitted on a field",
	Long: `Resolves a single field/action pair against the tier registry.
A denial is a normal answer: the command prints allowed=false and
exits zero.

Example:
  stewardctl policy check --field sacred_knowledge --action read`,
	RunE: runPolicyCheck,
}

func init() {
	policyCmd.PersistentFlags().StringVar(&policyConfigPath, "config", "", "Field tier config file (default: built-in tiers)")

	policyCheckCmd.Flags().StringVar(&checkField, "field", "", "Field name (required)")
	policyCheckCmd.Flags().StringVar(&checkAction, "action", "read", "Action: read, write or delete")
	_ = policyCheckCmd.MarkFlagRequired("field")

	policyCmd.AddCommand(policyFieldsCmd)
	policyCmd.AddCommand(policyCheckCmd)
}

func loadPolicy() (*fieldpolicy.Registry, error) {
	if policyConfigPath != "" {
		logger.Debug("loading field tiers", zap.String("path", policyConfigPath))
	}
	return fieldpolicy.Load(policyConfigPath)
}

func runPolicyFields(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}
	return printJSON(cmd, policy.Snapshot())
}

func runPolicyCheck(cmd *cobra.Command, args []string) error {
	policy, err := loadPolicy()
	if err != nil {
		return err
	}

	field := strings.TrimSpace(checkField)
	action := fieldpolicy.Action(strings.ToLower(strings.TrimSpace(checkAction)))

	out := map[string]any{
		"field":  field,
		"action": action,
		"tier":   policy.Tier(field),
	}
	if err := policy.Check(field, action); err != nil {
		violation, ok := fieldpolicy.AsViolation(err)
		if !ok {
			return err
		}
		out["allowed"] = false
		out["code"] = violation.Code()
		out["message"] = violation.Error()
		return printJSON(cmd, out)
	}
	out["allowed"] = true
	return printJSON(cmd, out)
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
