package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/act-community/steward/internal/audit"
)

var (
	auditLogPath string
	tailLines    int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hash-chained audit trail",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the audit trail hash chain",
	Long: `Walks the trail and validates every link. Exits non-zero when the
chain is broken, so it can gate a backup or ingest job.`,
	RunE: runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the most recent audit entries",
	RunE:  runAuditTail,
}

func init() {
	auditCmd.PersistentFlags().StringVar(&auditLogPath, "log", "", "Audit trail path (required)")
	_ = auditCmd.MarkPersistentFlagRequired("log")

	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 20, "Number of entries to print")

	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	res := audit.Verify(auditLogPath)
	if err := printJSON(cmd, res); err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("audit trail invalid: %s", res.Error)
	}
	return nil
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	entries, err := audit.Tail(auditLogPath, tailLines)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}
