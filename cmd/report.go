package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reail-cli/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <scan-id>",
	Short: "Report a scanned item as a scam",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		category, _ := cmd.Flags().GetString("category")
		reason, _ := cmd.Flags().GetString("reason")
		notes, _ := cmd.Flags().GetString("notes")

		rec, err := env.Reporter.Report(cmd.Context(), report.Request{
			ScanID:   args[0],
			Category: category,
			Reason:   reason,
			Notes:    notes,
		})
		if err != nil {
			return eris.Wrap(err, "report")
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		if rec.Submitted {
			fmt.Fprintf(cmd.OutOrStdout(), "Reported %s as %s.\n", rec.ScanID, rec.Category)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Report for %s recorded locally; the backend could not be reached.\n", rec.ScanID)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().String("category", report.CategoryOther, "scam, phishing, impersonation, fake_product, misinformation or other")
	reportCmd.Flags().String("reason", "", "short reason")
	reportCmd.Flags().String("notes", "", "free-form notes")
	rootCmd.AddCommand(reportCmd)
}
