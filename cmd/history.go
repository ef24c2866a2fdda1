package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/reail-cli/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the local scan history",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scan history, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		filter, _ := cmd.Flags().GetString("filter")
		f, err := parseFilter(filter)
		if err != nil {
			return err
		}

		entries := env.History.Filter(cmd.Context(), f)
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No scans found.")
			return nil
		}
		formatHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

// -- history clear --

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.History.Clear(cmd.Context()); err != nil {
			return eris.Wrap(err, "history clear")
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "History cleared.")
		return nil
	},
}

// -- history purge --

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete entries older than --days (default from the auto-delete setting)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = env.Settings.Settings(cmd.Context()).AutoDelete.Days()
		}
		if days <= 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Auto-delete is off; pass --days to purge.")
			return nil
		}

		before := len(env.History.Load(cmd.Context()))
		after, err := env.History.PurgeOlderThan(cmd.Context(), days)
		if err != nil {
			return eris.Wrap(err, "history purge")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Removed %d entries older than %d days.\n", before-len(after), days)
		return nil
	},
}

// -- history export --

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history as JSON or YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		format, _ := cmd.Flags().GetString("format")
		path, _ := cmd.Flags().GetString("out")

		out := cmd.OutOrStdout()
		if path != "" {
			f, err := os.Create(path)
			if err != nil {
				return eris.Wrap(err, "history export: create file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return exportHistory(out, env.History.Load(cmd.Context()), format)
	},
}

func exportHistory(out io.Writer, entries []model.HistoryEntry, format string) error {
	switch format {
	case "json", "":
		return writeJSON(out, entries)
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return eris.Wrap(err, "history export: encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("history export: unsupported format %q", format)
	}
}

func parseFilter(s string) (model.FilterType, error) {
	switch f := model.FilterType(s); f {
	case "":
		return model.FilterAll, nil
	case model.FilterAll, model.FilterVerified, model.FilterUnverified, model.FilterHighRisk:
		return f, nil
	default:
		return "", eris.Errorf("unknown filter %q (all, verified, unverified, high_risk)", s)
	}
}

func init() {
	historyListCmd.Flags().String("filter", "all", "badge filter (all, verified, unverified, high_risk)")
	historyPurgeCmd.Flags().Int("days", 0, "age threshold in days")
	historyExportCmd.Flags().String("format", "json", "output format (json, yaml)")
	historyExportCmd.Flags().String("out", "", "write to a file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyPurgeCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
