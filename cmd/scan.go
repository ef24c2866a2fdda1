package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a link or a piece of media",
}

var scanURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Scan a link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(o *scan.Orchestrator, opts scan.Options) (*model.ScanResult, error) {
			return o.ScanURL(cmd.Context(), args[0], opts)
		})
	},
}

var scanMediaCmd = &cobra.Command{
	Use:   "media <path-or-uri>",
	Short: "Scan a screenshot or other media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(o *scan.Orchestrator, opts scan.Options) (*model.ScanResult, error) {
			return o.ScanMedia(cmd.Context(), args[0], opts)
		})
	},
}

func runScan(cmd *cobra.Command, do func(*scan.Orchestrator, scan.Options) (*model.ScanResult, error)) error {
	env, err := initApp(cmd.Context(), cfg, "local")
	if err != nil {
		return err
	}
	defer env.Close()

	res, err := do(env.Scanner, scanOptions(cmd))
	if err != nil {
		return eris.Wrap(err, "scan")
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	formatResult(cmd.OutOrStdout(), res)
	return nil
}

// scanOptions leaves Advanced unset unless --advanced was given, so the
// stored setting applies.
func scanOptions(cmd *cobra.Command) scan.Options {
	var opts scan.Options
	if cmd.Flags().Changed("advanced") {
		v, _ := cmd.Flags().GetBool("advanced")
		opts.Advanced = &v
	}
	return opts
}

var resultCmd = &cobra.Command{
	Use:   "result <scan-id>",
	Short: "Show a stored or remote scan result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Scanner.Lookup(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "result")
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		formatResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{scanURLCmd, scanMediaCmd} {
		c.Flags().Bool("advanced", false, "request the deeper analysis (default from settings)")
		scanCmd.AddCommand(c)
	}
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(resultCmd)
}
