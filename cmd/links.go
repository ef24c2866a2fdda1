package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reail-cli/internal/deeplink"
	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/share"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <link-or-text>",
	Short: "Resolve an app link, web link or shared text to a route",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent := configuredLinks().Resolve(strings.Join(args, " "))
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), intent)
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatIntent(intent))
		return nil
	},
}

func formatIntent(in model.RouteIntent) string {
	switch in.Type {
	case model.RouteResult:
		return "result " + in.ScanID
	case model.RouteScan:
		return "scan " + in.URL
	default:
		return "home"
	}
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Build app and web links",
}

var linkResultCmd = &cobra.Command{
	Use:   "result <scan-id>",
	Short: "App link that opens a result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		fmt.Fprintln(cmd.OutOrStdout(), configuredLinks().ResultLink(args[0], share.MatchLanguage(lang)))
		return nil
	},
}

var linkScanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "App link that starts a scan of url",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		fmt.Fprintln(cmd.OutOrStdout(), configuredLinks().ScanLink(args[0], share.MatchLanguage(lang)))
		return nil
	},
}

var linkWebCmd = &cobra.Command{
	Use:   "web <scan-id>",
	Short: "Web fallback link for a result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configuredLinks().WebResultURL(args[0]))
		return nil
	},
}

var shareCmd = &cobra.Command{
	Use:   "share <scan-id>",
	Short: "Print the share message for a result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Scanner.Lookup(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "share")
		}

		lang, _ := cmd.Flags().GetString("lang")
		prefs := []string{lang, string(env.Settings.Settings(cmd.Context()).Language), os.Getenv("LANG")}
		fmt.Fprintln(cmd.OutOrStdout(), share.Message(res, share.MatchLanguage(prefs...), env.Links))
		return nil
	},
}

// configuredLinks falls back to the production links before config loads.
func configuredLinks() deeplink.Links {
	if cfg == nil {
		return deeplink.Default
	}
	l := deeplink.Links{Scheme: cfg.Links.Scheme, WebBaseURL: cfg.Links.WebBaseURL}
	if l.Scheme == "" {
		l.Scheme = deeplink.DefaultScheme
	}
	if l.WebBaseURL == "" {
		l.WebBaseURL = deeplink.DefaultWebBaseURL
	}
	return l
}

func init() {
	for _, c := range []*cobra.Command{linkResultCmd, linkScanCmd} {
		c.Flags().String("lang", "en", "language tag for the link (en, es)")
	}
	shareCmd.Flags().String("lang", "", "language tag (default from settings)")

	linkCmd.AddCommand(linkResultCmd)
	linkCmd.AddCommand(linkScanCmd)
	linkCmd.AddCommand(linkWebCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(shareCmd)
}
