package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/reail-cli/internal/model"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Read and manage alerts about watched entities",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		unreadOnly, _ := cmd.Flags().GetBool("unread")
		alerts := env.Alerts.Load(cmd.Context())
		if unreadOnly {
			alerts = unread(alerts)
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), alerts)
		}
		if len(alerts) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No alerts.")
			return nil
		}
		formatAlerts(cmd.OutOrStdout(), alerts)
		return nil
	},
}

var alertsReadCmd = &cobra.Command{
	Use:   "read <alert-id>",
	Short: "Mark one alert as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		alerts, err := env.Sync.MarkRead(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "alerts read")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d unread.\n", len(unread(alerts)))
		return nil
	},
}

var alertsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every alert as read",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Sync.MarkAllRead(cmd.Context()); err != nil {
			return eris.Wrap(err, "alerts read-all")
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "All alerts marked read.")
		return nil
	},
}

var alertsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all local alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Alerts.Clear(cmd.Context()); err != nil {
			return eris.Wrap(err, "alerts clear")
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Alerts cleared.")
		return nil
	},
}

var alertsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch alerts and the watchlist from the backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := env.Sync.Sync(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "alerts sync")
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "alerts: %d (%d unread), watchlist: %d\n", sum.Alerts, sum.Unread, sum.Watchlist)
		return nil
	},
}

var alertsSeedCmd = &cobra.Command{
	Use:    "seed",
	Short:  "Write sample alerts when the list is empty",
	Hidden: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		alerts, err := env.Alerts.SeedDemoIfEmpty(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "alerts seed")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d alerts.\n", len(alerts))
		return nil
	},
}

func unread(alerts []model.Alert) []model.Alert {
	var out []model.Alert
	for _, a := range alerts {
		if !a.IsRead() {
			out = append(out, a)
		}
	}
	return out
}

// -- watch --

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage watched domains, vendors, creators and links",
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched entities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		items := env.Watchlist.Load(cmd.Context())
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Watchlist is empty.")
			return nil
		}
		formatWatchlist(cmd.OutOrStdout(), items)
		return nil
	},
}

var watchAddCmd = &cobra.Command{
	Use:   "add <domain|vendor|creator|link> <key>",
	Short: "Watch an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := env.Sync.AddWatch(cmd.Context(), model.EntityType(args[0]), args[1])
		if err != nil {
			return eris.Wrap(err, "watch add")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d entities.\n", len(items))
		return nil
	},
}

var watchToggleCmd = &cobra.Command{
	Use:   "toggle <item-id> <on|off>",
	Short: "Turn alerts for a watched entity on or off",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[1])
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Sync.ToggleWatch(cmd.Context(), args[0], enabled); err != nil {
			return eris.Wrap(err, "watch toggle")
		}
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Stop watching an entity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		if _, err := env.Sync.RemoveWatch(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "watch remove")
		}
		return nil
	},
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, eris.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

func init() {
	alertsListCmd.Flags().Bool("unread", false, "only unread alerts")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsReadCmd)
	alertsCmd.AddCommand(alertsReadAllCmd)
	alertsCmd.AddCommand(alertsClearCmd)
	alertsCmd.AddCommand(alertsSyncCmd)
	alertsCmd.AddCommand(alertsSeedCmd)
	rootCmd.AddCommand(alertsCmd)

	watchCmd.AddCommand(watchListCmd)
	watchCmd.AddCommand(watchAddCmd)
	watchCmd.AddCommand(watchToggleCmd)
	watchCmd.AddCommand(watchRemoveCmd)
	rootCmd.AddCommand(watchCmd)
}
