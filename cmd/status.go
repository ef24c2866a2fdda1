package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/reail-cli/internal/netstate"
	"github.com/sells-group/reail-cli/internal/ratelimit"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Print this installation's device id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp(cmd.Context(), cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		fmt.Fprintln(cmd.OutOrStdout(), env.DeviceID)
		return nil
	},
}

// appStatus is the snapshot printed by the status command.
type appStatus struct {
	DeviceID         string `json:"deviceId"`
	Online           bool   `json:"online"`
	StoreDriver      string `json:"storeDriver"`
	AIEngine         bool   `json:"aiEngine"`
	ScansRemaining   int    `json:"scansRemaining"`
	ReportsRemaining int    `json:"reportsRemaining"`
	HistoryEntries   int    `json:"historyEntries"`
	UnreadAlerts     int    `json:"unreadAlerts"`
	Watching         int    `json:"watching"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity, limits and local data counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		env, err := initApp(ctx, cfg, "local")
		if err != nil {
			return err
		}
		defer env.Close()

		st := appStatus{
			DeviceID:         env.DeviceID,
			Online:           netstate.NewProber(cfg.Network.ProbeURL, nil, 0).Online(ctx),
			StoreDriver:      cfg.Store.Driver,
			AIEngine:         env.AIEnabled,
			ScansRemaining:   env.Limiter.Remaining(ctx, ratelimit.KindScan),
			ReportsRemaining: env.Limiter.Remaining(ctx, ratelimit.KindReport),
			HistoryEntries:   len(env.History.Load(ctx)),
			UnreadAlerts:     env.Alerts.Unread(ctx),
			Watching:         len(env.Watchlist.Load(ctx)),
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), st)
		}
		formatStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func formatStatus(out io.Writer, s appStatus) {
	conn := "online"
	if !s.Online {
		conn = "offline (scans fall back to local analysis)"
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Device:\t%s\n", s.DeviceID)
	_, _ = fmt.Fprintf(w, "Network:\t%s\n", conn)
	_, _ = fmt.Fprintf(w, "Store:\t%s\n", s.StoreDriver)
	_, _ = fmt.Fprintf(w, "AI engine:\t%t\n", s.AIEngine)
	_, _ = fmt.Fprintf(w, "Scans left this hour:\t%d\n", s.ScansRemaining)
	_, _ = fmt.Fprintf(w, "Reports left today:\t%d\n", s.ReportsRemaining)
	_, _ = fmt.Fprintf(w, "History:\t%d\n", s.HistoryEntries)
	_, _ = fmt.Fprintf(w, "Unread alerts:\t%d\n", s.UnreadAlerts)
	_, _ = fmt.Fprintf(w, "Watching:\t%d\n", s.Watching)
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(statusCmd)
}
