package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sells-group/reail-cli/internal/model"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatResult writes a scan result with its six reason sections.
func formatResult(out io.Writer, r *model.ScanResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Scan:\t%s\n", r.ID)
	if r.URL != "" {
		_, _ = fmt.Fprintf(w, "URL:\t%s\n", r.URL)
	}
	if r.Title != "" {
		_, _ = fmt.Fprintf(w, "Title:\t%s\n", r.Title)
	}
	_, _ = fmt.Fprintf(w, "Domain:\t%s (%s)\n", r.Domain, r.Platform)
	_, _ = fmt.Fprintf(w, "Badge:\t%s\n", r.Badge)
	_, _ = fmt.Fprintf(w, "Score:\t%d/100\n", r.Score)
	_, _ = fmt.Fprintf(w, "Scanned:\t%s\n", r.CreatedAt().Format("2006-01-02 15:04"))
	_ = w.Flush()

	reasons := r.Reasons.Normalize()
	_, _ = fmt.Fprintln(out)
	for _, k := range model.ReasonKeys {
		d := reasons[k]
		_, _ = fmt.Fprintf(out, "[%s] %s\n  %s\n", k, model.ReasonTitle(k), d.Summary)
	}
}

// formatHistory writes a table of history entries.
func formatHistory(out io.Writer, entries []model.HistoryEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCAN\tBADGE\tSCORE\tDOMAIN\tTITLE\tCREATED")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t------\t-----\t-------")
	for _, e := range entries {
		created := e.CreatedAt
		if t, ok := e.Created(); ok {
			created = t.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			e.ScanID, e.Badge, e.Score, e.Domain, truncate(e.Title, 30), created)
	}
	_ = w.Flush()
}

// formatAlerts writes a table of alerts, unread first marked with "*".
func formatAlerts(out io.Writer, alerts []model.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tID\tENTITY\tBADGE\tSCORE\tMESSAGE")
	_, _ = fmt.Fprintln(w, " \t--\t------\t-----\t-----\t-------")
	for _, a := range alerts {
		mark := "*"
		if a.IsRead() {
			mark = " "
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s:%s\t%s\t%d\t%s\n",
			mark, a.ID, a.EntityType, a.EntityKey, a.Badge, a.Score, truncate(a.Message, 60))
	}
	_ = w.Flush()
}

// formatWatchlist writes a table of watch items.
func formatWatchlist(out io.Writer, items []model.WatchItem) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tKEY\tALERTS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t---\t------\t-------")
	for _, it := range items {
		alerts := "off"
		if it.AlertsEnabled {
			alerts = "on"
		}
		created := it.CreatedAt
		if t, err := time.Parse(time.RFC3339Nano, it.CreatedAt); err == nil {
			created = t.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, it.EntityType, it.EntityKey, alerts, created)
	}
	_ = w.Flush()
}

// formatSettings writes the settings record as key/value rows.
func formatSettings(out io.Writer, s model.Settings) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "language:\t%s\n", s.Language)
	_, _ = fmt.Fprintf(w, "privacy_mode:\t%t\n", s.PrivacyMode)
	_, _ = fmt.Fprintf(w, "save_history:\t%t\n", s.SaveHistory)
	_, _ = fmt.Fprintf(w, "auto_delete:\t%s\n", s.AutoDelete)
	_, _ = fmt.Fprintf(w, "advanced_scan:\t%t\n", s.AdvancedScan)
	_ = w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
