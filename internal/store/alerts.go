package store

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

// Alerts is the capped local alert list, newest first.
type Alerts struct {
	kv   kv.Store
	opts options
}

// NewAlerts creates an alert store on st.
func NewAlerts(st kv.Store, opts ...Option) *Alerts {
	return &Alerts{kv: st, opts: newOptions(DefaultAlertsMax, opts)}
}

func (a *Alerts) stamp() string {
	return a.opts.now().UTC().Format(time.RFC3339Nano)
}

// Load returns the stored alerts.
func (a *Alerts) Load(ctx context.Context) []model.Alert {
	return loadList[model.Alert](ctx, a.kv, KeyAlerts)
}

// Save replaces the whole list.
func (a *Alerts) Save(ctx context.Context, alerts []model.Alert) error {
	return saveList(ctx, a.kv, KeyAlerts, alerts, a.opts.max)
}

// Add prepends an alert. ID and CreatedAt are assigned when empty and the
// alert starts unread.
func (a *Alerts) Add(ctx context.Context, alert model.Alert) ([]model.Alert, error) {
	if alert.ID == "" {
		alert.ID = a.opts.newID("alert")
	}
	if alert.CreatedAt == "" {
		alert.CreatedAt = a.stamp()
	}
	alert.ReadAt = nil

	return updateList(ctx, a.kv, KeyAlerts, a.opts.max, func(cur []model.Alert) []model.Alert {
		return append([]model.Alert{alert}, cur...)
	})
}

// MarkRead sets readAt on the alert with the given id.
func (a *Alerts) MarkRead(ctx context.Context, id string) ([]model.Alert, error) {
	now := a.stamp()
	return updateList(ctx, a.kv, KeyAlerts, a.opts.max, func(cur []model.Alert) []model.Alert {
		for i := range cur {
			if cur[i].ID == id {
				cur[i].ReadAt = &now
			}
		}
		return cur
	})
}

// MarkAllRead sets readAt on every alert.
func (a *Alerts) MarkAllRead(ctx context.Context) ([]model.Alert, error) {
	now := a.stamp()
	return updateList(ctx, a.kv, KeyAlerts, a.opts.max, func(cur []model.Alert) []model.Alert {
		for i := range cur {
			cur[i].ReadAt = &now
		}
		return cur
	})
}

// Clear removes every alert.
func (a *Alerts) Clear(ctx context.Context) error {
	return eris.Wrap(a.kv.Delete(ctx, KeyAlerts), "store: clear alerts")
}

// Unread counts alerts without a readAt.
func (a *Alerts) Unread(ctx context.Context) int {
	n := 0
	for _, al := range a.Load(ctx) {
		if !al.IsRead() {
			n++
		}
	}
	return n
}

// Merge folds alerts fetched from the backend into the local list. Alerts
// already known locally keep their local read state unless the remote copy
// is read; unknown alerts are added. The result is ordered newest first.
func (a *Alerts) Merge(ctx context.Context, remote []model.Alert) ([]model.Alert, error) {
	return updateList(ctx, a.kv, KeyAlerts, a.opts.max, func(cur []model.Alert) []model.Alert {
		byID := make(map[string]int, len(cur))
		for i, al := range cur {
			byID[al.ID] = i
		}
		var fresh []model.Alert
		for _, r := range remote {
			if r.ID == "" {
				continue
			}
			i, ok := byID[r.ID]
			if !ok {
				fresh = append(fresh, r)
				byID[r.ID] = -1
				continue
			}
			if i < 0 {
				continue
			}
			local := cur[i]
			if local.IsRead() && !r.IsRead() {
				r.ReadAt = local.ReadAt
			}
			cur[i] = r
		}
		merged := append(fresh, cur...)
		sortAlertsNewestFirst(merged)
		return merged
	})
}

// SeedDemoIfEmpty writes two sample alerts when the list is empty.
func (a *Alerts) SeedDemoIfEmpty(ctx context.Context) ([]model.Alert, error) {
	now := a.stamp()
	return updateList(ctx, a.kv, KeyAlerts, a.opts.max, func(cur []model.Alert) []model.Alert {
		if len(cur) > 0 {
			return cur
		}
		return []model.Alert{
			{
				ID:         a.opts.newID("alert"),
				CreatedAt:  now,
				EntityType: model.EntityDomain,
				EntityKey:  "tiktok.com",
				Badge:      model.BadgeHighRisk,
				Score:      24,
				Message:    "High-risk signals detected on a shared TikTok listing.",
				TopReasons: []model.TopReason{
					{Key: model.ReasonLinkSafety, Summary: "Suspicious link redirects / phishing signals."},
					{Key: model.ReasonPatterns, Summary: "Pattern matches known scam structures."},
				},
			},
			{
				ID:         a.opts.newID("alert"),
				CreatedAt:  now,
				EntityType: model.EntityDomain,
				EntityKey:  "facebook.com",
				Badge:      model.BadgeUnverified,
				Score:      61,
				Message:    "Unverified listing: not enough evidence to confirm authenticity.",
				TopReasons: []model.TopReason{
					{Key: model.ReasonClaims, Summary: "Claims not supported by public signals."},
				},
			},
		}
	})
}

// sortAlertsNewestFirst orders by createdAt descending; the sort is stable so
// alerts with equal or unparseable timestamps keep their relative order.
func sortAlertsNewestFirst(alerts []model.Alert) {
	parsed := make(map[string]time.Time, len(alerts))
	for _, al := range alerts {
		if t, err := time.Parse(time.RFC3339Nano, al.CreatedAt); err == nil {
			parsed[al.ID] = t
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return parsed[alerts[i].ID].After(parsed[alerts[j].ID])
	})
}
