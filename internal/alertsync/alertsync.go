// Package alertsync keeps the local alert list and watchlist in step with the
// backend. Local stores are always written first; the backend is updated on a
// best-effort basis.
package alertsync

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/store"
)

// Remote is the alerts and watchlist part of the backend API.
type Remote interface {
	ListAlerts(ctx context.Context) ([]model.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
	MarkAllAlertsRead(ctx context.Context) error
	ListWatchlist(ctx context.Context) ([]model.WatchItem, error)
	AddWatch(ctx context.Context, entityType model.EntityType, entityKey string) (*model.WatchItem, error)
	ToggleWatch(ctx context.Context, id string, enabled bool) error
	RemoveWatch(ctx context.Context, id string) error
}

// Summary describes the local state after a sync.
type Summary struct {
	Alerts    int `json:"alerts"`
	Unread    int `json:"unread"`
	Watchlist int `json:"watchlist"`
}

// Syncer coordinates the local stores with an optional Remote.
type Syncer struct {
	remote Remote
	alerts *store.Alerts
	watch  *store.Watchlist
	log    *zap.Logger
}

// New creates a Syncer. remote may be nil, in which case every operation is
// local only and Sync fails.
func New(remote Remote, alerts *store.Alerts, watch *store.Watchlist) *Syncer {
	return &Syncer{
		remote: remote,
		alerts: alerts,
		watch:  watch,
		log:    zap.L().With(zap.String("component", "alertsync")),
	}
}

// Sync fetches alerts and the watchlist concurrently and merges both into
// the local stores. Nothing is written unless both fetches succeed.
func (s *Syncer) Sync(ctx context.Context) (Summary, error) {
	if s.remote == nil {
		return Summary{}, eris.New("alertsync: no backend configured")
	}

	var (
		alerts []model.Alert
		items  []model.WatchItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		alerts, err = s.remote.ListAlerts(gctx)
		return eris.Wrap(err, "alertsync: fetch alerts")
	})
	g.Go(func() error {
		var err error
		items, err = s.remote.ListWatchlist(gctx)
		return eris.Wrap(err, "alertsync: fetch watchlist")
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	merged, err := s.alerts.Merge(ctx, alerts)
	if err != nil {
		return Summary{}, eris.Wrap(err, "alertsync: merge alerts")
	}
	// Upsert prepends, so walk backwards to keep the remote order.
	for i := len(items) - 1; i >= 0; i-- {
		if _, err := s.watch.Upsert(ctx, items[i]); err != nil {
			return Summary{}, eris.Wrap(err, "alertsync: merge watchlist")
		}
	}

	sum := Summary{Alerts: len(merged), Watchlist: len(s.watch.Load(ctx))}
	for _, a := range merged {
		if !a.IsRead() {
			sum.Unread++
		}
	}
	s.log.Info("alertsync: synced",
		zap.Int("remote_alerts", len(alerts)),
		zap.Int("remote_watch_items", len(items)),
		zap.Int("unread", sum.Unread),
	)
	return sum, nil
}

// MarkRead marks one alert read locally, then on the backend.
func (s *Syncer) MarkRead(ctx context.Context, id string) ([]model.Alert, error) {
	out, err := s.alerts.MarkRead(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "alertsync: mark %s read", id)
	}
	s.push(ctx, "mark_read", func(ctx context.Context) error { return s.remote.MarkAlertRead(ctx, id) })
	return out, nil
}

// MarkAllRead marks every alert read locally, then on the backend.
func (s *Syncer) MarkAllRead(ctx context.Context) ([]model.Alert, error) {
	out, err := s.alerts.MarkAllRead(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "alertsync: mark all read")
	}
	s.push(ctx, "mark_all_read", func(ctx context.Context) error { return s.remote.MarkAllAlertsRead(ctx) })
	return out, nil
}

// AddWatch adds a watch item locally and registers it with the backend. When
// the backend answers with its own item, that item replaces the local one.
func (s *Syncer) AddWatch(ctx context.Context, entityType model.EntityType, entityKey string) ([]model.WatchItem, error) {
	if !entityType.Valid() {
		return nil, eris.Errorf("alertsync: unknown entity type %q", entityType)
	}
	entityKey = strings.TrimSpace(entityKey)
	out, err := s.watch.Add(ctx, entityType, entityKey)
	if err != nil {
		return nil, eris.Wrap(err, "alertsync: add watch")
	}
	if s.remote == nil {
		return out, nil
	}
	if _, found := s.watch.Find(ctx, entityType, entityKey); !found {
		return out, nil
	}

	item, err := s.remote.AddWatch(ctx, entityType, entityKey)
	if err != nil {
		s.log.Warn("alertsync: remote add watch failed", zap.String("key", entityKey), zap.Error(err))
		return out, nil
	}
	if item != nil && item.ID != "" {
		if updated, err := s.watch.Upsert(ctx, *item); err == nil {
			out = updated
		}
	}
	return out, nil
}

// ToggleWatch flips alerts for a watch item locally, then on the backend.
func (s *Syncer) ToggleWatch(ctx context.Context, id string, enabled bool) ([]model.WatchItem, error) {
	out, err := s.watch.Toggle(ctx, id, enabled)
	if err != nil {
		return nil, eris.Wrapf(err, "alertsync: toggle watch %s", id)
	}
	s.push(ctx, "toggle_watch", func(ctx context.Context) error { return s.remote.ToggleWatch(ctx, id, enabled) })
	return out, nil
}

// RemoveWatch deletes a watch item locally, then on the backend.
func (s *Syncer) RemoveWatch(ctx context.Context, id string) ([]model.WatchItem, error) {
	out, err := s.watch.Remove(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "alertsync: remove watch %s", id)
	}
	s.push(ctx, "remove_watch", func(ctx context.Context) error { return s.remote.RemoveWatch(ctx, id) })
	return out, nil
}

func (s *Syncer) push(ctx context.Context, op string, fn func(context.Context) error) {
	if s.remote == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.log.Warn("alertsync: remote update failed", zap.String("op", op), zap.Error(err))
	}
}
