package store

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

// Watchlist holds at most one item per (entity type, entity key).
type Watchlist struct {
	kv   kv.Store
	opts options
}

// NewWatchlist creates a watchlist store on st.
func NewWatchlist(st kv.Store, opts ...Option) *Watchlist {
	return &Watchlist{kv: st, opts: newOptions(DefaultWatchMax, opts)}
}

// Load returns the stored items, newest first.
func (w *Watchlist) Load(ctx context.Context) []model.WatchItem {
	return loadList[model.WatchItem](ctx, w.kv, KeyWatchlist)
}

// Save replaces the whole list.
func (w *Watchlist) Save(ctx context.Context, items []model.WatchItem) error {
	return saveList(ctx, w.kv, KeyWatchlist, items, w.opts.max)
}

// Add registers an entity. An existing item for the same pair is replaced
// and the new item moves to the front. A blank key leaves the list as is.
func (w *Watchlist) Add(ctx context.Context, entityType model.EntityType, entityKey string) ([]model.WatchItem, error) {
	key := strings.TrimSpace(entityKey)
	if key == "" {
		return w.Load(ctx), nil
	}
	item := model.WatchItem{
		ID:            w.opts.newID("watch"),
		EntityType:    entityType,
		EntityKey:     key,
		AlertsEnabled: true,
		CreatedAt:     w.opts.now().UTC().Format(time.RFC3339Nano),
	}
	return w.put(ctx, item)
}

// Upsert stores an item as given (used when syncing from the backend), with
// the same replace-by-pair semantics as Add.
func (w *Watchlist) Upsert(ctx context.Context, item model.WatchItem) ([]model.WatchItem, error) {
	item.EntityKey = strings.TrimSpace(item.EntityKey)
	if item.EntityKey == "" {
		return w.Load(ctx), nil
	}
	if item.ID == "" {
		item.ID = w.opts.newID("watch")
	}
	if item.CreatedAt == "" {
		item.CreatedAt = w.opts.now().UTC().Format(time.RFC3339Nano)
	}
	return w.put(ctx, item)
}

func (w *Watchlist) put(ctx context.Context, item model.WatchItem) ([]model.WatchItem, error) {
	return updateList(ctx, w.kv, KeyWatchlist, w.opts.max, func(cur []model.WatchItem) []model.WatchItem {
		next := make([]model.WatchItem, 0, len(cur)+1)
		next = append(next, item)
		for _, it := range cur {
			if it.EntityType == item.EntityType && it.EntityKey == item.EntityKey {
				continue
			}
			next = append(next, it)
		}
		return next
	})
}

// Toggle enables or disables alerts for the item with the given id.
func (w *Watchlist) Toggle(ctx context.Context, id string, enabled bool) ([]model.WatchItem, error) {
	return updateList(ctx, w.kv, KeyWatchlist, w.opts.max, func(cur []model.WatchItem) []model.WatchItem {
		for i := range cur {
			if cur[i].ID == id {
				cur[i].AlertsEnabled = enabled
			}
		}
		return cur
	})
}

// Remove deletes the item with the given id.
func (w *Watchlist) Remove(ctx context.Context, id string) ([]model.WatchItem, error) {
	return updateList(ctx, w.kv, KeyWatchlist, w.opts.max, func(cur []model.WatchItem) []model.WatchItem {
		next := cur[:0]
		for _, it := range cur {
			if it.ID != id {
				next = append(next, it)
			}
		}
		return next
	})
}

// Find returns the item for a pair, if any.
func (w *Watchlist) Find(ctx context.Context, entityType model.EntityType, entityKey string) (model.WatchItem, bool) {
	key := strings.TrimSpace(entityKey)
	for _, it := range w.Load(ctx) {
		if it.EntityType == entityType && it.EntityKey == key {
			return it, true
		}
	}
	return model.WatchItem{}, false
}
