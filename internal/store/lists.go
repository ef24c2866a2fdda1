// Package store implements the local persistence layer: scan history, the
// result cache, alerts and the watchlist. Every store keeps its data as a
// JSON blob under a fixed kv key and mutates it through kv.Store.Update, so
// concurrent writers on the same key never lose each other's changes.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/kv"
)

// Persisted keys.
const (
	KeyHistory        = "reail_scan_history_v1"
	KeyCacheIndex     = "reail_scan_cache_index_v1"
	KeyCachePrefix    = "reail_scan_cache_v1:"
	KeyAlerts         = "reail_alerts_v1"
	KeyWatchlist      = "reail_watchlist_v1"
	DefaultHistoryMax = 200
	DefaultCacheMax   = 200
	DefaultAlertsMax  = 300
	DefaultWatchMax   = 300
)

// Option configures a store.
type Option func(*options)

type options struct {
	max   int
	now   func() time.Time
	newID func(prefix string) string
}

func newOptions(defaultMax int, opts []Option) options {
	o := options{
		max:   defaultMax,
		now:   time.Now,
		newID: func(prefix string) string { return prefix + "_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxEntries overrides the list cap. Values <= 0 are ignored.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.max = n
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDFunc sets the generator for alert and watch item ids.
func WithIDFunc(fn func(prefix string) string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// decodeList treats missing or corrupt data as an empty list.
func decodeList[T any](key string, raw []byte, ok bool) []T {
	if !ok || len(raw) == 0 {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		zap.L().Warn("store: discarding unreadable list",
			zap.String("key", key),
			zap.Error(err),
		)
		return []T{}
	}
	if out == nil {
		return []T{}
	}
	return out
}

func loadList[T any](ctx context.Context, st kv.Store, key string) []T {
	raw, ok, err := st.Get(ctx, key)
	if err != nil {
		zap.L().Warn("store: read failed, using empty list",
			zap.String("key", key),
			zap.Error(err),
		)
		return []T{}
	}
	return decodeList[T](key, raw, ok)
}

func saveList[T any](ctx context.Context, st kv.Store, key string, items []T, limit int) error {
	raw, err := json.Marshal(capList(items, limit))
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", key)
	}
	return eris.Wrapf(st.Set(ctx, key, raw), "store: save %s", key)
}

// updateList applies fn to the stored list in one atomic kv update and
// returns the list that was written.
func updateList[T any](ctx context.Context, st kv.Store, key string, limit int, fn func([]T) []T) ([]T, error) {
	var next []T
	err := st.Update(ctx, key, func(old []byte, ok bool) ([]byte, error) {
		next = capList(fn(decodeList[T](key, old, ok)), limit)
		return json.Marshal(next)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "store: update %s", key)
	}
	return next, nil
}

func capList[T any](items []T, limit int) []T {
	if items == nil {
		return []T{}
	}
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
