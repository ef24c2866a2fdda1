package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

// ResultCache keeps full scan results by id so a result can be shown again
// when only its id is known. A separate index lists cached ids, most recent
// first; ids pushed off the index have their entries evicted.
type ResultCache struct {
	kv   kv.Store
	opts options
}

// NewResultCache creates a result cache on st.
func NewResultCache(st kv.Store, opts ...Option) *ResultCache {
	return &ResultCache{kv: st, opts: newOptions(DefaultCacheMax, opts)}
}

func cacheKey(id string) string { return KeyCachePrefix + id }

// Put stores r under id. An empty id is ignored. Index maintenance failures
// are logged, not returned.
func (c *ResultCache) Put(ctx context.Context, id string, r *model.ScanResult) error {
	if id == "" || r == nil {
		return nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "store: marshal cached result")
	}
	if err := c.kv.Set(ctx, cacheKey(id), raw); err != nil {
		return eris.Wrapf(err, "store: cache result %s", id)
	}

	var evicted []string
	_, err = updateList(ctx, c.kv, KeyCacheIndex, 0, func(cur []string) []string {
		next := make([]string, 0, len(cur)+1)
		next = append(next, id)
		for _, x := range cur {
			if x != id {
				next = append(next, x)
			}
		}
		if len(next) > c.opts.max {
			evicted = append(evicted, next[c.opts.max:]...)
			next = next[:c.opts.max]
		}
		return next
	})
	if err != nil {
		zap.L().Warn("store: cache index update failed", zap.String("scan_id", id), zap.Error(err))
		return nil
	}

	for _, old := range evicted {
		if err := c.kv.Delete(ctx, cacheKey(old)); err != nil {
			zap.L().Debug("store: cache eviction failed", zap.String("scan_id", old), zap.Error(err))
		}
	}
	return nil
}

// Get reads the entry for id directly; the index is not consulted.
func (c *ResultCache) Get(ctx context.Context, id string) (*model.ScanResult, bool) {
	if id == "" {
		return nil, false
	}
	raw, ok, err := c.kv.Get(ctx, cacheKey(id))
	if err != nil || !ok {
		return nil, false
	}
	var r model.ScanResult
	if err := json.Unmarshal(raw, &r); err != nil {
		zap.L().Debug("store: unreadable cache entry", zap.String("scan_id", id), zap.Error(err))
		return nil, false
	}
	return &r, true
}

// Index returns the cached ids, most recent first.
func (c *ResultCache) Index(ctx context.Context) []string {
	return loadList[string](ctx, c.kv, KeyCacheIndex)
}
