// Package settings persists the device preference record and serves it to
// the scan pipeline through a cached Provider.
package settings

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

// Key is where the settings record is persisted.
const Key = "reail_settings_v1"

// Store reads and writes the settings record.
type Store struct {
	kv kv.Store
}

// NewStore creates a settings store on st.
func NewStore(st kv.Store) *Store {
	return &Store{kv: st}
}

// Load returns the stored settings. Fields never written keep their
// defaults; unreadable data yields the defaults.
func (s *Store) Load(ctx context.Context) model.Settings {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		zap.L().Warn("settings: read failed, using defaults", zap.Error(err))
		return model.DefaultSettings()
	}
	return decode(raw, ok)
}

// Save replaces the stored record.
func (s *Store) Save(ctx context.Context, v model.Settings) error {
	raw, err := json.Marshal(sanitize(v))
	if err != nil {
		return eris.Wrap(err, "settings: marshal")
	}
	return eris.Wrap(s.kv.Set(ctx, Key, raw), "settings: save")
}

// Update applies fn to the current settings atomically and returns the
// written record.
func (s *Store) Update(ctx context.Context, fn func(*model.Settings)) (model.Settings, error) {
	var next model.Settings
	err := s.kv.Update(ctx, Key, func(old []byte, ok bool) ([]byte, error) {
		next = decode(old, ok)
		fn(&next)
		next = sanitize(next)
		return json.Marshal(next)
	})
	if err != nil {
		return model.Settings{}, eris.Wrap(err, "settings: update")
	}
	return next, nil
}

func decode(raw []byte, ok bool) model.Settings {
	v := model.DefaultSettings()
	if !ok || len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		zap.L().Warn("settings: discarding unreadable record", zap.Error(err))
		return model.DefaultSettings()
	}
	return sanitize(v)
}

// sanitize replaces out-of-range enum values with their defaults.
func sanitize(v model.Settings) model.Settings {
	def := model.DefaultSettings()
	switch v.Language {
	case model.LanguageEnglish, model.LanguageSpanish:
	default:
		v.Language = def.Language
	}
	switch v.AutoDelete {
	case model.AutoDeleteNever, model.AutoDelete7Days, model.AutoDelete30Days:
	default:
		v.AutoDelete = def.AutoDelete
	}
	return v
}

// Provider supplies the current settings to consumers that must not read
// storage themselves.
type Provider interface {
	Settings(ctx context.Context) model.Settings
}

// Static is a Provider that always returns the same settings.
type Static model.Settings

// Settings implements Provider.
func (s Static) Settings(context.Context) model.Settings { return model.Settings(s) }

// DefaultTTL is how long CachedProvider reuses a loaded record.
const DefaultTTL = 5 * time.Second

// CachedProvider serves settings from a Store, reloading at most once per
// TTL. Writes through the provider refresh the cache immediately.
type CachedProvider struct {
	store *Store
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	cached   model.Settings
	loadedAt time.Time
	valid    bool
}

// NewCachedProvider creates a provider over store. A non-positive ttl uses
// DefaultTTL.
func NewCachedProvider(store *Store, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedProvider{store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the provider's time source and returns it.
func (p *CachedProvider) WithClock(now func() time.Time) *CachedProvider {
	p.now = now
	return p
}

// Settings implements Provider.
func (p *CachedProvider) Settings(ctx context.Context) model.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valid && p.now().Sub(p.loadedAt) < p.ttl {
		return p.cached
	}
	p.cached = p.store.Load(ctx)
	p.loadedAt = p.now()
	p.valid = true
	return p.cached
}

// Refresh reloads from storage regardless of the TTL.
func (p *CachedProvider) Refresh(ctx context.Context) model.Settings {
	p.Invalidate()
	return p.Settings(ctx)
}

// Invalidate drops the cached record.
func (p *CachedProvider) Invalidate() {
	p.mu.Lock()
	p.valid = false
	p.mu.Unlock()
}

// Update writes through the store and replaces the cached record.
func (p *CachedProvider) Update(ctx context.Context, fn func(*model.Settings)) (model.Settings, error) {
	next, err := p.store.Update(ctx, fn)
	if err != nil {
		return model.Settings{}, err
	}
	p.mu.Lock()
	p.cached = next
	p.loadedAt = p.now()
	p.valid = true
	p.mu.Unlock()
	return next, nil
}
