package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

func TestStore_LoadDefaults(t *testing.T) {
	s := NewStore(kv.NewMemory())
	assert.Equal(t, model.DefaultSettings(), s.Load(context.Background()))
}

func TestStore_LoadMergesPartialRecord(t *testing.T) {
	ctx := context.Background()
	st := kv.NewMemory()
	require.NoError(t, st.Set(ctx, Key, []byte(`{"language":"es","saveHistory":false}`)))

	got := NewStore(st).Load(ctx)
	assert.Equal(t, model.LanguageSpanish, got.Language)
	assert.False(t, got.SaveHistory)
	assert.True(t, got.PrivacyMode)
	assert.Equal(t, model.AutoDeleteNever, got.AutoDelete)
}

func TestStore_LoadCorruptOrInvalid(t *testing.T) {
	ctx := context.Background()
	st := kv.NewMemory()
	s := NewStore(st)

	require.NoError(t, st.Set(ctx, Key, []byte(`{{{`)))
	assert.Equal(t, model.DefaultSettings(), s.Load(ctx))

	require.NoError(t, st.Set(ctx, Key, []byte(`{"language":"fr","autoDelete":"90","advancedScan":true}`)))
	got := s.Load(ctx)
	assert.Equal(t, model.LanguageEnglish, got.Language)
	assert.Equal(t, model.AutoDeleteNever, got.AutoDelete)
	assert.True(t, got.AdvancedScan)
}

func TestStore_SaveAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory())

	v := model.DefaultSettings()
	v.PrivacyMode = false
	require.NoError(t, s.Save(ctx, v))
	assert.False(t, s.Load(ctx).PrivacyMode)

	next, err := s.Update(ctx, func(v *model.Settings) { v.AutoDelete = model.AutoDelete7Days })
	require.NoError(t, err)
	assert.Equal(t, model.AutoDelete7Days, next.AutoDelete)
	assert.False(t, next.PrivacyMode)
	assert.Equal(t, next, s.Load(ctx))
}

func TestCachedProvider_TTL(t *testing.T) {
	ctx := context.Background()
	st := kv.NewMemory()
	store := NewStore(st)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewCachedProvider(store, 5*time.Second).WithClock(func() time.Time { return now })

	assert.True(t, p.Settings(ctx).PrivacyMode)

	// A write behind the provider's back is not seen until the TTL lapses.
	v := model.DefaultSettings()
	v.PrivacyMode = false
	require.NoError(t, store.Save(ctx, v))

	now = now.Add(4 * time.Second)
	assert.True(t, p.Settings(ctx).PrivacyMode)

	now = now.Add(2 * time.Second)
	assert.False(t, p.Settings(ctx).PrivacyMode)
}

func TestCachedProvider_RefreshAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemory())
	p := NewCachedProvider(store, time.Hour)

	assert.False(t, p.Settings(ctx).AdvancedScan)

	require.NoError(t, store.Save(ctx, model.Settings{Language: model.LanguageEnglish, AdvancedScan: true, AutoDelete: model.AutoDeleteNever}))
	assert.False(t, p.Settings(ctx).AdvancedScan)
	assert.True(t, p.Refresh(ctx).AdvancedScan)

	_, err := p.Update(ctx, func(v *model.Settings) { v.Language = model.LanguageSpanish })
	require.NoError(t, err)
	assert.Equal(t, model.LanguageSpanish, p.Settings(ctx).Language)
}

func TestStatic(t *testing.T) {
	v := model.DefaultSettings()
	v.SaveHistory = false
	var p Provider = Static(v)
	assert.Equal(t, v, p.Settings(context.Background()))
}
