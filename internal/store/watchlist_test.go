package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
)

func TestWatchlist_AddTwiceKeepsOneWithLaterTimestamp(t *testing.T) {
	ctx := context.Background()
	now := testNow
	w := NewWatchlist(kv.NewMemory(),
		WithClock(func() time.Time { return now }),
		WithIDFunc(seqIDs()),
	)

	_, err := w.Add(ctx, model.EntityDomain, "x.com")
	require.NoError(t, err)
	_, err = w.Add(ctx, model.EntityVendor, "acme")
	require.NoError(t, err)

	now = testNow.Add(time.Minute)
	list, err := w.Add(ctx, model.EntityDomain, "  x.com ")
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, "x.com", list[0].EntityKey)
	assert.Equal(t, "watch_3", list[0].ID)
	assert.Equal(t, now.Format(time.RFC3339Nano), list[0].CreatedAt)
	assert.True(t, list[0].AlertsEnabled)
	assert.Equal(t, "acme", list[1].EntityKey)

	count := 0
	for _, it := range w.Load(ctx) {
		if it.EntityType == model.EntityDomain && it.EntityKey == "x.com" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestWatchlist_SameKeyDifferentTypeIsDistinct(t *testing.T) {
	ctx := context.Background()
	w := NewWatchlist(kv.NewMemory())

	_, err := w.Add(ctx, model.EntityDomain, "acme.com")
	require.NoError(t, err)
	list, err := w.Add(ctx, model.EntityLink, "acme.com")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestWatchlist_BlankKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	w := NewWatchlist(kv.NewMemory())

	list, err := w.Add(ctx, model.EntityDomain, "   ")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWatchlist_ToggleRemoveFind(t *testing.T) {
	ctx := context.Background()
	w := NewWatchlist(kv.NewMemory(), WithIDFunc(seqIDs()))

	_, err := w.Add(ctx, model.EntityCreator, "@someone")
	require.NoError(t, err)

	list, err := w.Toggle(ctx, "watch_1", false)
	require.NoError(t, err)
	assert.False(t, list[0].AlertsEnabled)

	it, ok := w.Find(ctx, model.EntityCreator, "@someone")
	require.True(t, ok)
	assert.Equal(t, "watch_1", it.ID)

	list, err = w.Remove(ctx, "watch_1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, ok = w.Find(ctx, model.EntityCreator, "@someone")
	assert.False(t, ok)
}

func TestWatchlist_UpsertKeepsGivenID(t *testing.T) {
	ctx := context.Background()
	w := NewWatchlist(kv.NewMemory())

	list, err := w.Upsert(ctx, model.WatchItem{ID: "srv_1", EntityType: model.EntityDomain, EntityKey: "x.com", AlertsEnabled: false, CreatedAt: "2026-01-01T00:00:00Z"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "srv_1", list[0].ID)
	assert.False(t, list[0].AlertsEnabled)
}

func TestWatchlist_Cap(t *testing.T) {
	ctx := context.Background()
	w := NewWatchlist(kv.NewMemory(), WithMaxEntries(5))

	for i := 0; i < 8; i++ {
		_, err := w.Add(ctx, model.EntityDomain, fmt.Sprintf("d%d.com", i))
		require.NoError(t, err)
	}
	list := w.Load(ctx)
	require.Len(t, list, 5)
	assert.Equal(t, "d7.com", list[0].EntityKey)
}
