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

func seqIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

func TestAlerts_AddAndMarkRead(t *testing.T) {
	ctx := context.Background()
	a := NewAlerts(kv.NewMemory(), WithClock(fixedClock), WithIDFunc(seqIDs()))

	_, err := a.Add(ctx, model.Alert{EntityType: model.EntityDomain, EntityKey: "x.com", Badge: model.BadgeHighRisk, Score: 20, Message: "first"})
	require.NoError(t, err)
	list, err := a.Add(ctx, model.Alert{EntityType: model.EntityDomain, EntityKey: "y.com", Badge: model.BadgeVerified, Score: 90, Message: "second"})
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, "alert_2", list[0].ID)
	assert.Equal(t, "alert_1", list[1].ID)
	assert.Nil(t, list[0].ReadAt)
	assert.Equal(t, 2, a.Unread(ctx))

	list, err = a.MarkRead(ctx, "alert_1")
	require.NoError(t, err)
	assert.False(t, list[0].IsRead())
	assert.True(t, list[1].IsRead())
	assert.Equal(t, 1, a.Unread(ctx))

	list, err = a.MarkAllRead(ctx)
	require.NoError(t, err)
	for _, al := range list {
		require.NotNil(t, al.ReadAt)
		assert.Equal(t, testNow.Format(time.RFC3339Nano), *al.ReadAt)
	}
	assert.Equal(t, 0, a.Unread(ctx))
}

func TestAlerts_Cap(t *testing.T) {
	ctx := context.Background()
	a := NewAlerts(kv.NewMemory())

	for i := 0; i < DefaultAlertsMax+5; i++ {
		_, err := a.Add(ctx, model.Alert{Message: fmt.Sprint(i)})
		require.NoError(t, err)
	}
	assert.Len(t, a.Load(ctx), DefaultAlertsMax)
}

func TestAlerts_Clear(t *testing.T) {
	ctx := context.Background()
	a := NewAlerts(kv.NewMemory())
	_, err := a.Add(ctx, model.Alert{Message: "x"})
	require.NoError(t, err)

	require.NoError(t, a.Clear(ctx))
	assert.Empty(t, a.Load(ctx))
}

func TestAlerts_SeedDemoIfEmpty(t *testing.T) {
	ctx := context.Background()
	a := NewAlerts(kv.NewMemory(), WithIDFunc(seqIDs()))

	seeded, err := a.SeedDemoIfEmpty(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 2)
	assert.Equal(t, "tiktok.com", seeded[0].EntityKey)

	again, err := a.SeedDemoIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, seeded, again)
}

func TestAlerts_MergeKeepsLocalReadState(t *testing.T) {
	ctx := context.Background()
	a := NewAlerts(kv.NewMemory(), WithClock(fixedClock))

	older := testNow.Add(-time.Hour).Format(time.RFC3339Nano)
	newer := testNow.Add(time.Hour).Format(time.RFC3339Nano)

	require.NoError(t, a.Save(ctx, []model.Alert{{ID: "r1", CreatedAt: older, Message: "local"}}))
	_, err := a.MarkRead(ctx, "r1")
	require.NoError(t, err)

	merged, err := a.Merge(ctx, []model.Alert{
		{ID: "r1", CreatedAt: older, Message: "remote copy"},
		{ID: "r2", CreatedAt: newer, Message: "brand new"},
		{ID: "r2", CreatedAt: newer, Message: "duplicate"},
		{ID: "", Message: "no id"},
	})
	require.NoError(t, err)

	require.Len(t, merged, 2)
	assert.Equal(t, "r2", merged[0].ID)
	assert.Equal(t, "brand new", merged[0].Message)
	assert.Equal(t, "r1", merged[1].ID)
	assert.Equal(t, "remote copy", merged[1].Message)
	assert.True(t, merged[1].IsRead())
}
