package alertsync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reail-cli/internal/kv"
	"github.com/sells-group/reail-cli/internal/model"
	"github.com/sells-group/reail-cli/internal/store"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ListAlerts(ctx context.Context) ([]model.Alert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Alert), args.Error(1)
}

func (m *mockRemote) MarkAlertRead(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRemote) MarkAllAlertsRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRemote) ListWatchlist(ctx context.Context) ([]model.WatchItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WatchItem), args.Error(1)
}

func (m *mockRemote) AddWatch(ctx context.Context, entityType model.EntityType, entityKey string) (*model.WatchItem, error) {
	args := m.Called(ctx, entityType, entityKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WatchItem), args.Error(1)
}

func (m *mockRemote) ToggleWatch(ctx context.Context, id string, enabled bool) error {
	return m.Called(ctx, id, enabled).Error(0)
}

func (m *mockRemote) RemoveWatch(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func seqIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s_%d", prefix, n)
	}
}

func newStores() (*store.Alerts, *store.Watchlist) {
	st := kv.NewMemory()
	ids := store.WithIDFunc(seqIDs())
	return store.NewAlerts(st, ids), store.NewWatchlist(st, ids)
}

func readAt(s string) *string { return &s }

func TestSync_MergesBoth(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()
	_, err := alerts.Add(ctx, model.Alert{ID: "a1", CreatedAt: "2026-01-01T00:00:00Z", Message: "old"})
	require.NoError(t, err)
	_, err = alerts.MarkRead(ctx, "a1")
	require.NoError(t, err)

	remote := new(mockRemote)
	remote.On("ListAlerts", mock.Anything).Return([]model.Alert{
		{ID: "a1", CreatedAt: "2026-01-01T00:00:00Z", Message: "old, updated"},
		{ID: "a2", CreatedAt: "2026-01-02T00:00:00Z", Message: "new"},
	}, nil)
	remote.On("ListWatchlist", mock.Anything).Return([]model.WatchItem{
		{ID: "w_srv1", EntityType: model.EntityDomain, EntityKey: "first.example", AlertsEnabled: true},
		{ID: "w_srv2", EntityType: model.EntityVendor, EntityKey: "acme", AlertsEnabled: false},
	}, nil)

	sum, err := New(remote, alerts, watch).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Alerts: 2, Unread: 1, Watchlist: 2}, sum)

	list := alerts.Load(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)
	assert.Equal(t, "old, updated", list[1].Message)
	assert.True(t, list[1].IsRead(), "local read state survives")

	items := watch.Load(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "w_srv1", items[0].ID)
	assert.Equal(t, "w_srv2", items[1].ID)
}

func TestSync_FailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()

	remote := new(mockRemote)
	remote.On("ListAlerts", mock.Anything).Return([]model.Alert{{ID: "a1"}}, nil)
	remote.On("ListWatchlist", mock.Anything).Return(nil, errors.New("502"))

	_, err := New(remote, alerts, watch).Sync(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch watchlist")
	assert.Empty(t, alerts.Load(ctx))
}

func TestSync_NoRemote(t *testing.T) {
	alerts, watch := newStores()
	_, err := New(nil, alerts, watch).Sync(context.Background())
	assert.Error(t, err)
}

func TestMarkRead_LocalFirstRemoteBestEffort(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()
	_, err := alerts.Merge(ctx, []model.Alert{{ID: "a1"}, {ID: "a2", ReadAt: readAt("2026-01-01T00:00:00Z")}})
	require.NoError(t, err)

	remote := new(mockRemote)
	remote.On("MarkAlertRead", mock.Anything, "a1").Return(errors.New("offline"))
	remote.On("MarkAllAlertsRead", mock.Anything).Return(nil)

	s := New(remote, alerts, watch)
	_, err = s.MarkRead(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 0, alerts.Unread(ctx))

	_, err = s.MarkAllRead(ctx)
	require.NoError(t, err)
	remote.AssertExpectations(t)
}

func TestAddWatch_AdoptsServerItem(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()

	remote := new(mockRemote)
	remote.On("AddWatch", mock.Anything, model.EntityDomain, "x.com").Return(&model.WatchItem{
		ID: "w_server", EntityType: model.EntityDomain, EntityKey: "x.com", AlertsEnabled: true, CreatedAt: "2026-01-01T00:00:00Z",
	}, nil)

	items, err := New(remote, alerts, watch).AddWatch(ctx, model.EntityDomain, " x.com ")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "w_server", items[0].ID)
	assert.Equal(t, "x.com", items[0].EntityKey)
	remote.AssertExpectations(t)
	remote.AssertNotCalled(t, "AddWatch", mock.Anything, model.EntityDomain, " x.com ")

	_, found := watch.Find(ctx, model.EntityDomain, "x.com")
	assert.True(t, found)
}

func TestAddWatch_RemoteFailureKeepsLocal(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()

	remote := new(mockRemote)
	remote.On("AddWatch", mock.Anything, model.EntityCreator, "@someone").Return(nil, errors.New("timeout"))

	items, err := New(remote, alerts, watch).AddWatch(ctx, model.EntityCreator, "@someone")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "watch_1", items[0].ID)
}

func TestAddWatch_BlankKeyAndBadType(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()
	remote := new(mockRemote)
	s := New(remote, alerts, watch)

	items, err := s.AddWatch(ctx, model.EntityDomain, "   ")
	require.NoError(t, err)
	assert.Empty(t, items)
	remote.AssertNotCalled(t, "AddWatch", mock.Anything, mock.Anything, mock.Anything)

	_, err = s.AddWatch(ctx, model.EntityType("planet"), "mars")
	assert.Error(t, err)
}

func TestToggleAndRemoveWatch(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()
	_, err := watch.Add(ctx, model.EntityLink, "https://x.example/p")
	require.NoError(t, err)

	remote := new(mockRemote)
	remote.On("ToggleWatch", mock.Anything, "watch_1", false).Return(nil)
	remote.On("RemoveWatch", mock.Anything, "watch_1").Return(nil)

	s := New(remote, alerts, watch)
	items, err := s.ToggleWatch(ctx, "watch_1", false)
	require.NoError(t, err)
	assert.False(t, items[0].AlertsEnabled)

	items, err = s.RemoveWatch(ctx, "watch_1")
	require.NoError(t, err)
	assert.Empty(t, items)
	remote.AssertExpectations(t)
}

func TestLocalOnly(t *testing.T) {
	ctx := context.Background()
	alerts, watch := newStores()
	s := New(nil, alerts, watch)

	_, err := s.AddWatch(ctx, model.EntityDomain, "x.com")
	require.NoError(t, err)
	_, err = s.MarkAllRead(ctx)
	require.NoError(t, err)
	_, err = s.RemoveWatch(ctx, "watch_1")
	require.NoError(t, err)
}
