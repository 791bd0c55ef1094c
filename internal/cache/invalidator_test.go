package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-sync/internal/snapshot"
)

type mockBuilder struct {
	mock.Mock
}

func (m *mockBuilder) Build(ctx context.Context) (*snapshot.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*snapshot.Result), args.Error(1)
}

type mockPageCache struct {
	mock.Mock
}

func (m *mockPageCache) InvalidateAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockPageCache) InvalidateTag(ctx context.Context, tag string) (int, error) {
	args := m.Called(ctx, tag)
	return args.Int(0), args.Error(1)
}

func (m *mockPageCache) InvalidatePath(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}

type mockCDN struct {
	mock.Mock
}

func (m *mockCDN) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *mockCDN) PurgeAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SnapshotCompleted(ctx context.Context, res *snapshot.Result) {
	m.Called(ctx, res)
}

func (m *mockNotifier) CacheInvalidated(ctx context.Context, res Result) {
	m.Called(ctx, res)
}

var testLogger = slog.New(slog.DiscardHandler)

var invalidateTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestInvalidator(b SnapshotRebuilder, pc PageCache, cdn CDNPurger, n Notifier) *Invalidator {
	inv := NewInvalidator(b, pc, cdn, n, testLogger)
	inv.now = func() time.Time { return invalidateTime }
	return inv
}

func TestInvalidateAll_AllLayersSucceed(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 1}, nil)
	pc.On("InvalidateAll", mock.Anything).Return(12, nil)
	cdn.On("Enabled").Return(true)
	cdn.On("PurgeAll", mock.Anything).Return(nil)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateAll(context.Background(), "manual")

	assert.True(t, res.Success)
	assert.True(t, res.Operations.Revalidation)
	assert.True(t, res.Operations.Cloudflare)
	assert.Empty(t, res.Error)
	assert.Equal(t, invalidateTime, res.Timestamp)
}

func TestInvalidateAll_PartialSuccess(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 1}, nil)
	pc.On("InvalidateAll", mock.Anything).Return(0, errors.New("redis down"))
	cdn.On("Enabled").Return(true)
	cdn.On("PurgeAll", mock.Anything).Return(nil)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateAll(context.Background(), "manual")

	// One layer succeeded, so shoppers got fresh content somewhere.
	assert.True(t, res.Success)
	assert.False(t, res.Operations.Revalidation)
	assert.True(t, res.Operations.Cloudflare)
	assert.Contains(t, res.Error, "redis down")
}

func TestInvalidateAll_BuildFailureDoesNotFailRevalidation(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(nil, errors.New("db down"))
	pc.On("InvalidateAll", mock.Anything).Return(8, nil)
	cdn.On("Enabled").Return(false)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateAll(context.Background(), "manual")

	// The page cache was fully dropped, so the revalidation operation stands
	// on its own; the rebuild failure is reported separately.
	assert.True(t, res.Success)
	assert.True(t, res.Operations.Revalidation)
	assert.Nil(t, res.Snapshot)
	assert.Contains(t, res.Error, "db down")
}

func TestInvalidateAll_TotalFailure(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(nil, errors.New("db down"))
	pc.On("InvalidateAll", mock.Anything).Return(0, errors.New("redis down"))
	cdn.On("Enabled").Return(true)
	cdn.On("PurgeAll", mock.Anything).Return(errors.New("cdn down"))

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateAll(context.Background(), "manual")

	assert.False(t, res.Success)
	assert.False(t, res.Operations.Revalidation)
	assert.False(t, res.Operations.Cloudflare)
	assert.Contains(t, res.Error, "db down")
	assert.Contains(t, res.Error, "redis down")
	assert.Contains(t, res.Error, "cdn down")
}

func TestInvalidateAll_CDNDisabled(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 1}, nil)
	pc.On("InvalidateAll", mock.Anything).Return(3, nil)
	cdn.On("Enabled").Return(false)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateAll(context.Background(), "manual")

	assert.True(t, res.Success)
	assert.True(t, res.Operations.Revalidation)
	assert.False(t, res.Operations.Cloudflare)
	cdn.AssertNotCalled(t, "PurgeAll", mock.Anything)
}

func TestInvalidateAll_NotifiesOnSuccess(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)
	n := new(mockNotifier)

	buildRes := &snapshot.Result{Version: 42}
	b.On("Build", mock.Anything).Return(buildRes, nil)
	pc.On("InvalidateAll", mock.Anything).Return(1, nil)
	cdn.On("Enabled").Return(false)
	n.On("SnapshotCompleted", mock.Anything, buildRes).Return()
	n.On("CacheInvalidated", mock.Anything, mock.AnythingOfType("cache.Result")).Return()

	newTestInvalidator(b, pc, cdn, n).InvalidateAll(context.Background(), "manual")

	n.AssertExpectations(t)
}

func TestInvalidateCategory_ScopedDrop(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 1}, nil)
	pc.On("InvalidateTag", mock.Anything, "category:audio").Return(4, nil)
	pc.On("InvalidateTag", mock.Anything, "categories").Return(1, nil)
	pc.On("InvalidatePath", mock.Anything, "/categories/audio").Return(1, nil)
	cdn.On("Enabled").Return(false)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateCategory(context.Background(), "audio")

	require.True(t, res.Success)
	assert.True(t, res.Operations.Revalidation)
	pc.AssertExpectations(t)
	pc.AssertNotCalled(t, "InvalidateAll", mock.Anything)
}

func TestInvalidateCategory_TagFailureFailsRevalidation(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 1}, nil)
	pc.On("InvalidateTag", mock.Anything, "category:audio").Return(0, errors.New("redis down"))
	cdn.On("Enabled").Return(false)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateCategory(context.Background(), "audio")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "redis down")
}

func TestInvalidateAll_ResultCarriesSnapshot(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 77}, nil)
	pc.On("InvalidateAll", mock.Anything).Return(2, nil)
	cdn.On("Enabled").Return(false)

	res := newTestInvalidator(b, pc, cdn, nil).InvalidateAll(context.Background(), "manual")

	require.NotNil(t, res.Snapshot)
	assert.Equal(t, int64(77), res.Snapshot.Version)
}

func TestOnEntityMutated_InvalidatesWholeCatalog(t *testing.T) {
	b := new(mockBuilder)
	pc := new(mockPageCache)
	cdn := new(mockCDN)

	b.On("Build", mock.Anything).Return(&snapshot.Result{Version: 1}, nil)
	pc.On("InvalidateAll", mock.Anything).Return(5, nil)
	cdn.On("Enabled").Return(false)

	res := newTestInvalidator(b, pc, cdn, nil).OnEntityMutated(context.Background(), "product", "prod-1", "updated")

	require.True(t, res.Success)
	b.AssertCalled(t, "Build", mock.Anything)
	pc.AssertCalled(t, "InvalidateAll", mock.Anything)
}
