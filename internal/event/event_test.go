package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-sync/internal/cache"
	"github.com/utafrali/storefront-sync/internal/snapshot"
	"github.com/utafrali/storefront-sync/pkg/kafka"
)

var testLogger = slog.New(slog.DiscardHandler)

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) OnEntityMutated(ctx context.Context, entityType, entityID, action string) cache.Result {
	args := m.Called(ctx, entityType, entityID, action)
	return args.Get(0).(cache.Result)
}

func (m *mockInvalidator) OnCategoryMutated(ctx context.Context, slug string) cache.Result {
	args := m.Called(ctx, slug)
	return args.Get(0).(cache.Result)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, evt *kafka.Event) error {
	args := m.Called(ctx, topic, evt)
	return args.Error(0)
}

func catalogEvent(t *testing.T, eventType, aggregateID string) *kafka.Event {
	t.Helper()
	evt, err := kafka.NewEvent(eventType, aggregateID, "product", "product-service", map[string]string{"id": aggregateID})
	require.NoError(t, err)
	return evt
}

func TestCatalogHandler_ProductUpdated(t *testing.T) {
	inv := new(mockInvalidator)
	inv.On("OnEntityMutated", mock.Anything, "product", "prod-1", "updated").
		Return(cache.Result{Success: true, Timestamp: time.Now()})

	// The catalog services publish with the event type set to the full topic
	// name, namespace prefix included.
	handler := NewCatalogHandler(inv, testLogger)
	err := handler(context.Background(), catalogEvent(t, "ecommerce.product.updated", "prod-1"))

	require.NoError(t, err)
	inv.AssertExpectations(t)
}

func TestCatalogHandler_BareEventType(t *testing.T) {
	inv := new(mockInvalidator)
	inv.On("OnEntityMutated", mock.Anything, "product", "prod-1", "created").
		Return(cache.Result{Success: true})

	handler := NewCatalogHandler(inv, testLogger)
	err := handler(context.Background(), catalogEvent(t, "product.created", "prod-1"))

	require.NoError(t, err)
	inv.AssertExpectations(t)
}

func TestCatalogHandler_CategoryUpdatedWithoutSlug(t *testing.T) {
	inv := new(mockInvalidator)
	inv.On("OnEntityMutated", mock.Anything, "category", "cat-1", "updated").
		Return(cache.Result{Success: true})

	handler := NewCatalogHandler(inv, testLogger)
	err := handler(context.Background(), catalogEvent(t, "ecommerce.category.updated", "cat-1"))

	require.NoError(t, err)
	inv.AssertExpectations(t)
	inv.AssertNotCalled(t, "OnCategoryMutated", mock.Anything, mock.Anything)
}

func TestCatalogHandler_CategoryUpdatedWithSlug(t *testing.T) {
	inv := new(mockInvalidator)
	inv.On("OnCategoryMutated", mock.Anything, "audio").
		Return(cache.Result{Success: true})

	evt, err := kafka.NewEvent("ecommerce.category.updated", "cat-1", "category", "product-service",
		map[string]string{"id": "cat-1", "slug": "audio"})
	require.NoError(t, err)

	handler := NewCatalogHandler(inv, testLogger)
	require.NoError(t, handler(context.Background(), evt))

	inv.AssertExpectations(t)
	inv.AssertNotCalled(t, "OnEntityMutated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogHandler_FailedInvalidationRetries(t *testing.T) {
	inv := new(mockInvalidator)
	inv.On("OnEntityMutated", mock.Anything, "product", "prod-1", "deleted").
		Return(cache.Result{Success: false, Error: "everything is down"})

	handler := NewCatalogHandler(inv, testLogger)
	err := handler(context.Background(), catalogEvent(t, "ecommerce.product.deleted", "prod-1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "everything is down")
}

func TestCatalogHandler_IgnoresUnknownEventType(t *testing.T) {
	inv := new(mockInvalidator)

	handler := NewCatalogHandler(inv, testLogger)
	err := handler(context.Background(), catalogEvent(t, "malformed", "x"))

	require.NoError(t, err)
	inv.AssertNotCalled(t, "OnEntityMutated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifier_SnapshotCompleted(t *testing.T) {
	pub := new(mockPublisher)
	var published *kafka.Event
	pub.On("Publish", mock.Anything, TopicSnapshotCompleted, mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { published = args.Get(2).(*kafka.Event) }).
		Return(nil)

	n := NewNotifier(pub, testLogger)
	n.SnapshotCompleted(context.Background(), &snapshot.Result{
		Version:      1750000000000,
		ProductCount: 3,
		FilesWritten: 7,
	})

	pub.AssertExpectations(t)
	require.NotNil(t, published)
	assert.Equal(t, TopicSnapshotCompleted, published.EventType)

	var payload SnapshotCompletedPayload
	require.NoError(t, json.Unmarshal(published.Data, &payload))
	assert.Equal(t, int64(1750000000000), payload.Version)
	assert.Equal(t, 3, payload.ProductCount)
	assert.Equal(t, 7, payload.FilesWritten)
}

func TestNotifier_PublishFailureIsSwallowed(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicCacheInvalidated, mock.Anything).
		Return(errors.New("broker down"))

	n := NewNotifier(pub, testLogger)

	// Must not panic or propagate; invalidation outcomes never depend on Kafka.
	n.CacheInvalidated(context.Background(), cache.Result{Success: true})
	pub.AssertExpectations(t)
}

func TestNewConsumers_OnePerTopic(t *testing.T) {
	handler := func(ctx context.Context, evt *kafka.Event) error { return nil }
	consumers := NewConsumers([]string{"localhost:9092"}, "storefront-sync", handler, testLogger)

	assert.Len(t, consumers, len(ConsumedTopics))
	for _, c := range consumers {
		require.NoError(t, c.Close())
	}
}
