package event

import (
	"context"
	"log/slog"

	"github.com/utafrali/storefront-sync/internal/cache"
	"github.com/utafrali/storefront-sync/internal/snapshot"
	"github.com/utafrali/storefront-sync/pkg/kafka"
	"github.com/utafrali/storefront-sync/pkg/logger"
)

// Topics published by this service.
const (
	TopicSnapshotCompleted = "storefront.snapshot.completed"
	TopicCacheInvalidated  = "storefront.cache.invalidated"
)

const source = "storefront-sync"

// Publisher is the Kafka producer surface the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Notifier publishes lifecycle events after snapshot rebuilds and cache
// invalidations. Publishing is best-effort: a broker failure is logged and
// never fails the pipeline that triggered it.
type Notifier struct {
	producer Publisher
	logger   *slog.Logger
}

// NewNotifier creates a Kafka-backed notifier.
func NewNotifier(producer Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{producer: producer, logger: logger}
}

// SnapshotCompletedPayload is the data carried on snapshot completion events.
type SnapshotCompletedPayload struct {
	Version       int64 `json:"version"`
	ProductCount  int   `json:"product_count"`
	CategoryCount int   `json:"category_count"`
	FilesWritten  int   `json:"files_written"`
	FilesSkipped  int   `json:"files_skipped"`
}

// SnapshotCompleted publishes a snapshot completion event.
func (n *Notifier) SnapshotCompleted(ctx context.Context, res *snapshot.Result) {
	payload := SnapshotCompletedPayload{
		Version:       res.Version,
		ProductCount:  res.ProductCount,
		CategoryCount: res.CategoryCount,
		FilesWritten:  res.FilesWritten,
		FilesSkipped:  res.FilesSkipped,
	}
	n.publish(ctx, TopicSnapshotCompleted, "snapshot", payload)
}

// CacheInvalidated publishes a cache invalidation outcome event.
func (n *Notifier) CacheInvalidated(ctx context.Context, res cache.Result) {
	n.publish(ctx, TopicCacheInvalidated, "cache", res)
}

// publish sets the event type to the topic name, matching the convention of
// the other catalog services.
func (n *Notifier) publish(ctx context.Context, topic, aggregateType string, data any) {
	evt, err := kafka.NewEvent(topic, source, aggregateType, source, data)
	if err != nil {
		n.logger.Error("failed to build event",
			slog.String("event_type", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := n.producer.Publish(ctx, topic, evt); err != nil {
		n.logger.Error("failed to publish event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
	}
}
