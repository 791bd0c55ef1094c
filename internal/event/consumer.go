package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/storefront-sync/internal/cache"
	"github.com/utafrali/storefront-sync/pkg/kafka"
)

// Topics consumed from the catalog services. Any mutation on these topics
// triggers a whole-catalog invalidation.
var ConsumedTopics = []string{
	"ecommerce.product.created",
	"ecommerce.product.updated",
	"ecommerce.product.deleted",
	"ecommerce.category.updated",
}

// CatalogInvalidator reacts to catalog mutations.
type CatalogInvalidator interface {
	OnEntityMutated(ctx context.Context, entityType, entityID, action string) cache.Result
	OnCategoryMutated(ctx context.Context, slug string) cache.Result
}

// NewCatalogHandler builds the message handler that turns catalog mutation
// events into invalidation runs. A run that fails on every layer returns an
// error so the consumer retries the message.
func NewCatalogHandler(inv CatalogInvalidator, logger *slog.Logger) kafka.Handler {
	return func(ctx context.Context, evt *kafka.Event) error {
		entityType, action := splitEventType(evt.EventType)
		if entityType == "" {
			logger.Warn("ignoring event with unrecognized type",
				slog.String("event_type", evt.EventType),
				slog.String("event_id", evt.EventID),
			)
			return nil
		}

		res := invalidate(ctx, inv, entityType, action, evt)
		if !res.Success {
			return fmt.Errorf("invalidation for %s.%s failed: %s", entityType, action, res.Error)
		}
		return nil
	}
}

// invalidate scopes the run to one category when the event payload names its
// slug; every other mutation invalidates the whole catalog.
func invalidate(ctx context.Context, inv CatalogInvalidator, entityType, action string, evt *kafka.Event) cache.Result {
	if entityType == "category" {
		var payload struct {
			Slug string `json:"slug"`
		}
		if err := evt.UnmarshalData(&payload); err == nil && payload.Slug != "" {
			return inv.OnCategoryMutated(ctx, payload.Slug)
		}
	}
	return inv.OnEntityMutated(ctx, entityType, evt.AggregateID, action)
}

// splitEventType parses the trailing entity and action segments out of types
// like "ecommerce.product.updated". The catalog services set the event type to
// the full topic name, so any leading namespace segments are ignored.
func splitEventType(eventType string) (entityType, action string) {
	parts := strings.Split(eventType, ".")
	if len(parts) < 2 {
		return "", ""
	}
	entityType, action = parts[len(parts)-2], parts[len(parts)-1]
	if entityType == "" || action == "" {
		return "", ""
	}
	return entityType, action
}

// NewConsumers creates one consumer per catalog topic, all sharing the given
// group so the service scales horizontally without double-processing.
func NewConsumers(brokers []string, groupID string, handler kafka.Handler, logger *slog.Logger) []*kafka.Consumer {
	consumers := make([]*kafka.Consumer, 0, len(ConsumedTopics))
	for _, topic := range ConsumedTopics {
		consumers = append(consumers, kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}, handler, logger))
	}
	return consumers
}
