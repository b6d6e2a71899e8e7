package broker

import (
	"context"
	"time"

	"inventory-orchestrator/internal/models"

	"github.com/google/uuid"
)

// EventPublisher builds and publishes the recommendation-surface events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PublishCatalogUpdated publishes the catalog snapshot after a refresh
func (ep *EventPublisher) PublishCatalogUpdated(ctx context.Context, items []models.InventoryItem) error {
	event := &models.CatalogUpdatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeCatalogUpdated),
		Items:     items,
	}
	return ep.producer.PublishEvent(ctx, "catalog", event)
}

// PublishPredictionsUpdated publishes the current prediction set
func (ep *EventPublisher) PublishPredictionsUpdated(ctx context.Context, predictions []models.PredictionRecord) error {
	event := &models.PredictionsUpdatedEvent{
		BaseEvent:   newBaseEvent(models.EventTypePredictionsUpdated),
		Predictions: predictions,
	}
	return ep.producer.PublishEvent(ctx, "predictions", event)
}

// PublishOrdersUpdated publishes the current order set
func (ep *EventPublisher) PublishOrdersUpdated(ctx context.Context, orders []models.OrderRecord) error {
	event := &models.OrdersUpdatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrdersUpdated),
		Orders:    orders,
	}
	return ep.producer.PublishEvent(ctx, "orders", event)
}

// PublishSummaryUpdated publishes the recomputed derived metrics
func (ep *EventPublisher) PublishSummaryUpdated(ctx context.Context, summary models.Summary) error {
	event := &models.SummaryUpdatedEvent{
		BaseEvent: newBaseEvent(models.EventTypeSummaryUpdated),
		Summary:   summary,
	}
	return ep.producer.PublishEvent(ctx, "summary", event)
}
