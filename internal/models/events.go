package models

import "time"

// Event types published to the recommendation-summary surface
const (
	EventTypeCatalogUpdated     = "CatalogUpdated"
	EventTypePredictionsUpdated = "PredictionsUpdated"
	EventTypeOrdersUpdated      = "OrdersUpdated"
	EventTypeSummaryUpdated     = "SummaryUpdated"
)

// BaseEvent contains fields common to all published events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogUpdatedEvent is published after every catalog refresh
type CatalogUpdatedEvent struct {
	BaseEvent
	Items []InventoryItem `json:"items"`
}

// PredictionsUpdatedEvent is published whenever the prediction set is
// replaced or cleared
type PredictionsUpdatedEvent struct {
	BaseEvent
	Predictions []PredictionRecord `json:"predictions"`
}

// OrdersUpdatedEvent is published whenever the order set is replaced or cleared
type OrdersUpdatedEvent struct {
	BaseEvent
	Orders []OrderRecord `json:"orders"`
}

// SummaryUpdatedEvent carries the recomputed derived metrics
type SummaryUpdatedEvent struct {
	BaseEvent
	Summary Summary `json:"summary"`
}
