package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/util"

	"go.uber.org/zap"
)

// Validation errors for the single-item flow
var (
	ErrSelectionUnresolved = errors.New("selection does not resolve to exactly one inventory item")
	ErrNoPrediction        = errors.New("no prediction available for the current selection")
)

// SinglePhase is the state of the single-item prediction machine
type SinglePhase string

const (
	PhaseIdle        SinglePhase = "idle"
	PhasePredicting  SinglePhase = "predicting"
	PhasePredicted   SinglePhase = "predicted"
	PhaseUnavailable SinglePhase = "unavailable"
)

// SnapshotStore persists the three published sets across restarts
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// EventPublisher pushes set changes to the recommendation-summary surface
type EventPublisher interface {
	PublishCatalogUpdated(ctx context.Context, items []models.InventoryItem) error
	PublishPredictionsUpdated(ctx context.Context, predictions []models.PredictionRecord) error
	PublishOrdersUpdated(ctx context.Context, orders []models.OrderRecord) error
	PublishSummaryUpdated(ctx context.Context, summary models.Summary) error
}

// Orchestrator coordinates the catalog, the forecasting service and the
// optimization service, and owns the three published sets plus the
// single-item state machine. All state access goes through one mutex; the
// external calls themselves run outside it.
type Orchestrator struct {
	inventory *client.InventoryClient
	forecast  *client.ForecastClient
	optimizer *client.OptimizerClient
	snapshots SnapshotStore
	publisher EventPublisher
	logger    *zap.Logger

	mu       sync.Mutex
	inflight map[Operation]bool

	items       []models.InventoryItem
	predictions []models.PredictionRecord
	orders      []models.OrderRecord

	selection        models.Selection
	singlePhase      SinglePhase
	singlePrediction *float64
	singleOrder      *models.OrderRecord
}

// NewOrchestrator creates an orchestrator. snapshots and publisher may be nil
// when persistence or the summary surface is not wired.
func NewOrchestrator(
	inventory *client.InventoryClient,
	forecast *client.ForecastClient,
	optimizer *client.OptimizerClient,
	snapshots SnapshotStore,
	publisher EventPublisher,
) *Orchestrator {
	return &Orchestrator{
		inventory:   inventory,
		forecast:    forecast,
		optimizer:   optimizer,
		snapshots:   snapshots,
		publisher:   publisher,
		logger:      util.GetLogger(),
		inflight:    make(map[Operation]bool),
		singlePhase: PhaseIdle,
	}
}

// RestoreSnapshot loads the last persisted sets, if any. Missing snapshots
// are not an error; the orchestrator simply starts empty.
func (o *Orchestrator) RestoreSnapshot(ctx context.Context) error {
	if o.snapshots == nil {
		return nil
	}

	snap, err := o.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}

	o.mu.Lock()
	o.items = snap.Items
	o.predictions = snap.Predictions
	o.orders = snap.Orders
	o.mu.Unlock()

	o.setSummaryGauges(Summarize(snap.Items, snap.Predictions, snap.Orders))
	o.logger.Info("Snapshot restored",
		zap.Int("items", len(snap.Items)),
		zap.Int("predictions", len(snap.Predictions)),
		zap.Int("orders", len(snap.Orders)),
		zap.Time("saved_at", snap.SavedAt))
	return nil
}

// Predictions returns a copy of the current prediction set
func (o *Orchestrator) Predictions() []models.PredictionRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.PredictionRecord(nil), o.predictions...)
}

// Orders returns a copy of the current order set
func (o *Orchestrator) Orders() []models.OrderRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.OrderRecord(nil), o.orders...)
}

// Summary recomputes the derived metrics over the current sets
func (o *Orchestrator) Summary() models.Summary {
	o.mu.Lock()
	items, predictions, orders := o.items, o.predictions, o.orders
	o.mu.Unlock()
	return Summarize(items, predictions, orders)
}

// Kinds of set change reported to afterChange
const (
	changedCatalog     = "catalog"
	changedPredictions = "predictions"
	changedOrders      = "orders"
)

// afterChange persists a snapshot and publishes the changed set plus the
// recomputed summary. Both are best-effort: failures are logged and counted,
// never propagated.
func (o *Orchestrator) afterChange(ctx context.Context, changed string) {
	o.mu.Lock()
	snap := models.Snapshot{
		Items:       append([]models.InventoryItem(nil), o.items...),
		Predictions: append([]models.PredictionRecord(nil), o.predictions...),
		Orders:      append([]models.OrderRecord(nil), o.orders...),
		SavedAt:     time.Now(),
	}
	o.mu.Unlock()

	summary := Summarize(snap.Items, snap.Predictions, snap.Orders)
	o.setSummaryGauges(summary)

	if o.snapshots != nil {
		if err := o.snapshots.Save(ctx, &snap); err != nil {
			util.SnapshotSaveFailedTotal.Inc()
			o.logger.Error("Failed to persist snapshot", zap.Error(err))
		}
	}

	if o.publisher == nil {
		return
	}

	var err error
	switch changed {
	case changedCatalog:
		err = o.publisher.PublishCatalogUpdated(ctx, snap.Items)
	case changedPredictions:
		err = o.publisher.PublishPredictionsUpdated(ctx, snap.Predictions)
	case changedOrders:
		err = o.publisher.PublishOrdersUpdated(ctx, snap.Orders)
	}
	if err != nil {
		util.EventPublishFailedTotal.Inc()
		o.logger.Error("Failed to publish set update", zap.String("set", changed), zap.Error(err))
	}

	if err := o.publisher.PublishSummaryUpdated(ctx, summary); err != nil {
		util.EventPublishFailedTotal.Inc()
		o.logger.Error("Failed to publish summary update", zap.Error(err))
	}
}

func (o *Orchestrator) setSummaryGauges(summary models.Summary) {
	util.CatalogItems.Set(float64(summary.TotalItems))
	util.StockoutRiskItems.Set(float64(summary.StockoutRiskCount))
	util.RecommendedOrderUnits.Set(summary.TotalRecommendedOrders)
	util.PotentialSavings.Set(summary.PotentialSavings)
}
