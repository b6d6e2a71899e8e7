package service

import (
	"context"
	"time"

	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/util"

	"go.uber.org/zap"
)

// PredictBatch forecasts demand for the catalog subset matching the category
// filter ("all" or empty matches everything). The prediction set is replaced
// wholesale on success and cleared on any transport or shape failure; it is
// never left stale or partially merged.
func (o *Orchestrator) PredictBatch(ctx context.Context, category string) error {
	if err := o.tryBegin(OpPredicting); err != nil {
		return err
	}
	defer o.end(OpPredicting)

	ctx, span := util.StartSpan(ctx, "Orchestrator.PredictBatch")
	defer span.End()

	o.mu.Lock()
	filtered := filterByCategory(o.items, category)
	o.mu.Unlock()

	util.ForecastRequestsTotal.WithLabelValues("batch").Inc()
	start := time.Now()

	records, err := o.forecast.PredictBatch(ctx, filtered)

	util.ForecastLatency.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	if err != nil {
		util.ForecastFailedTotal.WithLabelValues("batch", client.FailureReason(err)).Inc()
		o.logger.Error("Batch prediction failed, clearing prediction set",
			zap.String("category", category),
			zap.Error(err))
		records = nil
	}

	o.mu.Lock()
	o.predictions = records
	o.mu.Unlock()

	o.afterChange(ctx, changedPredictions)

	if err != nil {
		return err
	}
	o.logger.Info("Predictions updated",
		zap.Int("count", len(records)),
		zap.String("category", category))
	return nil
}

func filterByCategory(items []models.InventoryItem, category string) []models.InventoryItem {
	if category == "" || category == "all" {
		return append([]models.InventoryItem(nil), items...)
	}
	filtered := make([]models.InventoryItem, 0, len(items))
	for _, it := range items {
		if it.Category == category {
			filtered = append(filtered, it)
		}
	}
	return filtered
}
