package service

import (
	"context"
	"time"

	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/util"

	"go.uber.org/zap"
)

// OptimizeBatch requests reorder recommendations against the current
// prediction set. Every catalog item is offered to the optimizer, with zero
// demand when no prediction matches it. An empty prediction set is a silent
// no-op (ran=false), not an error. The order set is replaced wholesale on
// success and cleared on failure.
func (o *Orchestrator) OptimizeBatch(ctx context.Context) (ran bool, err error) {
	if err := o.tryBegin(OpOptimizing); err != nil {
		return false, err
	}
	defer o.end(OpOptimizing)

	ctx, span := util.StartSpan(ctx, "Orchestrator.OptimizeBatch")
	defer span.End()

	o.mu.Lock()
	if len(o.predictions) == 0 {
		o.mu.Unlock()
		o.logger.Info("No predictions available, skipping optimization")
		return false, nil
	}

	demand := make(map[string]float64, len(o.predictions))
	for _, p := range o.predictions {
		demand[p.ItemID] = p.PredictedDemand
	}

	candidates := make([]client.OrderCandidate, 0, len(o.items))
	for _, it := range o.items {
		candidates = append(candidates, client.OrderCandidate{
			ID:              it.ID,
			Cost:            it.Cost,
			AvailableStock:  it.AvailableStock,
			PredictedDemand: demand[it.ID],
		})
	}

	costs := make(map[string]float64, len(o.items))
	for _, it := range o.items {
		costs[it.ID] = it.Cost
	}
	o.mu.Unlock()

	util.OptimizeRequestsTotal.WithLabelValues("batch").Inc()
	start := time.Now()

	records, err := o.optimizer.OptimizeBatch(ctx, candidates)

	util.OptimizeLatency.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	if err != nil {
		util.OptimizeFailedTotal.WithLabelValues("batch", client.FailureReason(err)).Inc()
		o.logger.Error("Batch optimization failed, clearing order set", zap.Error(err))
		records = nil
	}

	fillEstimatedCosts(records, costs)

	o.mu.Lock()
	o.orders = records
	o.mu.Unlock()

	o.afterChange(ctx, changedOrders)

	if err != nil {
		return true, err
	}
	o.logger.Info("Orders updated", zap.Int("count", len(records)))
	return true, nil
}

// fillEstimatedCosts derives the estimated cost for records the optimizer
// left it absent on: order_quantity times the matching item cost, zero when
// the item is unknown.
func fillEstimatedCosts(records []models.OrderRecord, costs map[string]float64) {
	for i := range records {
		if records[i].EstimatedCost == nil {
			cost := records[i].OrderQuantity * costs[records[i].ItemID]
			records[i].EstimatedCost = &cost
		}
	}
}
