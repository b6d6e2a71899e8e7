package service

import (
	"context"
	"time"

	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/util"

	"go.uber.org/zap"
)

// SingleState is a point-in-time view of the single-item flow. Prediction is
// nil both while idle and when the last attempt produced nothing usable; the
// phase distinguishes the two.
type SingleState struct {
	Selection   models.Selection    `json:"selection"`
	Phase       SinglePhase         `json:"phase"`
	Prediction  *float64            `json:"prediction,omitempty"`
	Approximate string              `json:"approximate,omitempty"`
	Order       *models.OrderRecord `json:"order,omitempty"`
}

// SetSelection updates the single-item selection. Changing any field
// invalidates the previous prediction and order and returns the state
// machine to idle; an unchanged selection is a no-op.
func (o *Orchestrator) SetSelection(sel models.Selection) SingleState {
	o.mu.Lock()
	defer o.mu.Unlock()

	if sel != o.selection {
		o.selection = sel
		o.singlePhase = PhaseIdle
		o.singlePrediction = nil
		o.singleOrder = nil
	}
	return o.singleStateLocked()
}

// ClearSelection resets the single-item flow entirely
func (o *Orchestrator) ClearSelection() SingleState {
	return o.SetSelection(models.Selection{})
}

// SingleState returns the current single-item state
func (o *Orchestrator) SingleState() SingleState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.singleStateLocked()
}

func (o *Orchestrator) singleStateLocked() SingleState {
	state := SingleState{
		Selection: o.selection,
		Phase:     o.singlePhase,
	}
	if o.singlePrediction != nil {
		v := *o.singlePrediction
		state.Prediction = &v
		state.Approximate = Approximate(v)
	}
	if o.singleOrder != nil {
		ord := *o.singleOrder
		state.Order = &ord
	}
	return state
}

// PredictSingle forecasts demand for the currently selected item. Entering
// the predicting phase clears any previously computed prediction and order.
// A result arriving after the selection has changed is discarded. Transport
// failures and unusable responses both end in the unavailable phase; only
// the former is logged as a fault.
func (o *Orchestrator) PredictSingle(ctx context.Context) (SingleState, error) {
	if err := o.tryBegin(OpPredictingSingle); err != nil {
		return o.SingleState(), err
	}
	defer o.end(OpPredictingSingle)

	ctx, span := util.StartSpan(ctx, "Orchestrator.PredictSingle")
	defer span.End()

	o.mu.Lock()
	sel := o.selection
	item, ok := sel.Resolve(o.items)
	if !ok {
		state := o.singleStateLocked()
		o.mu.Unlock()
		return state, ErrSelectionUnresolved
	}
	o.singlePhase = PhasePredicting
	o.singlePrediction = nil
	o.singleOrder = nil
	o.mu.Unlock()

	util.ForecastRequestsTotal.WithLabelValues("single").Inc()
	start := time.Now()

	value, usable, err := o.forecast.PredictSingle(ctx, item)

	util.ForecastLatency.WithLabelValues("single").Observe(time.Since(start).Seconds())
	if err != nil {
		util.ForecastFailedTotal.WithLabelValues("single", client.FailureReason(err)).Inc()
		o.logger.Error("Single prediction failed",
			zap.String("item", item.Name),
			zap.String("region", item.Region),
			zap.Error(err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.selection != sel {
		// selection changed while the request was in flight
		return o.singleStateLocked(), nil
	}

	if err != nil || !usable {
		o.singlePhase = PhaseUnavailable
		o.singlePrediction = nil
		return o.singleStateLocked(), nil
	}

	o.singlePhase = PhasePredicted
	v := value
	o.singlePrediction = &v
	return o.singleStateLocked(), nil
}

// OptimizeSingle requests a reorder recommendation for the selected item
// against its current prediction. An order is only valid for the prediction
// it was optimized from: stale responses (selection or prediction changed in
// flight) are discarded, and an unrecognized response shape silently yields
// no order.
func (o *Orchestrator) OptimizeSingle(ctx context.Context) (SingleState, error) {
	if err := o.tryBegin(OpOptimizingSingle); err != nil {
		return o.SingleState(), err
	}
	defer o.end(OpOptimizingSingle)

	ctx, span := util.StartSpan(ctx, "Orchestrator.OptimizeSingle")
	defer span.End()

	o.mu.Lock()
	sel := o.selection
	item, ok := sel.Resolve(o.items)
	if !ok {
		state := o.singleStateLocked()
		o.mu.Unlock()
		return state, ErrSelectionUnresolved
	}
	if o.singlePhase != PhasePredicted || o.singlePrediction == nil {
		state := o.singleStateLocked()
		o.mu.Unlock()
		return state, ErrNoPrediction
	}
	predicted := *o.singlePrediction
	o.singleOrder = nil
	o.mu.Unlock()

	util.OptimizeRequestsTotal.WithLabelValues("single").Inc()
	start := time.Now()

	order, usable, err := o.optimizer.OptimizeSingle(ctx, client.OrderCandidate{
		ID:              item.ID,
		Cost:            item.Cost,
		AvailableStock:  item.AvailableStock,
		PredictedDemand: predicted,
	})

	util.OptimizeLatency.WithLabelValues("single").Observe(time.Since(start).Seconds())
	if err != nil {
		util.OptimizeFailedTotal.WithLabelValues("single", client.FailureReason(err)).Inc()
		o.logger.Error("Single optimization failed",
			zap.String("item", item.Name),
			zap.Error(err))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.selection != sel || o.singlePrediction == nil || *o.singlePrediction != predicted {
		return o.singleStateLocked(), nil
	}

	if err == nil && usable {
		if order.ItemID == "" {
			order.ItemID = item.ID
		}
		if order.EstimatedCost == nil {
			cost := order.OrderQuantity * item.Cost
			order.EstimatedCost = &cost
		}
		o.singleOrder = &order
	}
	return o.singleStateLocked(), nil
}
