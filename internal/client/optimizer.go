package client

import (
	"context"
	"time"

	"inventory-orchestrator/internal/models"
)

const optimizePath = "/optimize_orders/"

// OptimizerClient talks to the external order optimization service
type OptimizerClient struct {
	c *Client
}

// NewOptimizerClient creates a client for the optimization service
func NewOptimizerClient(baseURL string, timeout time.Duration) *OptimizerClient {
	return &OptimizerClient{c: New(baseURL, timeout)}
}

// OrderCandidate is one item offered to the optimizer together with its
// predicted demand (zero when no prediction matched the item).
type OrderCandidate struct {
	ID              string  `json:"id"`
	Cost            float64 `json:"cost"`
	AvailableStock  int     `json:"available_stock"`
	PredictedDemand float64 `json:"predicted_demand"`
}

type optimizeRequest struct {
	Item []OrderCandidate `json:"Item"`
}

// OptimizeBatch requests reorder recommendations for the given candidates and
// normalizes the response into order records.
func (oc *OptimizerClient) OptimizeBatch(ctx context.Context, candidates []OrderCandidate) ([]models.OrderRecord, error) {
	raw, err := oc.c.postJSON(ctx, optimizePath, optimizeRequest{Item: candidates})
	if err != nil {
		return nil, err
	}
	return decodeOrders(optimizePath, raw)
}

// OptimizeSingle sends a singleton request for one candidate. A false second
// return means the service answered in no recognized shape; only transport
// failures error.
func (oc *OptimizerClient) OptimizeSingle(ctx context.Context, candidate OrderCandidate) (models.OrderRecord, bool, error) {
	raw, err := oc.c.postJSON(ctx, optimizePath, optimizeRequest{Item: []OrderCandidate{candidate}})
	if err != nil {
		return models.OrderRecord{}, false, err
	}

	order, ok := decodeSingleOrder(raw)
	return order, ok, nil
}
