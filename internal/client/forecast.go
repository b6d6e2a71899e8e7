package client

import (
	"context"
	"time"

	"inventory-orchestrator/internal/models"
)

const predictPath = "/predict-demand/"

// ForecastClient talks to the external demand forecasting service
type ForecastClient struct {
	c *Client
}

// NewForecastClient creates a client for the forecasting service
func NewForecastClient(baseURL string, timeout time.Duration) *ForecastClient {
	return &ForecastClient{c: New(baseURL, timeout)}
}

type forecastItem struct {
	ID             string  `json:"id"`
	Region         string  `json:"region"`
	Category       string  `json:"category"`
	Cost           float64 `json:"cost"`
	AvailableStock int     `json:"available_stock"`
}

type forecastRequest struct {
	Item []forecastItem `json:"Item"`
}

func newForecastRequest(items []models.InventoryItem) forecastRequest {
	req := forecastRequest{Item: make([]forecastItem, 0, len(items))}
	for _, it := range items {
		req.Item = append(req.Item, forecastItem{
			ID:             it.ID,
			Region:         it.Region,
			Category:       it.Category,
			Cost:           it.Cost,
			AvailableStock: it.AvailableStock,
		})
	}
	return req
}

// PredictBatch requests one prediction per submitted item and normalizes the
// response into prediction records, matched by item_id or positionally.
func (fc *ForecastClient) PredictBatch(ctx context.Context, items []models.InventoryItem) ([]models.PredictionRecord, error) {
	raw, err := fc.c.postJSON(ctx, predictPath, newForecastRequest(items))
	if err != nil {
		return nil, err
	}
	return decodePredictions(predictPath, raw, items)
}

// PredictSingle sends a singleton batch for one item and normalizes the
// response to one numeric value. A false second return means the service
// answered but produced nothing usable; only transport failures error.
func (fc *ForecastClient) PredictSingle(ctx context.Context, item models.InventoryItem) (float64, bool, error) {
	raw, err := fc.c.postJSON(ctx, predictPath, newForecastRequest([]models.InventoryItem{item}))
	if err != nil {
		return 0, false, err
	}

	value, ok := decodeSinglePrediction(raw)
	return value, ok, nil
}
