package client

import (
	"encoding/json"

	"inventory-orchestrator/internal/models"
)

// The forecasting and optimization services answer in more than one shape.
// Everything here normalizes those shapes into the canonical record types so
// the rest of the orchestrator never sniffs JSON.

// predictionEntry accepts either a bare number or an object carrying
// predicted_demand with optional item_id and stockout_risk.
type predictionEntry struct {
	demand    float64
	hasDemand bool
	itemID    string
	stockout  bool
}

func (p *predictionEntry) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		p.demand = n
		p.hasDemand = true
		return nil
	}

	var obj struct {
		PredictedDemand *float64 `json:"predicted_demand"`
		ItemID          string   `json:"item_id"`
		StockoutRisk    bool     `json:"stockout_risk"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.PredictedDemand != nil {
		p.demand = *obj.PredictedDemand
		p.hasDemand = true
	}
	p.itemID = obj.ItemID
	p.stockout = obj.StockoutRisk
	return nil
}

// decodePredictions normalizes a batch forecast response. Entries without an
// item_id are matched positionally against the submitted items. An absent
// predictions field decodes as an empty set, not an error.
func decodePredictions(endpoint string, raw json.RawMessage, submitted []models.InventoryItem) ([]models.PredictionRecord, error) {
	var resp struct {
		Predictions []predictionEntry `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ShapeError{Endpoint: endpoint, Detail: err.Error()}
	}

	records := make([]models.PredictionRecord, 0, len(resp.Predictions))
	for i, entry := range resp.Predictions {
		id := entry.itemID
		if id == "" && i < len(submitted) {
			id = submitted[i].ID
		}
		records = append(records, models.PredictionRecord{
			ItemID:          id,
			PredictedDemand: entry.demand,
			StockoutRisk:    entry.stockout,
		})
	}
	return records, nil
}

// decodeSinglePrediction extracts one numeric prediction from any of the
// three accepted shapes: a predictions sequence (numbers or objects), a bare
// {predicted_demand} object, or a bare number. A response matching none of
// them yields no prediction, which is not an error.
func decodeSinglePrediction(raw json.RawMessage) (float64, bool) {
	var resp struct {
		Predictions     []predictionEntry `json:"predictions"`
		PredictedDemand *float64          `json:"predicted_demand"`
	}
	if err := json.Unmarshal(raw, &resp); err == nil {
		if len(resp.Predictions) > 0 && resp.Predictions[0].hasDemand {
			return resp.Predictions[0].demand, true
		}
		if resp.PredictedDemand != nil {
			return *resp.PredictedDemand, true
		}
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	return 0, false
}

type orderEntry struct {
	ItemID        string   `json:"item_id"`
	OrderQuantity float64  `json:"order_quantity"`
	EstimatedCost *float64 `json:"estimated_cost"`
}

func (o orderEntry) record() models.OrderRecord {
	return models.OrderRecord{
		ItemID:        o.ItemID,
		OrderQuantity: o.OrderQuantity,
		EstimatedCost: o.EstimatedCost,
	}
}

// decodeOrders normalizes a batch optimization response. An absent orders
// field decodes as an empty set.
func decodeOrders(endpoint string, raw json.RawMessage) ([]models.OrderRecord, error) {
	var resp struct {
		Orders []orderEntry `json:"orders"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &ShapeError{Endpoint: endpoint, Detail: err.Error()}
	}

	records := make([]models.OrderRecord, 0, len(resp.Orders))
	for _, entry := range resp.Orders {
		records = append(records, entry.record())
	}
	return records, nil
}

// decodeSingleOrder extracts one order from either accepted shape: a
// non-empty orders sequence (first element wins) or a bare
// {order_quantity, estimated_cost?} object. Anything else yields no order.
func decodeSingleOrder(raw json.RawMessage) (models.OrderRecord, bool) {
	var resp struct {
		Orders        []orderEntry `json:"orders"`
		OrderQuantity *float64     `json:"order_quantity"`
		EstimatedCost *float64     `json:"estimated_cost"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.OrderRecord{}, false
	}

	if len(resp.Orders) > 0 {
		return resp.Orders[0].record(), true
	}
	if resp.OrderQuantity != nil {
		return models.OrderRecord{
			OrderQuantity: *resp.OrderQuantity,
			EstimatedCost: resp.EstimatedCost,
		}, true
	}
	return models.OrderRecord{}, false
}
