package models

import "time"

// InventoryItem is one trackable supply item. Items are owned by the
// catalog and replaced wholesale on every refresh; nothing else mutates them.
type InventoryItem struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Region         string  `json:"region"`
	AvailableStock int     `json:"available_stock"`
	Cost           float64 `json:"cost,omitempty"`
	Unit           string  `json:"unit,omitempty"`
}

// PredictionRecord is the normalized result of a demand forecast for one item.
// StockoutRisk is asserted by the forecasting service and never recomputed here.
type PredictionRecord struct {
	ItemID          string  `json:"item_id"`
	PredictedDemand float64 `json:"predicted_demand"`
	StockoutRisk    bool    `json:"stockout_risk"`
}

// OrderRecord is the normalized result of a reorder optimization for one item.
// EstimatedCost is nil when the optimizer did not supply one; the orchestrator
// derives it as order_quantity * item cost before the record is stored.
type OrderRecord struct {
	ItemID        string   `json:"item_id"`
	OrderQuantity float64  `json:"order_quantity"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
}

// Selection identifies exactly one catalog item for the single-item flow.
// It is valid only when all three fields are set and resolve to one item by
// exact match on name, region and category.
type Selection struct {
	Region   string `json:"region"`
	Category string `json:"category"`
	Item     string `json:"item"`
}

// IsComplete reports whether all three selection fields are set.
func (s Selection) IsComplete() bool {
	return s.Region != "" && s.Category != "" && s.Item != ""
}

// Resolve finds the single inventory item matching the selection.
// Returns false when the selection is incomplete or no item matches.
func (s Selection) Resolve(items []InventoryItem) (InventoryItem, bool) {
	if !s.IsComplete() {
		return InventoryItem{}, false
	}
	for _, it := range items {
		if it.Name == s.Item && it.Region == s.Region && it.Category == s.Category {
			return it, true
		}
	}
	return InventoryItem{}, false
}

// Summary holds the derived metrics exposed to the recommendation surface.
type Summary struct {
	TotalItems             int             `json:"total_items"`
	StockoutRiskCount      int             `json:"stockout_risk_count"`
	TotalRecommendedOrders float64         `json:"total_recommended_orders"`
	PotentialSavings       float64         `json:"potential_savings"`
	CriticalItems          []InventoryItem `json:"critical_items"`
}

// Snapshot is the persisted cross-restart state: the three published sets.
type Snapshot struct {
	Items       []InventoryItem    `json:"items"`
	Predictions []PredictionRecord `json:"predictions"`
	Orders      []OrderRecord      `json:"orders"`
	SavedAt     time.Time          `json:"saved_at"`
}
