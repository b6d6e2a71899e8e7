package service

import (
	"inventory-orchestrator/internal/models"
)

// Summarize recomputes the derived metrics from the three source sets.
// It is pure: no cached state, inputs are never mutated.
//
// Critical items are catalog items whose matching prediction carries stockout
// risk; the risk count is taken over predictions, so an orphaned prediction
// with no matching item still counts but can never be critical. Savings are
// computed from the catalog cost, with orders matching no item contributing
// zero.
func Summarize(items []models.InventoryItem, predictions []models.PredictionRecord, orders []models.OrderRecord) models.Summary {
	byID := make(map[string]models.InventoryItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	riskCount := 0
	atRisk := make(map[string]bool)
	for _, p := range predictions {
		if p.StockoutRisk {
			riskCount++
			atRisk[p.ItemID] = true
		}
	}

	critical := make([]models.InventoryItem, 0)
	for _, it := range items {
		if atRisk[it.ID] {
			critical = append(critical, it)
		}
	}

	var totalOrders, savings float64
	for _, o := range orders {
		totalOrders += o.OrderQuantity
		if it, ok := byID[o.ItemID]; ok {
			savings += o.OrderQuantity * it.Cost
		}
	}

	return models.Summary{
		TotalItems:             len(items),
		StockoutRiskCount:      riskCount,
		TotalRecommendedOrders: totalOrders,
		PotentialSavings:       savings,
		CriticalItems:          critical,
	}
}
