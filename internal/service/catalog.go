package service

import (
	"context"

	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/util"

	"go.uber.org/zap"
)

// CatalogView is the catalog plus the distinct value lists the selection
// surface is built from, in first-seen order.
type CatalogView struct {
	Items      []models.InventoryItem `json:"items"`
	Regions    []string               `json:"regions"`
	Categories []string               `json:"categories"`
	ItemNames  []string               `json:"item_names"`
}

// RefreshCatalog fetches the full item set and replaces the catalog
// atomically. On failure the catalog is reset to empty rather than left
// partially loaded; aggregation over an empty catalog is always well-defined.
func (o *Orchestrator) RefreshCatalog(ctx context.Context) error {
	if err := o.tryBegin(OpRefreshing); err != nil {
		return err
	}
	defer o.end(OpRefreshing)

	ctx, span := util.StartSpan(ctx, "Orchestrator.RefreshCatalog")
	defer span.End()

	util.CatalogRefreshTotal.Inc()

	items, err := o.inventory.FetchItems(ctx)
	if err != nil {
		util.CatalogRefreshFailedTotal.Inc()
		o.logger.Error("Catalog refresh failed, resetting catalog", zap.Error(err))
		items = nil
	}

	o.mu.Lock()
	o.items = items
	o.mu.Unlock()

	o.afterChange(ctx, changedCatalog)

	if err != nil {
		return err
	}
	o.logger.Info("Catalog refreshed", zap.Int("items", len(items)))
	return nil
}

// TriggerAutoFill asks the inventory service to populate stock and, on
// success, refreshes the catalog. No optimistic local update happens before
// the refresh completes.
func (o *Orchestrator) TriggerAutoFill(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Orchestrator.TriggerAutoFill")
	defer span.End()

	util.AutoFillTotal.Inc()

	if err := o.inventory.TriggerFill(ctx); err != nil {
		o.logger.Error("Auto-fill request failed", zap.Error(err))
		return err
	}

	return o.RefreshCatalog(ctx)
}

// Catalog returns the current catalog with its derived value lists
func (o *Orchestrator) Catalog() CatalogView {
	o.mu.Lock()
	items := append([]models.InventoryItem(nil), o.items...)
	o.mu.Unlock()

	view := CatalogView{
		Items:      items,
		Regions:    make([]string, 0),
		Categories: make([]string, 0),
		ItemNames:  make([]string, 0),
	}
	seenRegion := make(map[string]bool)
	seenCategory := make(map[string]bool)
	seenName := make(map[string]bool)
	for _, it := range items {
		if !seenRegion[it.Region] {
			seenRegion[it.Region] = true
			view.Regions = append(view.Regions, it.Region)
		}
		if !seenCategory[it.Category] {
			seenCategory[it.Category] = true
			view.Categories = append(view.Categories, it.Category)
		}
		if !seenName[it.Name] {
			seenName[it.Name] = true
			view.ItemNames = append(view.ItemNames, it.Name)
		}
	}
	return view
}
