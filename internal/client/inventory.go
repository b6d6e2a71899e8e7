package client

import (
	"context"
	"encoding/json"
	"time"

	"inventory-orchestrator/internal/models"
)

const (
	inventoryPath = "/inventory/"
	fillPath      = "/inventory/fill/"
)

// InventoryClient talks to the external inventory service
type InventoryClient struct {
	c *Client
}

// NewInventoryClient creates a client for the inventory service
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{c: New(baseURL, timeout)}
}

// FetchItems retrieves the full item set
func (ic *InventoryClient) FetchItems(ctx context.Context) ([]models.InventoryItem, error) {
	raw, err := ic.c.getJSON(ctx, inventoryPath)
	if err != nil {
		return nil, err
	}

	var items []models.InventoryItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ShapeError{Endpoint: inventoryPath, Detail: err.Error()}
	}
	return items, nil
}

// TriggerFill asks the inventory service to populate stock server-side.
// The response body, if any, is ignored.
func (ic *InventoryClient) TriggerFill(ctx context.Context) error {
	_, err := ic.c.postJSON(ctx, fillPath, struct{}{})
	return err
}
