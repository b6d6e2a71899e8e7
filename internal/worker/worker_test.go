package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshWorkerKeepsCatalogCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.InventoryItem{
			{ID: "A", Name: "Gloves", Category: "PPE", Region: "East", AvailableStock: 5},
		})
	}))
	defer srv.Close()

	orch := service.NewOrchestrator(
		client.NewInventoryClient(srv.URL, time.Second),
		client.NewForecastClient(srv.URL, time.Second),
		client.NewOptimizerClient(srv.URL, time.Second),
		nil,
		nil,
	)

	w := NewRefreshWorker(orch, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		return len(orch.Catalog().Items) == 1
	}, time.Second, 10*time.Millisecond)

	w.Stop()
	assert.NoError(t, <-done)
}
