package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend stands in for all three external services behind one server;
// the endpoint paths never collide.
type fakeBackend struct {
	mu sync.Mutex

	items           []models.InventoryItem
	inventoryStatus int

	predictResponse string
	predictStatus   int
	predictBodies   [][]byte

	optimizeResponse string
	optimizeStatus   int
	optimizeBodies   [][]byte

	predictStarted chan struct{}
	predictRelease chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		predictResponse:  `{}`,
		optimizeResponse: `{}`,
	}
}

func (f *fakeBackend) setItems(items ...models.InventoryItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func (f *fakeBackend) setPredict(status int, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictStatus = status
	f.predictResponse = response
}

func (f *fakeBackend) setOptimize(status int, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optimizeStatus = status
	f.optimizeResponse = response
}

func (f *fakeBackend) lastPredictBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.predictBodies) == 0 {
		return nil
	}
	return f.predictBodies[len(f.predictBodies)-1]
}

func (f *fakeBackend) lastOptimizeBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.optimizeBodies) == 0 {
		return nil
	}
	return f.optimizeBodies[len(f.optimizeBodies)-1]
}

func (f *fakeBackend) optimizeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.optimizeBodies)
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/inventory/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.inventoryStatus
		items := f.items
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(items)
	})

	mux.HandleFunc("/inventory/fill/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/predict-demand/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.predictBodies = append(f.predictBodies, body)
		status := f.predictStatus
		response := f.predictResponse
		started := f.predictStarted
		release := f.predictRelease
		f.mu.Unlock()

		if started != nil {
			started <- struct{}{}
		}
		if release != nil {
			<-release
		}

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(response))
	})

	mux.HandleFunc("/optimize_orders/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.optimizeBodies = append(f.optimizeBodies, body)
		status := f.optimizeStatus
		response := f.optimizeResponse
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(response))
	})

	return mux
}

func newTestOrchestrator(t *testing.T, backend *fakeBackend, snapshots SnapshotStore, publisher EventPublisher) *Orchestrator {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	return NewOrchestrator(
		client.NewInventoryClient(srv.URL, 2*time.Second),
		client.NewForecastClient(srv.URL, 2*time.Second),
		client.NewOptimizerClient(srv.URL, 2*time.Second),
		snapshots,
		publisher,
	)
}

func glovesItem() models.InventoryItem {
	return models.InventoryItem{
		ID: "A", Name: "Gloves", Category: "PPE", Region: "East", AvailableStock: 5, Cost: 10,
	}
}

func TestRefreshCatalogReplacesWholesale(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	assert.Len(t, orch.Catalog().Items, 1)

	backend.setItems(glovesItem(), models.InventoryItem{ID: "B", Name: "Gauze", Category: "Wound Care", Region: "West"})
	require.NoError(t, orch.RefreshCatalog(ctx))
	assert.Len(t, orch.Catalog().Items, 2)
}

func TestRefreshCatalogFailureResetsToEmpty(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.Len(t, orch.Catalog().Items, 1)

	backend.mu.Lock()
	backend.inventoryStatus = http.StatusBadGateway
	backend.mu.Unlock()

	assert.Error(t, orch.RefreshCatalog(ctx))
	assert.Empty(t, orch.Catalog().Items)
}

func TestCatalogDerivedLists(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(
		glovesItem(),
		models.InventoryItem{ID: "B", Name: "Gauze", Category: "Wound Care", Region: "East"},
		models.InventoryItem{ID: "C", Name: "Gloves", Category: "PPE", Region: "West"},
	)
	orch := newTestOrchestrator(t, backend, nil, nil)
	require.NoError(t, orch.RefreshCatalog(context.Background()))

	view := orch.Catalog()
	assert.Equal(t, []string{"East", "West"}, view.Regions)
	assert.Equal(t, []string{"PPE", "Wound Care"}, view.Categories)
	assert.Equal(t, []string{"Gloves", "Gauze"}, view.ItemNames)
}

func TestEndToEndRecommendationScenario(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":true}]}`)
	backend.setOptimize(0, `{"orders":[{"item_id":"A","order_quantity":20}]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))

	summary := orch.Summary()
	assert.Equal(t, 1, summary.StockoutRiskCount)
	require.Len(t, summary.CriticalItems, 1)
	assert.Equal(t, "A", summary.CriticalItems[0].ID)

	ran, err := orch.OptimizeBatch(ctx)
	require.NoError(t, err)
	assert.True(t, ran)

	summary = orch.Summary()
	assert.Equal(t, float64(20), summary.TotalRecommendedOrders)
	assert.Equal(t, float64(200), summary.PotentialSavings)
}

func TestPredictBatchFailureClearsPredictions(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":true}]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))
	require.Len(t, orch.Predictions(), 1)

	backend.setPredict(http.StatusServiceUnavailable, "")
	assert.Error(t, orch.PredictBatch(ctx, "all"))
	assert.Empty(t, orch.Predictions())
}

func TestPredictBatchCategoryFilter(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(
		glovesItem(),
		models.InventoryItem{ID: "B", Name: "Gauze", Category: "Wound Care", Region: "West", AvailableStock: 8},
	)
	backend.setPredict(0, `{"predictions":[]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "PPE"))

	var req struct {
		Item []struct {
			ID string `json:"id"`
		} `json:"Item"`
	}
	require.NoError(t, json.Unmarshal(backend.lastPredictBody(), &req))
	require.Len(t, req.Item, 1)
	assert.Equal(t, "A", req.Item[0].ID)

	require.NoError(t, orch.PredictBatch(ctx, "all"))
	require.NoError(t, json.Unmarshal(backend.lastPredictBody(), &req))
	assert.Len(t, req.Item, 2)
}

func TestOptimizeBatchSkipsWithoutPredictions(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))

	ran, err := orch.OptimizeBatch(ctx)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, backend.optimizeCalls())
}

func TestOptimizeBatchOffersEveryItemWithZeroDefault(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(
		glovesItem(),
		models.InventoryItem{ID: "B", Name: "Gauze", Category: "Wound Care", Region: "West", AvailableStock: 8, Cost: 2},
	)
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":false}]}`)
	backend.setOptimize(0, `{"orders":[]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))

	ran, err := orch.OptimizeBatch(ctx)
	require.NoError(t, err)
	require.True(t, ran)

	var req struct {
		Item []struct {
			ID              string  `json:"id"`
			PredictedDemand float64 `json:"predicted_demand"`
		} `json:"Item"`
	}
	require.NoError(t, json.Unmarshal(backend.lastOptimizeBody(), &req))
	require.Len(t, req.Item, 2)
	assert.Equal(t, float64(50), req.Item[0].PredictedDemand)
	// item with no matching prediction is still offered, with zero demand
	assert.Equal(t, "B", req.Item[1].ID)
	assert.Equal(t, float64(0), req.Item[1].PredictedDemand)
}

func TestOptimizeBatchIdempotentOverUnchangedInputs(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":true}]}`)
	backend.setOptimize(0, `{"orders":[{"item_id":"A","order_quantity":20}]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))

	_, err := orch.OptimizeBatch(ctx)
	require.NoError(t, err)
	first := orch.Summary().TotalRecommendedOrders

	_, err = orch.OptimizeBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, orch.Summary().TotalRecommendedOrders)
}

func TestOptimizeBatchFailureClearsOrders(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":true}]}`)
	backend.setOptimize(0, `{"orders":[{"item_id":"A","order_quantity":20}]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))

	_, err := orch.OptimizeBatch(ctx)
	require.NoError(t, err)
	require.Len(t, orch.Orders(), 1)

	backend.setOptimize(http.StatusInternalServerError, "")
	_, err = orch.OptimizeBatch(ctx)
	assert.Error(t, err)
	assert.Empty(t, orch.Orders())
}

func TestSinglePredictionBareNumber(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `7`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "East", Category: "PPE", Item: "Gloves"})

	state, err := orch.PredictSingle(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhasePredicted, state.Phase)
	require.NotNil(t, state.Prediction)
	assert.Equal(t, float64(7), *state.Prediction)
	assert.Equal(t, "~7", state.Approximate)
}

func TestPredictSingleUnresolvedSelection(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "West", Category: "PPE", Item: "Gloves"})

	_, err := orch.PredictSingle(ctx)
	assert.ErrorIs(t, err, ErrSelectionUnresolved)
}

func TestPredictSingleUnusableResponseIsUnavailableNotError(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"status":"ok"}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "East", Category: "PPE", Item: "Gloves"})

	state, err := orch.PredictSingle(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseUnavailable, state.Phase)
	assert.Nil(t, state.Prediction)
}

func TestPredictSingleTransportFailureIsUnavailable(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(http.StatusBadGateway, "")
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "East", Category: "PPE", Item: "Gloves"})

	state, err := orch.PredictSingle(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseUnavailable, state.Phase)
	assert.Nil(t, state.Prediction)
}

func TestOptimizeSingleRequiresPrediction(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "East", Category: "PPE", Item: "Gloves"})

	_, err := orch.OptimizeSingle(ctx)
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestOptimizeSingleDerivesEstimatedCost(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `7`)
	backend.setOptimize(0, `{"order_quantity":12}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "East", Category: "PPE", Item: "Gloves"})

	_, err := orch.PredictSingle(ctx)
	require.NoError(t, err)

	state, err := orch.OptimizeSingle(ctx)
	require.NoError(t, err)
	require.NotNil(t, state.Order)
	assert.Equal(t, "A", state.Order.ItemID)
	assert.Equal(t, float64(12), state.Order.OrderQuantity)
	require.NotNil(t, state.Order.EstimatedCost)
	assert.Equal(t, float64(120), *state.Order.EstimatedCost)
}

func TestSelectionChangeInvalidatesPredictionAndOrder(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(
		glovesItem(),
		models.InventoryItem{ID: "B", Name: "Gloves", Category: "PPE", Region: "West", AvailableStock: 3, Cost: 9},
	)
	backend.setPredict(0, `7`)
	backend.setOptimize(0, `{"orders":[{"item_id":"A","order_quantity":12,"estimated_cost":120}]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	orch.SetSelection(models.Selection{Region: "East", Category: "PPE", Item: "Gloves"})

	_, err := orch.PredictSingle(ctx)
	require.NoError(t, err)
	_, err = orch.OptimizeSingle(ctx)
	require.NoError(t, err)
	require.NotNil(t, orch.SingleState().Order)

	state := orch.SetSelection(models.Selection{Region: "West", Category: "PPE", Item: "Gloves"})
	assert.Equal(t, PhaseIdle, state.Phase)
	assert.Nil(t, state.Prediction)
	assert.Nil(t, state.Order)
}

func TestBusyOperationRejectsDuplicate(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.predictStarted = make(chan struct{})
	backend.predictRelease = make(chan struct{})
	backend.setPredict(0, `{"predictions":[]}`)
	orch := newTestOrchestrator(t, backend, nil, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))

	done := make(chan error, 1)
	go func() {
		done <- orch.PredictBatch(ctx, "all")
	}()

	<-backend.predictStarted

	err := orch.PredictBatch(ctx, "all")
	var busy *BusyError
	require.ErrorAs(t, err, &busy)
	assert.Equal(t, OpPredicting, busy.Op)

	close(backend.predictRelease)
	require.NoError(t, <-done)
}

// memorySnapshots is an in-memory SnapshotStore for tests
type memorySnapshots struct {
	mu   sync.Mutex
	snap *models.Snapshot
}

func (m *memorySnapshots) Save(_ context.Context, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *snap
	m.snap = &copied
	return nil
}

func (m *memorySnapshots) Load(_ context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

// capturePublisher counts published events
type capturePublisher struct {
	mu          sync.Mutex
	catalogs    int
	predictions int
	orders      int
	summaries   int
	lastSummary models.Summary
}

func (p *capturePublisher) PublishCatalogUpdated(_ context.Context, _ []models.InventoryItem) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalogs++
	return nil
}

func (p *capturePublisher) PublishPredictionsUpdated(_ context.Context, _ []models.PredictionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predictions++
	return nil
}

func (p *capturePublisher) PublishOrdersUpdated(_ context.Context, _ []models.OrderRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders++
	return nil
}

func (p *capturePublisher) PublishSummaryUpdated(_ context.Context, summary models.Summary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries++
	p.lastSummary = summary
	return nil
}

func TestSnapshotPersistedAndRestored(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":true}]}`)
	snapshots := &memorySnapshots{}
	orch := newTestOrchestrator(t, backend, snapshots, nil)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))

	restored := newTestOrchestrator(t, newFakeBackend(), snapshots, nil)
	require.NoError(t, restored.RestoreSnapshot(ctx))

	assert.Len(t, restored.Catalog().Items, 1)
	assert.Len(t, restored.Predictions(), 1)
	assert.Equal(t, 1, restored.Summary().StockoutRiskCount)
}

func TestSetChangesPublished(t *testing.T) {
	backend := newFakeBackend()
	backend.setItems(glovesItem())
	backend.setPredict(0, `{"predictions":[{"item_id":"A","predicted_demand":50,"stockout_risk":true}]}`)
	backend.setOptimize(0, `{"orders":[{"item_id":"A","order_quantity":20}]}`)
	publisher := &capturePublisher{}
	orch := newTestOrchestrator(t, backend, nil, publisher)
	ctx := context.Background()

	require.NoError(t, orch.RefreshCatalog(ctx))
	require.NoError(t, orch.PredictBatch(ctx, "all"))
	_, err := orch.OptimizeBatch(ctx)
	require.NoError(t, err)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	assert.Equal(t, 1, publisher.catalogs)
	assert.Equal(t, 1, publisher.predictions)
	assert.Equal(t, 1, publisher.orders)
	assert.Equal(t, 3, publisher.summaries)
	assert.Equal(t, float64(200), publisher.lastSummary.PotentialSavings)
}
