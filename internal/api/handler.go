package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"inventory-orchestrator/internal/models"
	"inventory-orchestrator/internal/service"
	"inventory-orchestrator/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orchestrator *service.Orchestrator
}

// NewHandler creates a new HTTP handler
func NewHandler(orchestrator *service.Orchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/inventory", h.getInventory)
		v1.POST("/inventory/refresh", h.refreshInventory)
		v1.POST("/inventory/fill", h.fillInventory)

		v1.POST("/forecast", h.forecast)
		v1.POST("/optimize", h.optimize)

		v1.GET("/selection", h.getSelection)
		v1.PUT("/selection", h.putSelection)
		v1.DELETE("/selection", h.deleteSelection)
		v1.POST("/selection/predict", h.predictSingle)
		v1.POST("/selection/optimize", h.optimizeSingle)

		v1.GET("/summary", h.getSummary)
		v1.GET("/predictions", h.getPredictions)
		v1.GET("/orders", h.getOrders)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getInventory returns the current catalog with derived value lists
func (h *Handler) getInventory(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Catalog())
}

// refreshInventory replaces the catalog from the inventory service
func (h *Handler) refreshInventory(c *gin.Context) {
	if err := h.orchestrator.RefreshCatalog(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orchestrator.Catalog())
}

// fillInventory triggers server-side stock population, then a refresh
func (h *Handler) fillInventory(c *gin.Context) {
	if err := h.orchestrator.TriggerAutoFill(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orchestrator.Catalog())
}

// forecast runs a batch prediction over the filtered catalog
func (h *Handler) forecast(c *gin.Context) {
	category := c.DefaultQuery("category", "all")

	if err := h.orchestrator.PredictBatch(c.Request.Context(), category); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"predictions": h.orchestrator.Predictions(),
	})
}

// optimize runs a batch optimization against the current predictions.
// An empty prediction set is reported as skipped, not as an error.
func (h *Handler) optimize(c *gin.Context) {
	ran, err := h.orchestrator.OptimizeBatch(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"skipped": !ran,
		"orders":  h.orchestrator.Orders(),
	})
}

// getSelection returns the single-item state
func (h *Handler) getSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.SingleState())
}

// putSelection sets the single-item selection
func (h *Handler) putSelection(c *gin.Context) {
	var sel models.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, h.orchestrator.SetSelection(sel))
}

// deleteSelection clears the single-item selection
func (h *Handler) deleteSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.ClearSelection())
}

// predictSingle forecasts demand for the selected item
func (h *Handler) predictSingle(c *gin.Context) {
	state, err := h.orchestrator.PredictSingle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// optimizeSingle requests a reorder recommendation for the selected item
func (h *Handler) optimizeSingle(c *gin.Context) {
	state, err := h.orchestrator.OptimizeSingle(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// getSummary returns the aggregated recommendation metrics
func (h *Handler) getSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.Summary())
}

// getPredictions returns the current prediction set
func (h *Handler) getPredictions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"predictions": h.orchestrator.Predictions()})
}

// getOrders returns the current order set
func (h *Handler) getOrders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": h.orchestrator.Orders()})
}

// respondError maps orchestrator errors onto HTTP statuses: 409 for an
// operation already in flight, 422 for single-item validation failures, 502
// for upstream service failures (the affected set is already cleared).
func (h *Handler) respondError(c *gin.Context, err error) {
	var busy *service.BusyError
	switch {
	case errors.As(err, &busy):
		c.JSON(http.StatusConflict, gin.H{
			"error":     busy.Error(),
			"operation": string(busy.Op),
		})
	case errors.Is(err, service.ErrSelectionUnresolved), errors.Is(err, service.ErrNoPrediction):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
