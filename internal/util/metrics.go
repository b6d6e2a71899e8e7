package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CatalogRefreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_refresh_total",
		Help: "Total number of catalog refreshes",
	})

	CatalogRefreshFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_refresh_failed_total",
		Help: "Total number of failed catalog refreshes",
	})

	AutoFillTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_autofill_total",
		Help: "Total number of inventory auto-fill requests",
	})

	ForecastRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_requests_total",
		Help: "Total number of demand forecast requests",
	}, []string{"mode"})

	ForecastFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_failed_total",
		Help: "Total number of failed demand forecast requests",
	}, []string{"mode", "reason"})

	ForecastLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_latency_seconds",
		Help:    "Latency of demand forecast requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	OptimizeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimize_requests_total",
		Help: "Total number of order optimization requests",
	}, []string{"mode"})

	OptimizeFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optimize_failed_total",
		Help: "Total number of failed order optimization requests",
	}, []string{"mode", "reason"})

	OptimizeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimize_latency_seconds",
		Help:    "Latency of order optimization requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	OperationBusyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "operation_busy_rejections_total",
		Help: "Total number of operations rejected because one was in flight",
	}, []string{"operation"})

	SnapshotSaveFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapshot_save_failed_total",
		Help: "Total number of failed snapshot publications",
	})

	EventPublishFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_publish_failed_total",
		Help: "Total number of failed event publications",
	})

	CatalogItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_items",
		Help: "Number of items currently in the catalog",
	})

	StockoutRiskItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockout_risk_items",
		Help: "Number of predictions currently flagged with stockout risk",
	})

	RecommendedOrderUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recommended_order_units",
		Help: "Sum of recommended order quantities",
	})

	PotentialSavings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "potential_savings",
		Help: "Estimated savings over the current order set",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
