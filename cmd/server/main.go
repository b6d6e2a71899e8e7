package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-orchestrator/config"
	"inventory-orchestrator/internal/api"
	"inventory-orchestrator/internal/broker"
	"inventory-orchestrator/internal/client"
	"inventory-orchestrator/internal/redisclient"
	"inventory-orchestrator/internal/service"
	"inventory-orchestrator/internal/store"
	"inventory-orchestrator/internal/util"
	"inventory-orchestrator/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory orchestrator")

	tp, err := util.InitTracer("inventory-orchestrator", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	var snapshots service.SnapshotStore
	switch cfg.Snapshot.Backend {
	case "postgres":
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		snapshots = db
		log.Println("Postgres snapshot store connected")
	default:
		rc, err := redisclient.NewSnapshotStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rc.Close()
		snapshots = rc
		log.Println("Redis snapshot store connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	inventoryClient := client.NewInventoryClient(cfg.Services.InventoryURL, cfg.Services.Timeout)
	forecastClient := client.NewForecastClient(cfg.Services.ForecastURL, cfg.Services.Timeout)
	optimizerClient := client.NewOptimizerClient(cfg.Services.OptimizerURL, cfg.Services.Timeout)

	orchestrator := service.NewOrchestrator(
		inventoryClient,
		forecastClient,
		optimizerClient,
		snapshots,
		eventPublisher,
	)

	ctx := context.Background()
	if err := orchestrator.RestoreSnapshot(ctx); err != nil {
		log.Printf("Failed to restore snapshot: %v", err)
	}
	if err := orchestrator.RefreshCatalog(ctx); err != nil {
		log.Printf("Initial catalog refresh failed: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var refreshWorker *worker.RefreshWorker
	if cfg.Worker.RefreshInterval > 0 {
		refreshWorker = worker.NewRefreshWorker(orchestrator, cfg.Worker.RefreshInterval)
		go func() {
			if err := refreshWorker.Start(workerCtx); err != nil && err != context.Canceled {
				log.Printf("Refresh worker error: %v", err)
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(orchestrator)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	if refreshWorker != nil {
		refreshWorker.Stop()
	}

	log.Println("Server exited")
}
