package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-orchestrator/internal/models"

	"github.com/go-redis/redis/v8"
)

// One key per published set, mirroring the key-value sink contract.
const (
	keyCatalog     = "snapshot:catalog"
	keyPredictions = "snapshot:predictions"
	keyOrders      = "snapshot:orders"
	keySavedAt     = "snapshot:saved_at"
)

// SnapshotStore keeps the published sets in Redis
type SnapshotStore struct {
	rdb *redis.Client
}

// NewSnapshotStore connects to Redis and verifies the connection
func NewSnapshotStore(addr, password string, db int) (*SnapshotStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &SnapshotStore{rdb: rdb}, nil
}

// Close closes the Redis connection
func (s *SnapshotStore) Close() error {
	return s.rdb.Close()
}

// Save writes all three sets and the timestamp in one pipeline
func (s *SnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	items, err := json.Marshal(snap.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	predictions, err := json.Marshal(snap.Predictions)
	if err != nil {
		return fmt.Errorf("failed to marshal predictions: %w", err)
	}
	orders, err := json.Marshal(snap.Orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, keyCatalog, items, 0)
	pipe.Set(ctx, keyPredictions, predictions, 0)
	pipe.Set(ctx, keyOrders, orders, 0)
	pipe.Set(ctx, keySavedAt, snap.SavedAt.Format(time.RFC3339Nano), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads the last snapshot. Returns nil when nothing was ever saved.
func (s *SnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	vals, err := s.rdb.MGet(ctx, keyCatalog, keyPredictions, keyOrders, keySavedAt).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if vals[0] == nil && vals[1] == nil && vals[2] == nil {
		return nil, nil
	}

	snap := &models.Snapshot{}
	if err := unmarshalValue(vals[0], &snap.Items); err != nil {
		return nil, err
	}
	if err := unmarshalValue(vals[1], &snap.Predictions); err != nil {
		return nil, err
	}
	if err := unmarshalValue(vals[2], &snap.Orders); err != nil {
		return nil, err
	}
	if raw, ok := vals[3].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			snap.SavedAt = t
		}
	}
	return snap, nil
}

func unmarshalValue(val interface{}, out interface{}) error {
	raw, ok := val.(string)
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot value: %w", err)
	}
	return nil
}
