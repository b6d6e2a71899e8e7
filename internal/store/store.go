package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-orchestrator/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const upsertSnapshot = `
INSERT INTO snapshots (name, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

// Rows in the snapshots table, one per published set
const (
	setCatalog     = "catalog"
	setPredictions = "predictions"
	setOrders      = "orders"
)

// Store is the Postgres-backed snapshot store
type Store struct {
	db *sqlx.DB
}

// NewStore connects to Postgres and ensures the snapshots table exists
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts all three sets in one transaction
func (s *Store) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	sets := []struct {
		name  string
		value interface{}
	}{
		{setCatalog, snap.Items},
		{setPredictions, snap.Predictions},
		{setOrders, snap.Orders},
	}

	for _, set := range sets {
		payload, err := json.Marshal(set.value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", set.name, err)
		}
		if _, err := tx.ExecContext(ctx, upsertSnapshot, set.name, payload, snap.SavedAt); err != nil {
			return fmt.Errorf("failed to upsert %s snapshot: %w", set.name, err)
		}
	}

	return tx.Commit()
}

type snapshotRow struct {
	Name      string          `db:"name"`
	Payload   json.RawMessage `db:"payload"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Load reads the last snapshot. Returns nil when no rows exist.
func (s *Store) Load(ctx context.Context) (*models.Snapshot, error) {
	var rows []snapshotRow
	err := s.db.SelectContext(ctx, &rows, `SELECT name, payload, updated_at FROM snapshots`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	snap := &models.Snapshot{}
	for _, row := range rows {
		var err error
		switch row.Name {
		case setCatalog:
			err = json.Unmarshal(row.Payload, &snap.Items)
		case setPredictions:
			err = json.Unmarshal(row.Payload, &snap.Predictions)
		case setOrders:
			err = json.Unmarshal(row.Payload, &snap.Orders)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s snapshot: %w", row.Name, err)
		}
		if row.UpdatedAt.After(snap.SavedAt) {
			snap.SavedAt = row.UpdatedAt
		}
	}
	return snap, nil
}
