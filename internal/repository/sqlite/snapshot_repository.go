package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS inventory_snapshots (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL DEFAULT '',
	steam_id TEXT NOT NULL,
	payload BLOB NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inventory_snapshots_steam_id ON inventory_snapshots(steam_id, created_at);
`

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) repository.SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create inventory_snapshots table: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot *domain.InventorySnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO inventory_snapshots (id, user_id, steam_id, payload, created_at)
VALUES (?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.UserID,
		snapshot.SteamID,
		[]byte(snapshot.Payload),
		snapshot.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert inventory snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context, steamID string) (*domain.InventorySnapshot, error) {
	var (
		s       domain.InventorySnapshot
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_id, steam_id, payload, created_at
FROM inventory_snapshots
WHERE steam_id=?
ORDER BY created_at DESC, rowid DESC
LIMIT 1`, steamID).Scan(&s.ID, &s.UserID, &s.SteamID, &payload, &s.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inventory snapshot %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan inventory snapshot: %w", err)
	}
	s.Payload = payload
	return &s, nil
}

func (r *SnapshotRepository) List(ctx context.Context, steamID string, limit int) ([]domain.InventorySnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, steam_id, created_at
FROM inventory_snapshots
WHERE steam_id=?
ORDER BY created_at DESC, rowid DESC
LIMIT ?`, steamID, limit)
	if err != nil {
		return nil, fmt.Errorf("query inventory snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.InventorySnapshot{}
	for rows.Next() {
		var s domain.InventorySnapshot
		if err := rows.Scan(&s.ID, &s.UserID, &s.SteamID, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("scan inventory snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
