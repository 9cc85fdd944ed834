package repository

import (
	"context"

	"skinvault/internal/domain"
)

// SnapshotRepository is the append-only store of inventory snapshots.
type SnapshotRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, snapshot *domain.InventorySnapshot) error
	// Latest returns the newest snapshot for steamID or domain.ErrNotFound.
	Latest(ctx context.Context, steamID string) (*domain.InventorySnapshot, error)
	// List returns snapshot metadata, newest first. Payloads are not loaded.
	List(ctx context.Context, steamID string, limit int) ([]domain.InventorySnapshot, error)
}
