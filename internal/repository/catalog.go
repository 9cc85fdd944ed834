package repository

import (
	"context"

	"skinvault/internal/domain"
)

// SkinRepository exposes the catalog table.
type SkinRepository interface {
	Init(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	// UpsertByName inserts or updates each skin keyed by its unique name.
	UpsertByName(ctx context.Context, skins []domain.Skin) (int, error)
	Search(ctx context.Context, filter domain.SkinFilter) ([]domain.Skin, int, error)
	Get(ctx context.Context, id string) (*domain.Skin, error)
}

// CollectionRepository manages per-user collection entries.
type CollectionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.CollectionEntry) error
	Update(ctx context.Context, entry *domain.CollectionEntry) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (*domain.CollectionEntry, error)
	// List joins the catalog skin of every entry.
	List(ctx context.Context, userID string, filter domain.SkinFilter) ([]domain.CollectionEntry, int, error)
	ListAll(ctx context.Context, userID string) ([]domain.CollectionEntry, error)
}
