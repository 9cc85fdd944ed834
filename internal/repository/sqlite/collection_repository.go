package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

const createCollectionTable = `
CREATE TABLE IF NOT EXISTS collection_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	skin_id TEXT NOT NULL,
	acquired_date DATETIME NULL,
	acquisition_price REAL NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'USD',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(skin_id) REFERENCES skins(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_collection_entries_user_id ON collection_entries(user_id);
`

const collectionSelect = `
SELECT c.id, c.user_id, c.skin_id, c.acquired_date, c.acquisition_price, c.currency, c.notes, c.created_at, c.updated_at, ` + skinColumns + `
FROM collection_entries c
JOIN skins s ON s.id = c.skin_id`

type CollectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(db *sql.DB) repository.CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCollectionTable); err != nil {
		return fmt.Errorf("create collection_entries table: %w", err)
	}
	return nil
}

func (r *CollectionRepository) Create(ctx context.Context, entry *domain.CollectionEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO collection_entries (id, user_id, skin_id, acquired_date, acquisition_price, currency, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.SkinID,
		nullTime(entry.AcquiredDate),
		entry.AcquisitionPrice,
		entry.Currency,
		entry.Notes,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return fmt.Errorf("%w: unknown user or skin", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert collection entry: %w", err)
	}
	return nil
}

func (r *CollectionRepository) Update(ctx context.Context, entry *domain.CollectionEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE collection_entries
SET acquired_date=?, acquisition_price=?, currency=?, notes=?, updated_at=?
WHERE id=? AND user_id=?`,
		nullTime(entry.AcquiredDate),
		entry.AcquisitionPrice,
		entry.Currency,
		entry.Notes,
		entry.UpdatedAt,
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return fmt.Errorf("update collection entry: %w", err)
	}
	return requireAffected(res, "collection entry")
}

func (r *CollectionRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collection_entries WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete collection entry: %w", err)
	}
	return requireAffected(res, "collection entry")
}

func (r *CollectionRepository) Get(ctx context.Context, userID, id string) (*domain.CollectionEntry, error) {
	row := r.db.QueryRowContext(ctx, collectionSelect+` WHERE c.id=? AND c.user_id=?`, id, userID)
	entry, err := scanCollectionEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("collection entry %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return entry, nil
}

func (r *CollectionRepository) List(ctx context.Context, userID string, filter domain.SkinFilter) ([]domain.CollectionEntry, int, error) {
	filter = filter.Normalize()
	where, args := skinWhere(filter)
	if where == "" {
		where = " WHERE c.user_id = ?"
	} else {
		where += " AND c.user_id = ?"
	}
	args = append(args, userID)

	var total int
	countQuery := `SELECT COUNT(*) FROM collection_entries c JOIN skins s ON s.id = c.skin_id` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collection entries: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, collectionSelect+where+` ORDER BY c.created_at DESC, c.id ASC LIMIT ? OFFSET ?`,
		append(args, filter.PageSize, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query collection entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanCollectionRows(rows)
	return entries, total, err
}

func (r *CollectionRepository) ListAll(ctx context.Context, userID string) ([]domain.CollectionEntry, error) {
	rows, err := r.db.QueryContext(ctx, collectionSelect+` WHERE c.user_id = ? ORDER BY c.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query collection entries: %w", err)
	}
	defer rows.Close()
	return scanCollectionRows(rows)
}

func scanCollectionRows(rows *sql.Rows) ([]domain.CollectionEntry, error) {
	entries := []domain.CollectionEntry{}
	for rows.Next() {
		entry, err := scanCollectionEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanCollectionEntry(row interface {
	Scan(dest ...any) error
}) (*domain.CollectionEntry, error) {
	var (
		entry    domain.CollectionEntry
		skin     domain.Skin
		rarity   string
		acquired sql.NullTime
	)
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.SkinID,
		&acquired,
		&entry.AcquisitionPrice,
		&entry.Currency,
		&entry.Notes,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&skin.ID,
		&skin.Name,
		&skin.WeaponType,
		&skin.ImageURL,
		&rarity,
		&skin.Exterior,
		&skin.PriceUSD,
		&skin.PriceBRL,
		&skin.PriceCNY,
		&skin.PriceRUB,
		&skin.Float,
		&skin.CreatedAt,
		&skin.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan collection entry: %w", err)
	}
	if acquired.Valid {
		t := acquired.Time
		entry.AcquiredDate = &t
	}
	skin.Rarity = domain.Rarity(rarity)
	entry.Skin = &skin
	return &entry, nil
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}
