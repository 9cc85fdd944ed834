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

const createSkinsTable = `
CREATE TABLE IF NOT EXISTS skins (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	weapon_type TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	rarity TEXT NOT NULL,
	exterior TEXT NOT NULL DEFAULT '',
	price_usd REAL NOT NULL DEFAULT 0,
	price_brl REAL NOT NULL DEFAULT 0,
	price_cny REAL NOT NULL DEFAULT 0,
	price_rub REAL NOT NULL DEFAULT 0,
	float_value REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skins_rarity ON skins(rarity);
CREATE INDEX IF NOT EXISTS idx_skins_weapon_type ON skins(weapon_type);
`

const skinColumns = `s.id, s.name, s.weapon_type, s.image_url, s.rarity, s.exterior, s.price_usd, s.price_brl, s.price_cny, s.price_rub, s.float_value, s.created_at, s.updated_at`

type SkinRepository struct {
	db *sql.DB
}

func NewSkinRepository(db *sql.DB) repository.SkinRepository {
	return &SkinRepository{db: db}
}

func (r *SkinRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSkinsTable); err != nil {
		return fmt.Errorf("create skins table: %w", err)
	}
	return nil
}

func (r *SkinRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM skins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count skins: %w", err)
	}
	return n, nil
}

func (r *SkinRepository) UpsertByName(ctx context.Context, skins []domain.Skin) (int, error) {
	if len(skins) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO skins (id, name, weapon_type, image_url, rarity, exterior, price_usd, price_brl, price_cny, price_rub, float_value, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	weapon_type=excluded.weapon_type,
	image_url=excluded.image_url,
	rarity=excluded.rarity,
	exterior=excluded.exterior,
	price_usd=excluded.price_usd,
	price_brl=excluded.price_brl,
	price_cny=excluded.price_cny,
	price_rub=excluded.price_rub,
	float_value=excluded.float_value,
	updated_at=excluded.updated_at
RETURNING id`)
	if err != nil {
		return 0, fmt.Errorf("prepare skin upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range skins {
		skin := &skins[i]
		if skin.ID == "" {
			skin.ID = uuid.NewString()
		}
		// on conflict the existing row keeps its id; read it back
		if err := stmt.QueryRowContext(ctx,
			skin.ID,
			skin.Name,
			skin.WeaponType,
			skin.ImageURL,
			string(skin.Rarity),
			skin.Exterior,
			skin.PriceUSD,
			skin.PriceBRL,
			skin.PriceCNY,
			skin.PriceRUB,
			skin.Float,
			now,
			now,
		).Scan(&skin.ID); err != nil {
			return 0, fmt.Errorf("upsert skin %q: %w", skin.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit skin upsert: %w", err)
	}
	return len(skins), nil
}

func (r *SkinRepository) Search(ctx context.Context, filter domain.SkinFilter) ([]domain.Skin, int, error) {
	filter = filter.Normalize()
	where, args := skinWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM skins s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count skins: %w", err)
	}

	query := `SELECT ` + skinColumns + ` FROM skins s` + where + ` ORDER BY s.name ASC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.PageSize, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query skins: %w", err)
	}
	defer rows.Close()

	skins := []domain.Skin{}
	for rows.Next() {
		skin, err := scanSkin(rows)
		if err != nil {
			return nil, 0, err
		}
		skins = append(skins, *skin)
	}
	return skins, total, rows.Err()
}

func (r *SkinRepository) Get(ctx context.Context, id string) (*domain.Skin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+skinColumns+` FROM skins s WHERE s.id=?`, id)
	skin, err := scanSkin(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("skin %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return skin, nil
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// skinWhere builds the filter clause shared by catalog and collection queries. Columns are
// referenced through the alias s.
func skinWhere(filter domain.SkinFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Search != "" {
		clauses = append(clauses, `s.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
	}
	if filter.Rarity != "" {
		clauses = append(clauses, "s.rarity = ?")
		args = append(args, string(filter.Rarity))
	}
	if filter.WeaponType != "" {
		clauses = append(clauses, "s.weapon_type = ?")
		args = append(args, filter.WeaponType)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanSkin returns sql.ErrNoRows unwrapped so callers can map it.
func scanSkin(row interface {
	Scan(dest ...any) error
}) (*domain.Skin, error) {
	var (
		skin   domain.Skin
		rarity string
	)
	if err := row.Scan(
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
		return nil, fmt.Errorf("scan skin: %w", err)
	}
	skin.Rarity = domain.Rarity(rarity)
	return &skin, nil
}
