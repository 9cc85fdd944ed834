package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/catalog"
	"skinvault/internal/domain"
	"skinvault/internal/repository"
	"skinvault/internal/skincache"
	"skinvault/internal/storage"
)

// DatasetSource fetches the third-party skins dataset.
type DatasetSource interface {
	Fetch(ctx context.Context) (*catalog.Dataset, error)
}

// DatasetArchiver keeps copies of imported datasets. *storage.DatasetArchive satisfies it.
type DatasetArchiver interface {
	Store(ctx context.Context, source string, data []byte, at time.Time) (string, error)
	List(ctx context.Context, urlTTL time.Duration) ([]storage.Archive, error)
}

// SyncResult mirrors the sync endpoint body: exactly one of the counts is meaningful.
type SyncResult struct {
	Success       bool
	ImportedCount int
	ExistingCount int
	Skipped       int
	Archive       string
}

// SkinPage is one page of catalog results.
type SkinPage struct {
	Items    []domain.Skin
	Total    int
	Page     int
	PageSize int
}

type CatalogService interface {
	Sync(ctx context.Context) (*SyncResult, error)
	Import(ctx context.Context, skins []domain.Skin) (int, error)
	Search(ctx context.Context, filter domain.SkinFilter) (*SkinPage, error)
	Archives(ctx context.Context) ([]storage.Archive, error)
}

type CatalogConfig struct {
	Cache      *skincache.Cache
	Archive    DatasetArchiver
	ArchiveTTL time.Duration
	Logger     logrus.FieldLogger
}

type catalogService struct {
	skins      repository.SkinRepository
	source     DatasetSource
	archive    DatasetArchiver
	archiveTTL time.Duration
	cache      readCache
	logger     logrus.FieldLogger

	syncMu sync.Mutex
}

func NewCatalogService(skins repository.SkinRepository, source DatasetSource, cfg CatalogConfig) CatalogService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.ArchiveTTL <= 0 {
		cfg.ArchiveTTL = 15 * time.Minute
	}
	return &catalogService{
		skins:      skins,
		source:     source,
		archive:    cfg.Archive,
		archiveTTL: cfg.ArchiveTTL,
		cache:      readCache{cache: cfg.Cache, logger: cfg.Logger},
		logger:     cfg.Logger,
	}
}

// Sync seeds an empty catalog from the dataset. A populated catalog is left untouched.
func (s *catalogService) Sync(ctx context.Context) (*SyncResult, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	existing, err := s.skins.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	if existing > 0 {
		return &SyncResult{Success: true, ExistingCount: existing}, nil
	}

	ds, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	imported, err := s.skins.UpsertByName(ctx, ds.Skins)
	if err != nil {
		return nil, fmt.Errorf("import catalog: %w", err)
	}
	s.cache.invalidate(ctx, skincache.Prefix{Resource: skincache.ResourceSkins})

	result := &SyncResult{Success: true, ImportedCount: imported, Skipped: ds.Skipped}
	s.logger.WithFields(logrus.Fields{"imported": imported, "skipped": ds.Skipped}).Info("catalog synced")

	if s.archive != nil {
		loc, err := s.archive.Store(ctx, "skins", ds.Raw, time.Now())
		if err != nil {
			s.logger.Warnf("archive dataset: %v", err)
		}
		result.Archive = loc
	}
	return result, nil
}

func (s *catalogService) Import(ctx context.Context, skins []domain.Skin) (int, error) {
	if len(skins) == 0 {
		return 0, fmt.Errorf("%w: no skins to import", domain.ErrInvalidInput)
	}

	seen := make(map[string]int, len(skins))
	clean := make([]domain.Skin, 0, len(skins))
	for i, skin := range skins {
		if err := normalizeSkin(&skin); err != nil {
			return 0, fmt.Errorf("skin %d: %w", i, err)
		}
		// last occurrence of a name wins, like repeated upserts would
		if j, dup := seen[skin.Name]; dup {
			clean[j] = skin
			continue
		}
		seen[skin.Name] = len(clean)
		clean = append(clean, skin)
	}

	n, err := s.skins.UpsertByName(ctx, clean)
	if err != nil {
		return 0, fmt.Errorf("import skins: %w", err)
	}
	s.cache.invalidate(ctx, skincache.Prefix{Resource: skincache.ResourceSkins})
	s.logger.WithField("count", n).Info("catalog import applied")
	return n, nil
}

func normalizeSkin(skin *domain.Skin) error {
	skin.ID = ""
	skin.Name = strings.TrimSpace(skin.Name)
	if skin.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	r, err := domain.ParseRarity(string(skin.Rarity))
	if err != nil {
		return err
	}
	skin.Rarity = r
	skin.WeaponType = strings.TrimSpace(skin.WeaponType)
	for _, p := range []float64{skin.PriceUSD, skin.PriceBRL, skin.PriceCNY, skin.PriceRUB} {
		if p < 0 {
			return fmt.Errorf("%w: prices must not be negative", domain.ErrInvalidInput)
		}
	}
	if skin.Float < 0 || skin.Float > 1 {
		return fmt.Errorf("%w: float must be within [0,1]", domain.ErrInvalidInput)
	}
	return nil
}

func (s *catalogService) Search(ctx context.Context, filter domain.SkinFilter) (*SkinPage, error) {
	filter = filter.Normalize()
	key := skincache.Key{Resource: skincache.ResourceSkins, Params: filterParams(filter)}

	var page SkinPage
	if s.cache.get(ctx, key, &page) {
		return &page, nil
	}

	items, total, err := s.skins.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search skins: %w", err)
	}
	page = SkinPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}
	s.cache.set(ctx, key, page)
	return &page, nil
}

func (s *catalogService) Archives(ctx context.Context) ([]storage.Archive, error) {
	if s.archive == nil {
		return []storage.Archive{}, nil
	}
	return s.archive.List(ctx, s.archiveTTL)
}

func filterParams(f domain.SkinFilter) map[string]string {
	return map[string]string{
		"page":   strconv.Itoa(f.Page),
		"size":   strconv.Itoa(f.PageSize),
		"search": strings.ToLower(f.Search),
		"rarity": string(f.Rarity),
		"weapon": f.WeaponType,
	}
}
