package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
	"skinvault/internal/skincache"
)

// Currencies the catalog carries prices for.
var supportedCurrencies = map[string]struct{}{
	"USD": {},
	"BRL": {},
	"CNY": {},
	"RUB": {},
}

// CollectionInput carries add and partial-update fields. Nil pointers are left unchanged on
// update.
type CollectionInput struct {
	SkinID           string
	AcquiredDate     *time.Time
	AcquisitionPrice *float64
	Currency         *string
	Notes            *string
}

type CollectionPage struct {
	Items    []domain.CollectionEntry
	Total    int
	Page     int
	PageSize int
}

type CollectionService interface {
	Add(ctx context.Context, userID string, in CollectionInput) (*domain.CollectionEntry, error)
	Update(ctx context.Context, userID, id string, in CollectionInput) (*domain.CollectionEntry, error)
	Remove(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, filter domain.SkinFilter) (*CollectionPage, error)
	Stats(ctx context.Context, userID string) (*domain.CollectionStats, error)
}

type collectionService struct {
	entries repository.CollectionRepository
	skins   repository.SkinRepository
	cache   readCache
	logger  logrus.FieldLogger
}

func NewCollectionService(entries repository.CollectionRepository, skins repository.SkinRepository, cache *skincache.Cache, logger logrus.FieldLogger) CollectionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &collectionService{
		entries: entries,
		skins:   skins,
		cache:   readCache{cache: cache, logger: logger},
		logger:  logger,
	}
}

func (s *collectionService) Add(ctx context.Context, userID string, in CollectionInput) (*domain.CollectionEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	skinID := strings.TrimSpace(in.SkinID)
	if skinID == "" {
		return nil, fmt.Errorf("%w: skin_id is required", domain.ErrInvalidInput)
	}
	skin, err := s.skins.Get(ctx, skinID)
	if err != nil {
		return nil, err
	}

	entry := &domain.CollectionEntry{UserID: userID, SkinID: skin.ID, Currency: "USD"}
	if err := applyInput(entry, in); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	entry.Skin = skin

	s.invalidate(ctx, userID)
	return entry, nil
}

func (s *collectionService) Update(ctx context.Context, userID, id string, in CollectionInput) (*domain.CollectionEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	entry, err := s.entries.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(entry, in); err != nil {
		return nil, err
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return entry, nil
}

func (s *collectionService) Remove(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if err := s.entries.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *collectionService) List(ctx context.Context, userID string, filter domain.SkinFilter) (*CollectionPage, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	filter = filter.Normalize()
	key := skincache.Key{Resource: skincache.ResourceUserInventory, Scope: userID, Params: filterParams(filter)}

	var page CollectionPage
	if s.cache.get(ctx, key, &page) {
		return &page, nil
	}

	items, total, err := s.entries.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	page = CollectionPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}
	s.cache.set(ctx, key, page)
	return &page, nil
}

func (s *collectionService) Stats(ctx context.Context, userID string) (*domain.CollectionStats, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	entries, err := s.entries.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	stats := &domain.CollectionStats{
		TotalItems:      len(entries),
		ValueByCurrency: map[string]float64{},
		ByRarity:        map[domain.Rarity]int{},
		ByWeaponType:    map[string]int{},
	}
	for _, e := range entries {
		stats.ValueByCurrency[e.Currency] += e.AcquisitionPrice
		if e.Skin == nil {
			continue
		}
		stats.ByRarity[e.Skin.Rarity]++
		weapon := e.Skin.WeaponType
		if weapon == "" {
			weapon = "Other"
		}
		stats.ByWeaponType[weapon]++
		stats.MarketValueUSD += e.Skin.PriceUSD
	}
	return stats, nil
}

func (s *collectionService) invalidate(ctx context.Context, userID string) {
	s.cache.invalidate(ctx, skincache.Prefix{Resource: skincache.ResourceUserInventory, Scope: userID})
}

func applyInput(entry *domain.CollectionEntry, in CollectionInput) error {
	if in.AcquiredDate != nil {
		if in.AcquiredDate.IsZero() {
			entry.AcquiredDate = nil
		} else {
			d := in.AcquiredDate.UTC()
			entry.AcquiredDate = &d
		}
	}
	if in.AcquisitionPrice != nil {
		if *in.AcquisitionPrice < 0 {
			return fmt.Errorf("%w: acquisition_price must not be negative", domain.ErrInvalidInput)
		}
		entry.AcquisitionPrice = *in.AcquisitionPrice
	}
	if in.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if _, ok := supportedCurrencies[c]; !ok {
			return fmt.Errorf("%w: unsupported currency %q", domain.ErrInvalidInput, *in.Currency)
		}
		entry.Currency = c
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		if len(notes) > 2000 {
			return fmt.Errorf("%w: notes too long", domain.ErrInvalidInput)
		}
		entry.Notes = notes
	}
	return nil
}
