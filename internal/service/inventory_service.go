package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

// DefaultInventoryFreshness is how long a stored snapshot is served instead of calling Steam.
const DefaultInventoryFreshness = time.Hour

// InventoryFetcher loads a live inventory from Steam.
type InventoryFetcher interface {
	Inventory(ctx context.Context, steamID string) (json.RawMessage, error)
}

type InventoryResult struct {
	Payload   json.RawMessage
	FromCache bool
	Timestamp time.Time
}

// InventoryService serves Steam inventories through the snapshot store.
type InventoryService interface {
	Get(ctx context.Context, caller *Principal, steamID string) (*InventoryResult, error)
	History(ctx context.Context, caller *Principal, steamID string, limit int) ([]domain.InventorySnapshot, error)
}

type InventoryConfig struct {
	FreshFor time.Duration
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

type inventoryService struct {
	snapshots repository.SnapshotRepository
	fetcher   InventoryFetcher
	freshFor  time.Duration
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewInventoryService(snapshots repository.SnapshotRepository, fetcher InventoryFetcher, cfg InventoryConfig) InventoryService {
	if cfg.FreshFor <= 0 {
		cfg.FreshFor = DefaultInventoryFreshness
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &inventoryService{
		snapshots: snapshots,
		fetcher:   fetcher,
		freshFor:  cfg.FreshFor,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

func (s *inventoryService) Get(ctx context.Context, caller *Principal, steamID string) (*InventoryResult, error) {
	if caller == nil || caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return nil, fmt.Errorf("%w: steamId is required", domain.ErrInvalidInput)
	}
	logger := s.logger.WithFields(logrus.Fields{"steam_id": steamID, "user_id": caller.UserID})

	now := s.now()
	latest, err := s.snapshots.Latest(ctx, steamID)
	switch {
	case err == nil:
		if latest.Fresh(now, s.freshFor) {
			logger.Debug("serving inventory snapshot")
			return &InventoryResult{Payload: latest.Payload, FromCache: true, Timestamp: latest.Timestamp}, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		// a broken read only costs a live fetch
		logger.Warnf("load latest snapshot: %v", err)
	}

	payload, err := s.fetcher.Inventory(ctx, steamID)
	if err != nil {
		logger.Warnf("fetch live inventory: %v", err)
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	snapshot := &domain.InventorySnapshot{
		UserID:    caller.UserID,
		SteamID:   steamID,
		Payload:   payload,
		Timestamp: now,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		logger.WithError(fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)).Error("store inventory snapshot")
	}

	return &InventoryResult{Payload: payload, FromCache: false, Timestamp: now}, nil
}

func (s *inventoryService) History(ctx context.Context, caller *Principal, steamID string, limit int) ([]domain.InventorySnapshot, error) {
	if caller == nil || caller.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return nil, fmt.Errorf("%w: steamId is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.snapshots.List(ctx, steamID, limit)
}
