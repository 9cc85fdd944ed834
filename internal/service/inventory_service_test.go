package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

var (
	testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	caller  = &Principal{UserID: "u1", SteamID: "76561197960435530"}
)

func newTestInventory(t *testing.T, snapshots repository.SnapshotRepository, fetcher InventoryFetcher) InventoryService {
	t.Helper()
	return NewInventoryService(snapshots, fetcher, InventoryConfig{
		FreshFor: time.Hour,
		Logger:   quietLogger(),
		Now:      func() time.Time { return testNow },
	})
}

func TestInventoryService_FreshSnapshotServedFromStore(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, r.snapshots.Create(ctx, &domain.InventorySnapshot{
		SteamID:   "76561197960435530",
		Payload:   json.RawMessage(`{"assets":[],"descriptions":[]}`),
		Timestamp: testNow.Add(-10 * time.Minute),
	}))

	fetcher := &mockFetcher{}
	svc := newTestInventory(t, r.snapshots, fetcher)

	res, err := svc.Get(ctx, caller, "76561197960435530")
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.JSONEq(t, `{"assets":[],"descriptions":[]}`, string(res.Payload))
	assert.True(t, res.Timestamp.Equal(testNow.Add(-10*time.Minute)))
	fetcher.AssertNotCalled(t, "Inventory", mock.Anything, mock.Anything)
}

func TestInventoryService_StaleSnapshotRefetched(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	steamID := "76561197960435530"
	require.NoError(t, r.snapshots.Create(ctx, &domain.InventorySnapshot{
		SteamID:   steamID,
		Payload:   json.RawMessage(`{"old":true}`),
		Timestamp: testNow.Add(-90 * time.Minute),
	}))

	fetcher := &mockFetcher{}
	fetcher.On("Inventory", mock.Anything, steamID).Return(json.RawMessage(`{"fresh":true}`), nil).Once()
	svc := newTestInventory(t, r.snapshots, fetcher)

	res, err := svc.Get(ctx, caller, steamID)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.JSONEq(t, `{"fresh":true}`, string(res.Payload))
	fetcher.AssertNumberOfCalls(t, "Inventory", 1)

	history, err := svc.History(ctx, caller, steamID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2, "exactly one new snapshot")
	assert.True(t, history[0].Timestamp.Equal(testNow))
	assert.Equal(t, "u1", history[0].UserID)

	// the new snapshot now serves the next request
	res, err = svc.Get(ctx, caller, steamID)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	fetcher.AssertNumberOfCalls(t, "Inventory", 1)
}

func TestInventoryService_NoSnapshot(t *testing.T) {
	r := newTestRepos(t)
	fetcher := &mockFetcher{}
	fetcher.On("Inventory", mock.Anything, "1").Return(json.RawMessage(`{}`), nil).Once()

	res, err := newTestInventory(t, r.snapshots, fetcher).Get(context.Background(), caller, "1")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
}

func TestInventoryService_Errors(t *testing.T) {
	r := newTestRepos(t)
	fetcher := &mockFetcher{}
	fetcher.On("Inventory", mock.Anything, "private").Return(nil, domain.ErrUpstreamUnavailable)
	fetcher.On("Inventory", mock.Anything, "weird").Return(nil, errors.New("boom"))
	svc := newTestInventory(t, r.snapshots, fetcher)
	ctx := context.Background()

	_, err := svc.Get(ctx, nil, "1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Get(ctx, caller, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Get(ctx, caller, "private")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	_, err = svc.Get(ctx, caller, "weird")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	_, err = svc.History(ctx, nil, "1", 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

type failingSnapshots struct {
	repository.SnapshotRepository
}

func (failingSnapshots) Latest(context.Context, string) (*domain.InventorySnapshot, error) {
	return nil, errors.New("disk on fire")
}

func (failingSnapshots) Create(context.Context, *domain.InventorySnapshot) error {
	return errors.New("disk on fire")
}

func TestInventoryService_PersistenceFailureStillReturnsPayload(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Inventory", mock.Anything, "1").Return(json.RawMessage(`{"live":1}`), nil).Once()

	res, err := newTestInventory(t, failingSnapshots{}, fetcher).Get(context.Background(), caller, "1")
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.JSONEq(t, `{"live":1}`, string(res.Payload))
}
