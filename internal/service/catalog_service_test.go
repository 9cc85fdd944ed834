package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skinvault/internal/catalog"
	"skinvault/internal/domain"
	"skinvault/internal/repository"
	"skinvault/internal/skincache"
	"skinvault/internal/storage"
)

func makeSkins(n int) []domain.Skin {
	skins := make([]domain.Skin, n)
	for i := range skins {
		skins[i] = domain.Skin{
			Name:       fmt.Sprintf("AK-47 | Pattern %02d", i),
			WeaponType: "AK-47",
			Rarity:     domain.RarityRare,
			PriceUSD:   1,
		}
	}
	return skins
}

func TestCatalogService_SyncShortCircuitsWhenPopulated(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	_, err := r.skins.UpsertByName(ctx, makeSkins(50))
	require.NoError(t, err)

	source := &mockDatasetSource{}
	svc := NewCatalogService(r.skins, source, CatalogConfig{Logger: quietLogger()})

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 50, res.ExistingCount)
	assert.Zero(t, res.ImportedCount)
	source.AssertNotCalled(t, "Fetch", mock.Anything)

	n, err := r.skins.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}

func TestCatalogService_SyncImportsAndArchives(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	raw := []byte(`[...]`)
	source := &mockDatasetSource{}
	source.On("Fetch", mock.Anything).Return(&catalog.Dataset{Skins: makeSkins(3), Raw: raw, Skipped: 1}, nil).Once()
	archiver := &mockArchiver{}
	archiver.On("Store", mock.Anything, "skins", raw, mock.AnythingOfType("time.Time")).Return("s3://b/k", nil).Once()

	svc := NewCatalogService(r.skins, source, CatalogConfig{Archive: archiver, Logger: quietLogger()})

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.ImportedCount)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "s3://b/k", res.Archive)

	// second call sees the populated table
	res, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExistingCount)
	source.AssertExpectations(t)
	archiver.AssertExpectations(t)
}

func TestCatalogService_SyncArchiveFailureIsNotFatal(t *testing.T) {
	r := newTestRepos(t)
	source := &mockDatasetSource{}
	source.On("Fetch", mock.Anything).Return(&catalog.Dataset{Skins: makeSkins(2), Raw: []byte(`[]`)}, nil)
	archiver := &mockArchiver{}
	archiver.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("s3 down"))

	res, err := NewCatalogService(r.skins, source, CatalogConfig{Archive: archiver, Logger: quietLogger()}).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedCount)
}

func TestCatalogService_SyncUpstreamFailure(t *testing.T) {
	r := newTestRepos(t)
	source := &mockDatasetSource{}
	source.On("Fetch", mock.Anything).Return(nil, fmt.Errorf("%w: status 503", domain.ErrUpstreamUnavailable))

	_, err := NewCatalogService(r.skins, source, CatalogConfig{Logger: quietLogger()}).Sync(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestCatalogService_Import(t *testing.T) {
	r := newTestRepos(t)
	svc := NewCatalogService(r.skins, &mockDatasetSource{}, CatalogConfig{Logger: quietLogger()})
	ctx := context.Background()

	n, err := svc.Import(ctx, []domain.Skin{
		{Name: " AWP | Asiimov ", WeaponType: "AWP", Rarity: "Ancient", PriceUSD: 80},
		{Name: "Glock-18 | Fade", WeaponType: "Glock-18", Rarity: domain.RarityMythical},
		{Name: "AWP | Asiimov", WeaponType: "AWP", Rarity: domain.RarityAncient, PriceUSD: 90},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := svc.Search(ctx, domain.SkinFilter{Search: "asiimov"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.InDelta(t, 90, page.Items[0].PriceUSD, 1e-9)
	assert.Equal(t, domain.RarityAncient, page.Items[0].Rarity)

	_, err = svc.Import(ctx, []domain.Skin{{Name: "x", Rarity: "shiny"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Import(ctx, []domain.Skin{{Name: "", Rarity: domain.RarityRare}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Import(ctx, []domain.Skin{{Name: "x", Rarity: domain.RarityRare, PriceUSD: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Import(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type countingSkins struct {
	repository.SkinRepository
	searches int
}

func (c *countingSkins) Search(ctx context.Context, f domain.SkinFilter) ([]domain.Skin, int, error) {
	c.searches++
	return c.SkinRepository.Search(ctx, f)
}

func TestCatalogService_SearchIsCachedAndInvalidatedByImport(t *testing.T) {
	r := newTestRepos(t)
	skins := &countingSkins{SkinRepository: r.skins}
	cache := skincache.New(skincache.NewMemoryStore(), time.Minute)
	svc := NewCatalogService(skins, &mockDatasetSource{}, CatalogConfig{Cache: cache, Logger: quietLogger()})
	ctx := context.Background()

	_, err := svc.Import(ctx, makeSkins(30))
	require.NoError(t, err)

	first, err := svc.Search(ctx, domain.SkinFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	second, err := svc.Search(ctx, domain.SkinFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, skins.searches)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, 30, second.Total)
	require.Len(t, second.Items, 10)
	assert.Equal(t, first.Items[0].Name, second.Items[0].Name)

	_, err = svc.Import(ctx, []domain.Skin{{Name: "AAA | First", Rarity: domain.RarityCommon}})
	require.NoError(t, err)

	third, err := svc.Search(ctx, domain.SkinFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, skins.searches)
	assert.Equal(t, 31, third.Total)
}

func TestCatalogService_Archives(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()

	list, err := NewCatalogService(r.skins, &mockDatasetSource{}, CatalogConfig{}).Archives(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	archiver := &mockArchiver{}
	archiver.On("List", ctx, 15*time.Minute).Return([]storage.Archive{{Key: "k", URL: "https://u"}}, nil)
	list, err = NewCatalogService(r.skins, &mockDatasetSource{}, CatalogConfig{Archive: archiver}).Archives(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "https://u", list[0].URL)
}
