package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/domain"
	"skinvault/internal/repository"
)

type repos struct {
	db          *sql.DB
	users       repository.UserRepository
	sessions    repository.SessionRepository
	snapshots   repository.SnapshotRepository
	skins       repository.SkinRepository
	collections repository.CollectionRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := repos{
		db:          db,
		users:       NewUserRepository(db),
		sessions:    NewSessionRepository(db),
		snapshots:   NewSnapshotRepository(db),
		skins:       NewSkinRepository(db),
		collections: NewCollectionRepository(db),
	}
	require.NoError(t, InitAll(context.Background(), r.users, r.sessions, r.snapshots, r.skins, r.collections))
	return r
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	u := &domain.User{Email: "1@steam.skinvault.local", SteamID: "1", Username: "Tester"}
	require.NoError(t, r.users.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := r.users.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "1", got.SteamID)
	assert.False(t, got.IsAdmin)

	_, err = r.users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_UniqueSteamID(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	require.NoError(t, r.users.Create(ctx, &domain.User{Email: "a@x", SteamID: "7"}))

	err := r.users.Create(ctx, &domain.User{Email: "a@x", SteamID: "8"})
	assert.ErrorIs(t, err, repository.ErrUserExists)

	err = r.users.Create(ctx, &domain.User{Email: "b@x", SteamID: "7"})
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func TestUserRepository_ConcurrentCreateSingleRow(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.users.Create(ctx, &domain.User{Email: "race@x", SteamID: "race"})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrUserExists)
	}
	assert.Equal(t, 1, ok)

	users, err := r.users.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepository_SetAdminAndProfile(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	u := &domain.User{Email: "a@x", SteamID: "1"}
	require.NoError(t, r.users.Create(ctx, u))

	require.NoError(t, r.users.SetAdmin(ctx, u.ID, true))
	require.NoError(t, r.users.UpdateProfile(ctx, u.ID, "New Name", "https://avatar"))

	got, err := r.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, "New Name", got.Username)
	assert.Equal(t, "https://avatar", got.AvatarURL)

	assert.ErrorIs(t, r.users.SetAdmin(ctx, "missing", true), domain.ErrNotFound)
}

func TestSessionRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	u := &domain.User{Email: "a@x", SteamID: "1"}
	require.NoError(t, r.users.Create(ctx, u))

	live := &domain.Session{ID: "live", UserID: u.ID, SecretHash: "h", ExpiresAt: time.Now().Add(time.Hour)}
	dead := &domain.Session{ID: "dead", UserID: u.ID, SecretHash: "h", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, r.sessions.Create(ctx, live))
	require.NoError(t, r.sessions.Create(ctx, dead))

	got, err := r.sessions.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	n, err := r.sessions.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, r.sessions.Delete(ctx, "live"))
	_, err = r.sessions.Get(ctx, "live")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotRepository_LatestAndList(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	_, err := r.snapshots.Latest(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, r.snapshots.Create(ctx, &domain.InventorySnapshot{
			SteamID:   "1",
			Payload:   json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, r.snapshots.Create(ctx, &domain.InventorySnapshot{
		SteamID: "2", Payload: json.RawMessage(`{}`), Timestamp: base.Add(time.Hour),
	}))

	latest, err := r.snapshots.Latest(ctx, "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":2}`, string(latest.Payload))
	assert.True(t, latest.Timestamp.Equal(base.Add(2*time.Minute)))

	list, err := r.snapshots.List(ctx, "1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Timestamp.After(list[1].Timestamp))
	assert.Nil(t, list[0].Payload)
}

func seedSkins(t *testing.T, r repos, n int) []domain.Skin {
	t.Helper()
	skins := make([]domain.Skin, n)
	for i := range skins {
		rarity := domain.RarityRare
		weapon := "AK-47"
		if i%2 == 1 {
			rarity = domain.RarityAncient
			weapon = "AWP"
		}
		skins[i] = domain.Skin{
			Name:       fmt.Sprintf("%s | Skin %02d", weapon, i),
			WeaponType: weapon,
			Rarity:     rarity,
			PriceUSD:   float64(i),
		}
	}
	_, err := r.skins.UpsertByName(context.Background(), skins)
	require.NoError(t, err)
	return skins
}

func TestSkinRepository_UpsertAndSearch(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	seeded := seedSkins(t, r, 50)
	n, err := r.skins.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	// upsert by name updates in place and keeps the row id
	again := []domain.Skin{{Name: "AK-47 | Skin 00", WeaponType: "AK-47", Rarity: domain.RarityLegendary, PriceUSD: 99}}
	_, err = r.skins.UpsertByName(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, again[0].ID)
	n, err = r.skins.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	page, total, err := r.skins.Search(ctx, domain.SkinFilter{Search: "skin 00"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, domain.RarityLegendary, page[0].Rarity)
	assert.InDelta(t, 99, page[0].PriceUSD, 1e-9)

	page, total, err = r.skins.Search(ctx, domain.SkinFilter{WeaponType: "AWP", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page, 10)

	page, total, err = r.skins.Search(ctx, domain.SkinFilter{Rarity: domain.RarityAncient})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page, 24)

	got, err := r.skins.Get(ctx, page[0].ID)
	require.NoError(t, err)
	assert.Equal(t, page[0].Name, got.Name)

	_, err = r.skins.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSkinRepository_SearchMatchesWildcardsLiterally(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	_, err := r.skins.UpsertByName(ctx, []domain.Skin{
		{Name: "AK-47 | Redline", WeaponType: "AK-47", Rarity: domain.RarityLegendary},
		{Name: "AWP | Asiimov", WeaponType: "AWP", Rarity: domain.RarityAncient},
		{Name: "Sticker | 100%_Pure", WeaponType: "Sticker", Rarity: domain.RarityRare},
		{Name: `Sticker | back\slash`, WeaponType: "Sticker", Rarity: domain.RarityRare},
	})
	require.NoError(t, err)

	for term, want := range map[string]int{
		"_":       1,
		"%":       1,
		"0%_p":    1,
		`\`:       1,
		"redline": 1,
		"sticker": 2,
	} {
		_, total, err := r.skins.Search(ctx, domain.SkinFilter{Search: term})
		require.NoError(t, err)
		assert.Equal(t, want, total, "search %q", term)
	}
}

func TestCollectionRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	skins := seedSkins(t, r, 4)
	alice := &domain.User{Email: "a@x", SteamID: "1"}
	bob := &domain.User{Email: "b@x", SteamID: "2"}
	require.NoError(t, r.users.Create(ctx, alice))
	require.NoError(t, r.users.Create(ctx, bob))

	acquired := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entry := &domain.CollectionEntry{UserID: alice.ID, SkinID: skins[0].ID, AcquiredDate: &acquired, AcquisitionPrice: 12.5, Currency: "USD"}
	require.NoError(t, r.collections.Create(ctx, entry))
	require.NoError(t, r.collections.Create(ctx, &domain.CollectionEntry{UserID: alice.ID, SkinID: skins[1].ID, Currency: "BRL"}))
	require.NoError(t, r.collections.Create(ctx, &domain.CollectionEntry{UserID: bob.ID, SkinID: skins[2].ID, Currency: "USD"}))

	err := r.collections.Create(ctx, &domain.CollectionEntry{UserID: alice.ID, SkinID: "missing", Currency: "USD"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, total, err := r.collections.List(ctx, alice.ID, domain.SkinFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	for _, e := range list {
		require.NotNil(t, e.Skin)
		assert.Equal(t, e.SkinID, e.Skin.ID)
	}

	list, total, err = r.collections.List(ctx, alice.ID, domain.SkinFilter{WeaponType: "AWP"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, skins[1].ID, list[0].SkinID)

	got, err := r.collections.Get(ctx, alice.ID, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AcquiredDate)
	assert.True(t, got.AcquiredDate.Equal(acquired))

	// other users cannot see or touch the entry
	_, err = r.collections.Get(ctx, bob.ID, entry.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.collections.Delete(ctx, bob.ID, entry.ID), domain.ErrNotFound)

	entry.Notes = "float 0.01"
	entry.AcquisitionPrice = 20
	require.NoError(t, r.collections.Update(ctx, entry))
	got, err = r.collections.Get(ctx, alice.ID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "float 0.01", got.Notes)

	require.NoError(t, r.collections.Delete(ctx, alice.ID, entry.ID))
	all, err := r.collections.ListAll(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
