package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skinvault/internal/catalog"
	"skinvault/internal/repository"
	"skinvault/internal/repository/sqlite"
	"skinvault/internal/storage"
)

type testRepos struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	snapshots   repository.SnapshotRepository
	skins       repository.SkinRepository
	collections repository.CollectionRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := testRepos{
		users:       sqlite.NewUserRepository(db),
		sessions:    sqlite.NewSessionRepository(db),
		snapshots:   sqlite.NewSnapshotRepository(db),
		skins:       sqlite.NewSkinRepository(db),
		collections: sqlite.NewCollectionRepository(db),
	}
	require.NoError(t, sqlite.InitAll(context.Background(), r.users, r.sessions, r.snapshots, r.skins, r.collections))
	return r
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Inventory(ctx context.Context, steamID string) (json.RawMessage, error) {
	args := m.Called(ctx, steamID)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type mockDatasetSource struct {
	mock.Mock
}

func (m *mockDatasetSource) Fetch(ctx context.Context) (*catalog.Dataset, error) {
	args := m.Called(ctx)
	ds, _ := args.Get(0).(*catalog.Dataset)
	return ds, args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Store(ctx context.Context, source string, data []byte, at time.Time) (string, error) {
	args := m.Called(ctx, source, data, at)
	return args.String(0), args.Error(1)
}

func (m *mockArchiver) List(ctx context.Context, urlTTL time.Duration) ([]storage.Archive, error) {
	args := m.Called(ctx, urlTTL)
	list, _ := args.Get(0).([]storage.Archive)
	return list, args.Error(1)
}
