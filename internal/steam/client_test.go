package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/domain"
)

func TestClient_PlayerSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ISteamUser/GetPlayerSummaries/v0002/", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("steamids") {
		case "76561197960435530":
			w.Write([]byte(`{"response":{"players":[{"steamid":"76561197960435530","personaname":"Tester","profileurl":"https://steamcommunity.com/id/tester/","avatarfull":"https://avatars/full.jpg"}]}}`))
		case "down":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.Write([]byte(`{"response":{"players":[]}}`))
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{APIKey: "secret", APIBaseURL: srv.URL})

	p, err := c.PlayerSummary(context.Background(), "76561197960435530")
	require.NoError(t, err)
	assert.Equal(t, "Tester", p.PersonaName)
	assert.Equal(t, "https://avatars/full.jpg", p.AvatarURL)

	_, err = c.PlayerSummary(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = c.PlayerSummary(context.Background(), "down")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestClient_Inventory(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/inventory/111/730/2":
			w.Write([]byte(`{"assets":[{"assetid":"1","classid":"c"}],"descriptions":[{"classid":"c","market_hash_name":"AK-47 | Redline"}],"success":1}`))
		case "/inventory/private/730/2":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.Write([]byte(`null`))
		}
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{CommunityURL: srv.URL})

	payload, err := c.Inventory(context.Background(), "111")
	require.NoError(t, err)
	assert.Contains(t, string(payload), "AK-47 | Redline")

	_, err = c.Inventory(context.Background(), "private")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	_, err = c.Inventory(context.Background(), "empty")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls), "no retries expected")
}

func TestClient_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(ClientConfig{APIKey: "SECRETKEY123", APIBaseURL: srv.URL, CommunityURL: srv.URL})

	_, err := c.PlayerSummary(context.Background(), "76561197960435530")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.NotContains(t, err.Error(), "SECRETKEY123")
	assert.NotContains(t, err.Error(), "steamids=")

	_, err = c.Inventory(context.Background(), "76561197960435530")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), srv.URL)
}
