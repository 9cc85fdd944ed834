package steam

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinvault/internal/domain"
)

func TestResolveClaimedID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"steam id", "https://steamcommunity.com/openid/id/76561197960435530", "76561197960435530", nil},
		{"short digits", "https://steamcommunity.com/openid/id/1", "1", nil},
		{"empty", "", "", domain.ErrMissingIdentifier},
		{"blank", "   ", "", domain.ErrMissingIdentifier},
		{"trailing slash", "https://steamcommunity.com/openid/id/", "", domain.ErrMalformedIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveClaimedID(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveClaimedID_AllDigitIDs(t *testing.T) {
	for _, id := range []string{"0", "42", "76561198000000000", "76561199999999999"} {
		got, err := ResolveClaimedID("https://steamcommunity.com/openid/id/" + id)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestLoginURL(t *testing.T) {
	raw := LoginURL("", "http://api.local/api/auth/callback", "http://api.local")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "steamcommunity.com", u.Host)
	q := u.Query()
	assert.Equal(t, "checkid_setup", q.Get("openid.mode"))
	assert.Equal(t, openIDNamespace, q.Get("openid.ns"))
	assert.Equal(t, "http://api.local/api/auth/callback", q.Get("openid.return_to"))
	assert.Equal(t, "http://api.local", q.Get("openid.realm"))
	assert.Equal(t, identifierSelect, q.Get("openid.identity"))
	assert.Equal(t, identifierSelect, q.Get("openid.claimed_id"))
}

func TestVerifier_Verify(t *testing.T) {
	var gotMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotMode = r.PostForm.Get("openid.mode")
		if r.PostForm.Get("openid.sig") == "good" {
			fmt.Fprint(w, "ns:http://specs.openid.net/auth/2.0\nis_valid:true\n")
			return
		}
		fmt.Fprint(w, "ns:http://specs.openid.net/auth/2.0\nis_valid:false\n")
	}))
	defer srv.Close()

	v := NewVerifier(srv.URL, srv.Client())

	params := url.Values{}
	params.Set("openid.mode", "id_res")
	params.Set("openid.claimed_id", "https://steamcommunity.com/openid/id/1")
	params.Set("openid.sig", "good")
	require.NoError(t, v.Verify(context.Background(), params))
	assert.Equal(t, "check_authentication", gotMode)

	params.Set("openid.sig", "forged")
	assert.ErrorIs(t, v.Verify(context.Background(), params), domain.ErrAuthenticationFailed)

	params.Set("openid.mode", "cancel")
	assert.ErrorIs(t, v.Verify(context.Background(), params), domain.ErrAuthenticationFailed)
}
