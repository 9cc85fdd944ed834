package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"skinvault/internal/domain"
)

const (
	openIDNamespace  = "http://specs.openid.net/auth/2.0"
	identifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"
	defaultOpenIDURL = "https://steamcommunity.com/openid/login"
	claimedIDParam   = "openid.claimed_id"
)

// LoginURL builds the redirect to Steam's OpenID provider. returnTo is where Steam sends the
// browser back to; realm is the origin the user is asked to trust.
func LoginURL(endpoint, returnTo, realm string) string {
	if endpoint == "" {
		endpoint = defaultOpenIDURL
	}
	q := url.Values{}
	q.Set("openid.ns", openIDNamespace)
	q.Set("openid.mode", "checkid_setup")
	q.Set("openid.return_to", returnTo)
	q.Set("openid.realm", realm)
	q.Set("openid.identity", identifierSelect)
	q.Set(claimedIDParam, identifierSelect)
	return endpoint + "?" + q.Encode()
}

// ClaimedID returns the raw openid.claimed_id value from a callback query.
func ClaimedID(q url.Values) string {
	return q.Get(claimedIDParam)
}

// ResolveClaimedID extracts the Steam ID from a claimed_id such as
// https://steamcommunity.com/openid/id/76561197960435530.
//
// The value is not checked to be a real 64-bit Steam ID, and nothing here proves Steam
// issued it. See Verifier.
func ResolveClaimedID(claimedID string) (string, error) {
	claimedID = strings.TrimSpace(claimedID)
	if claimedID == "" {
		return "", domain.ErrMissingIdentifier
	}
	segments := strings.Split(claimedID, "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrMalformedIdentifier, claimedID)
	}
	return id, nil
}

// Verifier asks Steam to confirm a positive assertion (check_authentication).
type Verifier struct {
	endpoint string
	client   *http.Client
}

func NewVerifier(endpoint string, client *http.Client) *Verifier {
	if endpoint == "" {
		endpoint = defaultOpenIDURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{endpoint: endpoint, client: client}
}

// Verify replays the callback's openid.* parameters with mode check_authentication and
// accepts the assertion only when Steam answers is_valid:true.
func (v *Verifier) Verify(ctx context.Context, params url.Values) error {
	if params.Get("openid.mode") != "id_res" {
		return fmt.Errorf("%w: unexpected openid.mode %q", domain.ErrAuthenticationFailed, params.Get("openid.mode"))
	}

	form := url.Values{}
	for k, vals := range params {
		if strings.HasPrefix(k, "openid.") {
			form[k] = vals
		}
	}
	form.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: verify assertion: %v", domain.ErrUpstreamUnavailable, withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: verify assertion: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("%w: read verify response: %v", domain.ErrUpstreamUnavailable, err)
	}
	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) == "is_valid:true" {
			return nil
		}
	}
	return fmt.Errorf("%w: assertion rejected by provider", domain.ErrAuthenticationFailed)
}
