package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skinvault/internal/domain"
)

// cs2 app id and the tradable item context
const (
	cs2AppID      = "730"
	cs2ContextID  = "2"
	inventorySize = "2000"
)

type ClientConfig struct {
	APIKey       string
	APIBaseURL   string
	CommunityURL string
	Timeout      time.Duration
}

// Client talks to the Steam Web API and the community inventory endpoint. Calls are made
// once; failures surface to the caller as domain.ErrUpstreamUnavailable.
type Client struct {
	apiKey       string
	apiBaseURL   string
	communityURL string
	http         *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.steampowered.com"
	}
	if cfg.CommunityURL == "" {
		cfg.CommunityURL = "https://steamcommunity.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		apiKey:       cfg.APIKey,
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		communityURL: strings.TrimRight(cfg.CommunityURL, "/"),
		http:         NewHTTPClient(cfg.Timeout),
	}
}

// NewHTTPClient returns a pooled client with an overall request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// HTTPClient exposes the underlying client so the OpenID verifier can share its pool.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

type playerSummariesResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
			ProfileURL  string `json:"profileurl"`
			Avatar      string `json:"avatar"`
			AvatarFull  string `json:"avatarfull"`
		} `json:"players"`
	} `json:"response"`
}

// PlayerSummary returns the first player from GetPlayerSummaries.
func (c *Client) PlayerSummary(ctx context.Context, steamID string) (*domain.SteamProfile, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("steamids", steamID)
	endpoint := c.apiBaseURL + "/ISteamUser/GetPlayerSummaries/v0002/?" + q.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("player summaries: %w", err)
	}

	var payload playerSummariesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode player summaries: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(payload.Response.Players) == 0 {
		return nil, domain.ErrProfileNotFound
	}

	p := payload.Response.Players[0]
	avatar := p.AvatarFull
	if avatar == "" {
		avatar = p.Avatar
	}
	return &domain.SteamProfile{
		SteamID:     p.SteamID,
		PersonaName: p.PersonaName,
		AvatarURL:   avatar,
		ProfileURL:  p.ProfileURL,
	}, nil
}

// Inventory fetches the CS2 inventory (assets + descriptions) as raw JSON.
func (c *Client) Inventory(ctx context.Context, steamID string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/inventory/%s/%s/%s?l=english&count=%s",
		c.communityURL, url.PathEscape(steamID), cs2AppID, cs2ContextID, inventorySize)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	// Private inventories answer 200 with a null body on some edges.
	var envelope struct {
		Success int `json:"success"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode inventory: %v", domain.ErrUpstreamUnavailable, err)
	}
	if envelope.Success != 1 {
		return nil, fmt.Errorf("%w: inventory not available", domain.ErrUpstreamUnavailable)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", withoutURL(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, withoutURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// withoutURL drops the request URL from transport errors. Web API URLs carry the API key.
func withoutURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
