package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"skinvault/internal/domain"
)

// DefaultDatasetURL points at the community maintained CS2 skins dataset.
const DefaultDatasetURL = "https://raw.githubusercontent.com/ByMykel/CSGO-API/main/public/api/en/skins.json"

// Dataset is a fetched copy of the third-party catalog: the mapped skins plus the raw body
// so it can be archived as-is.
type Dataset struct {
	Skins   []domain.Skin
	Raw     []byte
	Skipped int
}

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, client *http.Client) *Client {
	if url == "" {
		url = DefaultDatasetURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{url: url, http: client}
}

func (c *Client) URL() string {
	return c.url
}

type datasetItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Weapon struct {
		Name string `json:"name"`
	} `json:"weapon"`
	Rarity struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"rarity"`
	MinFloat *float64 `json:"min_float"`
	Wears    []struct {
		Name string `json:"name"`
	} `json:"wears"`
	Image string `json:"image"`
}

// Fetch downloads the dataset once. Transport and status failures wrap
// domain.ErrUpstreamUnavailable.
func (c *Client) Fetch(ctx context.Context) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch dataset: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fetch dataset: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read dataset: %v", domain.ErrUpstreamUnavailable, err)
	}
	return Parse(raw)
}

// Parse maps the raw dataset into catalog skins. Items without a name or with an unknown
// rarity are skipped and counted.
func Parse(raw []byte) (*Dataset, error) {
	var items []datasetItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode dataset: %v", domain.ErrUpstreamUnavailable, err)
	}

	ds := &Dataset{Raw: raw, Skins: make([]domain.Skin, 0, len(items))}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		rarity, ok := MapRarity(item.Rarity.Name, item.Rarity.ID)
		if name == "" || !ok {
			ds.Skipped++
			continue
		}
		if _, dup := seen[name]; dup {
			ds.Skipped++
			continue
		}
		seen[name] = struct{}{}

		skin := domain.Skin{
			Name:       name,
			WeaponType: item.Weapon.Name,
			ImageURL:   item.Image,
			Rarity:     rarity,
		}
		if len(item.Wears) > 0 {
			skin.Exterior = item.Wears[0].Name
		}
		if item.MinFloat != nil {
			skin.Float = *item.MinFloat
		}
		ds.Skins = append(ds.Skins, skin)
	}
	return ds, nil
}

var rarityByName = map[string]domain.Rarity{
	"consumer grade":   domain.RarityCommon,
	"base grade":       domain.RarityCommon,
	"industrial grade": domain.RarityUncommon,
	"mil-spec grade":   domain.RarityRare,
	"mil-spec":         domain.RarityRare,
	"restricted":       domain.RarityMythical,
	"classified":       domain.RarityLegendary,
	"covert":           domain.RarityAncient,
	"extraordinary":    domain.RarityAncient,
	"contraband":       domain.RarityContraband,
}

// rarity ids look like rarity_mythical_weapon
var rarityByIDToken = map[string]domain.Rarity{
	"common":     domain.RarityCommon,
	"uncommon":   domain.RarityUncommon,
	"rare":       domain.RarityRare,
	"mythical":   domain.RarityMythical,
	"legendary":  domain.RarityLegendary,
	"ancient":    domain.RarityAncient,
	"contraband": domain.RarityContraband,
}

// MapRarity converts the dataset's rarity label (or id, as fallback) to the catalog enum.
func MapRarity(name, id string) (domain.Rarity, bool) {
	if r, ok := rarityByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r, true
	}
	parts := strings.Split(strings.ToLower(id), "_")
	if len(parts) >= 2 {
		if r, ok := rarityByIDToken[parts[1]]; ok {
			return r, true
		}
	}
	return "", false
}
