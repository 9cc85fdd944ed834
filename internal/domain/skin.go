package domain

import (
	"fmt"
	"strings"
	"time"
)

type Rarity string

const (
	RarityCommon     Rarity = "common"
	RarityUncommon   Rarity = "uncommon"
	RarityRare       Rarity = "rare"
	RarityMythical   Rarity = "mythical"
	RarityLegendary  Rarity = "legendary"
	RarityAncient    Rarity = "ancient"
	RarityContraband Rarity = "contraband"
)

var rarities = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityMythical,
	RarityLegendary,
	RarityAncient,
	RarityContraband,
}

// Rarities returns the rarity enum in ascending order.
func Rarities() []Rarity {
	out := make([]Rarity, len(rarities))
	copy(out, rarities)
	return out
}

// ParseRarity normalises s into a Rarity.
func ParseRarity(s string) (Rarity, error) {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range rarities {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown rarity %q", ErrInvalidInput, s)
}

// Skin is a catalog entry. Name is unique across the catalog.
type Skin struct {
	ID         string
	Name       string
	WeaponType string
	ImageURL   string
	Rarity     Rarity
	Exterior   string
	PriceUSD   float64
	PriceBRL   float64
	PriceCNY   float64
	PriceRUB   float64
	Float      float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SkinFilter drives catalog and collection queries.
type SkinFilter struct {
	Page       int
	PageSize   int
	Search     string
	Rarity     Rarity
	WeaponType string
}

// Normalize clamps paging to sane bounds.
func (f SkinFilter) Normalize() SkinFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 24
	}
	if f.PageSize > 200 {
		f.PageSize = 200
	}
	f.Search = strings.TrimSpace(f.Search)
	f.WeaponType = strings.TrimSpace(f.WeaponType)
	return f
}

func (f SkinFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
