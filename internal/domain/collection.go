package domain

import "time"

// CollectionEntry links one user to one catalog skin they claim to own.
type CollectionEntry struct {
	ID               string
	UserID           string
	SkinID           string
	AcquiredDate     *time.Time
	AcquisitionPrice float64
	Currency         string
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Skin *Skin
}

// CollectionStats aggregates a user's collection for the analytics view.
type CollectionStats struct {
	TotalItems      int
	ValueByCurrency map[string]float64
	ByRarity        map[Rarity]int
	ByWeaponType    map[string]int
	MarketValueUSD  float64
}
