package http

import (
	"time"

	"skinvault/internal/domain"
	"skinvault/internal/storage"
)

type UserResponse struct {
	ID        string `json:"id"`
	SteamID   string `json:"steam_id,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at"`
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		SteamID:   u.SteamID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type SkinResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	WeaponType string        `json:"weapon_type"`
	ImageURL   string        `json:"image_url"`
	Rarity     domain.Rarity `json:"rarity"`
	Exterior   string        `json:"exterior"`
	PriceUSD   float64       `json:"price_usd"`
	PriceBRL   float64       `json:"price_brl"`
	PriceCNY   float64       `json:"price_cny"`
	PriceRUB   float64       `json:"price_rub"`
	Float      float64       `json:"float"`
}

func skinToResponse(s domain.Skin) SkinResponse {
	return SkinResponse{
		ID:         s.ID,
		Name:       s.Name,
		WeaponType: s.WeaponType,
		ImageURL:   s.ImageURL,
		Rarity:     s.Rarity,
		Exterior:   s.Exterior,
		PriceUSD:   s.PriceUSD,
		PriceBRL:   s.PriceBRL,
		PriceCNY:   s.PriceCNY,
		PriceRUB:   s.PriceRUB,
		Float:      s.Float,
	}
}

// SkinRequest is one row of an admin catalog import.
type SkinRequest struct {
	Name       string  `json:"name"`
	WeaponType string  `json:"weapon_type"`
	ImageURL   string  `json:"image_url"`
	Rarity     string  `json:"rarity"`
	Exterior   string  `json:"exterior"`
	PriceUSD   float64 `json:"price_usd"`
	PriceBRL   float64 `json:"price_brl"`
	PriceCNY   float64 `json:"price_cny"`
	PriceRUB   float64 `json:"price_rub"`
	Float      float64 `json:"float"`
}

func (r SkinRequest) toDomain() domain.Skin {
	return domain.Skin{
		Name:       r.Name,
		WeaponType: r.WeaponType,
		ImageURL:   r.ImageURL,
		Rarity:     domain.Rarity(r.Rarity),
		Exterior:   r.Exterior,
		PriceUSD:   r.PriceUSD,
		PriceBRL:   r.PriceBRL,
		PriceCNY:   r.PriceCNY,
		PriceRUB:   r.PriceRUB,
		Float:      r.Float,
	}
}

type CollectionEntryResponse struct {
	ID               string        `json:"id"`
	SkinID           string        `json:"skin_id"`
	AcquiredDate     *string       `json:"acquired_date"`
	AcquisitionPrice float64       `json:"acquisition_price"`
	Currency         string        `json:"currency"`
	Notes            string        `json:"notes"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
	Skin             *SkinResponse `json:"skin,omitempty"`
}

func entryToResponse(e domain.CollectionEntry) CollectionEntryResponse {
	resp := CollectionEntryResponse{
		ID:               e.ID,
		SkinID:           e.SkinID,
		AcquisitionPrice: e.AcquisitionPrice,
		Currency:         e.Currency,
		Notes:            e.Notes,
		CreatedAt:        e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.AcquiredDate != nil {
		d := e.AcquiredDate.UTC().Format(dateLayout)
		resp.AcquiredDate = &d
	}
	if e.Skin != nil {
		s := skinToResponse(*e.Skin)
		resp.Skin = &s
	}
	return resp
}

type SnapshotResponse struct {
	ID        string `json:"id"`
	SteamID   string `json:"steam_id"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

type ArchiveResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
	URL          string  `json:"url"`
}

func archiveToResponse(a storage.Archive) ArchiveResponse {
	resp := ArchiveResponse{Key: a.Key, Size: a.Size, URL: a.URL}
	if a.LastModified != nil {
		s := a.LastModified.UTC().Format(time.RFC3339)
		resp.LastModified = &s
	}
	return resp
}

type pageResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
