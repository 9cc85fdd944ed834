package domain

import "time"

// User represents an authenticated principal. One row exists per Steam ID that has
// completed login.
type User struct {
	ID        string
	Email     string
	SteamID   string
	Username  string
	AvatarURL string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SteamProfile is the subset of GetPlayerSummaries used to populate a User.
type SteamProfile struct {
	SteamID     string
	PersonaName string
	AvatarURL   string
	ProfileURL  string
}

// Session is a stored refresh credential. The secret half of the refresh token is kept
// only as a bcrypt hash.
type Session struct {
	ID         string
	UserID     string
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
