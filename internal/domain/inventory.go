package domain

import (
	"encoding/json"
	"time"
)

// InventorySnapshot is one persisted copy of a Steam inventory. Snapshots are append-only;
// the latest one per SteamID is the current one.
type InventorySnapshot struct {
	ID        string
	UserID    string
	SteamID   string
	Payload   json.RawMessage
	Timestamp time.Time
}

// Fresh reports whether the snapshot is still usable at now.
func (s *InventorySnapshot) Fresh(now time.Time, ttl time.Duration) bool {
	if s == nil {
		return false
	}
	return now.Sub(s.Timestamp) < ttl
}
