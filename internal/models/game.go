// internal/models/game.go
package models

import (
	"encoding/json"
	"time"
)

// Game is a saved game design in the catalog. Plays and Likes are carried for
// clients but are never incremented by the coordinator.
type Game struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Creator     string          `json:"creator"`
	CreatorID   string          `json:"creatorId"`
	CreatedAt   time.Time       `json:"createdAt"`
	Payload     json.RawMessage `json:"gameData,omitempty"`
	Plays       int             `json:"plays"`
	Likes       int             `json:"likes"`
}
