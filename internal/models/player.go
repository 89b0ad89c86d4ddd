package models

import "time"

// Playfield bounds. Positions are always kept inside [0,MaxX] x [0,MaxY].
const (
	MaxX = 750.0
	MaxY = 350.0
)

// Avatar is the small cosmetic record a player picks at registration.
type Avatar struct {
	BodyColor string `json:"bodyColor"`
	HeadColor string `json:"headColor"`
	Accessory string `json:"accessory"`
}

// DefaultAvatar is applied when a registration omits the avatar or any of its fields.
var DefaultAvatar = Avatar{
	BodyColor: "#4A90E2",
	HeadColor: "#FFD1A4",
	Accessory: "none",
}

// WithDefaults fills empty fields from DefaultAvatar.
func (a Avatar) WithDefaults() Avatar {
	if a.BodyColor == "" {
		a.BodyColor = DefaultAvatar.BodyColor
	}
	if a.HeadColor == "" {
		a.HeadColor = DefaultAvatar.HeadColor
	}
	if a.Accessory == "" {
		a.Accessory = DefaultAvatar.Accessory
	}
	return a
}

// Player is the per-connection state held by the player registry.
// Room is empty while the player is not in a room.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Avatar       Avatar    `json:"avatar"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Room         string    `json:"room,omitempty"`
	LastActivity time.Time `json:"lastActivity"`
}

// InRoom reports whether the player currently belongs to a room.
func (p *Player) InRoom() bool {
	return p.Room != ""
}

// PublicPlayer is the subset of a Player that other room members may see.
type PublicPlayer struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   Avatar  `json:"avatar"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Public projects the player onto the fields shared with peers.
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		ID:       p.ID,
		Username: p.Username,
		Avatar:   p.Avatar,
		X:        p.X,
		Y:        p.Y,
	}
}
