// internal/session/snapshot.go
package session

import "github.com/jason-s-yu/plaza/internal/models"

// RoomView is a read-only roster of one room.
type RoomView struct {
	ID          string                `json:"id"`
	PlayerCount int                   `json:"playerCount"`
	Players     []models.PublicPlayer `json:"players"`
}

// Snapshot is a consistent copy of both registries, taken under the coordinator lock.
// It shares no memory with the live registries.
type Snapshot struct {
	Players    []models.Player `json:"players"`
	Rooms      []RoomView      `json:"rooms"`
	Population map[string]int  `json:"roomPopulation"`
}

// Snapshot copies the current registry state for read-only projections.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Players:    c.players.Snapshot(),
		Rooms:      make([]RoomView, 0, c.rooms.Len()),
		Population: c.rooms.Population(),
	}
	for _, roomID := range c.rooms.IDs() {
		view := RoomView{ID: roomID, Players: []models.PublicPlayer{}}
		for _, id := range c.rooms.Members(roomID) {
			if p, ok := c.players.Get(id); ok {
				view.Players = append(view.Players, p.Public())
			}
		}
		view.PlayerCount = len(view.Players)
		snap.Rooms = append(snap.Rooms, view)
	}
	return snap
}

// Counts returns the number of registered players and live rooms.
func (c *Coordinator) Counts() (players, rooms int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.players.Len(), c.rooms.Len()
}
