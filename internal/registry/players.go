// internal/registry/players.go
package registry

import (
	"fmt"
	"sort"
	"time"

	"github.com/jason-s-yu/plaza/internal/models"
)

// Players is the keyed store of per-connection player state.
//
// Players is NOT safe for concurrent use on its own. It is owned by the session
// coordinator, whose lock also covers the room registry, so that operations touching
// both stay atomic.
type Players struct {
	players map[string]*models.Player // connection id -> player
}

// NewPlayers returns an empty player registry.
func NewPlayers() *Players {
	return &Players{
		players: make(map[string]*models.Player),
	}
}

// Registration carries the optional fields a client may supply when registering.
type Registration struct {
	Username string
	Avatar   models.Avatar
}

// Register creates or overwrites the entry for id, filling defaults for missing fields
// and stamping lastActivity with now. Overwriting is accepted: a transport identity may
// re-register mid-session. Keeping the room registry consistent with any prior room is
// the caller's job.
func (r *Players) Register(id string, reg Registration, now time.Time) *models.Player {
	username := reg.Username
	if username == "" {
		username = PlaceholderUsername(id)
	}
	p := &models.Player{
		ID:           id,
		Username:     username,
		Avatar:       reg.Avatar.WithDefaults(),
		X:            models.MaxX / 2,
		Y:            models.MaxY / 2,
		LastActivity: now,
	}
	r.players[id] = p
	return p
}

// Get returns the live entry for id. The pointer is only valid under the owner's lock.
func (r *Players) Get(id string) (*models.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Remove deletes the entry for id. Removing an absent id is a no-op.
func (r *Players) Remove(id string) {
	delete(r.players, id)
}

// Len returns the number of registered players.
func (r *Players) Len() int {
	return len(r.players)
}

// IdleSince returns the ids of players whose last activity is strictly before cutoff,
// in ascending id order.
func (r *Players) IdleSince(cutoff time.Time) []string {
	var ids []string
	for id, p := range r.players {
		if p.LastActivity.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns value copies of every player, ordered by id.
func (r *Players) Snapshot() []models.Player {
	out := make([]models.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PlaceholderUsername derives a display name from a connection id.
func PlaceholderUsername(id string) string {
	frag := id
	if len(frag) > 4 {
		frag = frag[:4]
	}
	return fmt.Sprintf("Player_%s", frag)
}
