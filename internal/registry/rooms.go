// internal/registry/rooms.go
package registry

import "sort"

// Rooms is the keyed store of room membership sets.
// A room exists only while it has at least one member: Join creates it lazily and
// Leave deletes it the moment its last member goes.
//
// Rooms does not know which room a player is in; that lives on the Player, and the
// session coordinator keeps the two in sync. Not safe for concurrent use on its own.
type Rooms struct {
	rooms map[string]map[string]struct{} // room id -> member ids
}

// NewRooms returns an empty room registry.
func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Join adds playerID to roomID, creating the room if absent.
// Reports whether the room was created by this call.
func (r *Rooms) Join(roomID, playerID string) bool {
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	members[playerID] = struct{}{}
	return !ok
}

// Leave removes playerID from roomID and deletes the room if it is now empty.
// Returns the number of members left (0 when the room was deleted or never existed).
func (r *Rooms) Leave(roomID, playerID string) int {
	members, ok := r.rooms[roomID]
	if !ok {
		return 0
	}
	delete(members, playerID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
		return 0
	}
	return len(members)
}

// Members returns the member ids of roomID in ascending order; empty if the room is absent.
func (r *Rooms) Members(roomID string) []string {
	members := r.rooms[roomID]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of non-empty rooms.
func (r *Rooms) Len() int {
	return len(r.rooms)
}

// IDs returns every room id in ascending order.
func (r *Rooms) IDs() []string {
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Population returns the member count per room.
func (r *Rooms) Population() map[string]int {
	out := make(map[string]int, len(r.rooms))
	for id, members := range r.rooms {
		out[id] = len(members)
	}
	return out
}
