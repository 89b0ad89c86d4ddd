// internal/session/coordinator.go
package session

import (
	"errors"
	"sync"

	"github.com/jason-s-yu/plaza/internal/catalog"
	"github.com/jason-s-yu/plaza/internal/clock"
	"github.com/jason-s-yu/plaza/internal/models"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/jason-s-yu/plaza/internal/registry"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnregisteredPlayer is returned when an operation needs a player entry that does not exist.
	ErrUnregisteredPlayer = errors.New("player not registered")
	// ErrInvalidRoom is returned for a join-room without a usable room id.
	ErrInvalidRoom = errors.New("room id required")
	// ErrInvalidPayload is returned when an inbound event's data cannot be decoded.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrUnknownEvent is returned for an inbound event type the coordinator does not handle.
	ErrUnknownEvent = errors.New("unknown event type")
)

// Publisher delivers outbound events. Implementations must not block: the coordinator
// publishes while holding its lock, and delivery failures are never reported back.
type Publisher interface {
	// Unicast delivers msg to a single connection.
	Unicast(connID string, msg protocol.Message)
	// Multicast delivers msg to each listed connection.
	Multicast(connIDs []string, msg protocol.Message)
}

// Coordinator owns the player and room registries and applies every state transition
// to them. One mutex guards both registries together, so joinRoom, leaveRoom,
// disconnect and reaper evictions never interleave on the same player.
type Coordinator struct {
	mu      sync.Mutex
	players *registry.Players
	rooms   *registry.Rooms

	games  catalog.Catalog
	pub    Publisher
	clock  clock.Clock
	logger *logrus.Entry
}

// NewCoordinator wires a coordinator to its outbound publisher and game catalog.
// A nil clock means the system clock.
func NewCoordinator(logger *logrus.Logger, pub Publisher, games catalog.Catalog, clk clock.Clock) *Coordinator {
	if clk == nil {
		clk = clock.New()
	}
	return &Coordinator{
		players: registry.NewPlayers(),
		rooms:   registry.NewRooms(),
		games:   games,
		pub:     pub,
		clock:   clk,
		logger:  logger.WithField("component", "coordinator"),
	}
}

// leaveRoomLocked takes p out of its current room, deleting the room if it empties and
// otherwise telling the remaining members. Caller holds c.mu and has checked p.InRoom().
func (c *Coordinator) leaveRoomLocked(p *models.Player, announce bool) {
	roomID := p.Room
	remaining := c.rooms.Leave(roomID, p.ID)
	p.Room = ""

	if remaining == 0 {
		c.logger.WithField("room", roomID).Debug("room emptied and deleted")
		return
	}
	if announce {
		c.pub.Multicast(c.rooms.Members(roomID), protocol.NewMessage(protocol.PlayerLeft, p.ID))
	}
}

// peersLocked returns the members of roomID other than self. Caller holds c.mu.
func (c *Coordinator) peersLocked(roomID, self string) []string {
	members := c.rooms.Members(roomID)
	peers := make([]string, 0, len(members))
	for _, id := range members {
		if id != self {
			peers = append(peers, id)
		}
	}
	return peers
}
