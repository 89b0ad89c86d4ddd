package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/plaza/internal/catalog"
	"github.com/jason-s-yu/plaza/internal/clock"
	"github.com/jason-s-yu/plaza/internal/models"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/sirupsen/logrus"
)

type delivery struct {
	to  string
	msg protocol.Message
}

// recorder is a Publisher that remembers every delivery in order.
type recorder struct {
	mu  sync.Mutex
	log []delivery
}

func (r *recorder) Unicast(connID string, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, delivery{to: connID, msg: msg})
}

func (r *recorder) Multicast(connIDs []string, msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range connIDs {
		r.log = append(r.log, delivery{to: id, msg: msg})
	}
}

// received returns the messages of type typ delivered to connID.
func (r *recorder) received(connID, typ string) []protocol.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []protocol.Message
	for _, d := range r.log {
		if d.to == connID && d.msg.Type == typ {
			out = append(out, d.msg)
		}
	}
	return out
}

// indexOf returns the position of the first delivery of typ to connID, or -1.
func (r *recorder) indexOf(connID, typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.log {
		if d.to == connID && d.msg.Type == typ {
			return i
		}
	}
	return -1
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()
}

// failingCatalog rejects every call.
type failingCatalog struct{}

var errCatalogDown = errors.New("catalog down")

func (failingCatalog) Save(context.Context, *models.Game) error          { return errCatalogDown }
func (failingCatalog) Get(context.Context, string) (*models.Game, error) { return nil, errCatalogDown }
func (failingCatalog) List(context.Context) ([]*models.Game, error)      { return nil, errCatalogDown }
func (failingCatalog) Count(context.Context) (int, error)                { return 0, errCatalogDown }

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	coord *Coordinator
	pub   *recorder
	clock *clock.Manual
	games catalog.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCatalog(catalog.NewMemory())
}

func newFixtureWithCatalog(games catalog.Catalog) *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	pub := &recorder{}
	clk := clock.NewManual(epoch)
	return &fixture{
		coord: NewCoordinator(logger, pub, games, clk),
		pub:   pub,
		clock: clk,
		games: games,
	}
}

// checkInvariants verifies membership consistency across both registries.
func checkInvariants(c *Coordinator) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := map[string]string{}
	for _, roomID := range c.rooms.IDs() {
		members := c.rooms.Members(roomID)
		if len(members) == 0 {
			return errors.New("empty room " + roomID + " present")
		}
		for _, id := range members {
			if prev, dup := seen[id]; dup {
				return errors.New("player " + id + " in rooms " + prev + " and " + roomID)
			}
			seen[id] = roomID
			p, ok := c.players.Get(id)
			if !ok {
				return errors.New("room " + roomID + " holds unregistered " + id)
			}
			if p.Room != roomID {
				return errors.New("player " + id + " room field " + p.Room + " != " + roomID)
			}
		}
	}
	for _, p := range c.players.Snapshot() {
		if p.InRoom() && seen[p.ID] != p.Room {
			return errors.New("player " + p.ID + " claims room " + p.Room + " but is not a member")
		}
		if p.X < 0 || p.X > models.MaxX || p.Y < 0 || p.Y > models.MaxY {
			return errors.New("player " + p.ID + " out of bounds")
		}
	}
	return nil
}
