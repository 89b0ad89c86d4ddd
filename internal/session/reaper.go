// internal/session/reaper.go
package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EvictIdle removes every player whose last activity is older than idleTimeout.
// An evicted player is taken out of its room with the usual empty-room deletion but
// without a player-left broadcast. The whole sweep runs under the coordinator lock, so
// it sees one consistent snapshot and never evicts a player mid-handler.
// Returns the evicted connection ids.
func (c *Coordinator) EvictIdle(idleTimeout time.Duration) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.clock.Now().Add(-idleTimeout)
	ids := c.players.IdleSince(cutoff)
	for _, id := range ids {
		p, ok := c.players.Get(id)
		if !ok {
			continue
		}
		if p.InRoom() {
			c.leaveRoomLocked(p, false)
		}
		c.players.Remove(id)
	}
	return ids
}

// Reaper periodically evicts idle sessions from a Coordinator.
type Reaper struct {
	coord       *Coordinator
	interval    time.Duration
	idleTimeout time.Duration
	logger      *logrus.Entry
}

// NewReaper builds a reaper that sweeps every interval and evicts players idle for
// longer than idleTimeout.
func NewReaper(coord *Coordinator, interval, idleTimeout time.Duration, logger *logrus.Logger) *Reaper {
	return &Reaper{
		coord:       coord,
		interval:    interval,
		idleTimeout: idleTimeout,
		logger:      logger.WithField("component", "reaper"),
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Infof("idle reaper started (interval %v, timeout %v)", r.interval, r.idleTimeout)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("idle reaper stopping")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep performs a single eviction pass.
func (r *Reaper) Sweep() []string {
	evicted := r.coord.EvictIdle(r.idleTimeout)
	if len(evicted) > 0 {
		r.logger.WithFields(logrus.Fields{
			"evicted": len(evicted),
			"players": evicted,
		}).Info("evicted idle sessions")
	}
	return evicted
}
