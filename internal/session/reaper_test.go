package session

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestReaperEvictsIdleSoleOccupant(t *testing.T) {
	f := newFixture(t)
	f.registerAndJoin(t, "D", "dave", "r3")
	reaper := NewReaper(f.coord, time.Minute, 5*time.Minute, quietLogger())

	f.clock.Advance(5*time.Minute + time.Second)
	evicted := reaper.Sweep()

	assert.Equal(t, []string{"D"}, evicted)
	snap := f.coord.Snapshot()
	assert.Empty(t, snap.Players)
	assert.Empty(t, snap.Rooms)
	require.NoError(t, checkInvariants(f.coord))
}

func TestReaperKeepsActivePlayers(t *testing.T) {
	f := newFixture(t)
	f.registerAndJoin(t, "A", "alice", "r1")
	f.registerAndJoin(t, "B", "bob", "r1")
	reaper := NewReaper(f.coord, time.Minute, 5*time.Minute, quietLogger())

	f.clock.Advance(4 * time.Minute)
	f.coord.Move("B", 100, 100)
	f.clock.Advance(2 * time.Minute)
	f.pub.reset()

	evicted := reaper.Sweep()

	assert.Equal(t, []string{"A"}, evicted)
	assert.Empty(t, f.pub.received("B", protocol.PlayerLeft), "evictions are silent")

	snap := f.coord.Snapshot()
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "B", snap.Players[0].ID)
	assert.Equal(t, map[string]int{"r1": 1}, snap.Population)
	require.NoError(t, checkInvariants(f.coord))
}

func TestReaperThresholdIsExclusive(t *testing.T) {
	f := newFixture(t)
	f.coord.Register("A", protocol.RegisterPayload{})

	f.clock.Advance(5 * time.Minute)
	assert.Empty(t, f.coord.EvictIdle(5*time.Minute), "exactly at the threshold is not idle yet")

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"A"}, f.coord.EvictIdle(5*time.Minute))
}

func TestReaperEvictsRoomlessPlayers(t *testing.T) {
	f := newFixture(t)
	f.coord.Register("A", protocol.RegisterPayload{})
	f.clock.Advance(time.Hour)

	assert.Equal(t, []string{"A"}, f.coord.EvictIdle(5*time.Minute))
	players, _ := f.coord.Counts()
	assert.Zero(t, players)
}

func TestEvictedPlayerMustReregister(t *testing.T) {
	f := newFixture(t)
	f.registerAndJoin(t, "A", "alice", "r1")
	f.clock.Advance(time.Hour)
	f.coord.EvictIdle(5 * time.Minute)

	assert.ErrorIs(t, f.coord.JoinRoom("A", "r1"), ErrUnregisteredPlayer)
	f.coord.Disconnect("A")
	require.NoError(t, checkInvariants(f.coord))
}

func TestReaperRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	reaper := NewReaper(f.coord, time.Millisecond, time.Minute, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}

func TestReaperRunSweepsOnTick(t *testing.T) {
	f := newFixture(t)
	f.registerAndJoin(t, "A", "alice", "r1")
	f.clock.Advance(time.Hour)
	reaper := NewReaper(f.coord, 5*time.Millisecond, time.Minute, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reaper.Run(ctx)

	require.Eventually(t, func() bool {
		players, rooms := f.coord.Counts()
		return players == 0 && rooms == 0
	}, 2*time.Second, 5*time.Millisecond)
}
