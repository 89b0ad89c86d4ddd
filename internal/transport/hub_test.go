package transport

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

func newTestHub(buffer int) *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHub(logger, buffer)
}

func drain(c *Conn) []protocol.Message {
	var out []protocol.Message
	for {
		select {
		case msg := <-c.Outbound():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubAddAssignsUniqueIDs(t *testing.T) {
	h := newTestHub(0)
	a, b := h.Add(), h.Add()

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, DefaultSendBuffer, cap(a.out))

	h.Remove(a.ID)
	assert.Equal(t, 1, h.Len())
}

func TestHubUnicastAndMulticast(t *testing.T) {
	h := newTestHub(4)
	a, b, c := h.Add(), h.Add(), h.Add()

	h.Unicast(a.ID, protocol.NewMessage(protocol.RegistrationConfirmed, nil))
	h.Multicast([]string{b.ID, c.ID}, protocol.NewMessage(protocol.PlayerLeft, "x"))

	gotA := drain(a)
	require.Len(t, gotA, 1)
	assert.Equal(t, protocol.RegistrationConfirmed, gotA[0].Type)

	for _, conn := range []*Conn{b, c} {
		got := drain(conn)
		require.Len(t, got, 1)
		assert.Equal(t, protocol.PlayerLeft, got[0].Type)
	}
}

func TestHubPreservesOrderPerConnection(t *testing.T) {
	h := newTestHub(8)
	a := h.Add()

	for _, typ := range []string{protocol.PlayersUpdate, protocol.PlayerJoined, protocol.PlayerMoved} {
		h.Unicast(a.ID, protocol.NewMessage(typ, nil))
	}

	got := drain(a)
	require.Len(t, got, 3)
	assert.Equal(t, protocol.PlayersUpdate, got[0].Type)
	assert.Equal(t, protocol.PlayerJoined, got[1].Type)
	assert.Equal(t, protocol.PlayerMoved, got[2].Type)
}

func TestHubDropsWhenQueueFull(t *testing.T) {
	h := newTestHub(2)
	a := h.Add()

	for i := 0; i < 5; i++ {
		h.Unicast(a.ID, protocol.NewMessage(protocol.PlayerMoved, i))
	}

	got := drain(a)
	require.Len(t, got, 2, "overflow is dropped, not blocked on")
	assert.Equal(t, 0, got[0].Data)
	assert.Equal(t, 1, got[1].Data)
}

func TestHubIgnoresUnknownAndRemovedConnections(t *testing.T) {
	h := newTestHub(2)
	a := h.Add()
	h.Remove(a.ID)

	assert.NotPanics(t, func() {
		h.Unicast(a.ID, protocol.ErrorMessage("gone"))
		h.Unicast("never-existed", protocol.ErrorMessage("gone"))
		h.Multicast([]string{a.ID, "never-existed"}, protocol.ErrorMessage("gone"))
	})
	assert.Empty(t, drain(a))
}

func TestHubBroadcast(t *testing.T) {
	h := newTestHub(2)
	conns := []*Conn{h.Add(), h.Add(), h.Add()}

	h.Broadcast(protocol.ErrorMessage("Server shutting down"))

	for _, c := range conns {
		got := drain(c)
		require.Len(t, got, 1)
		assert.Equal(t, protocol.ErrorPayload{Message: "Server shutting down"}, got[0].Data)
	}
}

func TestHubCloseAll(t *testing.T) {
	h := newTestHub(2)
	a, b := h.Add(), h.Add()

	h.CloseAll()
	h.CloseAll()

	for _, c := range []*Conn{a, b} {
		select {
		case <-c.Done():
		default:
			t.Fatalf("connection %s not signalled", c.ID)
		}
	}
	assert.Equal(t, 2, h.Len(), "handlers remove their own connections")

	late := h.Add()
	select {
	case <-late.Done():
	default:
		t.Fatal("connections added after CloseAll must close too")
	}
}

func TestHubWait(t *testing.T) {
	h := newTestHub(2)
	require.NoError(t, h.Wait(context.Background()), "empty hub returns at once")

	a, b := h.Add(), h.Add()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Wait(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- h.Wait(context.Background()) }()

	h.Remove(a.ID)
	h.Remove(a.ID)
	select {
	case <-done:
		t.Fatal("Wait returned with a connection still open")
	case <-time.After(20 * time.Millisecond):
	}

	h.Remove(b.ID)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the last Remove")
	}

	h.Add()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	assert.Error(t, h.Wait(ctx2), "a new connection re-arms Wait")
}
