// internal/handlers/status_test.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jason-s-yu/plaza/internal/catalog"
	"github.com/jason-s-yu/plaza/internal/clock"
	"github.com/jason-s-yu/plaza/internal/models"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/jason-s-yu/plaza/internal/session"
	"github.com/jason-s-yu/plaza/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCatalog struct{}

func (brokenCatalog) Save(context.Context, *models.Game) error { return errors.New("down") }
func (brokenCatalog) Get(context.Context, string) (*models.Game, error) {
	return nil, errors.New("down")
}
func (brokenCatalog) List(context.Context) ([]*models.Game, error) { return nil, errors.New("down") }
func (brokenCatalog) Count(context.Context) (int, error)           { return 0, errors.New("down") }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type statusEnv struct {
	coord  *session.Coordinator
	hub    *transport.Hub
	clock  *clock.Manual
	router http.Handler
}

func newStatusEnv(t *testing.T, games catalog.Catalog) *statusEnv {
	t.Helper()
	logger := testLogger()
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	hub := transport.NewHub(logger, 0)
	coord := session.NewCoordinator(logger, hub, games, clk)
	status := NewStatusServer(logger, coord, games, "test", clk)
	return &statusEnv{
		coord: coord,
		hub:   hub,
		clock: clk,
		router: NewRouter(RouterDeps{
			Logger:         logger,
			Status:         status,
			Hub:            hub,
			Coordinator:    coord,
			OriginPatterns: []string{"*"},
		}),
	}
}

func (e *statusEnv) get(t *testing.T, path string, into any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if into != nil && w.Code == http.StatusOK {
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), into), w.Body.String())
	}
	return w.Code
}

func TestStatusRoot(t *testing.T) {
	env := newStatusEnv(t, catalog.NewMemory())
	env.coord.Register("A", protocol.RegisterPayload{})
	env.coord.Register("B", protocol.RegisterPayload{})
	require.NoError(t, env.coord.JoinRoom("A", "r1"))

	var doc rootDocument
	require.Equal(t, http.StatusOK, env.get(t, "/", &doc))
	assert.Equal(t, rootDocument{Status: "ok", Service: ServiceName, Version: "test", Players: 2, Rooms: 1}, doc)
}

func TestStatusHealthReportsUptime(t *testing.T) {
	env := newStatusEnv(t, catalog.NewMemory())
	env.clock.Advance(90 * time.Second)

	var doc healthDocument
	require.Equal(t, http.StatusOK, env.get(t, "/health", &doc))
	assert.Equal(t, "healthy", doc.Status)
	assert.InDelta(t, 90.0, doc.Uptime, 0.001)
	assert.NotZero(t, doc.Memory.Sys)
}

func TestStatusStats(t *testing.T) {
	games := catalog.NewMemory()
	env := newStatusEnv(t, games)
	require.NoError(t, games.Save(context.Background(), &models.Game{ID: "g1", Title: "t"}))

	for _, id := range []string{"A", "B", "C"} {
		env.coord.Register(id, protocol.RegisterPayload{})
	}
	require.NoError(t, env.coord.JoinRoom("A", "r1"))
	require.NoError(t, env.coord.JoinRoom("B", "r1"))
	require.NoError(t, env.coord.JoinRoom("C", "r2"))

	var doc statsDocument
	require.Equal(t, http.StatusOK, env.get(t, "/stats", &doc))
	assert.Equal(t, 3, doc.Players)
	assert.Equal(t, 2, doc.Rooms)
	assert.Equal(t, 1, doc.Games)
	assert.Equal(t, map[string]int{"r1": 2, "r2": 1}, doc.RoomPopulation)
}

func TestStatusStatsCatalogDown(t *testing.T) {
	env := newStatusEnv(t, brokenCatalog{})
	assert.Equal(t, http.StatusServiceUnavailable, env.get(t, "/stats", nil))
}

func TestStatusRooms(t *testing.T) {
	env := newStatusEnv(t, catalog.NewMemory())

	var empty []session.RoomView
	require.Equal(t, http.StatusOK, env.get(t, "/rooms", &empty))
	assert.Empty(t, empty)

	env.coord.Register("A", protocol.RegisterPayload{Username: "alice"})
	require.NoError(t, env.coord.JoinRoom("A", "r1"))

	var rooms []session.RoomView
	require.Equal(t, http.StatusOK, env.get(t, "/rooms", &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "r1", rooms[0].ID)
	assert.Equal(t, 1, rooms[0].PlayerCount)
	assert.Equal(t, "alice", rooms[0].Players[0].Username)
}

func TestStatusRejectsOtherMethods(t *testing.T) {
	env := newStatusEnv(t, catalog.NewMemory())
	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
