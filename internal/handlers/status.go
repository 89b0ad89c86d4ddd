// internal/handlers/status.go
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/jason-s-yu/plaza/internal/catalog"
	"github.com/jason-s-yu/plaza/internal/clock"
	"github.com/jason-s-yu/plaza/internal/session"
	"github.com/sirupsen/logrus"
)

// ServiceName is reported by the root status document.
const ServiceName = "plaza"

// StatusServer serves read-only projections of the coordinator's registries.
// None of its handlers mutate player or room state.
type StatusServer struct {
	coord   *session.Coordinator
	games   catalog.Catalog
	clock   clock.Clock
	started time.Time
	version string
	logger  *logrus.Logger
}

// NewStatusServer records the start time used for uptime. A nil clock means the system clock.
func NewStatusServer(logger *logrus.Logger, coord *session.Coordinator, games catalog.Catalog, version string, clk clock.Clock) *StatusServer {
	if clk == nil {
		clk = clock.New()
	}
	return &StatusServer{
		coord:   coord,
		games:   games,
		clock:   clk,
		started: clk.Now(),
		version: version,
		logger:  logger,
	}
}

type rootDocument struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Players int    `json:"players"`
	Rooms   int    `json:"rooms"`
}

// Root handles GET /.
func (s *StatusServer) Root(w http.ResponseWriter, r *http.Request) {
	players, rooms := s.coord.Counts()
	writeJSON(w, s.logger, http.StatusOK, rootDocument{
		Status:  "ok",
		Service: ServiceName,
		Version: s.version,
		Players: players,
		Rooms:   rooms,
	})
}

type memoryDocument struct {
	Alloc     uint64 `json:"alloc"`
	Sys       uint64 `json:"sys"`
	HeapInuse uint64 `json:"heapInuse"`
	NumGC     uint32 `json:"numGC"`
}

type healthDocument struct {
	Status    string         `json:"status"`
	Uptime    float64        `json:"uptime"`
	Memory    memoryDocument `json:"memory"`
	Timestamp time.Time      `json:"timestamp"`
}

// Health handles GET /health.
func (s *StatusServer) Health(w http.ResponseWriter, r *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	now := s.clock.Now()
	writeJSON(w, s.logger, http.StatusOK, healthDocument{
		Status: "healthy",
		Uptime: now.Sub(s.started).Seconds(),
		Memory: memoryDocument{
			Alloc:     ms.Alloc,
			Sys:       ms.Sys,
			HeapInuse: ms.HeapInuse,
			NumGC:     ms.NumGC,
		},
		Timestamp: now.UTC(),
	})
}

type statsDocument struct {
	Players        int            `json:"players"`
	Rooms          int            `json:"rooms"`
	Games          int            `json:"games"`
	RoomPopulation map[string]int `json:"roomPopulation"`
}

// Stats handles GET /stats.
func (s *StatusServer) Stats(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()
	games, err := s.games.Count(r.Context())
	if err != nil {
		s.logger.Errorf("stats: failed to count games: %v", err)
		http.Error(w, "failed to count games", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, statsDocument{
		Players:        len(snap.Players),
		Rooms:          len(snap.Rooms),
		Games:          games,
		RoomPopulation: snap.Population,
	})
}

// Rooms handles GET /rooms.
func (s *StatusServer) Rooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.coord.Snapshot().Rooms)
}
