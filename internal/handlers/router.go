// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jason-s-yu/plaza/internal/middleware"
	"github.com/jason-s-yu/plaza/internal/session"
	"github.com/jason-s-yu/plaza/internal/transport"
	"github.com/sirupsen/logrus"
)

// RouterDeps is everything NewRouter needs to mount the status projections and the
// websocket endpoint.
type RouterDeps struct {
	Logger         *logrus.Logger
	Status         *StatusServer
	Hub            *transport.Hub
	Coordinator    *session.Coordinator
	OriginPatterns []string
}

// NewRouter builds the HTTP surface:
//
//	GET /        status (counts + version)
//	GET /health  uptime and memory
//	GET /stats   counts + per-room population
//	GET /rooms   per-room roster
//	GET /ws      websocket transport
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(deps.Logger), middleware.LogMiddleware(deps.Logger))

	r.HandleFunc("/", deps.Status.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", deps.Status.Health).Methods(http.MethodGet)
	r.HandleFunc("/stats", deps.Status.Stats).Methods(http.MethodGet)
	r.HandleFunc("/rooms", deps.Status.Rooms).Methods(http.MethodGet)
	r.HandleFunc("/ws", WSHandler(deps.Logger, deps.Hub, deps.Coordinator, deps.OriginPatterns)).Methods(http.MethodGet)

	return r
}
