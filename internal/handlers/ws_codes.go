// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Application close codes sent by the plaza websocket endpoint, in the 4000-4999
// private range.
const (
	StatusServerShutdown websocket.StatusCode = 4000 // server is stopping; reconnect later
	StatusSendFailed     websocket.StatusCode = 4001 // an outbound write or ping failed
)
