// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/plaza/internal/middleware"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/jason-s-yu/plaza/internal/session"
	"github.com/jason-s-yu/plaza/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
	readLimit    = 1 << 20 // saved game designs can be large
)

// WSHandler accepts a websocket, registers it with the hub under a fresh connection id,
// and feeds every inbound frame to the coordinator until the socket closes. On exit the
// coordinator sees a disconnect for that id.
func WSHandler(logger *logrus.Logger, hub *transport.Hub, coord *session.Coordinator, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		c.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := hub.Add()
		middleware.LogWebSocketConnect(logger, conn.ID, r.RemoteAddr)

		go writePump(ctx, c, conn, logger)
		readErr := readPump(ctx, c, conn, coord, logger)

		coord.Disconnect(conn.ID)
		hub.Remove(conn.ID)
		cancel()
		middleware.LogWebSocketDisconnect(logger, conn.ID, r.RemoteAddr, readErr)
	}
}

// readPump decodes frames and dispatches them until the socket or ctx ends.
// Returns the read error unless the close was a normal one.
func readPump(ctx context.Context, c *websocket.Conn, conn *transport.Conn, coord *session.Coordinator, logger *logrus.Logger) error {
	log := logger.WithField("conn", conn.ID)
	for {
		typ, frame, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway,
				status == StatusServerShutdown, errors.Is(err, context.Canceled):
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Warnf("ignoring non-text frame of type %d", typ)
			continue
		}

		env, err := protocol.Decode(frame)
		if err != nil {
			log.Warnf("invalid frame: %v", err)
			coord.RejectFrame(conn.ID)
			continue
		}
		if err := coord.HandleEvent(ctx, conn.ID, env); err != nil {
			log.WithField("event", env.Type).Debugf("event not applied: %v", err)
		}
	}
}

// writePump drains the connection's outbound queue to the socket and keeps it alive with
// pings. When the hub shuts the connection down, queued messages are flushed before the
// close frame.
func writePump(ctx context.Context, c *websocket.Conn, conn *transport.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	log := logger.WithField("conn", conn.ID)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.Outbound():
			if err := writeMessage(ctx, c, msg); err != nil {
				log.Warnf("failed to write '%s' to websocket: %v", msg.Type, err)
				_ = c.Close(StatusSendFailed, "write failed")
				return
			}
		case <-conn.Done():
		flush:
			for {
				select {
				case msg := <-conn.Outbound():
					if err := writeMessage(ctx, c, msg); err != nil {
						log.Debugf("dropping queued '%s' during shutdown: %v", msg.Type, err)
					}
				default:
					break flush
				}
			}
			_ = c.Close(StatusServerShutdown, "server shutting down")
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("ping failed, assuming disconnect: %v", err)
				_ = c.Close(StatusSendFailed, "ping failed")
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, c *websocket.Conn, msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
