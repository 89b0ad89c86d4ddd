// internal/session/dispatch.go
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/plaza/internal/protocol"
)

// HandleEvent routes one inbound envelope from connID to its handler.
// Undecodable payloads and unknown event types get an error event back and a non-nil
// error for the transport to log; the connection is left open either way.
func (c *Coordinator) HandleEvent(ctx context.Context, connID string, env protocol.Envelope) error {
	switch env.Type {
	case protocol.RegisterPlayer:
		var payload protocol.RegisterPayload
		if err := decodeOptional(env.Data, &payload); err != nil {
			return c.rejectPayload(connID, env.Type, err)
		}
		c.Register(connID, payload)

	case protocol.JoinRoom:
		roomID, err := protocol.RoomID(env.Data)
		if err != nil {
			return c.rejectPayload(connID, env.Type, err)
		}
		return c.JoinRoom(connID, roomID)

	case protocol.LeaveRoom:
		c.LeaveRoom(connID)

	case protocol.PlayerMove:
		var payload protocol.MovePayload
		if err := decodeOptional(env.Data, &payload); err != nil {
			return c.rejectPayload(connID, env.Type, err)
		}
		c.Move(connID, protocol.Coord(payload.X), protocol.Coord(payload.Y))

	case protocol.ChatMessage:
		var payload protocol.ChatPayload
		if err := decodeOptional(env.Data, &payload); err != nil {
			return c.rejectPayload(connID, env.Type, err)
		}
		c.Chat(connID, payload.Message)

	case protocol.SaveGame:
		var payload protocol.SaveGamePayload
		if err := decodeOptional(env.Data, &payload); err != nil {
			return c.rejectPayload(connID, env.Type, err)
		}
		c.SaveGame(ctx, connID, payload)

	case protocol.GetGames:
		c.ListGames(ctx, connID)

	default:
		c.pub.Unicast(connID, protocol.ErrorMessage(fmt.Sprintf("Unknown event type: %s", env.Type)))
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	return nil
}

// RejectFrame answers a frame that could not be parsed as an envelope at all.
func (c *Coordinator) RejectFrame(connID string) {
	c.pub.Unicast(connID, protocol.ErrorMessage("Invalid JSON format"))
}

func (c *Coordinator) rejectPayload(connID, eventType string, err error) error {
	c.pub.Unicast(connID, protocol.ErrorMessage(fmt.Sprintf("Invalid payload for %s", eventType)))
	return fmt.Errorf("%w for %s: %v", ErrInvalidPayload, eventType, err)
}

// decodeOptional unmarshals data into v, treating an absent or null payload as empty.
func decodeOptional(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
