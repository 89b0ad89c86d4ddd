// internal/session/events.go
package session

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/plaza/internal/models"
	"github.com/jason-s-yu/plaza/internal/protocol"
	"github.com/jason-s-yu/plaza/internal/registry"
	"github.com/sirupsen/logrus"
)

// MaxChatLength is the longest chat message, in runes, that is broadcast.
const MaxChatLength = 200

// Register creates or replaces the player entry for connID and acknowledges it.
// A connection that re-registers while in a room leaves that room first, so the room
// registry never keeps a member whose player entry no longer points at it.
func (c *Coordinator) Register(connID string, payload protocol.RegisterPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.players.Get(connID); ok && existing.InRoom() {
		c.logger.WithFields(logrus.Fields{
			"player": connID,
			"room":   existing.Room,
		}).Info("re-registration while in a room, leaving room first")
		c.leaveRoomLocked(existing, true)
	}

	reg := registry.Registration{Username: payload.Username}
	if payload.Avatar != nil {
		reg.Avatar = *payload.Avatar
	}
	p := c.players.Register(connID, reg, c.clock.Now())

	c.logger.WithFields(logrus.Fields{
		"player":   p.ID,
		"username": p.Username,
	}).Info("player registered")
	c.pub.Unicast(connID, protocol.NewMessage(protocol.RegistrationConfirmed, protocol.RegistrationPayload{ID: p.ID}))
}

// JoinRoom moves the player into roomID, leaving any current room first.
// The joiner gets the roster of the other members before those members hear about
// the join.
func (c *Coordinator) JoinRoom(connID, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players.Get(connID)
	if !ok {
		c.pub.Unicast(connID, protocol.ErrorMessage("Player not registered"))
		return ErrUnregisteredPlayer
	}
	if roomID == "" {
		c.pub.Unicast(connID, protocol.ErrorMessage("Room id required"))
		return ErrInvalidRoom
	}

	if p.InRoom() {
		c.leaveRoomLocked(p, true)
	}

	c.rooms.Join(roomID, p.ID)
	p.Room = roomID
	p.LastActivity = c.clock.Now()

	peers := c.peersLocked(roomID, p.ID)
	roster := make([]models.PublicPlayer, 0, len(peers))
	for _, id := range peers {
		if peer, ok := c.players.Get(id); ok {
			roster = append(roster, peer.Public())
		}
	}

	c.pub.Unicast(p.ID, protocol.NewMessage(protocol.PlayersUpdate, roster))
	c.pub.Multicast(peers, protocol.NewMessage(protocol.PlayerJoined, p.Public()))

	c.logger.WithFields(logrus.Fields{
		"player":  p.ID,
		"room":    roomID,
		"members": len(peers) + 1,
	}).Info("player joined room")
	return nil
}

// LeaveRoom takes the player out of its room. No-op when unregistered or roomless.
func (c *Coordinator) LeaveRoom(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players.Get(connID)
	if !ok || !p.InRoom() {
		return
	}
	room := p.Room
	c.leaveRoomLocked(p, true)
	c.logger.WithFields(logrus.Fields{"player": p.ID, "room": room}).Info("player left room")
}

// Move clamps (x, y) to the playfield, stores it, and tells the rest of the room.
// The sender does not get its own echo.
func (c *Coordinator) Move(connID string, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players.Get(connID)
	if !ok || !p.InRoom() {
		return
	}

	now := c.clock.Now()
	p.X = clamp(x, 0, models.MaxX)
	p.Y = clamp(y, 0, models.MaxY)
	p.LastActivity = now

	c.pub.Multicast(c.peersLocked(p.Room, p.ID), protocol.NewMessage(protocol.PlayerMoved, protocol.MovedPayload{
		ID:        p.ID,
		X:         p.X,
		Y:         p.Y,
		Timestamp: now.UnixMilli(),
	}))
}

// Chat broadcasts text to every member of the sender's room, sender included.
func (c *Coordinator) Chat(connID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players.Get(connID)
	if !ok || !p.InRoom() {
		return
	}

	now := c.clock.Now()
	msg := protocol.ChatBroadcast{
		ID:        now.UnixMilli(),
		PlayerID:  p.ID,
		Username:  p.Username,
		Message:   truncate(text, MaxChatLength),
		Timestamp: now.UnixMilli(),
	}
	c.pub.Multicast(c.rooms.Members(p.Room), protocol.NewMessage(protocol.ChatMessage, msg))
}

// SaveGame stores a game design for a registered player and confirms it with the new id.
// Room membership is not required. The catalog write happens after the registry lock
// is released.
func (c *Coordinator) SaveGame(ctx context.Context, connID string, payload protocol.SaveGamePayload) {
	c.mu.Lock()
	p, ok := c.players.Get(connID)
	var username string
	if ok {
		username = p.Username
	}
	now := c.clock.Now()
	c.mu.Unlock()

	if !ok {
		return
	}

	g := &models.Game{
		ID:          gameID(now.UnixMilli(), connID),
		Title:       payload.Title,
		Description: payload.Description,
		Creator:     username,
		CreatorID:   connID,
		CreatedAt:   now.UTC(),
		Payload:     payload.GameData,
	}
	if err := c.games.Save(ctx, g); err != nil {
		c.logger.WithError(err).WithField("player", connID).Error("failed to save game")
		c.pub.Unicast(connID, protocol.ErrorMessage("Failed to save game"))
		return
	}

	c.logger.WithFields(logrus.Fields{"player": connID, "game": g.ID}).Info("game saved")
	c.pub.Unicast(connID, protocol.NewMessage(protocol.GameSaved, protocol.GameSavedPayload{
		GameID:  g.ID,
		Message: "Game saved successfully!",
	}))
}

// ListGames sends the sender every stored game.
func (c *Coordinator) ListGames(ctx context.Context, connID string) {
	games, err := c.games.List(ctx)
	if err != nil {
		c.logger.WithError(err).Error("failed to list games")
		c.pub.Unicast(connID, protocol.ErrorMessage("Failed to load games"))
		return
	}
	if games == nil {
		games = []*models.Game{}
	}
	c.pub.Unicast(connID, protocol.NewMessage(protocol.GamesList, games))
}

// Disconnect is leaveRoom followed by dropping the player entry.
// No-op for a connection that never registered.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.players.Get(connID)
	if !ok {
		return
	}
	if p.InRoom() {
		c.leaveRoomLocked(p, true)
	}
	c.players.Remove(connID)
	c.logger.WithField("player", connID).Info("player disconnected")
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// gameID joins the creation time, a fragment of the creator's connection id and a
// random suffix, so saves landing in the same millisecond still get distinct ids.
func gameID(millis int64, connID string) string {
	frag := connID
	if len(frag) > 8 {
		frag = frag[:8]
	}
	return fmt.Sprintf("game_%d_%s_%s", millis, frag, uuid.NewString()[:8])
}
