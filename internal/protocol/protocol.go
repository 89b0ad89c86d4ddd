// internal/protocol/protocol.go
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/jason-s-yu/plaza/internal/models"
)

// Inbound event types.
const (
	RegisterPlayer = "register-player"
	JoinRoom       = "join-room"
	LeaveRoom      = "leave-room"
	PlayerMove     = "player-move"
	ChatMessage    = "chat-message"
	SaveGame       = "save-game"
	GetGames       = "get-games"
)

// Outbound event types. ChatMessage is shared by both directions.
const (
	RegistrationConfirmed = "registration-confirmed"
	Error                 = "error"
	PlayersUpdate         = "players-update"
	PlayerJoined          = "player-joined"
	PlayerLeft            = "player-left"
	PlayerMoved           = "player-moved"
	GameSaved             = "game-saved"
	GamesList             = "games-list"
)

// Envelope is the frame used in both directions: {"type": ..., "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is an outbound event before serialization.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NewMessage builds an outbound message.
func NewMessage(typ string, data any) Message {
	return Message{Type: typ, Data: data}
}

// ErrorMessage builds an "error" event.
func ErrorMessage(msg string) Message {
	return NewMessage(Error, ErrorPayload{Message: msg})
}

// Decode parses one inbound frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// Inbound payloads

type RegisterPayload struct {
	Username string         `json:"username,omitempty"`
	Avatar   *models.Avatar `json:"avatar,omitempty"`
}

// MovePayload keeps the raw coordinates; see Coord for how they are read.
type MovePayload struct {
	X json.RawMessage `json:"x,omitempty"`
	Y json.RawMessage `json:"y,omitempty"`
}

type ChatPayload struct {
	Message string `json:"message"`
}

type SaveGamePayload struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	GameData    json.RawMessage `json:"gameData,omitempty"`
}

// Coord reads a coordinate leniently: JSON numbers and numeric strings are taken as
// numbers, anything else (missing, null, bool, object, junk) reads as 0. Magnitudes
// beyond float64 range read as ±Inf so clamping maps them to the nearest bound.
func Coord(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return parseCoord(n.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseCoord(s)
	}
	return 0
}

func parseCoord(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !(errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0)) {
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// RoomID reads the join-room payload, which is a bare string. An object of the form
// {"roomId": "..."} is accepted too.
func RoomID(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var obj struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode room id: %w", err)
	}
	return obj.RoomID, nil
}

// Outbound payloads

type RegistrationPayload struct {
	ID string `json:"id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type MovedPayload struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

type ChatBroadcast struct {
	ID        int64  `json:"id"`
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type GameSavedPayload struct {
	GameID  string `json:"gameId"`
	Message string `json:"message"`
}
