package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType discriminates frames on the push channel.
type EventType string

const (
	// Control frames.
	EventPing EventType = "ping"
	EventPong EventType = "pong"

	// Client -> server room subscription management.
	EventSubscribe   EventType = "subscribe"
	EventUnsubscribe EventType = "unsubscribe"

	// Server -> client notifications.
	EventInsert      EventType = "insert"
	EventRoomUsers   EventType = "room_users"
	EventUserOnline  EventType = "user_online"
	EventUserOffline EventType = "user_offline"
	EventError       EventType = "error"
)

// Event is the framing for every payload on the wire.
type Event struct {
	Type      EventType       `json:"type"`
	RoomID    *uuid.UUID      `json:"room_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
