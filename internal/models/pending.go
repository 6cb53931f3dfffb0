package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingMessage is an outgoing message that has not been confirmed by the
// backend yet. Entries live in the local store until a flush succeeds, so a
// client restart does not lose queued sends.
type PendingMessage struct {
	TempID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"temp_id"`
	RoomID         uuid.UUID  `gorm:"not null;index" json:"room_id"`
	Content        string     `gorm:"not null" json:"content"`
	Language       string     `json:"language"`
	IsAnnouncement bool       `json:"is_announcement"`
	ReplyTo        *uuid.UUID `json:"reply_to,omitempty"`
	RetryCount     int        `json:"retry_count"`
	EnqueuedAt     time.Time  `gorm:"index" json:"enqueued_at"`
	NextAttemptAt  time.Time  `json:"next_attempt_at"`
}
