package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeliveryStatus tracks a locally originated message through the send path.
type DeliveryStatus string

const (
	StatusSending DeliveryStatus = "sending"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

// Message is persisted by the server's Postgres store and mirrored into the
// clients' local cache, so id assignment happens in Go rather than as a
// Postgres column default.
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID         uuid.UUID  `gorm:"not null;index" json:"room_id"`
	UserID         uuid.UUID  `gorm:"not null" json:"user_id"`
	Username       string     `gorm:"not null" json:"username"`
	Content        string     `gorm:"not null" json:"content"`
	Language       string     `gorm:"not null;default:'en'" json:"language"`
	IsAnnouncement bool       `gorm:"not null;default:false" json:"is_announcement"`
	ReplyTo        *uuid.UUID `json:"reply_to,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`

	// Viewer-side fields, never persisted by the server.
	TranslatedContent string         `gorm:"-" json:"translated_content,omitempty"`
	Status            DeliveryStatus `gorm:"-" json:"status,omitempty"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
