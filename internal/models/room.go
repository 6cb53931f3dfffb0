package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoomTypePublic  = "public"
	RoomTypePrivate = "private"

	RoomStatusActive = "active"
	RoomStatusClosed = "closed"
)

type Room struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Type       string    `gorm:"not null;check:type IN ('public','private')" json:"type"`
	AccessCode string    `json:"-"`
	Status     string    `gorm:"not null;default:'active'" json:"status"`
	MaxUsers   int       `gorm:"default:50" json:"max_users"`
	CreatedBy  uuid.UUID `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`

	Members  []User    `gorm:"many2many:room_members" json:"-"`
	Messages []Message `gorm:"foreignKey:RoomID" json:"-"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsPrivate reports whether joining requires an access code.
func (r *Room) IsPrivate() bool {
	return r.Type == RoomTypePrivate
}
