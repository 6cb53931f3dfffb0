package dto

import (
	"time"

	"github.com/google/uuid"
)

// PostMessageRequest is the REST insert the sync pipeline submits.
type PostMessageRequest struct {
	Content        string     `json:"content" binding:"required"`
	Language       string     `json:"language" binding:"omitempty,len=2"`
	IsAnnouncement bool       `json:"is_announcement"`
	ReplyTo        *uuid.UUID `json:"reply_to"`
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	RoomID         uuid.UUID  `json:"room_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Username       string     `json:"username"`
	Content        string     `json:"content"`
	Language       string     `json:"language"`
	IsAnnouncement bool       `json:"is_announcement"`
	ReplyTo        *uuid.UUID `json:"reply_to,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
}
