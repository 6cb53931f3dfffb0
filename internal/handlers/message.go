package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lingochat/internal/database"
	"lingochat/internal/handlers/dto"
	"lingochat/internal/metrics"
	"lingochat/internal/middleware"
	"lingochat/internal/models"
	"lingochat/internal/websocket"
)

const defaultHistoryLimit = 50

type MessageHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewMessageHandler(db *database.Database, hub *websocket.Hub) *MessageHandler {
	return &MessageHandler{db: db, hub: hub}
}

// PostMessage persists a message and fans it out over the push channel.
// This is the remote half of the clients' save path.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	username := c.MustGet(middleware.UsernameKey).(string)
	language := c.MustGet(middleware.LanguageKey).(string)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.Status == models.RoomStatusClosed {
		c.JSON(http.StatusForbidden, gin.H{"error": "room is closed"})
		return
	}

	isMember := false
	for _, member := range room.Members {
		if member.ID == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this room"})
		return
	}

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.IsAnnouncement && room.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room creator can post announcements"})
		return
	}

	if req.Language == "" {
		req.Language = language
	}

	message := &models.Message{
		RoomID:         room.ID,
		UserID:         userID,
		Username:       username,
		Content:        req.Content,
		Language:       req.Language,
		IsAnnouncement: req.IsAnnouncement,
		ReplyTo:        req.ReplyTo,
		CreatedAt:      time.Now(),
	}

	if err := h.db.SaveMessage(message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}
	metrics.MessagesSaved.Inc()

	response := formatMessageResponse(message)
	h.hub.BroadcastInsert(room.ID, userID, response)
	metrics.MessagesPushed.Inc()

	go h.db.UpdateLastSeen(userID.String())

	c.JSON(http.StatusCreated, response)
}

// GetMessages serves both poll shapes: ?since=<RFC3339Nano> returns messages
// newer than the watermark, otherwise the newest ?limit= messages are
// returned in chronological order.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("id")

	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339Nano, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
			return
		}

		messages, err := h.db.GetMessagesSince(roomID, ts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
			return
		}

		c.JSON(http.StatusOK, formatMessageList(messages))
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	messages, err := h.db.GetRecentMessages(roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, formatMessageList(messages))
}

func formatMessageResponse(m *models.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             m.ID,
		RoomID:         m.RoomID,
		UserID:         m.UserID,
		Username:       m.Username,
		Content:        m.Content,
		Language:       m.Language,
		IsAnnouncement: m.IsAnnouncement,
		ReplyTo:        m.ReplyTo,
		CreatedAt:      m.CreatedAt,
	}
}

func formatMessageList(messages []models.Message) dto.MessageListResponse {
	out := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		out[i] = formatMessageResponse(&messages[i])
	}
	return dto.MessageListResponse{Messages: out}
}
