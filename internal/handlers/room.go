package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lingochat/internal/database"
	"lingochat/internal/handlers/dto"
	"lingochat/internal/middleware"
	"lingochat/internal/models"
	"lingochat/internal/websocket"
)

type RoomHandler struct {
	db  *database.Database
	hub *websocket.Hub
}

func NewRoomHandler(db *database.Database, hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{db: db, hub: hub}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// An access code only makes sense for private rooms, and they require one.
	if req.Type == models.RoomTypePrivate && req.AccessCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "private rooms require an access code"})
		return
	}
	if req.Type == models.RoomTypePublic {
		req.AccessCode = ""
	}

	maxUsers := req.MaxUsers
	if maxUsers == 0 {
		maxUsers = 50
	}

	room := &models.Room{
		Name:       req.Name,
		Type:       req.Type,
		AccessCode: req.AccessCode,
		Status:     models.RoomStatusActive,
		MaxUsers:   maxUsers,
		CreatedBy:  userID,
		CreatedAt:  time.Now(),
	}

	if err := h.db.CreateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	if err := h.db.AddUserToRoom(userID.String(), room.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add creator to room"})
		return
	}

	c.JSON(http.StatusCreated, formatRoomResponse(room))
}

// ListRooms returns all active rooms. Access codes are never included.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.db.ListRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	response := make([]gin.H, len(rooms))
	for i, room := range rooms {
		resp := formatRoomResponse(&room)
		resp["online_count"] = len(h.hub.GetRoomUsers(room.ID))
		response[i] = resp
	}

	c.JSON(http.StatusOK, gin.H{"rooms": response})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	response := formatRoomResponse(room)
	response["online_users"] = h.hub.GetRoomUsers(room.ID)

	c.JSON(http.StatusOK, response)
}

func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room creator can update room"})
		return
	}

	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		room.Name = req.Name
	}
	if req.Status != "" {
		room.Status = req.Status
	}
	if req.MaxUsers > 0 {
		room.MaxUsers = req.MaxUsers
	}

	if err := h.db.UpdateRoom(room); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update room"})
		return
	}

	c.JSON(http.StatusOK, formatRoomResponse(room))
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only room creator can delete room"})
		return
	}

	if err := h.db.DeleteRoom(roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}

// JoinRoom adds the user as a member, checking the access code for private
// rooms and the member cap for all rooms.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
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

	var req dto.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if room.IsPrivate() && req.AccessCode != room.AccessCode {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid access code"})
		return
	}

	if len(room.Members) >= room.MaxUsers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room is full"})
		return
	}

	if err := h.db.AddUserToRoom(userID.String(), roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined room"})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if room.CreatedBy == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room creator cannot leave room"})
		return
	}

	if err := h.db.RemoveUserFromRoom(userID.String(), roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

func (h *RoomHandler) GetRoomMembers(c *gin.Context) {
	roomID := c.Param("id")

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	onlineUsers := h.hub.GetRoomUsers(room.ID)
	online := make(map[uuid.UUID]bool, len(onlineUsers))
	for _, id := range onlineUsers {
		online[id] = true
	}

	members := make([]gin.H, len(room.Members))
	for i, member := range room.Members {
		members[i] = gin.H{
			"id":           member.ID,
			"username":     member.Username,
			"language":     member.Language,
			"last_seen_at": member.LastSeenAt,
			"is_online":    online[member.ID],
			"is_creator":   member.ID == room.CreatedBy,
		}
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func formatRoomResponse(room *models.Room) gin.H {
	return gin.H{
		"id":           room.ID,
		"name":         room.Name,
		"type":         room.Type,
		"status":       room.Status,
		"max_users":    room.MaxUsers,
		"created_by":   room.CreatedBy,
		"created_at":   room.CreatedAt,
		"member_count": len(room.Members),
	}
}
