package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub fans server-side message inserts out to the room-filtered push channels
// of connected clients. All bookkeeping mutation happens on the Run loop or
// under h.mu.
type Hub struct {
	clients map[uuid.UUID]*Client

	// One user may hold several connections (tabs, devices).
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Subscribed clients per room.
	rooms map[uuid.UUID]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uuid.UUID]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("client registered: %s (user %s)", client.ID, client.UserID)

	h.notifyUserStatus(client.UserID, EventUserOnline)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		if userClients, ok := h.userClients[client.UserID]; ok {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.userClients, client.UserID)
				h.notifyUserStatus(client.UserID, EventUserOffline)
			}
		}

		delete(h.clients, client.ID)
		close(client.Send)

		log.Printf("client unregistered: %s (user %s)", client.ID, client.UserID)
	}
}

// SubscribeRoom registers a client for insert events of one room.
func (h *Hub) SubscribeRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()

	h.sendRoomUsers(client, roomID)
}

// UnsubscribeRoom removes a client's room subscription.
func (h *Hub) UnsubscribeRoom(client *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uuid.UUID) {
	if room, ok := h.rooms[roomID]; ok {
		if _, ok := room[client.ID]; ok {
			delete(room, client.ID)
			client.mu.Lock()
			delete(client.Rooms, roomID)
			client.mu.Unlock()

			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// BroadcastInsert pushes a persisted message to every subscriber of its room,
// the sender's own connections included. Senders drop the echo themselves.
func (h *Hub) BroadcastInsert(roomID uuid.UUID, userID uuid.UUID, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal insert payload: %v", err)
		return
	}

	event := Event{
		Type:      EventInsert,
		RoomID:    &roomID,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now(),
	}

	frame, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			select {
			case client.Send <- frame:
			default:
				log.Printf("client %s send channel full, dropping insert", client.ID)
			}
		}
	}
}

func (h *Hub) sendRoomUsers(client *Client, roomID uuid.UUID) {
	users := make([]uuid.UUID, 0)

	if room, ok := h.rooms[roomID]; ok {
		seen := make(map[uuid.UUID]bool)
		for _, c := range room {
			if !seen[c.UserID] {
				seen[c.UserID] = true
				users = append(users, c.UserID)
			}
		}
	}

	data, err := json.Marshal(users)
	if err != nil {
		return
	}

	event := Event{
		Type:      EventRoomUsers,
		RoomID:    &roomID,
		UserID:    client.UserID,
		Data:      data,
		Timestamp: time.Now(),
	}

	if frame, err := json.Marshal(event); err == nil {
		select {
		case client.Send <- frame:
		default:
			log.Printf("failed to send room users to client %s", client.ID)
		}
	}
}

func (h *Hub) notifyUserStatus(userID uuid.UUID, status EventType) {
	event := Event{
		Type:      status,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	if frame, err := json.Marshal(event); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- frame:
			default:
			}
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := Event{
		Type:      EventPing,
		Timestamp: time.Now(),
	}

	if frame, err := json.Marshal(event); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- frame:
			default:
			}
		}
	}
}

// GetOnlineUsers returns every user with at least one live connection.
func (h *Hub) GetOnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}

// GetRoomUsers returns the distinct users subscribed to a room.
func (h *Hub) GetRoomUsers(roomID uuid.UUID) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	if room, ok := h.rooms[roomID]; ok {
		for _, client := range room {
			seen[client.UserID] = true
		}
	}

	users := make([]uuid.UUID, 0, len(seen))
	for userID := range seen {
		users = append(users, userID)
	}
	return users
}
