package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lingochat/internal/models"
	ws "lingochat/internal/websocket"
)

// PushClient holds one websocket connection to the backend's push channel,
// subscribed to a single room's insert events.
type PushClient struct {
	wsURL string
	token string
}

func NewPushClient(wsURL, token string) *PushClient {
	return &PushClient{wsURL: wsURL, token: token}
}

// Start dials the push channel, subscribes to the room and invokes onMessage
// for every insert event until ctx is cancelled or the connection drops. The
// returned error reflects the dial only; a later drop is reported by the
// channel closing (the poll loop is the durability backstop either way).
func (p *PushClient) Start(ctx context.Context, roomID uuid.UUID, onMessage func(models.Message)) error {
	u, err := url.Parse(p.wsURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("token", p.token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}

	subscribe := ws.Event{
		Type:      ws.EventSubscribe,
		RoomID:    &roomID,
		Timestamp: time.Now(),
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		conn.Close()
		return err
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go p.readLoop(ctx, conn, roomID, onMessage)

	return nil
}

func (p *PushClient) readLoop(ctx context.Context, conn *websocket.Conn, roomID uuid.UUID, onMessage func(models.Message)) {
	defer conn.Close()

	for {
		var event ws.Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() == nil {
				log.Printf("push channel dropped: %v", err)
			}
			return
		}

		switch event.Type {
		case ws.EventPing:
			pong := ws.Event{Type: ws.EventPong, Timestamp: time.Now()}
			if err := conn.WriteJSON(pong); err != nil {
				return
			}

		case ws.EventInsert:
			if event.RoomID == nil || *event.RoomID != roomID {
				continue
			}

			var message models.Message
			if err := json.Unmarshal(event.Data, &message); err != nil {
				log.Printf("bad insert payload: %v", err)
				continue
			}

			onMessage(message)
		}
	}
}
