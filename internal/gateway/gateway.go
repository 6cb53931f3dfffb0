package gateway

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"lingochat/internal/models"
)

var (
	ErrEmptyContent = errors.New("message content is empty")
	ErrNoRoom       = errors.New("message has no room id")
)

// Remote is the backend message API.
type Remote interface {
	PostMessage(ctx context.Context, draft *models.Message) (*models.Message, error)
	MessagesSince(ctx context.Context, roomID uuid.UUID, since time.Time) ([]models.Message, error)
	RecentMessages(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)
}

// Local is the room-scoped cache the gateway writes through to.
type Local interface {
	MergeMessages(messages []models.Message) error
	RecentMessages(roomID uuid.UUID, limit int) ([]models.Message, error)
}

type Gateway struct {
	remote Remote
	local  Local

	now func() time.Time
}

func New(remote Remote, local Local) *Gateway {
	return &Gateway{remote: remote, local: local, now: time.Now}
}

// Save attempts a remote insert. On any transport or backend error the
// record is assigned a local id and timestamp, cached room-scoped, and
// returned flagged as locally persisted only. Validation failures are hard
// errors and are never queued.
func (g *Gateway) Save(ctx context.Context, draft *models.Message) (*models.Message, bool, error) {
	if draft.Content == "" {
		return nil, false, ErrEmptyContent
	}
	if draft.RoomID == uuid.Nil {
		return nil, false, ErrNoRoom
	}

	record, err := g.remote.PostMessage(ctx, draft)
	if err == nil {
		g.mergeLocal([]models.Message{*record})
		return record, false, nil
	}

	log.Printf("remote save failed, keeping locally: %v", err)

	local := *draft
	local.ID = uuid.New()
	local.CreatedAt = g.now()
	local.Status = models.StatusSending
	g.mergeLocal([]models.Message{local})

	return &local, true, nil
}

// FetchSince returns messages newer than the watermark. A remote failure
// yields an empty slice rather than an error: the poll loop cannot tell
// "nothing new" from a transient outage, and catches up on the next
// successful poll via the watermark.
func (g *Gateway) FetchSince(ctx context.Context, roomID uuid.UUID, since time.Time) ([]models.Message, error) {
	messages, err := g.remote.MessagesSince(ctx, roomID, since)
	if err != nil {
		log.Printf("fetch since failed: %v", err)
		return nil, nil
	}

	g.mergeLocal(messages)
	return messages, nil
}

// FetchRecent returns room history oldest first, falling back to the local
// cache when the backend is unreachable.
func (g *Gateway) FetchRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error) {
	messages, err := g.remote.RecentMessages(ctx, roomID, limit)
	if err != nil {
		log.Printf("fetch recent failed, serving local cache: %v", err)
		return g.local.RecentMessages(roomID, limit)
	}

	g.mergeLocal(messages)
	return messages, nil
}

func (g *Gateway) mergeLocal(messages []models.Message) {
	if g.local == nil {
		return
	}
	if err := g.local.MergeMessages(messages); err != nil {
		log.Printf("local cache merge failed: %v", err)
	}
}
