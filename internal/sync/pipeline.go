package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"lingochat/internal/models"
)

// DefaultFlushInterval is the offline queue's backstop cadence; reconnects
// trigger an immediate flush as well.
const DefaultFlushInterval = 60 * time.Second

// Persister is the gateway surface the pipeline needs.
type Persister interface {
	Save(ctx context.Context, draft *models.Message) (*models.Message, bool, error)
	FetchRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]models.Message, error)
}

// Decorator resolves translated content for the viewer's language.
type Decorator interface {
	Decorate(ctx context.Context, content, sourceLang, viewerLang string) (string, error)
}

// Realtime is the subscription surface the pipeline consumes.
type Realtime interface {
	Subscribe(roomID uuid.UUID, onMessage func(models.Message)) error
	Unsubscribe()
	SetWatermark(ts time.Time)
}

// MessagePatch is a partial update for an already-rendered message.
type MessagePatch struct {
	RealID            *uuid.UUID
	Status            models.DeliveryStatus
	TranslatedContent *string
}

// Sink receives fully-formed messages for rendering. OnMessageReady fires
// exactly once per logically-new message; OnMessageUpdated patches in late
// translations and send-status transitions.
type Sink interface {
	OnMessageReady(msg models.Message)
	OnMessageUpdated(id uuid.UUID, patch MessagePatch)
}

// Config identifies the viewer and room a pipeline serves.
type Config struct {
	RoomID   uuid.UUID
	UserID   uuid.UUID
	Username string
	Language string

	HistoryLimit  int
	DedupSize     int
	FlushInterval time.Duration
}

// Pipeline wires the gateway, subscriber, offline queue and translation
// decorator into one message stream. Every collaborator is injected at
// construction; there is no process-global state.
type Pipeline struct {
	cfg      Config
	gw       Persister
	realtime Realtime
	queue    *OfflineQueue
	dec      Decorator
	sink     Sink
	seen     *SeenSet

	mu      gosync.Mutex
	online  bool
	realIDs map[uuid.UUID]uuid.UUID // temp id -> confirmed server id

	ctx    context.Context
	cancel context.CancelFunc
}

func NewPipeline(cfg Config, gw Persister, realtime Realtime, queue *OfflineQueue, dec Decorator, sink Sink) *Pipeline {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		cfg:      cfg,
		gw:       gw,
		realtime: realtime,
		queue:    queue,
		dec:      dec,
		sink:     sink,
		seen:     NewSeenSet(cfg.DedupSize),
		online:   true,
		realIDs:  make(map[uuid.UUID]uuid.UUID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start loads room history, opens the realtime subscription and arms the
// flush backstop.
func (p *Pipeline) Start() error {
	if err := p.loadHistory(); err != nil {
		return err
	}

	if err := p.realtime.Subscribe(p.cfg.RoomID, p.handleIncoming); err != nil {
		return err
	}

	go p.flushLoop()

	return nil
}

// Close tears the pipeline down. Idempotent.
func (p *Pipeline) Close() {
	p.cancel()
	p.realtime.Unsubscribe()
}

func (p *Pipeline) loadHistory() error {
	messages, err := p.gw.FetchRecent(p.ctx, p.cfg.RoomID, p.cfg.HistoryLimit)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		// History includes the viewer's own messages; only live echoes
		// are suppressed. Seeding the seen-set here keeps the push and
		// poll paths from re-delivering history.
		if !p.seen.ShouldDeliver(msg.ID) {
			continue
		}

		p.realtime.SetWatermark(msg.CreatedAt)

		p.emit(msg)
	}

	return nil
}

// handleIncoming is the single funnel for push and poll records.
func (p *Pipeline) handleIncoming(msg models.Message) {
	// Self-echo: the sender already rendered its optimistic copy.
	if msg.UserID == p.cfg.UserID {
		return
	}

	if !p.seen.ShouldDeliver(msg.ID) {
		return
	}

	p.emit(msg)
}

// emit renders the message immediately and patches the translation in
// asynchronously. Translation never gates visibility.
func (p *Pipeline) emit(msg models.Message) {
	msg.TranslatedContent = ""
	p.sink.OnMessageReady(msg)

	go func() {
		translated, err := p.dec.Decorate(p.ctx, msg.Content, msg.Language, p.cfg.Language)
		if err != nil {
			log.Printf("translate message %s: %v", msg.ID, err)
		}

		if p.ctx.Err() != nil {
			return
		}

		p.sink.OnMessageUpdated(msg.ID, MessagePatch{TranslatedContent: &translated})
	}()
}

// SendMessage renders the message optimistically, then persists it remotely
// or queues it for replay. The returned temp id identifies the message to
// the sink until a real id is confirmed.
func (p *Pipeline) SendMessage(ctx context.Context, content string, replyTo *uuid.UUID) (uuid.UUID, error) {
	if content == "" {
		return uuid.Nil, ErrEmptyContent
	}

	tempID := uuid.New()
	draft := models.Message{
		RoomID:    p.cfg.RoomID,
		UserID:    p.cfg.UserID,
		Username:  p.cfg.Username,
		Content:   content,
		Language:  p.cfg.Language,
		ReplyTo:   replyTo,
		CreatedAt: time.Now(),
	}

	optimistic := draft
	optimistic.ID = tempID
	optimistic.Status = models.StatusSending
	optimistic.TranslatedContent = content
	p.sink.OnMessageReady(optimistic)

	if !p.IsOnline() {
		if err := p.queue.Enqueue(tempID, &draft); err != nil {
			p.sink.OnMessageUpdated(tempID, MessagePatch{Status: models.StatusFailed})
			return tempID, err
		}
		return tempID, nil
	}

	record, localOnly, err := p.gw.Save(ctx, &draft)
	if err != nil {
		p.sink.OnMessageUpdated(tempID, MessagePatch{Status: models.StatusFailed})
		return uuid.Nil, err
	}

	if localOnly {
		if err := p.queue.Enqueue(tempID, &draft); err != nil {
			p.sink.OnMessageUpdated(tempID, MessagePatch{Status: models.StatusFailed})
			return tempID, err
		}
		return tempID, nil
	}

	p.confirm(tempID, record)
	return tempID, nil
}

func (p *Pipeline) confirm(tempID uuid.UUID, record *models.Message) {
	p.mu.Lock()
	p.realIDs[tempID] = record.ID
	p.mu.Unlock()

	// The realtime echo of this record is filtered by user id, so only the
	// optimistic copy stays visible.
	p.seen.ShouldDeliver(record.ID)

	realID := record.ID
	p.sink.OnMessageUpdated(tempID, MessagePatch{RealID: &realID, Status: models.StatusSent})
}

// RealID resolves a temp id to its confirmed server id, if any.
func (p *Pipeline) RealID(tempID uuid.UUID) (uuid.UUID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.realIDs[tempID]
	return id, ok
}

// SetOnline feeds the connectivity signal. A transition to online triggers
// an immediate queue flush.
func (p *Pipeline) SetOnline(online bool) {
	p.mu.Lock()
	wasOnline := p.online
	p.online = online
	p.mu.Unlock()

	if online && !wasOnline {
		go p.Flush(p.ctx)
	}
}

func (p *Pipeline) IsOnline() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Flush replays queued sends. Exposed for the manual retry affordance.
func (p *Pipeline) Flush(ctx context.Context) {
	send := func(ctx context.Context, pending *models.PendingMessage) (*models.Message, error) {
		draft := models.Message{
			RoomID:         pending.RoomID,
			UserID:         p.cfg.UserID,
			Username:       p.cfg.Username,
			Content:        pending.Content,
			Language:       pending.Language,
			IsAnnouncement: pending.IsAnnouncement,
			ReplyTo:        pending.ReplyTo,
		}

		record, localOnly, err := p.gw.Save(ctx, &draft)
		if err != nil {
			return nil, err
		}
		if localOnly {
			return nil, ErrStillOffline
		}
		return record, nil
	}

	p.queue.Flush(ctx, send, func(tempID uuid.UUID, record *models.Message, err error) {
		if err != nil {
			p.sink.OnMessageUpdated(tempID, MessagePatch{Status: models.StatusFailed})
			return
		}
		p.confirm(tempID, record)
	})
}

// DiscardPending removes a queued send for good.
func (p *Pipeline) DiscardPending(tempID uuid.UUID) error {
	return p.queue.Remove(tempID)
}

func (p *Pipeline) flushLoop() {
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.IsOnline() {
				p.Flush(p.ctx)
			}
		}
	}
}
