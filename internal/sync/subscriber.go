package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"lingochat/internal/models"
)

// DefaultPollInterval is the poll loop's cadence. The push channel usually
// delivers first; polling is the durability backstop when it is down.
const DefaultPollInterval = 4 * time.Second

// FetchSince queries messages with created_at strictly after the watermark.
type FetchSince func(ctx context.Context, roomID uuid.UUID, since time.Time) ([]models.Message, error)

// PushChannel delivers server-pushed insert events for one room.
type PushChannel interface {
	Start(ctx context.Context, roomID uuid.UUID, onMessage func(models.Message)) error
}

// Subscriber merges the push channel and the poll loop into one onMessage
// stream. Both paths advance a shared, monotonically non-decreasing
// watermark, so a push outage only degrades latency, never correctness.
type Subscriber struct {
	fetch        FetchSince
	push         PushChannel
	pollInterval time.Duration

	mu         gosync.Mutex
	watermark  time.Time
	subscribed bool
	cancel     context.CancelFunc
}

// NewSubscriber builds a subscriber. push may be nil for poll-only operation.
func NewSubscriber(fetch FetchSince, push PushChannel, pollInterval time.Duration) *Subscriber {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Subscriber{
		fetch:        fetch,
		push:         push,
		pollInterval: pollInterval,
	}
}

// Subscribe starts the push subscription and the poll loop, feeding every
// record through onMessage. Calling it on a live subscription is a no-op.
func (s *Subscriber) Subscribe(roomID uuid.UUID, onMessage func(models.Message)) error {
	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return nil
	}
	s.subscribed = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	deliver := func(msg models.Message) {
		// A frame may land after Unsubscribe; drop it instead of
		// delivering into a torn-down sink.
		s.mu.Lock()
		if !s.subscribed {
			s.mu.Unlock()
			return
		}
		if msg.CreatedAt.After(s.watermark) {
			s.watermark = msg.CreatedAt
		}
		s.mu.Unlock()

		onMessage(msg)
	}

	if s.push != nil {
		if err := s.push.Start(ctx, roomID, deliver); err != nil {
			log.Printf("push channel unavailable, polling only: %v", err)
		}
	}

	go s.pollLoop(ctx, roomID, deliver)

	return nil
}

func (s *Subscriber) pollLoop(ctx context.Context, roomID uuid.UUID, deliver func(models.Message)) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			messages, err := s.fetch(ctx, roomID, s.Watermark())
			if err != nil {
				log.Printf("poll failed: %v", err)
				continue
			}

			for _, msg := range messages {
				deliver(msg)
			}
		}
	}
}

// Unsubscribe tears down the push channel and the poll timer. Idempotent.
// In-flight requests are not awaited; their late results are discarded by
// the subscribed check in deliver.
func (s *Subscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.subscribed {
		return
	}
	s.subscribed = false
	s.cancel()
}

// Watermark returns the created_at of the newest processed record.
func (s *Subscriber) Watermark() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// SetWatermark seeds the watermark, typically from the newest record of the
// initial history load.
func (s *Subscriber) SetWatermark(ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts.After(s.watermark) {
		s.watermark = ts
	}
}
