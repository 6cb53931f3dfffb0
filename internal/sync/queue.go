package sync

import (
	"context"
	"errors"
	"log"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"lingochat/internal/models"
)

// ErrStillOffline marks a flush attempt that fell back to local persistence.
// The entry stays queued for the next flush.
var ErrStillOffline = errors.New("backend still unreachable")

// PendingStore persists offline queue entries across restarts.
type PendingStore interface {
	SavePending(pending *models.PendingMessage) error
	ListPending(roomID uuid.UUID) ([]models.PendingMessage, error)
	DeletePending(tempID uuid.UUID) error
}

// SendFunc attempts remote persistence of one queued entry.
type SendFunc func(ctx context.Context, pending *models.PendingMessage) (*models.Message, error)

// FlushResult reports the outcome of one entry's flush attempt.
type FlushResult func(tempID uuid.UUID, record *models.Message, err error)

// OfflineQueue buffers outgoing messages while the backend is unreachable
// and replays them on reconnect. Attempts go out in FIFO enqueue order, but
// completion order is not guaranteed: an entry still backing off is skipped
// while later entries are tried.
type OfflineQueue struct {
	store  PendingStore
	roomID uuid.UUID

	baseDelay time.Duration
	maxDelay  time.Duration

	mu  gosync.Mutex
	now func() time.Time
}

func NewOfflineQueue(store PendingStore, roomID uuid.UUID) *OfflineQueue {
	return &OfflineQueue{
		store:     store,
		roomID:    roomID,
		baseDelay: time.Second,
		maxDelay:  time.Minute,
		now:       time.Now,
	}
}

// Enqueue stores a pending entry under the caller's temp id. The entry is
// retried until it persists or is explicitly removed; there is no implicit
// expiry.
func (q *OfflineQueue) Enqueue(tempID uuid.UUID, draft *models.Message) error {
	now := q.now()
	pending := &models.PendingMessage{
		TempID:         tempID,
		RoomID:         draft.RoomID,
		Content:        draft.Content,
		Language:       draft.Language,
		IsAnnouncement: draft.IsAnnouncement,
		ReplyTo:        draft.ReplyTo,
		EnqueuedAt:     now,
		NextAttemptAt:  now,
	}

	return q.store.SavePending(pending)
}

// Remove drops a queued entry. Backs the user-triggered "discard" affordance.
func (q *OfflineQueue) Remove(tempID uuid.UUID) error {
	return q.store.DeletePending(tempID)
}

// Pending returns the queued entries in enqueue order.
func (q *OfflineQueue) Pending() ([]models.PendingMessage, error) {
	return q.store.ListPending(q.roomID)
}

// Flush attempts every due entry in enqueue order. A success removes the
// entry and reports the server record; a failure bumps the retry count and
// schedules the next attempt with exponential backoff. Flushes are
// serialized so the interval backstop and the reconnect trigger never race.
func (q *OfflineQueue) Flush(ctx context.Context, send SendFunc, onResult FlushResult) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.store.ListPending(q.roomID)
	if err != nil {
		log.Printf("list pending failed: %v", err)
		return
	}

	for i := range pending {
		entry := &pending[i]

		if entry.NextAttemptAt.After(q.now()) {
			continue
		}

		record, err := send(ctx, entry)
		if err != nil {
			entry.RetryCount++
			entry.NextAttemptAt = q.now().Add(q.backoff(entry.RetryCount))
			if saveErr := q.store.SavePending(entry); saveErr != nil {
				log.Printf("update pending %s failed: %v", entry.TempID, saveErr)
			}
			if onResult != nil {
				onResult(entry.TempID, nil, err)
			}
			continue
		}

		if err := q.store.DeletePending(entry.TempID); err != nil {
			log.Printf("delete pending %s failed: %v", entry.TempID, err)
		}
		if onResult != nil {
			onResult(entry.TempID, record, nil)
		}
	}
}

func (q *OfflineQueue) backoff(retries int) time.Duration {
	delay := q.baseDelay
	for i := 1; i < retries; i++ {
		delay *= 2
		if delay >= q.maxDelay {
			return q.maxDelay
		}
	}
	return delay
}
