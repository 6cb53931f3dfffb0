package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/models"
)

// memPendingStore is an in-memory PendingStore for tests.
type memPendingStore struct {
	mu      gosync.Mutex
	entries map[uuid.UUID]models.PendingMessage
	order   []uuid.UUID
}

func newMemPendingStore() *memPendingStore {
	return &memPendingStore{entries: make(map[uuid.UUID]models.PendingMessage)}
}

func (s *memPendingStore) SavePending(p *models.PendingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[p.TempID]; !exists {
		s.order = append(s.order, p.TempID)
	}
	s.entries[p.TempID] = *p
	return nil
}

func (s *memPendingStore) ListPending(roomID uuid.UUID) ([]models.PendingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.PendingMessage
	for _, id := range s.order {
		entry, ok := s.entries[id]
		if ok && entry.RoomID == roomID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *memPendingStore) DeletePending(tempID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, tempID)
	for i, id := range s.order {
		if id == tempID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func TestOfflineQueue_FlushPersistsAndRemoves(t *testing.T) {
	roomID := uuid.New()
	store := newMemPendingStore()
	queue := NewOfflineQueue(store, roomID)

	tempID := uuid.New()
	err := queue.Enqueue(tempID, &models.Message{RoomID: roomID, Content: "hello"})
	require.NoError(t, err)

	var persisted []string
	send := func(_ context.Context, p *models.PendingMessage) (*models.Message, error) {
		persisted = append(persisted, p.Content)
		return &models.Message{ID: uuid.New(), RoomID: p.RoomID, Content: p.Content}, nil
	}

	var confirmed []uuid.UUID
	queue.Flush(context.Background(), send, func(id uuid.UUID, record *models.Message, err error) {
		require.NoError(t, err)
		require.NotNil(t, record)
		confirmed = append(confirmed, id)
	})

	assert.Equal(t, []string{"hello"}, persisted)
	assert.Equal(t, []uuid.UUID{tempID}, confirmed)

	remaining, err := queue.Pending()
	require.NoError(t, err)
	assert.Empty(t, remaining, "confirmed entry must leave the queue")
}

func TestOfflineQueue_FailureBacksOffAndStaysQueued(t *testing.T) {
	roomID := uuid.New()
	store := newMemPendingStore()
	queue := NewOfflineQueue(store, roomID)

	tempID := uuid.New()
	require.NoError(t, queue.Enqueue(tempID, &models.Message{RoomID: roomID, Content: "hi"}))

	attempts := 0
	send := func(context.Context, *models.PendingMessage) (*models.Message, error) {
		attempts++
		return nil, errors.New("connection refused")
	}

	var failures int
	queue.Flush(context.Background(), send, func(id uuid.UUID, record *models.Message, err error) {
		assert.Error(t, err)
		assert.Nil(t, record)
		failures++
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, failures)

	pending, err := queue.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.True(t, pending[0].NextAttemptAt.After(time.Now()), "entry must back off")

	// The entry is still backing off, so an immediate flush skips it.
	queue.Flush(context.Background(), send, nil)
	assert.Equal(t, 1, attempts)
}

func TestOfflineQueue_FlushAttemptsInEnqueueOrder(t *testing.T) {
	roomID := uuid.New()
	store := newMemPendingStore()
	queue := NewOfflineQueue(store, roomID)

	first := uuid.New()
	second := uuid.New()
	third := uuid.New()
	require.NoError(t, queue.Enqueue(first, &models.Message{RoomID: roomID, Content: "1"}))
	require.NoError(t, queue.Enqueue(second, &models.Message{RoomID: roomID, Content: "2"}))
	require.NoError(t, queue.Enqueue(third, &models.Message{RoomID: roomID, Content: "3"}))

	var attempted []string
	send := func(_ context.Context, p *models.PendingMessage) (*models.Message, error) {
		attempted = append(attempted, p.Content)
		if p.Content == "2" {
			return nil, errors.New("flaky")
		}
		return &models.Message{ID: uuid.New()}, nil
	}

	queue.Flush(context.Background(), send, nil)

	// Attempt order is FIFO even though "2" failed; completion order is
	// not guaranteed by design.
	assert.Equal(t, []string{"1", "2", "3"}, attempted)

	pending, err := queue.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "2", pending[0].Content)
}

func TestOfflineQueue_BackoffCapped(t *testing.T) {
	queue := NewOfflineQueue(newMemPendingStore(), uuid.New())

	assert.Equal(t, time.Second, queue.backoff(1))
	assert.Equal(t, 2*time.Second, queue.backoff(2))
	assert.Equal(t, 16*time.Second, queue.backoff(5))
	assert.Equal(t, time.Minute, queue.backoff(10))
	assert.Equal(t, time.Minute, queue.backoff(100))
}
