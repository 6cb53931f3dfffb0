package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func message(roomID uuid.UUID, content string, at time.Time) models.Message {
	return models.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		UserID:    uuid.New(),
		Username:  "alice",
		Content:   content,
		Language:  "en",
		CreatedAt: at,
	}
}

func TestStore_MergeIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	roomID := uuid.New()
	msg := message(roomID, "hi", time.Now())

	require.NoError(t, store.MergeMessages([]models.Message{msg}))
	require.NoError(t, store.MergeMessages([]models.Message{msg}))

	got, err := store.RecentMessages(roomID, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_RecentMessagesNewestLimitChronological(t *testing.T) {
	store := openTestStore(t)
	roomID := uuid.New()
	base := time.Now().Truncate(time.Second)

	var batch []models.Message
	for i := 0; i < 5; i++ {
		batch = append(batch, message(roomID, string(rune('a'+i)), base.Add(time.Duration(i)*time.Second)))
	}
	require.NoError(t, store.MergeMessages(batch))

	got, err := store.RecentMessages(roomID, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest three, oldest first.
	assert.Equal(t, "c", got[0].Content)
	assert.Equal(t, "d", got[1].Content)
	assert.Equal(t, "e", got[2].Content)
}

func TestStore_RecentMessagesScopedToRoom(t *testing.T) {
	store := openTestStore(t)
	roomA, roomB := uuid.New(), uuid.New()

	require.NoError(t, store.MergeMessages([]models.Message{
		message(roomA, "a", time.Now()),
		message(roomB, "b", time.Now()),
	}))

	got, err := store.RecentMessages(roomA, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Content)
}

func TestStore_PendingSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	roomID := uuid.New()
	tempID := uuid.New()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SavePending(&models.PendingMessage{
		TempID:        tempID,
		RoomID:        roomID,
		Content:       "queued while offline",
		Language:      "en",
		EnqueuedAt:    time.Now(),
		NextAttemptAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.ListPending(roomID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, tempID, pending[0].TempID)
	assert.Equal(t, "queued while offline", pending[0].Content)
}

func TestStore_SavePendingUpdatesRetryState(t *testing.T) {
	store := openTestStore(t)
	roomID := uuid.New()

	entry := models.PendingMessage{
		TempID:        uuid.New(),
		RoomID:        roomID,
		Content:       "retry me",
		EnqueuedAt:    time.Now(),
		NextAttemptAt: time.Now(),
	}
	require.NoError(t, store.SavePending(&entry))

	entry.RetryCount = 3
	entry.NextAttemptAt = time.Now().Add(8 * time.Second)
	require.NoError(t, store.SavePending(&entry))

	pending, err := store.ListPending(roomID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].RetryCount)
}

func TestStore_DeletePending(t *testing.T) {
	store := openTestStore(t)
	roomID := uuid.New()
	tempID := uuid.New()

	require.NoError(t, store.SavePending(&models.PendingMessage{
		TempID:        tempID,
		RoomID:        roomID,
		Content:       "x",
		EnqueuedAt:    time.Now(),
		NextAttemptAt: time.Now(),
	}))
	require.NoError(t, store.DeletePending(tempID))

	pending, err := store.ListPending(roomID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStore_PruneMessages(t *testing.T) {
	store := openTestStore(t)
	roomID := uuid.New()
	base := time.Now()

	require.NoError(t, store.MergeMessages([]models.Message{
		message(roomID, "old", base.Add(-48*time.Hour)),
		message(roomID, "fresh", base),
	}))

	require.NoError(t, store.PruneMessages(roomID, base.Add(-24*time.Hour)))

	got, err := store.RecentMessages(roomID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Content)
}
