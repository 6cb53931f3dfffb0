package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/models"
)

var errBackendDown = errors.New("connection refused")

type fakeRemote struct {
	down     bool
	posted   []models.Message
	messages []models.Message
}

func (r *fakeRemote) PostMessage(_ context.Context, draft *models.Message) (*models.Message, error) {
	if r.down {
		return nil, errBackendDown
	}
	record := *draft
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	r.posted = append(r.posted, record)
	return &record, nil
}

func (r *fakeRemote) MessagesSince(_ context.Context, _ uuid.UUID, since time.Time) ([]models.Message, error) {
	if r.down {
		return nil, errBackendDown
	}
	var out []models.Message
	for _, m := range r.messages {
		if m.CreatedAt.After(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRemote) RecentMessages(context.Context, uuid.UUID, int) ([]models.Message, error) {
	if r.down {
		return nil, errBackendDown
	}
	return r.messages, nil
}

type fakeLocal struct {
	merged []models.Message
}

func (l *fakeLocal) MergeMessages(messages []models.Message) error {
	l.merged = append(l.merged, messages...)
	return nil
}

func (l *fakeLocal) RecentMessages(uuid.UUID, int) ([]models.Message, error) {
	return l.merged, nil
}

func draft(roomID uuid.UUID, content string) *models.Message {
	return &models.Message{
		RoomID:   roomID,
		UserID:   uuid.New(),
		Username: "alice",
		Content:  content,
		Language: "en",
	}
}

func TestGateway_SaveRemote(t *testing.T) {
	remote := &fakeRemote{}
	local := &fakeLocal{}
	gw := New(remote, local)

	record, localOnly, err := gw.Save(context.Background(), draft(uuid.New(), "hi"))
	require.NoError(t, err)
	assert.False(t, localOnly)
	assert.NotEqual(t, uuid.Nil, record.ID)

	// Write-through: the confirmed record lands in the local cache too.
	require.Len(t, local.merged, 1)
	assert.Equal(t, record.ID, local.merged[0].ID)
}

func TestGateway_SaveFallsBackToLocal(t *testing.T) {
	remote := &fakeRemote{down: true}
	local := &fakeLocal{}
	gw := New(remote, local)

	record, localOnly, err := gw.Save(context.Background(), draft(uuid.New(), "hi"))
	require.NoError(t, err, "backend outage is not a caller error")
	assert.True(t, localOnly)
	assert.NotEqual(t, uuid.Nil, record.ID, "local record gets its own id")
	assert.Equal(t, models.StatusSending, record.Status)
	assert.Len(t, local.merged, 1)
}

func TestGateway_SaveValidation(t *testing.T) {
	gw := New(&fakeRemote{}, &fakeLocal{})

	_, _, err := gw.Save(context.Background(), draft(uuid.New(), ""))
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, _, err = gw.Save(context.Background(), draft(uuid.Nil, "hi"))
	assert.ErrorIs(t, err, ErrNoRoom)
}

func TestGateway_FetchSinceSwallowsRemoteErrors(t *testing.T) {
	remote := &fakeRemote{down: true}
	gw := New(remote, &fakeLocal{})

	messages, err := gw.FetchSince(context.Background(), uuid.New(), time.Time{})
	assert.NoError(t, err)
	assert.Empty(t, messages, "outage looks like an empty poll, the watermark catches up later")
}

func TestGateway_FetchSinceFiltersByWatermark(t *testing.T) {
	base := time.Now()
	roomID := uuid.New()
	remote := &fakeRemote{messages: []models.Message{
		{ID: uuid.New(), RoomID: roomID, Content: "old", CreatedAt: base.Add(-time.Minute)},
		{ID: uuid.New(), RoomID: roomID, Content: "new", CreatedAt: base.Add(time.Minute)},
	}}
	local := &fakeLocal{}
	gw := New(remote, local)

	messages, err := gw.FetchSince(context.Background(), roomID, base)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "new", messages[0].Content)
	assert.Len(t, local.merged, 1)
}

func TestGateway_FetchRecentFallsBackToCache(t *testing.T) {
	roomID := uuid.New()
	cached := models.Message{ID: uuid.New(), RoomID: roomID, Content: "from cache", CreatedAt: time.Now()}
	local := &fakeLocal{merged: []models.Message{cached}}
	gw := New(&fakeRemote{down: true}, local)

	messages, err := gw.FetchRecent(context.Background(), roomID, 50)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, cached.ID, messages[0].ID)
}

func TestGateway_SaveWithoutLocalCache(t *testing.T) {
	// The gateway tolerates a nil local cache, as on first run before the
	// store is opened.
	gw := New(&fakeRemote{down: true}, nil)

	record, localOnly, err := gw.Save(context.Background(), draft(uuid.New(), "hi"))
	require.NoError(t, err)
	assert.True(t, localOnly)
	assert.NotNil(t, record)
}
