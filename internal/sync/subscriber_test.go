package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingochat/internal/models"
)

// scriptedFetch serves canned poll results and records the watermarks it was
// asked for.
type scriptedFetch struct {
	mu      gosync.Mutex
	batches [][]models.Message
	asked   []time.Time
}

func (f *scriptedFetch) fetch(_ context.Context, _ uuid.UUID, since time.Time) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.asked = append(f.asked, since)
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func msgAt(ts time.Time) models.Message {
	return models.Message{
		ID:        uuid.New(),
		RoomID:    uuid.New(),
		UserID:    uuid.New(),
		Content:   "m",
		CreatedAt: ts,
	}
}

func TestSubscriber_WatermarkMonotonic(t *testing.T) {
	base := time.Now()

	fetch := &scriptedFetch{batches: [][]models.Message{
		{msgAt(base.Add(2 * time.Second)), msgAt(base.Add(1 * time.Second))},
		{}, // transient empty result must not move the watermark back
		{msgAt(base.Add(3 * time.Second))},
	}}

	sub := NewSubscriber(fetch.fetch, nil, 20*time.Millisecond)

	var mu gosync.Mutex
	var delivered []models.Message
	err := sub.Subscribe(uuid.New(), func(m models.Message) {
		mu.Lock()
		delivered = append(delivered, m)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 3
	}, 2*time.Second, 10*time.Millisecond)

	// The watermark ends at the newest created_at ever seen and never
	// decreased along the way.
	assert.Equal(t, base.Add(3*time.Second).Unix(), sub.Watermark().Unix())

	fetch.mu.Lock()
	defer fetch.mu.Unlock()
	for i := 1; i < len(fetch.asked); i++ {
		assert.False(t, fetch.asked[i].Before(fetch.asked[i-1]),
			"poll watermark went backwards at %d", i)
	}
}

func TestSubscriber_UnsubscribeStopsDelivery(t *testing.T) {
	fetch := &scriptedFetch{}
	sub := NewSubscriber(fetch.fetch, nil, 10*time.Millisecond)

	var mu gosync.Mutex
	count := 0
	require.NoError(t, sub.Subscribe(uuid.New(), func(models.Message) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	fetch.mu.Lock()
	fetch.batches = [][]models.Message{{msgAt(time.Now())}}
	fetch.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, count, "no delivery after unsubscribe")
}

func TestSubscriber_SetWatermarkSeedsOnlyForward(t *testing.T) {
	sub := NewSubscriber(func(context.Context, uuid.UUID, time.Time) ([]models.Message, error) {
		return nil, nil
	}, nil, time.Second)

	seed := time.Now()
	sub.SetWatermark(seed)
	assert.Equal(t, seed, sub.Watermark())

	sub.SetWatermark(seed.Add(-time.Hour))
	assert.Equal(t, seed, sub.Watermark(), "older seed must not rewind the watermark")
}

func TestSubscriber_SubscribeTwiceIsNoop(t *testing.T) {
	fetch := &scriptedFetch{}
	sub := NewSubscriber(fetch.fetch, nil, 10*time.Millisecond)

	require.NoError(t, sub.Subscribe(uuid.New(), func(models.Message) {}))
	require.NoError(t, sub.Subscribe(uuid.New(), func(models.Message) {}))
	sub.Unsubscribe()
}
