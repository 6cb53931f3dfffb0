package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_ReportsTransitionsOnly(t *testing.T) {
	var mu gosync.Mutex
	probeErr := error(nil)
	var transitions []bool

	monitor := NewMonitor(
		func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			return probeErr
		},
		10*time.Millisecond,
		func(online bool) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, online)
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	// Healthy probes produce no callbacks: the monitor starts optimistic.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, transitions)
	mu.Unlock()

	mu.Lock()
	probeErr = errors.New("connection refused")
	mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 1 && transitions[0] == false
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	probeErr = nil
	mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 2 && transitions[1] == true
	}, time.Second, 5*time.Millisecond)

	// Staying online adds nothing.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Len(t, transitions, 2)
	mu.Unlock()
}
