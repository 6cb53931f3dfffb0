package sync

import (
	"context"
	"time"
)

// Probe checks backend reachability; nil means online.
type Probe func(ctx context.Context) error

// Monitor polls a reachability probe and reports online/offline transitions.
// It starts optimistic, so the first probe failure is the first offline
// signal.
type Monitor struct {
	probe    Probe
	interval time.Duration
	onChange func(online bool)

	online bool
}

func NewMonitor(probe Probe, interval time.Duration, onChange func(online bool)) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		onChange: onChange,
		online:   true,
	}
}

// Run blocks until ctx is cancelled, probing on every tick and invoking
// onChange on each transition.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			online := m.probe(ctx) == nil
			if online != m.online {
				m.online = online
				m.onChange(online)
			}
		}
	}
}
