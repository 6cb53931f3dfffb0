package sync

import "errors"

var (
	// ErrEmptyContent rejects blank sends before they reach the gateway.
	// Validation failures are permanent: they are surfaced immediately and
	// never queued.
	ErrEmptyContent = errors.New("message content is empty")
)
