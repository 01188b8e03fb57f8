// Package outbox implements transactional event delivery. Producers stage
// rows inside their own database transaction; the dispatcher drains pending
// rows after commit and the worker sweeps anything left behind, giving
// at-least-once delivery to in-process handlers.
package outbox

import (
	"time"
)

// Message is one staged event row.
type Message struct {
	ID        int64
	Topic     string
	Payload   []byte
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// Status values for outbox rows.
const (
	StatusPending    = "PENDING"
	StatusDispatched = "DISPATCHED"
)
