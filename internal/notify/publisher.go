// Package notify publishes sync-completed events to interested consumers.
package notify

import (
	"context"
	"time"
)

// SyncCompleted describes one finished orchestration run.
type SyncCompleted struct {
	SyncKey      string    `json:"sync_key"`
	TotalRevenue float64   `json:"total_revenue"`
	DealCount    int       `json:"deal_count"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Publisher delivers sync-completed events.
type Publisher interface {
	// Publish delivers one event and returns a provider message ID.
	Publish(ctx context.Context, event SyncCompleted) (string, error)

	// Close releases provider resources.
	Close() error
}

// NoOp drops events.
type NoOp struct{}

// Publish discards the event.
func (NoOp) Publish(_ context.Context, _ SyncCompleted) (string, error) {
	return "", nil
}

// Close is a no-op.
func (NoOp) Close() error {
	return nil
}
