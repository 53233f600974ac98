// Package store provides local persistence for trade-attempt history.
package store

import (
	"time"

	"schwab-trader/internal/trading"
)

// AttemptRow is one persisted trade attempt.
type AttemptRow struct {
	ID              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	Symbol          string    `json:"symbol"`
	Quantity        int       `json:"quantity"`
	OrderDescriptor string    `json:"order"`
	AccountAlias    string    `json:"account"`
	Status          string    `json:"status"`
	OrderID         string    `json:"order_id,omitempty"`
}

// HistoryStore persists and queries trade attempts.
type HistoryStore interface {
	trading.AttemptRecorder

	// ListRecent returns the newest attempts, most recent first.
	ListRecent(limit int) ([]AttemptRow, error)

	Close() error
}
