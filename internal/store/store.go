// Package store persists the collaborator-side audit trail: an order
// journal of broker-acknowledged submissions and a log of fetched quotes.
// The gateway core itself stays stateless; these stores are written by the
// HTTP layer after successful calls.
package store

import (
	"context"

	"pytrader/internal/domain"
)

// OrderJournal records broker-acknowledged order results.
type OrderJournal interface {
	// RecordOrder appends one acknowledged order to the journal.
	RecordOrder(ctx context.Context, res domain.OrderResult) error

	// ListOrders returns up to limit journal entries, most recent first.
	ListOrders(ctx context.Context, limit int) ([]domain.OrderResult, error)

	// Close releases the underlying database handle.
	Close() error
}

// QuoteLog appends fetched quotes to durable per-day storage.
type QuoteLog interface {
	// AppendQuotes writes the given quotes to the current day's log,
	// deduplicating by (symbol, timestamp).
	AppendQuotes(ctx context.Context, quotes map[string]domain.Quote) error

	// ReadQuotes returns all logged quotes for a date (YYYY-MM-DD),
	// sorted by timestamp.
	ReadQuotes(ctx context.Context, date string) ([]domain.Quote, error)
}
