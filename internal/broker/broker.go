// Package broker defines the brokerage interface and its Schwab HTTP
// implementation. Everything above this package works in terms of the
// Broker interface so the trading paths stay testable without a live
// connection.
package broker

import (
	"context"
	"time"

	"schwab-trader/internal/models"
)

// OrderStatus is the broker-side state of a submitted order.
type OrderStatus struct {
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// Rejected reports whether the broker refused the order after accepting
// the submission.
func (s OrderStatus) Rejected() bool { return s.Status == "REJECTED" }

// OrderSummary is one row of the open-order listing.
type OrderSummary struct {
	OrderID     string    `json:"order_id"`
	Symbol      string    `json:"symbol"`
	Action      string    `json:"action"`
	Quantity    float64   `json:"quantity"`
	OrderType   string    `json:"order_type"`
	Price       float64   `json:"price,omitempty"`
	Status      string    `json:"status"`
	EnteredTime time.Time `json:"entered_time"`
}

// Broker is the brokerage operations the CLI needs. Implementations must
// be safe for use from a single command invocation; they are not required
// to be goroutine safe.
type Broker interface {
	// FetchAllAccounts returns balances and positions for every account
	// the credential can see.
	FetchAllAccounts(ctx context.Context) ([]models.RawAccount, error)

	// AccountHash resolves a plain account number to the opaque hash the
	// trading endpoints require.
	AccountHash(ctx context.Context, accountNumber string) (string, error)

	// SubmitOrder places an order and returns the broker-assigned order ID
	// when one is communicated.
	SubmitOrder(ctx context.Context, accountNumber string, payload models.OrderPayload) (string, error)

	// GetOrderStatus fetches the current state of a submitted order.
	GetOrderStatus(ctx context.Context, accountNumber, orderID string) (OrderStatus, error)

	// GetOpenOrders lists working orders entered since the given time.
	GetOpenOrders(ctx context.Context, accountNumber string, since time.Time) ([]OrderSummary, error)
}
