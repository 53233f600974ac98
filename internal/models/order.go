package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TradeAction is the side of a trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// OrderType is the pricing semantics of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TradeIntent is a fully specified trade request built from CLI input.
// It is validated before any network call is made.
type TradeIntent struct {
	Action       TradeAction `json:"action"`
	AccountAlias string      `json:"account_alias"`
	Symbol       string      `json:"symbol"`
	Quantity     int         `json:"quantity"`
	OrderType    OrderType   `json:"order_type"`
	LimitPrice   float64     `json:"limit_price,omitempty"`
}

// Validate checks the intent for structural problems.
func (t TradeIntent) Validate() error {
	if t.Action != ActionBuy && t.Action != ActionSell {
		return fmt.Errorf("invalid action %q", t.Action)
	}
	if t.AccountAlias == "" {
		return fmt.Errorf("account alias is required")
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be a positive integer, got %d", t.Quantity)
	}
	switch t.OrderType {
	case OrderTypeMarket:
	case OrderTypeLimit:
		if t.LimitPrice <= 0 {
			return fmt.Errorf("limit orders require a positive limit price")
		}
	default:
		return fmt.Errorf("invalid order type %q", t.OrderType)
	}
	return nil
}

// Descriptor returns the short order description used in audit records,
// e.g. "MARKET" or "LIMIT@123.45".
func (t TradeIntent) Descriptor() string {
	if t.OrderType == OrderTypeLimit {
		return "LIMIT@" + decimal.NewFromFloat(t.LimitPrice).String()
	}
	return string(OrderTypeMarket)
}

// OrderPreview is a side-effect-free projection of a TradeIntent with the
// resolved account identity. It is always computable, live trading or not.
type OrderPreview struct {
	DryRun            bool         `json:"dry_run"`
	Action            TradeAction  `json:"action"`
	OrderType         OrderType    `json:"order_type"`
	Symbol            string       `json:"symbol"`
	Quantity          int          `json:"quantity"`
	LimitPrice        float64      `json:"limit_price,omitempty"`
	AccountName       string       `json:"account"`
	AccountNumberLast string       `json:"account_number_masked"`
	Order             OrderPayload `json:"order"`
}

// AccountLabel renders the preview's account as "Label (...1234)".
func (p OrderPreview) AccountLabel() string {
	return fmt.Sprintf("%s (%s)", p.AccountName, p.AccountNumberLast)
}

// OrderResult is the terminal outcome of an order submission, possibly
// corrected by the post-submission status check.
type OrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OrderInstrument identifies the traded instrument on the wire.
type OrderInstrument struct {
	Symbol    string `json:"symbol"`
	AssetType string `json:"assetType"`
}

// OrderLeg is a single leg of an order payload.
type OrderLeg struct {
	Instruction string          `json:"instruction"`
	Quantity    int             `json:"quantity"`
	Instrument  OrderInstrument `json:"instrument"`
}

// OrderPayload is the broker wire shape for an equity order. The limit
// price travels as an exact decimal string, never a binary float.
type OrderPayload struct {
	OrderType          OrderType  `json:"orderType"`
	Session            string     `json:"session"`
	Duration           string     `json:"duration"`
	OrderStrategyType  string     `json:"orderStrategyType"`
	Price              string     `json:"price,omitempty"`
	OrderLegCollection []OrderLeg `json:"orderLegCollection"`
}

// BuildOrderPayload converts a validated intent into the wire payload.
func BuildOrderPayload(intent TradeIntent) OrderPayload {
	payload := OrderPayload{
		OrderType:         intent.OrderType,
		Session:           "NORMAL",
		Duration:          "DAY",
		OrderStrategyType: "SINGLE",
		OrderLegCollection: []OrderLeg{{
			Instruction: string(intent.Action),
			Quantity:    intent.Quantity,
			Instrument: OrderInstrument{
				Symbol:    strings.ToUpper(intent.Symbol),
				AssetType: "EQUITY",
			},
		}},
	}
	if intent.OrderType == OrderTypeLimit {
		payload.Price = decimal.NewFromFloat(intent.LimitPrice).String()
	}
	return payload
}
