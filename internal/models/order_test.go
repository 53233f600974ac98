package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTradeIntentValidate(t *testing.T) {
	valid := TradeIntent{
		Action: ActionBuy, AccountAlias: "trading", Symbol: "AAPL",
		Quantity: 10, OrderType: OrderTypeMarket,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid intent rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*TradeIntent)
	}{
		{"bad action", func(i *TradeIntent) { i.Action = "HOLD" }},
		{"missing alias", func(i *TradeIntent) { i.AccountAlias = "" }},
		{"blank symbol", func(i *TradeIntent) { i.Symbol = "   " }},
		{"zero quantity", func(i *TradeIntent) { i.Quantity = 0 }},
		{"negative quantity", func(i *TradeIntent) { i.Quantity = -5 }},
		{"bad order type", func(i *TradeIntent) { i.OrderType = "STOP" }},
		{"limit without price", func(i *TradeIntent) { i.OrderType = OrderTypeLimit }},
		{"limit with negative price", func(i *TradeIntent) { i.OrderType = OrderTypeLimit; i.LimitPrice = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := valid
			tt.mutate(&intent)
			if err := intent.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDescriptor(t *testing.T) {
	market := TradeIntent{OrderType: OrderTypeMarket}
	if got := market.Descriptor(); got != "MARKET" {
		t.Errorf("Descriptor() = %q", got)
	}

	limit := TradeIntent{OrderType: OrderTypeLimit, LimitPrice: 150.25}
	if got := limit.Descriptor(); got != "LIMIT@150.25" {
		t.Errorf("Descriptor() = %q", got)
	}

	// A price like 0.1 must not pick up binary-float noise.
	tiny := TradeIntent{OrderType: OrderTypeLimit, LimitPrice: 0.1}
	if got := tiny.Descriptor(); got != "LIMIT@0.1" {
		t.Errorf("Descriptor() = %q", got)
	}
}

func TestBuildOrderPayload(t *testing.T) {
	payload := BuildOrderPayload(TradeIntent{
		Action: ActionSell, AccountAlias: "trading", Symbol: "msft",
		Quantity: 5, OrderType: OrderTypeLimit, LimitPrice: 410.5,
	})

	if payload.Session != "NORMAL" || payload.Duration != "DAY" || payload.OrderStrategyType != "SINGLE" {
		t.Errorf("payload constants: %+v", payload)
	}
	if payload.Price != "410.5" {
		t.Errorf("Price = %q", payload.Price)
	}
	leg := payload.OrderLegCollection[0]
	if leg.Instruction != "SELL" || leg.Instrument.Symbol != "MSFT" || leg.Instrument.AssetType != "EQUITY" {
		t.Errorf("leg = %+v", leg)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"price":"410.5"`) {
		t.Errorf("price must travel as a string: %s", raw)
	}

	market := BuildOrderPayload(TradeIntent{
		Action: ActionBuy, AccountAlias: "trading", Symbol: "AAPL",
		Quantity: 1, OrderType: OrderTypeMarket,
	})
	raw, _ = json.Marshal(market)
	if strings.Contains(string(raw), "price") {
		t.Errorf("market orders must omit price: %s", raw)
	}
}
