package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "schwab-trader/internal/errors"
	"schwab-trader/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*SchwabClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSchwabClient(srv.URL, StaticToken("test-token"), zerolog.Nop()), srv
}

func TestFetchAllAccounts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/trader/v1/accounts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("fields") != "positions" {
			t.Errorf("fields = %q", r.URL.Query().Get("fields"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"securitiesAccount": {
				"accountNumber": "12345678",
				"type": "MARGIN",
				"currentBalances": {"liquidationValue": 10000, "cashBalance": 1500, "buyingPower": 3000},
				"positions": [{
					"instrument": {"symbol": "AAPL", "assetType": "EQUITY"},
					"longQuantity": 10,
					"shortQuantity": 0,
					"marketValue": 5000,
					"averagePrice": 400,
					"longOpenProfitLoss": 1000,
					"currentDayProfitLoss": 50,
					"currentDayProfitLossPercentage": 1.01
				}]
			}
		}]`))
	}))

	accs, err := client.FetchAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("FetchAllAccounts: %v", err)
	}
	if len(accs) != 1 {
		t.Fatalf("len(accs) = %d", len(accs))
	}

	acc := accs[0]
	if acc.AccountNumber != "12345678" || acc.LiquidationValue != 10000 {
		t.Errorf("account = %+v", acc)
	}
	pos := acc.Positions[0]
	if pos.Symbol != "AAPL" || pos.Quantity != 10 || pos.UnrealizedPL != 1000 {
		t.Errorf("position = %+v", pos)
	}
	// 1000 / (400*10) * 100
	if pos.UnrealizedPLPct != 25 {
		t.Errorf("UnrealizedPLPct = %v, want 25", pos.UnrealizedPLPct)
	}
}

func TestAccountHashMemoized(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[{"accountNumber": "12345678", "hashValue": "ABCDEF"}]`))
	}))

	for i := 0; i < 3; i++ {
		hash, err := client.AccountHash(context.Background(), "12345678")
		if err != nil {
			t.Fatalf("AccountHash: %v", err)
		}
		if hash != "ABCDEF" {
			t.Errorf("hash = %q", hash)
		}
	}
	if calls != 1 {
		t.Errorf("hash endpoint called %d times, want 1", calls)
	}

	_, err := client.AccountHash(context.Background(), "99999999")
	if !apperrors.Is(err, apperrors.ErrAccountNotFound) {
		t.Errorf("unknown account error = %v", err)
	}
}

func TestSubmitOrder(t *testing.T) {
	var received models.OrderPayload
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trader/v1/accounts/accountNumbers":
			w.Write([]byte(`[{"accountNumber": "12345678", "hashValue": "ABCDEF"}]`))
		case "/trader/v1/accounts/ABCDEF/orders":
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			w.Header().Set("Location", "https://api.example.com/trader/v1/accounts/ABCDEF/orders/456789")
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	payload := models.BuildOrderPayload(models.TradeIntent{
		Action:       models.ActionBuy,
		AccountAlias: "trading",
		Symbol:       "aapl",
		Quantity:     10,
		OrderType:    models.OrderTypeLimit,
		LimitPrice:   150.25,
	})

	orderID, err := client.SubmitOrder(context.Background(), "12345678", payload)
	if err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	if orderID != "456789" {
		t.Errorf("orderID = %q, want 456789", orderID)
	}

	if received.Session != "NORMAL" || received.Duration != "DAY" || received.OrderStrategyType != "SINGLE" {
		t.Errorf("payload constants: %+v", received)
	}
	if received.Price != "150.25" {
		t.Errorf("Price = %q, want exact decimal string", received.Price)
	}
	leg := received.OrderLegCollection[0]
	if leg.Instruction != "BUY" || leg.Quantity != 10 || leg.Instrument.Symbol != "AAPL" || leg.Instrument.AssetType != "EQUITY" {
		t.Errorf("leg = %+v", leg)
	}
}

func TestSubmitOrderBrokerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/trader/v1/accounts/accountNumbers" {
			w.Write([]byte(`[{"accountNumber": "12345678", "hashValue": "ABCDEF"}]`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "quantity exceeds limit"}`))
	}))

	_, err := client.SubmitOrder(context.Background(), "12345678", models.OrderPayload{})
	if err == nil {
		t.Fatal("expected error")
	}

	var berr *apperrors.BrokerError
	if !apperrors.As(err, &berr) {
		t.Fatalf("error type: %T", err)
	}
	if berr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", berr.StatusCode)
	}
	if berr.Message != `{"message": "quantity exceeds limit"}` {
		t.Errorf("raw body lost: %q", berr.Message)
	}
}

func TestUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.FetchAllAccounts(context.Background())
	if !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Errorf("401 should chain ErrNotAuthenticated, got %v", err)
	}
}

func TestEmptyTokenFailsBeforeNetwork(t *testing.T) {
	client := NewSchwabClient("http://127.0.0.1:1", StaticToken(""), zerolog.Nop())

	_, err := client.FetchAllAccounts(context.Background())
	if !apperrors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Errorf("err = %v", err)
	}
}

func TestGetOrderStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trader/v1/accounts/accountNumbers":
			w.Write([]byte(`[{"accountNumber": "12345678", "hashValue": "ABCDEF"}]`))
		case "/trader/v1/accounts/ABCDEF/orders/456789":
			w.Write([]byte(`{"orderId": 456789, "status": "REJECTED", "statusDescription": "insufficient buying power"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	status, err := client.GetOrderStatus(context.Background(), "12345678", "456789")
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if !status.Rejected() {
		t.Error("Rejected() = false")
	}
	if status.Description != "insufficient buying power" {
		t.Errorf("Description = %q", status.Description)
	}
}

func TestGetOpenOrders(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trader/v1/accounts/accountNumbers":
			w.Write([]byte(`[{"accountNumber": "12345678", "hashValue": "ABCDEF"}]`))
		case "/trader/v1/accounts/ABCDEF/orders":
			if r.URL.Query().Get("fromEnteredTime") == "" {
				t.Error("fromEnteredTime missing")
			}
			w.Write([]byte(`[{
				"orderId": 1,
				"orderType": "LIMIT",
				"status": "WORKING",
				"price": 150.25,
				"enteredTime": "2026-08-20T14:00:00Z",
				"orderLegCollection": [{
					"instruction": "BUY",
					"quantity": 10,
					"instrument": {"symbol": "AAPL", "assetType": "EQUITY"}
				}]
			}]`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	orders, err := client.GetOpenOrders(context.Background(), "12345678", time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("GetOpenOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d", len(orders))
	}
	o := orders[0]
	if o.OrderID != "1" || o.Symbol != "AAPL" || o.Action != "BUY" || o.Quantity != 10 {
		t.Errorf("order = %+v", o)
	}
}

func TestOrderIDFromLocation(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"https://api.example.com/trader/v1/accounts/H/orders/456789", "456789"},
		{"https://api.example.com/trader/v1/accounts/H/orders/456789/", "456789"},
		{"", ""},
		{"456789", "456789"},
	}
	for _, tt := range tests {
		if got := orderIDFromLocation(tt.location); got != tt.want {
			t.Errorf("orderIDFromLocation(%q) = %q, want %q", tt.location, got, tt.want)
		}
	}
}
