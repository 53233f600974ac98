package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "schwab-trader/internal/errors"
	"schwab-trader/internal/models"
	"schwab-trader/internal/security"
)

// DefaultBaseURL is the production Schwab trader API endpoint.
const DefaultBaseURL = "https://api.schwabapi.com"

const requestTimeout = 30 * time.Second

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource holding a fixed access token.
type StaticToken string

// Token returns the token, or ErrNotAuthenticated when empty.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", apperrors.ErrNotAuthenticated
	}
	return string(t), nil
}

// SchwabClient talks to the Schwab trader API over HTTPS. Account hashes
// are resolved lazily and memoized for the lifetime of the client.
type SchwabClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  zerolog.Logger

	mu     sync.Mutex
	hashes map[string]string
}

// NewSchwabClient creates a client against baseURL. An empty baseURL
// selects the production endpoint.
func NewSchwabClient(baseURL string, tokens TokenSource, logger zerolog.Logger) *SchwabClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &SchwabClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		tokens:  tokens,
		logger:  logger.With().Str("component", "broker").Logger(),
	}
}

// Wire shapes. Only the fields the CLI consumes are declared.

type wireInstrument struct {
	Symbol    string `json:"symbol"`
	AssetType string `json:"assetType"`
}

type wirePosition struct {
	Instrument              wireInstrument `json:"instrument"`
	LongQuantity            float64        `json:"longQuantity"`
	ShortQuantity           float64        `json:"shortQuantity"`
	MarketValue             float64        `json:"marketValue"`
	AveragePrice            float64        `json:"averagePrice"`
	LongOpenProfitLoss      float64        `json:"longOpenProfitLoss"`
	CurrentDayProfitLoss    float64        `json:"currentDayProfitLoss"`
	CurrentDayProfitLossPct float64        `json:"currentDayProfitLossPercentage"`
}

type wireBalances struct {
	LiquidationValue float64 `json:"liquidationValue"`
	CashBalance      float64 `json:"cashBalance"`
	BuyingPower      float64 `json:"buyingPower"`
}

type wireSecuritiesAccount struct {
	AccountNumber   string         `json:"accountNumber"`
	Type            string         `json:"type"`
	CurrentBalances wireBalances   `json:"currentBalances"`
	Positions       []wirePosition `json:"positions"`
}

type wireAccount struct {
	SecuritiesAccount wireSecuritiesAccount `json:"securitiesAccount"`
}

type wireAccountNumber struct {
	AccountNumber string `json:"accountNumber"`
	HashValue     string `json:"hashValue"`
}

type wireOrderStatus struct {
	OrderID           int64  `json:"orderId"`
	Status            string `json:"status"`
	StatusDescription string `json:"statusDescription"`
}

type wireOrder struct {
	OrderID            int64             `json:"orderId"`
	OrderType          string            `json:"orderType"`
	Status             string            `json:"status"`
	Price              float64           `json:"price"`
	EnteredTime        time.Time         `json:"enteredTime"`
	OrderLegCollection []wireOrderLegOut `json:"orderLegCollection"`
}

type wireOrderLegOut struct {
	Instruction string         `json:"instruction"`
	Quantity    float64        `json:"quantity"`
	Instrument  wireInstrument `json:"instrument"`
}

// FetchAllAccounts returns every visible account with positions included.
func (c *SchwabClient) FetchAllAccounts(ctx context.Context) ([]models.RawAccount, error) {
	var wire []wireAccount
	if err := c.get(ctx, "/trader/v1/accounts?fields=positions", &wire); err != nil {
		return nil, err
	}

	accs := make([]models.RawAccount, 0, len(wire))
	for _, w := range wire {
		sa := w.SecuritiesAccount
		acc := models.RawAccount{
			AccountNumber:    sa.AccountNumber,
			Type:             sa.Type,
			LiquidationValue: sa.CurrentBalances.LiquidationValue,
			CashBalance:      sa.CurrentBalances.CashBalance,
			BuyingPower:      sa.CurrentBalances.BuyingPower,
			Positions:        make([]models.RawPosition, 0, len(sa.Positions)),
		}
		for _, p := range sa.Positions {
			acc.Positions = append(acc.Positions, toRawPosition(p))
		}
		accs = append(accs, acc)
	}

	c.logger.Debug().Int("accounts", len(accs)).Msg("fetched accounts")
	return accs, nil
}

func toRawPosition(p wirePosition) models.RawPosition {
	qty := p.LongQuantity - p.ShortQuantity

	var plPct float64
	if cost := p.AveragePrice * qty; cost > 0 {
		plPct = p.LongOpenProfitLoss / cost * 100
	}

	return models.RawPosition{
		Symbol:          p.Instrument.Symbol,
		AssetType:       p.Instrument.AssetType,
		Quantity:        qty,
		MarketValue:     p.MarketValue,
		AveragePrice:    p.AveragePrice,
		UnrealizedPL:    p.LongOpenProfitLoss,
		UnrealizedPLPct: plPct,
		DayPL:           p.CurrentDayProfitLoss,
		DayPLPct:        p.CurrentDayProfitLossPct,
	}
}

// AccountHash resolves an account number to its trading hash, fetching
// the number-to-hash table on first use.
func (c *SchwabClient) AccountHash(ctx context.Context, accountNumber string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hashes == nil {
		var wire []wireAccountNumber
		if err := c.get(ctx, "/trader/v1/accounts/accountNumbers", &wire); err != nil {
			return "", err
		}
		c.hashes = make(map[string]string, len(wire))
		for _, w := range wire {
			c.hashes[w.AccountNumber] = w.HashValue
		}
	}

	hash, ok := c.hashes[accountNumber]
	if !ok {
		return "", apperrors.Wrapf(apperrors.ErrAccountNotFound,
			"account %s not visible to this credential", security.MaskSensitive(accountNumber))
	}
	return hash, nil
}

// SubmitOrder posts the order payload. A 201 response carries the order
// ID in the Location header; its absence is not an error.
func (c *SchwabClient) SubmitOrder(ctx context.Context, accountNumber string, payload models.OrderPayload) (string, error) {
	hash, err := c.AccountHash(ctx, accountNumber)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Wrap(err, "encoding order")
	}

	resp, err := c.do(ctx, http.MethodPost, "/trader/v1/accounts/"+url.PathEscape(hash)+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", brokerErrorFrom(resp)
	}

	orderID := orderIDFromLocation(resp.Header.Get("Location"))
	c.logger.Info().Str("order_id", orderID).Int("status", resp.StatusCode).Msg("order submitted")
	return orderID, nil
}

// orderIDFromLocation extracts the trailing path segment of the Location
// header, e.g. ".../orders/456789" yields "456789".
func orderIDFromLocation(location string) string {
	if location == "" {
		return ""
	}
	location = strings.TrimRight(location, "/")
	if i := strings.LastIndex(location, "/"); i >= 0 {
		return location[i+1:]
	}
	return location
}

// GetOrderStatus fetches the current state of one order.
func (c *SchwabClient) GetOrderStatus(ctx context.Context, accountNumber, orderID string) (OrderStatus, error) {
	hash, err := c.AccountHash(ctx, accountNumber)
	if err != nil {
		return OrderStatus{}, err
	}

	var wire wireOrderStatus
	path := "/trader/v1/accounts/" + url.PathEscape(hash) + "/orders/" + url.PathEscape(orderID)
	if err := c.get(ctx, path, &wire); err != nil {
		return OrderStatus{}, err
	}

	return OrderStatus{
		OrderID:     fmt.Sprintf("%d", wire.OrderID),
		Status:      wire.Status,
		Description: wire.StatusDescription,
	}, nil
}

// GetOpenOrders lists orders entered since the given time.
func (c *SchwabClient) GetOpenOrders(ctx context.Context, accountNumber string, since time.Time) ([]OrderSummary, error) {
	hash, err := c.AccountHash(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("fromEnteredTime", since.UTC().Format(time.RFC3339))
	q.Set("toEnteredTime", time.Now().UTC().Format(time.RFC3339))

	var wire []wireOrder
	path := "/trader/v1/accounts/" + url.PathEscape(hash) + "/orders?" + q.Encode()
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, err
	}

	orders := make([]OrderSummary, 0, len(wire))
	for _, w := range wire {
		o := OrderSummary{
			OrderID:     fmt.Sprintf("%d", w.OrderID),
			OrderType:   w.OrderType,
			Price:       w.Price,
			Status:      w.Status,
			EnteredTime: w.EnteredTime,
		}
		if len(w.OrderLegCollection) > 0 {
			leg := w.OrderLegCollection[0]
			o.Symbol = leg.Instrument.Symbol
			o.Action = leg.Instruction
			o.Quantity = leg.Quantity
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *SchwabClient) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return brokerErrorFrom(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, "decoding broker response")
	}
	return nil
}

func (c *SchwabClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", security.MaskSensitive(path)).Msg("broker request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "broker request failed")
	}
	return resp, nil
}

// brokerErrorFrom builds a BrokerError carrying the raw response body.
// 401 responses additionally chain ErrNotAuthenticated.
func brokerErrorFrom(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}

	berr := apperrors.NewBrokerError(resp.StatusCode, msg)
	if resp.StatusCode == http.StatusUnauthorized {
		berr.Err = apperrors.ErrNotAuthenticated
	}
	return berr
}
