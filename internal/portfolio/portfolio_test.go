package portfolio

import (
	"math"
	"testing"

	"schwab-trader/internal/accounts"
	"schwab-trader/internal/models"
)

func testAccounts() []models.RawAccount {
	return []models.RawAccount{
		{
			AccountNumber:    "12345678",
			Type:             "MARGIN",
			LiquidationValue: 10000,
			CashBalance:      1000,
			BuyingPower:      2000,
			Positions: []models.RawPosition{
				{Symbol: "AAPL", AssetType: "EQUITY", Quantity: 10, MarketValue: 5000, AveragePrice: 400, UnrealizedPL: 1000, DayPL: 50},
				{Symbol: "SWVXX", AssetType: "COLLECTIVE_INVESTMENT", Quantity: 2500, MarketValue: 2500},
			},
		},
		{
			AccountNumber:    "87654321",
			Type:             "CASH",
			LiquidationValue: 5000,
			CashBalance:      0,
			BuyingPower:      0,
			Positions: []models.RawPosition{
				{Symbol: "MSFT", AssetType: "EQUITY", Quantity: 5, MarketValue: 4000, AveragePrice: 900, UnrealizedPL: -500, DayPL: -25},
			},
		},
	}
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	dir, err := accounts.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return NewAnalyzer(dir, nil)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildSummary(t *testing.T) {
	a := newTestAnalyzer(t)
	summary := a.BuildSummary(testAccounts())

	if summary.AccountCount != 2 {
		t.Errorf("AccountCount = %d, want 2", summary.AccountCount)
	}
	if !almostEqual(summary.TotalValue, 15000) {
		t.Errorf("TotalValue = %v, want 15000", summary.TotalValue)
	}
	// 1000 cash + 2500 money market folded in
	if !almostEqual(summary.TotalCash, 3500) {
		t.Errorf("TotalCash = %v, want 3500", summary.TotalCash)
	}
	if !almostEqual(summary.TotalInvested, 11500) {
		t.Errorf("TotalInvested = %v, want 11500", summary.TotalInvested)
	}
	if summary.PositionCount != 2 {
		t.Errorf("PositionCount = %d, want 2 (money market excluded)", summary.PositionCount)
	}
	if !almostEqual(summary.TotalUnrealizedPL, 500) {
		t.Errorf("TotalUnrealizedPL = %v, want 500", summary.TotalUnrealizedPL)
	}

	// Sorted by market value descending
	if summary.Positions[0].Symbol != "AAPL" || summary.Positions[1].Symbol != "MSFT" {
		t.Errorf("positions not sorted by value: %v, %v", summary.Positions[0].Symbol, summary.Positions[1].Symbol)
	}
	if !almostEqual(summary.Positions[0].Percentage, 5000.0/15000*100) {
		t.Errorf("AAPL percentage = %v", summary.Positions[0].Percentage)
	}

	// Unconfigured accounts fall back to a masked generic name
	if summary.Positions[0].AccountName != "Account (...5678)" {
		t.Errorf("AccountName = %q", summary.Positions[0].AccountName)
	}
	if summary.Positions[0].AccountNumberLast != "****5678" {
		t.Errorf("AccountNumberLast = %q", summary.Positions[0].AccountNumberLast)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	a := newTestAnalyzer(t)
	summary := a.BuildSummary(nil)

	if summary.AccountCount != 0 || summary.PositionCount != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	if summary.CashPercentage != 0 {
		t.Errorf("CashPercentage = %v, want 0 on zero total", summary.CashPercentage)
	}
	if summary.Positions == nil {
		t.Error("Positions should be an empty slice, not nil")
	}
}

func TestBuildPositionsFilter(t *testing.T) {
	a := newTestAnalyzer(t)

	all := a.BuildPositions(testAccounts(), "")
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3 (filter listing keeps money market)", len(all))
	}
	if all[0].Symbol != "AAPL" {
		t.Errorf("largest position first, got %s", all[0].Symbol)
	}
	if !almostEqual(all[0].CostBasis, 4000) {
		t.Errorf("CostBasis = %v, want 4000", all[0].CostBasis)
	}
	if !almostEqual(all[0].Percentage, 5000.0/15000*100) {
		t.Errorf("Percentage = %v", all[0].Percentage)
	}

	filtered := a.BuildPositions(testAccounts(), "msft")
	if len(filtered) != 1 || filtered[0].Symbol != "MSFT" {
		t.Errorf("filter mismatch: %+v", filtered)
	}

	none := a.BuildPositions(testAccounts(), "TSLA")
	if len(none) != 0 {
		t.Errorf("expected no TSLA positions, got %d", len(none))
	}
}

func TestBuildBalances(t *testing.T) {
	a := newTestAnalyzer(t)
	rows := a.BuildBalances(testAccounts())

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if !almostEqual(rows[0].CashBalance, 3500) {
		t.Errorf("CashBalance = %v, want 3500 (money market included)", rows[0].CashBalance)
	}
	if !almostEqual(rows[0].InvestedAmount, 6500) {
		t.Errorf("InvestedAmount = %v, want 6500", rows[0].InvestedAmount)
	}
	if rows[1].AccountType != "CASH" {
		t.Errorf("AccountType = %q", rows[1].AccountType)
	}
}

func TestBuildBalancesUnknownType(t *testing.T) {
	a := newTestAnalyzer(t)
	rows := a.BuildBalances([]models.RawAccount{{AccountNumber: "11112222", LiquidationValue: 100}})

	if rows[0].AccountType != "Unknown" {
		t.Errorf("AccountType = %q, want Unknown", rows[0].AccountType)
	}
}

func TestIsMoneyMarket(t *testing.T) {
	a := newTestAnalyzer(t)

	for _, symbol := range DefaultMoneyMarketSymbols {
		if !a.IsMoneyMarket(symbol) {
			t.Errorf("IsMoneyMarket(%s) = false", symbol)
		}
	}
	if !a.IsMoneyMarket("swvxx") {
		t.Error("money market check should be case insensitive")
	}
	if a.IsMoneyMarket("AAPL") {
		t.Error("AAPL is not a money market fund")
	}
}

func TestCustomMoneyMarketSymbols(t *testing.T) {
	dir, _ := accounts.Load("")
	a := NewAnalyzer(dir, []string{"xyzxx"})

	if !a.IsMoneyMarket("XYZXX") {
		t.Error("custom symbol not recognized")
	}
	if a.IsMoneyMarket("SWVXX") {
		t.Error("defaults should be replaced by the custom list")
	}
}
