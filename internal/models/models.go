// Package models defines the core data types shared across the application.
package models

// RawAccount is one account payload as fetched from the broker, already
// decoded from the wire shape. Absent numeric fields decode to zero.
type RawAccount struct {
	AccountNumber    string        `json:"account_number"`
	Type             string        `json:"type"`
	LiquidationValue float64       `json:"liquidation_value"`
	CashBalance      float64       `json:"cash_balance"`
	BuyingPower      float64       `json:"buying_power"`
	Positions        []RawPosition `json:"positions"`
}

// RawPosition is a single holding inside a RawAccount.
type RawPosition struct {
	Symbol          string  `json:"symbol"`
	AssetType       string  `json:"asset_type"`
	Quantity        float64 `json:"quantity"`
	MarketValue     float64 `json:"market_value"`
	AveragePrice    float64 `json:"average_price"`
	UnrealizedPL    float64 `json:"unrealized_pl"`
	UnrealizedPLPct float64 `json:"unrealized_pl_pct"`
	DayPL           float64 `json:"day_pl"`
	DayPLPct        float64 `json:"day_pl_pct"`
}

// AggregatedPosition is a RawPosition enriched with account identity and
// its share of the whole portfolio. Money-market holdings never appear
// here; they are folded into cash instead.
type AggregatedPosition struct {
	Symbol            string  `json:"symbol"`
	AssetType         string  `json:"asset_type"`
	Quantity          float64 `json:"quantity"`
	MarketValue       float64 `json:"market_value"`
	AveragePrice      float64 `json:"average_price"`
	UnrealizedPL      float64 `json:"unrealized_pl"`
	UnrealizedPLPct   float64 `json:"unrealized_pl_pct"`
	DayPL             float64 `json:"day_pl"`
	DayPLPct          float64 `json:"day_pl_pct"`
	AccountName       string  `json:"account_name"`
	AccountNumberLast string  `json:"account_number_masked"`
	Percentage        float64 `json:"percentage"`
}

// PortfolioSummary is the portfolio-level aggregate across all accounts.
// TotalValue == TotalCash + TotalInvested within floating tolerance.
type PortfolioSummary struct {
	TotalValue        float64              `json:"total_value"`
	TotalCash         float64              `json:"total_cash"`
	TotalInvested     float64              `json:"total_invested"`
	TotalUnrealizedPL float64              `json:"total_unrealized_pl"`
	CashPercentage    float64              `json:"cash_percentage"`
	AccountCount      int                  `json:"account_count"`
	PositionCount     int                  `json:"position_count"`
	Positions         []AggregatedPosition `json:"positions"`
}

// PositionDetail is one row of the flat position listing, with cost basis
// and portfolio share computed against total liquidation value.
type PositionDetail struct {
	Symbol       string  `json:"symbol"`
	AccountName  string  `json:"account"`
	Quantity     float64 `json:"quantity"`
	MarketValue  float64 `json:"market_value"`
	CostBasis    float64 `json:"cost_basis"`
	UnrealizedPL float64 `json:"unrealized_pl"`
	DayChange    float64 `json:"day_change"`
	Percentage   float64 `json:"percentage_of_portfolio"`
}

// BalanceRow is one account's balance summary. CashBalance includes the
// market value of money-market holdings.
type BalanceRow struct {
	AccountName    string  `json:"account"`
	AccountType    string  `json:"account_type"`
	TotalValue     float64 `json:"total_value"`
	CashBalance    float64 `json:"cash_balance"`
	BuyingPower    float64 `json:"buying_power"`
	InvestedAmount float64 `json:"invested_amount"`
}

// AssetTypeSlice is the value and share of one asset type.
type AssetTypeSlice struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// ConcentrationRisk flags a symbol holding more than 10% of the portfolio.
type ConcentrationRisk struct {
	Symbol     string  `json:"symbol"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
	RiskLevel  string  `json:"risk_level"` // "High" above 20%, else "Medium"
}

// Holding is a per-symbol aggregate used for the top-holdings list.
type Holding struct {
	Symbol     string  `json:"symbol"`
	Percentage float64 `json:"percentage"`
	Value      float64 `json:"value"`
}

// AllocationReport describes asset-type breakdown, concentration risks
// and the HHI-derived diversification score.
type AllocationReport struct {
	DiversificationScore float64                   `json:"diversification_score"`
	ByAssetType          map[string]AssetTypeSlice `json:"by_asset_type"`
	ConcentrationRisks   []ConcentrationRisk       `json:"concentration_risks"`
	TopHoldings          []Holding                 `json:"top_holdings_pct"`
}

// PositionPerformance is a single position's day-level performance.
type PositionPerformance struct {
	Symbol       string  `json:"symbol"`
	DayPL        float64 `json:"day_pl"`
	DayPLPct     float64 `json:"day_pl_pct"`
	UnrealizedPL float64 `json:"unrealized_pl"`
	MarketValue  float64 `json:"market_value"`
}

// PerformanceReport ranks day-level winners and losers and carries the
// portfolio-wide day change.
type PerformanceReport struct {
	DailyChange       float64               `json:"daily_change"`
	DailyChangePct    float64               `json:"daily_change_pct"`
	TotalUnrealizedPL float64               `json:"total_unrealized_pl"`
	Winners           []PositionPerformance `json:"winners"`
	Losers            []PositionPerformance `json:"losers"`
}
