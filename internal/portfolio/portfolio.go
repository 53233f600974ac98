// Package portfolio turns raw per-account balance and position payloads
// into consistent portfolio-level totals, allocations and performance
// rankings. All operations are pure over their inputs: aggregating the
// same accounts twice yields identical results.
package portfolio

import (
	"sort"
	"strings"

	"schwab-trader/internal/accounts"
	"schwab-trader/internal/models"
)

// DefaultMoneyMarketSymbols are the money-market fund symbols treated as
// cash equivalents rather than invested positions.
var DefaultMoneyMarketSymbols = []string{"SWGXX", "SWVXX", "SNOXX", "SNSXX", "SNVXX"}

// Analyzer computes portfolio views from raw account payloads. Account
// naming goes through the directory; money-market symbols fold into cash.
type Analyzer struct {
	dir         *accounts.Directory
	moneyMarket map[string]bool
}

// NewAnalyzer creates an analyzer. An empty symbol list falls back to
// DefaultMoneyMarketSymbols.
func NewAnalyzer(dir *accounts.Directory, moneyMarketSymbols []string) *Analyzer {
	if len(moneyMarketSymbols) == 0 {
		moneyMarketSymbols = DefaultMoneyMarketSymbols
	}
	mm := make(map[string]bool, len(moneyMarketSymbols))
	for _, s := range moneyMarketSymbols {
		mm[strings.ToUpper(s)] = true
	}
	return &Analyzer{dir: dir, moneyMarket: mm}
}

// IsMoneyMarket reports whether a symbol is treated as a cash equivalent.
func (a *Analyzer) IsMoneyMarket(symbol string) bool {
	return a.moneyMarket[strings.ToUpper(symbol)]
}

// BuildSummary aggregates all accounts into one portfolio summary.
// Money-market holdings are reclassified as cash; every retained
// position is tagged with the account display name and masked number.
func (a *Analyzer) BuildSummary(accs []models.RawAccount) *models.PortfolioSummary {
	summary := &models.PortfolioSummary{
		AccountCount: len(accs),
		Positions:    []models.AggregatedPosition{},
	}

	for _, acc := range accs {
		cash := acc.CashBalance

		for _, pos := range acc.Positions {
			if a.IsMoneyMarket(pos.Symbol) {
				cash += pos.MarketValue
				continue
			}
			summary.Positions = append(summary.Positions, models.AggregatedPosition{
				Symbol:            pos.Symbol,
				AssetType:         pos.AssetType,
				Quantity:          pos.Quantity,
				MarketValue:       pos.MarketValue,
				AveragePrice:      pos.AveragePrice,
				UnrealizedPL:      pos.UnrealizedPL,
				UnrealizedPLPct:   pos.UnrealizedPLPct,
				DayPL:             pos.DayPL,
				DayPLPct:          pos.DayPLPct,
				AccountName:       a.dir.DisplayName(acc.AccountNumber),
				AccountNumberLast: accounts.MaskNumber(acc.AccountNumber),
			})
		}

		summary.TotalValue += acc.LiquidationValue
		summary.TotalCash += cash
	}

	// Stable: ties keep original account/position order.
	sort.SliceStable(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].MarketValue > summary.Positions[j].MarketValue
	})

	for _, pos := range summary.Positions {
		summary.TotalUnrealizedPL += pos.UnrealizedPL
	}
	for i := range summary.Positions {
		summary.Positions[i].Percentage = percentOf(summary.Positions[i].MarketValue, summary.TotalValue)
	}

	summary.TotalInvested = summary.TotalValue - summary.TotalCash
	summary.CashPercentage = percentOf(summary.TotalCash, summary.TotalValue)
	summary.PositionCount = len(summary.Positions)

	return summary
}

// BuildPositions returns the flat position listing across all accounts,
// optionally filtered by symbol. Portfolio percentage is computed against
// total liquidation value, totalled in a first pass.
func (a *Analyzer) BuildPositions(accs []models.RawAccount, symbolFilter string) []models.PositionDetail {
	var totalPortfolioValue float64
	for _, acc := range accs {
		totalPortfolioValue += acc.LiquidationValue
	}

	filter := strings.ToUpper(strings.TrimSpace(symbolFilter))
	positions := []models.PositionDetail{}

	for _, acc := range accs {
		for _, pos := range acc.Positions {
			if filter != "" && strings.ToUpper(pos.Symbol) != filter {
				continue
			}
			positions = append(positions, models.PositionDetail{
				Symbol:       pos.Symbol,
				AccountName:  a.dir.DisplayName(acc.AccountNumber),
				Quantity:     pos.Quantity,
				MarketValue:  pos.MarketValue,
				CostBasis:    pos.AveragePrice * pos.Quantity,
				UnrealizedPL: pos.UnrealizedPL,
				DayChange:    pos.DayPL,
				Percentage:   percentOf(pos.MarketValue, totalPortfolioValue),
			})
		}
	}

	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].MarketValue > positions[j].MarketValue
	})

	return positions
}

// BuildBalances returns one balance row per account. The cash column
// includes the market value of money-market holdings.
func (a *Analyzer) BuildBalances(accs []models.RawAccount) []models.BalanceRow {
	rows := make([]models.BalanceRow, 0, len(accs))

	for _, acc := range accs {
		var moneyMarketCash float64
		for _, pos := range acc.Positions {
			if a.IsMoneyMarket(pos.Symbol) {
				moneyMarketCash += pos.MarketValue
			}
		}

		totalCash := acc.CashBalance + moneyMarketCash
		accountType := acc.Type
		if accountType == "" {
			accountType = "Unknown"
		}

		rows = append(rows, models.BalanceRow{
			AccountName:    a.dir.DisplayName(acc.AccountNumber),
			AccountType:    accountType,
			TotalValue:     acc.LiquidationValue,
			CashBalance:    totalCash,
			BuyingPower:    acc.BuyingPower,
			InvestedAmount: acc.LiquidationValue - totalCash,
		})
	}

	return rows
}

// percentOf returns value/total*100, or 0 when total is non-positive.
func percentOf(value, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return value / total * 100
}
