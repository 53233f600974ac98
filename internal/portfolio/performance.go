package portfolio

import (
	"sort"

	"schwab-trader/internal/models"
)

const rankLimit = 5

// BuildPerformance computes day-level performance. Money-market and
// unknown-symbol positions are excluded from the winners/losers ranking
// but still contribute their day P&L to the portfolio total.
func (a *Analyzer) BuildPerformance(accs []models.RawAccount) *models.PerformanceReport {
	var totalDayPL, totalUnrealizedPL, totalValue float64
	ranked := []models.PositionPerformance{}

	for _, acc := range accs {
		totalValue += acc.LiquidationValue

		for _, pos := range acc.Positions {
			totalDayPL += pos.DayPL
			totalUnrealizedPL += pos.UnrealizedPL

			if pos.Symbol == "" || pos.Symbol == "Unknown" || a.IsMoneyMarket(pos.Symbol) {
				continue
			}
			ranked = append(ranked, models.PositionPerformance{
				Symbol:       pos.Symbol,
				DayPL:        pos.DayPL,
				DayPLPct:     pos.DayPLPct,
				UnrealizedPL: pos.UnrealizedPL,
				MarketValue:  pos.MarketValue,
			})
		}
	}

	winners := []models.PositionPerformance{}
	losers := []models.PositionPerformance{}
	for _, p := range ranked {
		switch {
		case p.DayPL > 0:
			winners = append(winners, p)
		case p.DayPL < 0:
			losers = append(losers, p)
		}
	}

	sort.SliceStable(winners, func(i, j int) bool { return winners[i].DayPL > winners[j].DayPL })
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].DayPL < losers[j].DayPL })
	if len(winners) > rankLimit {
		winners = winners[:rankLimit]
	}
	if len(losers) > rankLimit {
		losers = losers[:rankLimit]
	}

	yesterdayValue := totalValue - totalDayPL
	var dailyChangePct float64
	if yesterdayValue > 0 {
		dailyChangePct = totalDayPL / yesterdayValue * 100
	}

	return &models.PerformanceReport{
		DailyChange:       totalDayPL,
		DailyChangePct:    dailyChangePct,
		TotalUnrealizedPL: totalUnrealizedPL,
		Winners:           winners,
		Losers:            losers,
	}
}
