package portfolio

import (
	"math"
	"sort"

	"schwab-trader/internal/models"
)

const (
	concentrationFlagPct = 10 // above this, a symbol is a concentration risk
	concentrationHighPct = 20 // above this, the risk level is High
	topHoldingsLimit     = 15
)

// AnalyzeAllocation computes asset-type breakdown, concentration-risk
// flags and the diversification score. Unlike the summary, it operates
// over all positions including money-market funds, so true concentration
// is exposed.
func (a *Analyzer) AnalyzeAllocation(accs []models.RawAccount) *models.AllocationReport {
	var totalValue float64
	symbolValues := make(map[string]float64)
	typeValues := make(map[string]float64)

	for _, acc := range accs {
		for _, pos := range acc.Positions {
			symbol := pos.Symbol
			if symbol == "" {
				symbol = "Unknown"
			}
			assetType := pos.AssetType
			if assetType == "" {
				assetType = "Unknown"
			}

			totalValue += pos.MarketValue
			symbolValues[symbol] += pos.MarketValue
			typeValues[assetType] += pos.MarketValue
		}
	}

	byAssetType := make(map[string]models.AssetTypeSlice, len(typeValues))
	for assetType, value := range typeValues {
		byAssetType[assetType] = models.AssetTypeSlice{
			Value:      value,
			Percentage: percentOf(value, totalValue),
		}
	}

	risks := []models.ConcentrationRisk{}
	holdings := []models.Holding{}

	for symbol, value := range symbolValues {
		pct := percentOf(value, totalValue)

		holdings = append(holdings, models.Holding{
			Symbol:     symbol,
			Percentage: round2(pct),
			Value:      value,
		})

		if pct > concentrationFlagPct {
			level := "Medium"
			if pct > concentrationHighPct {
				level = "High"
			}
			risks = append(risks, models.ConcentrationRisk{
				Symbol:     symbol,
				Percentage: round2(pct),
				Value:      value,
				RiskLevel:  level,
			})
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].Percentage > holdings[j].Percentage
	})
	if len(holdings) > topHoldingsLimit {
		holdings = holdings[:topHoldingsLimit]
	}
	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Percentage > risks[j].Percentage
	})

	var hhi float64
	if totalValue > 0 {
		for _, value := range symbolValues {
			share := value / totalValue
			hhi += share * share
		}
	}

	return &models.AllocationReport{
		DiversificationScore: round2((1 - hhi) * 100),
		ByAssetType:          byAssetType,
		ConcentrationRisks:   risks,
		TopHoldings:          holdings,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
