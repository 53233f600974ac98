package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"schwab-trader/internal/models"
)

func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newBalancesCmd(app))
	rootCmd.AddCommand(newAllocationCmd(app))
	rootCmd.AddCommand(newPerformanceCmd(app))
	rootCmd.AddCommand(newAccountsCmd(app))
}

// fail reports a command error. JSON mode gets the error envelope on
// stdout; the error still propagates for the exit code.
func (a *App) fail(output *Output, err error) error {
	if output.IsJSON() {
		output.EmitError(err)
	}
	return err
}

func (a *App) fetchAccounts(cmd *cobra.Command) ([]models.RawAccount, error) {
	return a.Broker.FetchAllAccounts(cmd.Context())
}

func newPortfolioCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Aggregated portfolio summary across all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			accs, err := app.fetchAccounts(cmd)
			if err != nil {
				return app.fail(output, err)
			}
			summary := app.Analyzer.BuildSummary(accs)

			if output.IsJSON() {
				return output.Emit(summary)
			}

			output.Bold("Portfolio Summary")
			output.Print("  Total value:     %s\n", FormatUSD(summary.TotalValue))
			output.Print("  Invested:        %s\n", FormatUSD(summary.TotalInvested))
			output.Print("  Cash:            %s (%.1f%%)\n", FormatUSD(summary.TotalCash), summary.CashPercentage)
			output.Print("  Unrealized P&L:  %s\n", output.FormatPnL(summary.TotalUnrealizedPL))
			output.Print("  Accounts:        %d   Positions: %d\n", summary.AccountCount, summary.PositionCount)
			output.Println()

			table := NewTable(output, "SYMBOL", "QTY", "VALUE", "P&L", "DAY", "%", "ACCOUNT")
			for _, pos := range summary.Positions {
				table.AddRow(
					pos.Symbol,
					fmt.Sprintf("%.2f", pos.Quantity),
					FormatUSD(pos.MarketValue),
					output.FormatPnL(pos.UnrealizedPL),
					output.FormatPnL(pos.DayPL),
					fmt.Sprintf("%.1f", pos.Percentage),
					pos.AccountName,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions [SYMBOL]",
		Short: "Flat position listing across accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := ""
			if len(args) > 0 {
				symbol = args[0]
			}

			accs, err := app.fetchAccounts(cmd)
			if err != nil {
				return app.fail(output, err)
			}
			positions := app.Analyzer.BuildPositions(accs, symbol)

			if output.IsJSON() {
				return output.Emit(positions)
			}

			if len(positions) == 0 {
				if symbol != "" {
					output.Warning("No positions found for %s", strings.ToUpper(symbol))
				} else {
					output.Warning("No positions found")
				}
				return nil
			}

			table := NewTable(output, "SYMBOL", "ACCOUNT", "QTY", "VALUE", "COST", "P&L", "DAY", "%")
			for _, pos := range positions {
				table.AddRow(
					pos.Symbol,
					pos.AccountName,
					fmt.Sprintf("%.2f", pos.Quantity),
					FormatUSD(pos.MarketValue),
					FormatUSD(pos.CostBasis),
					output.FormatPnL(pos.UnrealizedPL),
					output.FormatPnL(pos.DayChange),
					fmt.Sprintf("%.1f", pos.Percentage),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newBalancesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Per-account balance breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			accs, err := app.fetchAccounts(cmd)
			if err != nil {
				return app.fail(output, err)
			}
			rows := app.Analyzer.BuildBalances(accs)

			if output.IsJSON() {
				return output.Emit(rows)
			}

			table := NewTable(output, "ACCOUNT", "TYPE", "TOTAL", "CASH", "INVESTED", "BUYING POWER")
			for _, row := range rows {
				table.AddRow(
					row.AccountName,
					row.AccountType,
					FormatUSD(row.TotalValue),
					FormatUSD(row.CashBalance),
					FormatUSD(row.InvestedAmount),
					FormatUSD(row.BuyingPower),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newAllocationCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "allocation",
		Short: "Asset allocation and concentration analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			accs, err := app.fetchAccounts(cmd)
			if err != nil {
				return app.fail(output, err)
			}
			report := app.Analyzer.AnalyzeAllocation(accs)

			if output.IsJSON() {
				return output.Emit(report)
			}

			output.Bold("Allocation")
			output.Print("  Diversification score: %.2f / 100\n", report.DiversificationScore)
			output.Println()

			output.Info("By asset type:")
			typeTable := NewTable(output, "TYPE", "VALUE", "%")
			for assetType, slice := range report.ByAssetType {
				typeTable.AddRow(assetType, FormatUSD(slice.Value), fmt.Sprintf("%.1f", slice.Percentage))
			}
			typeTable.Render()
			output.Println()

			if len(report.ConcentrationRisks) > 0 {
				output.Warning("Concentration risks:")
				riskTable := NewTable(output, "SYMBOL", "%", "VALUE", "RISK")
				for _, risk := range report.ConcentrationRisks {
					riskTable.AddRow(risk.Symbol, fmt.Sprintf("%.2f", risk.Percentage), FormatUSD(risk.Value), risk.RiskLevel)
				}
				riskTable.Render()
				output.Println()
			}

			output.Info("Top holdings:")
			holdTable := NewTable(output, "SYMBOL", "%", "VALUE")
			for _, holding := range report.TopHoldings {
				holdTable.AddRow(holding.Symbol, fmt.Sprintf("%.2f", holding.Percentage), FormatUSD(holding.Value))
			}
			holdTable.Render()
			return nil
		},
	}
}

func newPerformanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "performance",
		Short: "Day performance with top movers",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			accs, err := app.fetchAccounts(cmd)
			if err != nil {
				return app.fail(output, err)
			}
			report := app.Analyzer.BuildPerformance(accs)

			if output.IsJSON() {
				return output.Emit(report)
			}

			output.Bold("Performance")
			output.Print("  Day change:      %s (%s)\n",
				output.FormatPnL(report.DailyChange), output.FormatPercent(report.DailyChangePct))
			output.Print("  Unrealized P&L:  %s\n", output.FormatPnL(report.TotalUnrealizedPL))
			output.Println()

			renderMovers := func(title string, movers []models.PositionPerformance) {
				if len(movers) == 0 {
					return
				}
				output.Info("%s:", title)
				table := NewTable(output, "SYMBOL", "DAY P&L", "DAY %", "TOTAL P&L", "VALUE")
				for _, m := range movers {
					table.AddRow(
						m.Symbol,
						output.FormatPnL(m.DayPL),
						output.FormatPercent(m.DayPLPct),
						output.FormatPnL(m.UnrealizedPL),
						FormatUSD(m.MarketValue),
					)
				}
				table.Render()
				output.Println()
			}

			renderMovers("Top gainers", report.Winners)
			renderMovers("Top losers", report.Losers)
			return nil
		},
	}
}

func newAccountsCmd(app *App) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List configured account aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			type accountView struct {
				Alias     string `json:"alias"`
				Label     string `json:"label"`
				Name      string `json:"name"`
				Type      string `json:"type"`
				TaxStatus string `json:"tax_status"`
				Category  string `json:"category"`
			}

			views := []accountView{}
			for _, alias := range app.Accounts.Aliases() {
				ref, _ := app.Accounts.Resolve(alias)
				if category != "" && ref.Category != category {
					continue
				}
				views = append(views, accountView{
					Alias:     alias,
					Label:     ref.DisplayLabel(),
					Name:      ref.Name,
					Type:      ref.AccountType,
					TaxStatus: ref.TaxStatus,
					Category:  ref.Category,
				})
			}

			if output.IsJSON() {
				return output.Emit(views)
			}

			if len(views) == 0 {
				output.Warning("No accounts configured. Copy accounts.json.example in %s and fill it in.", app.Config.Dir())
				return nil
			}

			table := NewTable(output, "ALIAS", "ACCOUNT", "TYPE", "TAX", "CATEGORY")
			for _, v := range views {
				table.AddRow(v.Alias, v.Label, v.Type, v.TaxStatus, v.Category)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	return cmd
}
