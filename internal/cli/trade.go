package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "schwab-trader/internal/errors"
	"schwab-trader/internal/models"
	"schwab-trader/internal/trading"
)

func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newTradeCmd(app, models.ActionBuy))
	rootCmd.AddCommand(newTradeCmd(app, models.ActionSell))
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
}

type tradeFlags struct {
	limitPrice     float64
	dryRun         bool
	yes            bool
	nonInteractive bool
}

func newTradeCmd(app *App, action models.TradeAction) *cobra.Command {
	verb := strings.ToLower(string(action))
	title := strings.ToUpper(verb[:1]) + verb[1:]
	flags := &tradeFlags{}

	cmd := &cobra.Command{
		Use:   verb + " [ACCOUNT] SYMBOL QUANTITY",
		Short: title + " an equity",
		Long: title + ` an equity position.

With --dry-run the order is previewed and audited but never submitted.
Live orders require SCHWAB_ALLOW_LIVE_TRADES=true, an interactive
terminal, text output mode, and typing CONFIRM at the prompt. The --yes
flag never bypasses that prompt.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			intent, err := app.parseTradeArgs(action, args, flags)
			if err != nil {
				return app.fail(output, err)
			}
			return app.runTrade(cmd, output, intent, flags)
		},
	}

	cmd.Flags().Float64Var(&flags.limitPrice, "limit", 0, "limit price (market order when omitted)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "preview the order without submitting")
	cmd.Flags().BoolVar(&flags.yes, "yes", false, "skip non-safety confirmations")
	cmd.Flags().BoolVar(&flags.nonInteractive, "non-interactive", false, "fail instead of prompting")
	return cmd
}

// parseTradeArgs resolves [ACCOUNT] SYMBOL QUANTITY, falling back to the
// configured default account when the alias is omitted.
func (a *App) parseTradeArgs(action models.TradeAction, args []string, flags *tradeFlags) (models.TradeIntent, error) {
	var alias, symbol, qtyArg string

	switch len(args) {
	case 3:
		alias, symbol, qtyArg = args[0], args[1], args[2]
	case 2:
		alias = a.Config.Trading.DefaultAccount
		symbol, qtyArg = args[0], args[1]
		if alias == "" {
			return models.TradeIntent{}, apperrors.NewConfigError(
				"no account given and no default account configured; set SCHWAB_DEFAULT_ACCOUNT or pass an alias")
		}
	}

	quantity, err := strconv.Atoi(qtyArg)
	if err != nil {
		return models.TradeIntent{}, apperrors.NewConfigError("quantity must be a whole number, got %q", qtyArg)
	}

	intent := models.TradeIntent{
		Action:       action,
		AccountAlias: alias,
		Symbol:       strings.ToUpper(symbol),
		Quantity:     quantity,
		OrderType:    models.OrderTypeMarket,
	}
	if flags.limitPrice != 0 {
		intent.OrderType = models.OrderTypeLimit
		intent.LimitPrice = flags.limitPrice
	}
	if err := intent.Validate(); err != nil {
		return models.TradeIntent{}, apperrors.NewConfigError("invalid order: %v", err)
	}
	return intent, nil
}

func (a *App) runTrade(cmd *cobra.Command, output *Output, intent models.TradeIntent, flags *tradeFlags) error {
	preview, err := a.Executor.Preview(intent, flags.dryRun)
	if err != nil {
		return a.fail(output, err)
	}

	if flags.dryRun {
		a.Executor.RecordDryRun(intent)
		if output.IsJSON() {
			return output.Emit(map[string]interface{}{
				"preview":   preview,
				"submitted": false,
				"dry_run":   true,
			})
		}
		a.renderPreview(output, preview)
		return nil
	}

	gateErr := a.Gate.Authorize(trading.GateRequest{
		DryRun:         false,
		LiveEnabled:    a.Config.Trading.AllowLiveTrades,
		JSONOutput:     output.IsJSON(),
		NonInteractive: flags.nonInteractive,
	})
	if gateErr != nil {
		a.Executor.RecordBlocked(intent, gateErr)
		return a.fail(output, gateErr)
	}

	a.renderPreview(output, preview)

	if a.Gate.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), preview) == trading.Cancelled {
		a.Executor.RecordCancelled(intent)
		output.Println()
		output.Warning("Order cancelled.")
		return nil
	}

	result := a.Executor.Submit(cmd.Context(), intent)
	if !result.Success {
		return a.fail(output, apperrors.NewBrokerError(0, "order failed: "+result.Error))
	}

	output.Println()
	output.Success("Order submitted successfully!")
	if result.OrderID != "" {
		output.Print("Order ID: %s\n", result.OrderID)
	}
	if result.Status != "" {
		output.Print("Status:   %s\n", result.Status)
	}
	return nil
}

func (a *App) renderPreview(output *Output, preview models.OrderPreview) {
	header := "ORDER PREVIEW"
	if preview.DryRun {
		header = "ORDER PREVIEW (DRY RUN)"
	}

	output.Println()
	output.Bold(header)
	output.Print("  Action:    %s\n", preview.Action)
	output.Print("  Symbol:    %s\n", preview.Symbol)
	output.Print("  Quantity:  %d\n", preview.Quantity)
	if preview.OrderType == models.OrderTypeLimit {
		output.Print("  Type:      LIMIT @ %s\n", FormatUSD(preview.LimitPrice))
	} else {
		output.Print("  Type:      MARKET\n")
	}
	output.Print("  Account:   %s\n", preview.AccountLabel())

	if preview.DryRun {
		output.Println()
		output.Dim("[DRY RUN - Order not submitted]")
		output.Println()
	}
}

func newOrdersCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "orders [ACCOUNT]",
		Short: "List recent orders for an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			alias := app.Config.Trading.DefaultAccount
			if len(args) == 1 {
				alias = args[0]
			}
			if alias == "" {
				return app.fail(output, apperrors.NewConfigError(
					"no account given and no default account configured"))
			}

			number, ok := app.Accounts.Number(alias)
			if !ok {
				return app.fail(output, apperrors.NewConfigError(
					"unknown account alias %q (known: %s)", alias, strings.Join(app.Accounts.Aliases(), ", ")))
			}

			since := time.Now().AddDate(0, 0, -days)
			orders, err := app.Broker.GetOpenOrders(cmd.Context(), number, since)
			if err != nil {
				return app.fail(output, err)
			}

			if output.IsJSON() {
				return output.Emit(orders)
			}

			if len(orders) == 0 {
				output.Warning("No orders in the last %d days.", days)
				return nil
			}

			table := NewTable(output, "ORDER ID", "SYMBOL", "SIDE", "QTY", "TYPE", "PRICE", "STATUS", "ENTERED")
			for _, o := range orders {
				price := ""
				if o.Price != 0 {
					price = FormatUSD(o.Price)
				}
				table.AddRow(
					o.OrderID,
					o.Symbol,
					o.Action,
					fmt.Sprintf("%.0f", o.Quantity),
					o.OrderType,
					price,
					o.Status,
					o.EnteredTime.Local().Format("2006-01-02 15:04"),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "look-back window in days")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show locally recorded trade attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Store == nil {
				return app.fail(output, apperrors.NewConfigError("trade history is disabled"))
			}

			rows, err := app.Store.ListRecent(limit)
			if err != nil {
				return app.fail(output, err)
			}

			if output.IsJSON() {
				return output.Emit(rows)
			}

			if len(rows) == 0 {
				output.Warning("No trade attempts recorded yet.")
				return nil
			}

			table := NewTable(output, "TIME", "ACTION", "SYMBOL", "QTY", "ORDER", "ACCOUNT", "STATUS")
			for _, r := range rows {
				table.AddRow(
					r.Timestamp.Local().Format("2006-01-02 15:04:05"),
					r.Action,
					r.Symbol,
					strconv.Itoa(r.Quantity),
					r.OrderDescriptor,
					r.AccountAlias,
					r.Status,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")
	return cmd
}
