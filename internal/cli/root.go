package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"schwab-trader/internal/accounts"
	"schwab-trader/internal/broker"
	"schwab-trader/internal/config"
	"schwab-trader/internal/logging"
	"schwab-trader/internal/portfolio"
	"schwab-trader/internal/security"
	"schwab-trader/internal/store"
	"schwab-trader/internal/trading"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-08-15"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Broker   broker.Broker
	Accounts *accounts.Directory
	Analyzer *portfolio.Analyzer
	Audit    *security.TradeLog
	Store    store.HistoryStore
	Gate     *trading.Gate
	Executor *trading.Executor
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Gate:   trading.NewGate(),
	}

	dir, err := accounts.Load(cfg.Accounts.File)
	if err != nil {
		logger.Warn().Err(err).Msg("accounts file unreadable, aliases unavailable")
		dir, _ = accounts.Load("")
	}
	app.Accounts = dir
	app.Analyzer = portfolio.NewAnalyzer(dir, cfg.Trading.MoneyMarketSymbols)

	app.Broker = broker.NewSchwabClient(
		cfg.Broker.BaseURL,
		broker.StaticToken(cfg.Broker.AccessToken),
		logger,
	)

	audit, err := security.NewTradeLog(security.AuditConfig{
		Path:       cfg.Audit.Path,
		MaxSize:    cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
		MaxAge:     cfg.Audit.MaxAgeDays,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("trade audit log unavailable")
	} else {
		app.Audit = audit
	}

	if cfg.History.Enabled {
		historyStore, err := store.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("history store unavailable")
		} else {
			app.Store = historyStore
		}
	}

	app.Executor = trading.NewExecutor(app.Broker, dir, app.Audit, app.Store, logger)

	rootCmd := &cobra.Command{
		Use:   "schwab",
		Short: "Schwab portfolio and trading CLI",
		Long: `schwab aggregates balances, positions and performance across your
Schwab brokerage accounts and places guarded equity orders.

All trading commands default to dry-run. Live orders additionally
require SCHWAB_ALLOW_LIVE_TRADES=true, an interactive terminal and a
typed confirmation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			app.Logger = logging.WithCommand(app.Logger, cmd.Name())
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/schwab-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addPortfolioCommands(rootCmd, app)
	addTradingCommands(rootCmd, app)
	addUtilityCommands(rootCmd, app)

	return rootCmd
}

func addUtilityCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.Emit(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
				return
			}
			output.Println("schwab-trader", Version, "("+BuildDate+")")
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.Emit(map[string]string{"path": app.Config.ConfigPath()})
				return
			}
			output.Println(app.Config.ConfigPath())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			view := map[string]interface{}{
				"config_dir":        app.Config.Dir(),
				"base_url":          app.Config.Broker.BaseURL,
				"access_token":      security.MaskToken(app.Config.Broker.AccessToken),
				"allow_live_trades": app.Config.Trading.AllowLiveTrades,
				"default_account":   app.Config.Trading.DefaultAccount,
				"accounts_file":     app.Config.Accounts.File,
				"audit_log":         app.Config.Audit.Path,
				"history_db":        app.Config.History.Path,
				"log_level":         app.Config.Logging.Level,
			}
			if output.IsJSON() {
				output.Emit(view)
				return
			}
			output.Bold("Configuration")
			output.Print("  Config dir:        %s\n", app.Config.Dir())
			output.Print("  Base URL:          %s\n", valueOrDefault(app.Config.Broker.BaseURL, broker.DefaultBaseURL))
			output.Print("  Access token:      %s\n", security.MaskToken(app.Config.Broker.AccessToken))
			output.Print("  Live trades:       %v\n", app.Config.Trading.AllowLiveTrades)
			output.Print("  Default account:   %s\n", valueOrDefault(app.Config.Trading.DefaultAccount, "(none)"))
			output.Print("  Accounts file:     %s\n", app.Config.Accounts.File)
			output.Print("  Audit log:         %s\n", app.Config.Audit.Path)
			output.Print("  History database:  %s\n", app.Config.History.Path)
			output.Print("  Log level:         %s\n", app.Config.Logging.Level)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and account directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			problems := []string{}
			if !app.Config.Authenticated() {
				problems = append(problems, "SCHWAB_ACCESS_TOKEN is not set")
			}
			if app.Accounts.Len() == 0 {
				problems = append(problems, "no account aliases configured in "+app.Config.Accounts.File)
			}
			if d := app.Config.Trading.DefaultAccount; d != "" {
				if _, ok := app.Accounts.Resolve(d); !ok {
					problems = append(problems, "default account alias "+d+" is not in the accounts file")
				}
			}

			if output.IsJSON() {
				return output.Emit(map[string]interface{}{
					"valid":    len(problems) == 0,
					"problems": problems,
				})
			}
			if len(problems) == 0 {
				output.Success("Configuration OK")
				return nil
			}
			for _, p := range problems {
				output.Warning("- %s", p)
			}
			return nil
		},
	})

	return configCmd
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
