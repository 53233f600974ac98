// Package config provides configuration management for the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Broker   BrokerConfig   `mapstructure:"broker"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Audit    AuditConfig    `mapstructure:"audit"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	configDir string
}

// BrokerConfig holds broker API configuration. The access token is
// environment-only and never written to a config file.
type BrokerConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"-"`
}

// TradingConfig holds trading behavior configuration.
type TradingConfig struct {
	AllowLiveTrades    bool     `mapstructure:"allow_live_trades"`
	DefaultAccount     string   `mapstructure:"default_account"`
	MoneyMarketSymbols []string `mapstructure:"money_market_symbols"`
}

// AccountsConfig locates the alias directory file.
type AccountsConfig struct {
	File string `mapstructure:"file"`
}

// AuditConfig holds trade audit log configuration.
type AuditConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// HistoryConfig holds the local trade-history database configuration.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds application log configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/schwab-trader"
	}
	return filepath.Join(home, ".config", "schwab-trader")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default directory is used. A missing config.toml is created
// from a template. A .env file in the working directory or the config
// directory is applied before environment overrides.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	cfg := &Config{configDir: configDir}
	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyDefaults(cfg, configDir)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.Accounts.File == "" {
		cfg.Accounts.File = filepath.Join(configDir, "accounts.json")
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = filepath.Join(configDir, "audit", "trade_audit.log")
	}
	if cfg.Audit.MaxSizeMB == 0 {
		cfg.Audit.MaxSizeMB = 50
	}
	if cfg.Audit.MaxBackups == 0 {
		cfg.Audit.MaxBackups = 30
	}
	if cfg.Audit.MaxAgeDays == 0 {
		cfg.Audit.MaxAgeDays = 365
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(configDir, "history.db")
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(configDir, "logs", "schwab-trader.log")
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 5
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 30
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SCHWAB_ACCESS_TOKEN"); v != "" {
		cfg.Broker.AccessToken = v
	}
	if v := os.Getenv("SCHWAB_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("SCHWAB_DEFAULT_ACCOUNT"); v != "" {
		cfg.Trading.DefaultAccount = v
	}
	if v := os.Getenv("SCHWAB_TRADE_AUDIT_LOG"); v != "" {
		cfg.Audit.Path = v
	}
	// Live trading requires the exact value "true" (case-insensitive).
	if v := os.Getenv("SCHWAB_ALLOW_LIVE_TRADES"); v != "" {
		cfg.Trading.AllowLiveTrades = strings.EqualFold(v, "true")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// Dir returns the configuration directory in effect.
func (c *Config) Dir() string { return c.configDir }

// ConfigPath returns the path of the main config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.configDir, "config.toml")
}

// Authenticated reports whether broker credentials are present.
func (c *Config) Authenticated() bool { return c.Broker.AccessToken != "" }
