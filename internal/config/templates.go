package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Schwab Trader Configuration
#
# Credentials are never stored here. Set SCHWAB_ACCESS_TOKEN in the
# environment or in a .env file next to this config.

[broker]
# Broker API endpoint. Leave empty for production.
base_url = ""

[trading]
# Live trading master switch. The SCHWAB_ALLOW_LIVE_TRADES environment
# variable overrides this and must be "true" for live orders.
allow_live_trades = false
# Account alias used when a trading command omits the account argument.
default_account = ""
# Money-market fund symbols treated as cash equivalents.
money_market_symbols = ["SWGXX", "SWVXX", "SNOXX", "SNSXX", "SNVXX"]

[accounts]
# Alias directory file. Keep it out of version control.
file = ""

[audit]
# Trade audit log location. SCHWAB_TRADE_AUDIT_LOG overrides.
path = ""
max_size_mb = 50
max_backups = 30
max_age_days = 365

[history]
# Local sqlite trade-attempt history.
enabled = true
path = ""

[logging]
# Log level: trace, debug, info, warn, error
level = "info"
file = ""
max_size_mb = 10
max_backups = 5
max_age_days = 30
`

const accountsTemplate = `{
  "accounts": {
    "example": {
      "account_number": "12345678",
      "name": "Example Brokerage",
      "label": "Example",
      "type": "brokerage",
      "tax_status": "taxable",
      "category": "trading",
      "notes": ""
    }
  }
}
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	example := filepath.Join(configDir, "accounts.json.example")
	if _, err := os.Stat(example); os.IsNotExist(err) {
		// Restricted permissions: the filled-in copy holds account numbers.
		if err := os.WriteFile(example, []byte(accountsTemplate), 0600); err != nil {
			return fmt.Errorf("writing accounts template: %w", err)
		}
	}

	return nil
}
