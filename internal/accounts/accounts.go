// Package accounts maps user-chosen account aliases to account numbers,
// display labels, categories and tax status, and masks account numbers
// for any output. No hardcoded account numbers: everything comes from a
// gitignored accounts.json.
package accounts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	apperrors "schwab-trader/internal/errors"
)

// AccountRef holds the static metadata for one brokerage account.
// Immutable for the run; the account number is never logged or displayed
// unmasked except when required by the broker call itself.
type AccountRef struct {
	Alias         string `mapstructure:"-" json:"alias"`
	AccountNumber string `mapstructure:"account_number" json:"-"`
	Name          string `mapstructure:"name" json:"name"`
	Label         string `mapstructure:"label" json:"label"`
	AccountType   string `mapstructure:"type" json:"type"`
	TaxStatus     string `mapstructure:"tax_status" json:"tax_status"`
	Category      string `mapstructure:"category" json:"category"`
	Notes         string `mapstructure:"notes" json:"notes,omitempty"`
}

// DisplayLabel returns the formatted label with masked account number,
// e.g. "Trading (...1234)".
func (r AccountRef) DisplayLabel() string {
	return fmt.Sprintf("%s (%s)", r.Label, Last4(r.AccountNumber))
}

// Directory resolves aliases and account numbers to account metadata.
type Directory struct {
	byAlias    map[string]AccountRef
	byNumber   map[string]AccountRef
	categories map[string][]string
}

type accountsFile struct {
	Accounts map[string]AccountRef `mapstructure:"accounts"`
}

// Load reads the accounts file (JSON) at path and builds the directory.
// A missing file yields an empty directory rather than an error so that
// read-only commands still work before setup.
func Load(path string) (*Directory, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return newDirectory(nil), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.Wrap(err, "reading accounts file")
	}

	var file accountsFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, apperrors.Wrap(err, "parsing accounts file")
	}

	return newDirectory(file.Accounts), nil
}

func newDirectory(refs map[string]AccountRef) *Directory {
	d := &Directory{
		byAlias:    make(map[string]AccountRef),
		byNumber:   make(map[string]AccountRef),
		categories: make(map[string][]string),
	}
	for alias, ref := range refs {
		ref.Alias = alias
		d.byAlias[alias] = ref
		d.byNumber[ref.AccountNumber] = ref
		if ref.Category != "" {
			d.categories[ref.Category] = append(d.categories[ref.Category], ref.AccountNumber)
		}
	}
	return d
}

// Resolve returns the account metadata for an alias.
func (d *Directory) Resolve(alias string) (AccountRef, bool) {
	ref, ok := d.byAlias[alias]
	return ref, ok
}

// Number returns the account number for an alias.
func (d *Directory) Number(alias string) (string, bool) {
	ref, ok := d.byAlias[alias]
	if !ok {
		return "", false
	}
	return ref.AccountNumber, true
}

// ByNumber returns the account metadata for an account number.
func (d *Directory) ByNumber(accountNumber string) (AccountRef, bool) {
	ref, ok := d.byNumber[accountNumber]
	return ref, ok
}

// DisplayName returns the friendly display name for an account number,
// falling back to a masked generic form for unconfigured accounts.
func (d *Directory) DisplayName(accountNumber string) string {
	if ref, ok := d.byNumber[accountNumber]; ok {
		return ref.DisplayLabel()
	}
	if len(accountNumber) > 4 {
		return fmt.Sprintf("Account (%s)", Last4(accountNumber))
	}
	return fmt.Sprintf("Account (%s)", accountNumber)
}

// Aliases returns all configured aliases, sorted.
func (d *Directory) Aliases() []string {
	aliases := make([]string, 0, len(d.byAlias))
	for alias := range d.byAlias {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// ByCategory returns the account numbers in a category.
func (d *Directory) ByCategory(category string) []string {
	return d.categories[category]
}

// Len returns the number of configured accounts.
func (d *Directory) Len() int { return len(d.byAlias) }

// Last4 returns the trailing-four form "...1234" used in display labels.
func Last4(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return "..." + accountNumber
	}
	return "..." + accountNumber[len(accountNumber)-4:]
}

// MaskNumber masks an account number for display, keeping the last four
// digits.
func MaskNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(accountNumber)-4) + accountNumber[len(accountNumber)-4:]
}
