// Package security provides the append-only trade audit log and
// sensitive-value masking for log output.
package security

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Audit statuses. Every trade attempt terminates in exactly one of these.
const (
	StatusDryRun    = "DRY_RUN"
	StatusExecuted  = "EXECUTED"
	StatusCancelled = "CANCELLED"
	StatusAttempted = "ATTEMPTED"
)

// ErrorStatus renders a failure as an audit status.
func ErrorStatus(msg string) string {
	return "ERROR: " + msg
}

// AuditRecord is one trade attempt and its terminal outcome.
type AuditRecord struct {
	Timestamp       time.Time
	Action          string
	Symbol          string
	Quantity        int
	OrderDescriptor string // "MARKET" or "LIMIT@<price>"
	AccountAlias    string
	Status          string
}

// Line renders the fixed textual audit form.
func (r AuditRecord) Line() string {
	return fmt.Sprintf("%s | %s | %s | %d | %s | %s | %s",
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.Action, r.Symbol, r.Quantity, r.OrderDescriptor, r.AccountAlias, r.Status)
}

// TradeLog is the append-only audit log. One line per trade attempt.
type TradeLog struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// AuditConfig holds audit log configuration.
type AuditConfig struct {
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultAuditConfig returns the default audit configuration. Audit logs
// are kept for a year.
func DefaultAuditConfig() AuditConfig {
	home, _ := os.UserHomeDir()
	return AuditConfig{
		Path:       filepath.Join(home, ".config", "schwab-trader", "audit", "trade_audit.log"),
		MaxSize:    50,
		MaxBackups: 30,
		MaxAge:     365,
	}
}

// NewTradeLog creates a rotated trade audit log at cfg.Path.
func NewTradeLog(cfg AuditConfig) (*TradeLog, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	w := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}
	return &TradeLog{w: w, c: w}, nil
}

// NewTradeLogWriter creates a trade log on an arbitrary writer.
func NewTradeLogWriter(w io.Writer) *TradeLog {
	return &TradeLog{w: w}
}

// Record appends one audit record. The timestamp defaults to now.
func (l *TradeLog) Record(rec AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	if _, err := io.WriteString(l.w, rec.Line()+"\n"); err != nil {
		return fmt.Errorf("writing audit record: %w", err)
	}
	return nil
}

// Close closes the underlying writer when it is closable.
func (l *TradeLog) Close() error {
	if l.c != nil {
		return l.c.Close()
	}
	return nil
}
