package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"schwab-trader/internal/trading"
)

// SQLiteStore implements HistoryStore on a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the history database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trade_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		symbol TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		order_descriptor TEXT NOT NULL,
		account_alias TEXT NOT NULL,
		status TEXT NOT NULL,
		order_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trade_attempts_timestamp
		ON trade_attempts(timestamp);
	CREATE INDEX IF NOT EXISTS idx_trade_attempts_symbol
		ON trade_attempts(symbol);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LogAttempt records one trade attempt.
func (s *SQLiteStore) LogAttempt(attempt trading.Attempt) error {
	ts := attempt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO trade_attempts
			(timestamp, action, symbol, quantity, order_descriptor, account_alias, status, order_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC(), attempt.Action, attempt.Symbol, attempt.Quantity,
		attempt.OrderDescriptor, attempt.AccountAlias, attempt.Status, attempt.OrderID)
	if err != nil {
		return fmt.Errorf("inserting trade attempt: %w", err)
	}
	return nil
}

// ListRecent returns the newest attempts, most recent first.
func (s *SQLiteStore) ListRecent(limit int) ([]AttemptRow, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, timestamp, action, symbol, quantity, order_descriptor, account_alias, status, COALESCE(order_id, '')
		FROM trade_attempts
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying trade attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRow
	for rows.Next() {
		var r AttemptRow
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Action, &r.Symbol, &r.Quantity,
			&r.OrderDescriptor, &r.AccountAlias, &r.Status, &r.OrderID); err != nil {
			return nil, fmt.Errorf("scanning trade attempt: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
