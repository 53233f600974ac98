package security

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestAuditRecordLine(t *testing.T) {
	rec := AuditRecord{
		Timestamp:       time.Date(2026, 3, 2, 14, 30, 5, 0, time.UTC),
		Action:          "BUY",
		Symbol:          "AAPL",
		Quantity:        10,
		OrderDescriptor: "LIMIT@150.25",
		AccountAlias:    "trading",
		Status:          StatusDryRun,
	}

	want := "2026-03-02 14:30:05 | BUY | AAPL | 10 | LIMIT@150.25 | trading | DRY_RUN"
	if got := rec.Line(); got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
}

func TestTradeLogAppends(t *testing.T) {
	var buf bytes.Buffer
	log := NewTradeLogWriter(&buf)

	records := []AuditRecord{
		{Action: "BUY", Symbol: "AAPL", Quantity: 1, OrderDescriptor: "MARKET", AccountAlias: "a", Status: StatusAttempted},
		{Action: "SELL", Symbol: "MSFT", Quantity: 2, OrderDescriptor: "MARKET", AccountAlias: "b", Status: StatusCancelled},
		{Action: "BUY", Symbol: "NVDA", Quantity: 3, OrderDescriptor: "LIMIT@10", AccountAlias: "c", Status: ErrorStatus("boom")},
	}
	for _, rec := range records {
		if err := log.Record(rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		if strings.Count(line, " | ") != 6 {
			t.Errorf("line %d has wrong field count: %q", i, line)
		}
	}
	if !strings.HasSuffix(lines[2], "ERROR: boom") {
		t.Errorf("error status mangled: %q", lines[2])
	}
}

func TestTradeLogDefaultsTimestamp(t *testing.T) {
	var buf bytes.Buffer
	log := NewTradeLogWriter(&buf)

	before := time.Now().Add(-time.Second)
	if err := log.Record(AuditRecord{Action: "BUY", Symbol: "AAPL", Status: StatusDryRun}); err != nil {
		t.Fatal(err)
	}

	ts := strings.SplitN(buf.String(), " | ", 2)[0]
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.Local)
	if err != nil {
		t.Fatalf("timestamp %q unparseable: %v", ts, err)
	}
	if parsed.Before(before.Truncate(time.Second)) {
		t.Errorf("timestamp %v not defaulted to now", parsed)
	}
}

func TestMaskSensitive(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bearer abc123def456", "Bearer [REDACTED]"},
		{`"access_token": "secret-value"`, `"access_token": "[REDACTED]"`},
		{"account 12345678 failed", "account ****5678 failed"},
		{"short 1234 stays", "short 1234 stays"},
	}
	for _, tt := range tests {
		if got := MaskSensitive(tt.in); got != tt.want {
			t.Errorf("MaskSensitive(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	if got := MaskToken(""); got != "(not set)" {
		t.Errorf("empty token = %q", got)
	}
	if got := MaskToken("abcd"); got != "********" {
		t.Errorf("short token = %q", got)
	}
	masked := MaskToken("abcdefghijklmnop")
	if !strings.HasPrefix(masked, "abcd...") {
		t.Errorf("long token = %q", masked)
	}
	if strings.Contains(masked, "efgh") {
		t.Errorf("token leaked: %q", masked)
	}
}
