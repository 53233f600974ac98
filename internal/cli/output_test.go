package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"

	apperrors "schwab-trader/internal/errors"
)

func newJSONOutput(t *testing.T) (*Output, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "portfolio"}
	cmd.Flags().Bool("json", true, "")
	cmd.SetOut(&buf)
	return NewOutput(cmd), &buf
}

func TestEmitEnvelope(t *testing.T) {
	output, buf := newJSONOutput(t)

	if err := output.Emit(map[string]int{"total": 42}); err != nil {
		t.Fatal(err)
	}

	var envelope Envelope
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d", envelope.SchemaVersion)
	}
	if envelope.Command != "portfolio" {
		t.Errorf("Command = %q", envelope.Command)
	}
	if !envelope.Success || envelope.Error != nil {
		t.Errorf("envelope = %+v", envelope)
	}
	if envelope.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestEmitErrorEnvelope(t *testing.T) {
	output, buf := newJSONOutput(t)

	err := apperrors.NewPolicyError("json_output", "live orders cannot be placed in JSON output mode")
	if err := output.EmitError(err); err != nil {
		t.Fatal(err)
	}

	var envelope Envelope
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope.Success {
		t.Error("Success should be false")
	}
	if envelope.Error == nil || envelope.Error.Type != "PolicyViolation" {
		t.Errorf("Error = %+v", envelope.Error)
	}

	output2, buf2 := newJSONOutput(t)
	if err := output2.EmitError(apperrors.NewBrokerError(500, "upstream down")); err != nil {
		t.Fatal(err)
	}
	json.Unmarshal(buf2.Bytes(), &envelope)
	if envelope.Error.Type != "BrokerError" {
		t.Errorf("Error.Type = %q", envelope.Error.Type)
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-9876.54, "-$9,876.54"},
		{999, "$999.00"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	output := &Output{writer: &buf, command: "test"}

	table := NewTable(output, "SYMBOL", "VALUE")
	table.AddRow("AAPL", "$5,000.00")
	table.AddRow("MSFT", "$400.00")
	table.Render()

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + separator + 2 rows", len(lines))
	}
	if !bytes.HasPrefix(lines[0], []byte("SYMBOL")) {
		t.Errorf("header = %q", lines[0])
	}
}
