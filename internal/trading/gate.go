// Package trading implements guarded order execution: the safety gate,
// interactive confirmation, submission and post-submission verification.
package trading

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"

	apperrors "schwab-trader/internal/errors"
	"schwab-trader/internal/models"
)

// ConfirmationPhrase is the exact text a user must type to authorize a
// live order. Nothing else, in any casing, is accepted.
const ConfirmationPhrase = "CONFIRM"

// Gate rule identifiers, reported in PolicyError.Rule.
const (
	RuleLiveTradesDisabled = "live_trades_disabled"
	RuleNotATerminal       = "not_a_terminal"
	RuleJSONOutput         = "json_output"
	RuleNonInteractive     = "non_interactive"
)

// GateRequest is everything the gate needs to decide whether a live
// order may proceed.
type GateRequest struct {
	DryRun         bool
	LiveEnabled    bool // SCHWAB_ALLOW_LIVE_TRADES=true
	JSONOutput     bool
	NonInteractive bool
}

// Gate enforces the trade safety rules. TTY probes and the interrupt
// source are injectable so the rules are testable off a terminal.
type Gate struct {
	stdinIsTTY      func() bool
	stdoutIsTTY     func() bool
	notifyInterrupt func() (<-chan os.Signal, func())
}

// NewGate creates a gate probing the real stdin and stdout.
func NewGate() *Gate {
	return &Gate{
		stdinIsTTY: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
		stdoutIsTTY: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
		notifyInterrupt: defaultNotifyInterrupt,
	}
}

// NewGateWithProbes creates a gate with explicit TTY probes.
func NewGateWithProbes(stdinIsTTY, stdoutIsTTY func() bool) *Gate {
	return &Gate{
		stdinIsTTY:      stdinIsTTY,
		stdoutIsTTY:     stdoutIsTTY,
		notifyInterrupt: defaultNotifyInterrupt,
	}
}

func defaultNotifyInterrupt() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}

// Authorize applies the safety rules in order and returns the first
// violation. Dry runs are always authorized; no flag can substitute for
// the rules below.
func (g *Gate) Authorize(req GateRequest) error {
	if req.DryRun {
		return nil
	}
	if !req.LiveEnabled {
		return apperrors.NewPolicyError(RuleLiveTradesDisabled,
			"live trading is disabled; set SCHWAB_ALLOW_LIVE_TRADES=true to enable")
	}
	if !g.stdinIsTTY() || !g.stdoutIsTTY() {
		return apperrors.NewPolicyError(RuleNotATerminal,
			"live orders require an interactive terminal on stdin and stdout")
	}
	if req.JSONOutput {
		return apperrors.NewPolicyError(RuleJSONOutput,
			"live orders cannot be placed in JSON output mode")
	}
	if req.NonInteractive {
		return apperrors.NewPolicyError(RuleNonInteractive,
			"live orders cannot be placed with --non-interactive")
	}
	return nil
}

// Outcome is the result of the confirmation prompt. Cancellation is a
// first-class outcome, not an error.
type Outcome int

const (
	Confirmed Outcome = iota
	Cancelled
)

// Confirm shows the order preview and waits for the confirmation phrase.
// Any other input, EOF, a read error or an interrupt signal cancels the
// order.
func (g *Gate) Confirm(in io.Reader, out io.Writer, preview models.OrderPreview) Outcome {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  LIVE ORDER")
	fmt.Fprintf(out, "  %s %d %s %s\n", preview.Action, preview.Quantity,
		strings.ToUpper(preview.Symbol), describeOrderType(preview))
	fmt.Fprintf(out, "  Account: %s\n", preview.AccountLabel())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Type %s to place this order: ", ConfirmationPhrase)

	interrupts, stop := g.notifyInterrupt()
	defer stop()

	type readResult struct {
		line string
		err  error
	}
	reads := make(chan readResult, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		reads <- readResult{line: line, err: err}
	}()

	select {
	case <-interrupts:
		// The blocked read goroutine is abandoned; the command
		// terminates right after the cancellation is recorded.
		fmt.Fprintln(out)
		return Cancelled
	case res := <-reads:
		if res.err != nil && res.line == "" {
			return Cancelled
		}
		if strings.TrimSpace(res.line) != ConfirmationPhrase {
			return Cancelled
		}
		return Confirmed
	}
}

func describeOrderType(preview models.OrderPreview) string {
	if preview.OrderType == models.OrderTypeLimit {
		return fmt.Sprintf("at limit %.2f", preview.LimitPrice)
	}
	return "at market"
}
