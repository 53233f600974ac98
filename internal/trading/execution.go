package trading

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"schwab-trader/internal/accounts"
	"schwab-trader/internal/broker"
	apperrors "schwab-trader/internal/errors"
	"schwab-trader/internal/logging"
	"schwab-trader/internal/models"
	"schwab-trader/internal/security"
)

// AttemptRecorder persists trade attempts for the history command. The
// sqlite store implements it; tests use an in-memory fake.
type AttemptRecorder interface {
	LogAttempt(attempt Attempt) error
}

// Attempt is one recorded trade attempt.
type Attempt struct {
	Timestamp       time.Time
	Action          string
	Symbol          string
	Quantity        int
	OrderDescriptor string
	AccountAlias    string
	Status          string
	OrderID         string
}

// Executor prepares, submits and verifies orders. Every attempt, in any
// terminal state, is written to the audit log and the attempt store.
type Executor struct {
	broker broker.Broker
	dir    *accounts.Directory
	audit  *security.TradeLog
	store  AttemptRecorder
	logger zerolog.Logger
}

// NewExecutor wires an executor. The store may be nil when history
// persistence is disabled.
func NewExecutor(b broker.Broker, dir *accounts.Directory, audit *security.TradeLog, store AttemptRecorder, logger zerolog.Logger) *Executor {
	return &Executor{
		broker: b,
		dir:    dir,
		audit:  audit,
		store:  store,
		logger: logger.With().Str("component", "executor").Logger(),
	}
}

// Preview validates the intent, resolves the account alias and builds
// the exact payload a live submission would send. It never touches the
// network.
func (e *Executor) Preview(intent models.TradeIntent, dryRun bool) (models.OrderPreview, error) {
	if err := intent.Validate(); err != nil {
		return models.OrderPreview{}, apperrors.NewConfigError("invalid order: %v", err)
	}

	ref, ok := e.dir.Resolve(intent.AccountAlias)
	if !ok {
		return models.OrderPreview{}, apperrors.NewConfigError(
			"unknown account alias %q (known: %s)", intent.AccountAlias, strings.Join(e.dir.Aliases(), ", "))
	}

	return models.OrderPreview{
		DryRun:            dryRun,
		Action:            intent.Action,
		OrderType:         intent.OrderType,
		Symbol:            strings.ToUpper(intent.Symbol),
		Quantity:          intent.Quantity,
		LimitPrice:        intent.LimitPrice,
		AccountName:       ref.Label,
		AccountNumberLast: accounts.Last4(ref.AccountNumber),
		Order:             models.BuildOrderPayload(intent),
	}, nil
}

// Submit places the order and verifies it against the broker. The
// attempt is audited before the network call so interrupted submissions
// still leave a trace.
func (e *Executor) Submit(ctx context.Context, intent models.TradeIntent) models.OrderResult {
	e.record(intent, security.StatusAttempted, "")

	number, ok := e.dir.Number(intent.AccountAlias)
	if !ok {
		err := apperrors.NewConfigError("unknown account alias %q", intent.AccountAlias)
		e.record(intent, security.ErrorStatus(err.Error()), "")
		return models.OrderResult{Success: false, Error: err.Error()}
	}

	payload := models.BuildOrderPayload(intent)
	orderID, err := e.broker.SubmitOrder(ctx, number, payload)
	if err != nil {
		e.record(intent, security.ErrorStatus(err.Error()), "")
		return models.OrderResult{Success: false, Error: err.Error()}
	}

	result := e.verify(ctx, number, orderID)
	logging.LogOrder(e.logger, result.OrderID, strings.ToUpper(intent.Symbol), string(intent.Action), result.Status)
	if result.Success {
		e.record(intent, security.StatusExecuted, result.OrderID)
	} else {
		e.record(intent, security.ErrorStatus(result.Error), result.OrderID)
	}
	return result
}

// verify re-queries the order after submission. A rejection surfaces the
// broker's reason verbatim; an unreachable status check resolves in
// favor of the acknowledgment already received.
func (e *Executor) verify(ctx context.Context, accountNumber, orderID string) models.OrderResult {
	if orderID == "" {
		e.logger.Warn().Msg("broker acknowledged order without an order ID; skipping verification")
		return models.OrderResult{Success: true, Status: "SUBMITTED"}
	}

	status, err := e.broker.GetOrderStatus(ctx, accountNumber, orderID)
	if err != nil {
		e.logger.Warn().Err(apperrors.Wrap(err, apperrors.ErrVerificationUnavailable.Error())).
			Str("order_id", orderID).Msg("trusting submission acknowledgment")
		return models.OrderResult{Success: true, OrderID: orderID, Status: "SUBMITTED"}
	}

	if status.Rejected() {
		reason := status.Description
		if reason == "" {
			reason = apperrors.ErrOrderRejected.Error()
		}
		return models.OrderResult{Success: false, OrderID: orderID, Status: status.Status, Error: reason}
	}

	return models.OrderResult{Success: true, OrderID: orderID, Status: status.Status}
}

// RecordDryRun audits a dry-run attempt.
func (e *Executor) RecordDryRun(intent models.TradeIntent) {
	e.record(intent, security.StatusDryRun, "")
}

// RecordCancelled audits an attempt the user declined at the prompt.
func (e *Executor) RecordCancelled(intent models.TradeIntent) {
	e.record(intent, security.StatusCancelled, "")
}

// RecordBlocked audits an attempt stopped by a safety rule.
func (e *Executor) RecordBlocked(intent models.TradeIntent, cause error) {
	e.record(intent, security.ErrorStatus(cause.Error()), "")
}

func (e *Executor) record(intent models.TradeIntent, status, orderID string) {
	now := time.Now()

	if e.audit != nil {
		err := e.audit.Record(security.AuditRecord{
			Timestamp:       now,
			Action:          string(intent.Action),
			Symbol:          strings.ToUpper(intent.Symbol),
			Quantity:        intent.Quantity,
			OrderDescriptor: intent.Descriptor(),
			AccountAlias:    intent.AccountAlias,
			Status:          status,
		})
		if err != nil {
			e.logger.Error().Err(err).Msg("audit write failed")
		}
	}

	if e.store != nil {
		err := e.store.LogAttempt(Attempt{
			Timestamp:       now,
			Action:          string(intent.Action),
			Symbol:          strings.ToUpper(intent.Symbol),
			Quantity:        intent.Quantity,
			OrderDescriptor: intent.Descriptor(),
			AccountAlias:    intent.AccountAlias,
			Status:          status,
			OrderID:         orderID,
		})
		if err != nil {
			e.logger.Error().Err(err).Msg("attempt store write failed")
		}
	}
}
