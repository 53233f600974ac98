// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAccountNotFound  = errors.New("account not found")
	ErrOrderRejected    = errors.New("order rejected")

	// ErrVerificationUnavailable marks the ambiguous state where a
	// submission was acknowledged but the status re-query failed. It is
	// resolved conservatively by trusting the acknowledgment.
	ErrVerificationUnavailable = errors.New("order status verification unavailable")
)

// Kinder is implemented by errors that expose a machine-readable kind
// for structured output.
type Kinder interface {
	Kind() string
}

// ConfigError represents a configuration or environment problem, such as
// an unknown account alias or missing credentials. Never retried.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Kind returns the machine-readable error kind.
func (e *ConfigError) Kind() string { return "ConfigError" }

// NewConfigError creates a new ConfigError.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// PolicyError represents a trade safety rule violation. The rule names
// the exact unmet condition; always fatal to the command.
type PolicyError struct {
	Rule    string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("trade blocked [%s]: %s", e.Rule, e.Message)
}

// Kind returns the machine-readable error kind.
func (e *PolicyError) Kind() string { return "PolicyViolation" }

// NewPolicyError creates a new PolicyError.
func NewPolicyError(rule, format string, args ...interface{}) *PolicyError {
	return &PolicyError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// BrokerError represents a non-2xx response from the broker API,
// including post-hoc order rejections. The raw broker message is never
// swallowed.
type BrokerError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BrokerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("broker error [%d]: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("broker error: %s", e.Message)
}

func (e *BrokerError) Unwrap() error { return e.Err }

// Kind returns the machine-readable error kind.
func (e *BrokerError) Kind() string { return "BrokerError" }

// NewBrokerError creates a new BrokerError.
func NewBrokerError(statusCode int, message string) *BrokerError {
	return &BrokerError{StatusCode: statusCode, Message: message}
}

// KindOf returns the machine-readable kind for any error.
func KindOf(err error) string {
	var k Kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "Error"
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
