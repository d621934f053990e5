package xerrors

import (
	"errors"
	"fmt"
)

// Failure kinds shared across the session, wallet and purchase services.
var (
	ErrAuthExpired       = errors.New("session expired or invalid")
	ErrNetworkTransient  = errors.New("transient network error")
	ErrWalletUnavailable = errors.New("no wallet provider available")
	ErrWalletMismatch    = errors.New("wallet address mismatch")
	ErrUserRejected      = errors.New("transaction rejected by user")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrChainSubmission   = errors.New("chain submission failed")
	ErrBackendRecording  = errors.New("backend recording failed")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknown           = errors.New("unknown error")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap extracts the underlying wrapped error.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
