// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error so errors.Is can see the ledger error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// Ledger converts an error returned by the ledger into a trusted error with
// the status code a client should see. Errors the ledger doesn't define are
// returned unchanged and are treated as internal failures.
func Ledger(err error) error {
	switch {
	case errors.Is(err, state.ErrEmptyPendingQueue),
		errors.Is(err, database.ErrNoTransactions),
		errors.Is(err, database.ErrInvalidSignature),
		errors.Is(err, database.ErrUnspentInputMissing),
		errors.Is(err, database.ErrDuplicateOutput):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, database.ErrPreviousHashMismatch),
		errors.Is(err, database.ErrInvalidBlockIndex),
		errors.Is(err, database.ErrInvalidBlockHash):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return NewTrusted(err, http.StatusServiceUnavailable)
	}

	return err
}
