package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	ErrUnsupportedSchema = errors.New("Unsupported schema")
	ErrInvalidJsonFormat = errors.New("invalid JSON format")
	ErrInvalidAddress    = errors.New("Invalid address")

	// ErrRateLimited marks a provider response that should be retried with a
	// longer backoff and must never be treated as nonexistence.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrTokenNotFound is a genuine "token does not exist" read result,
	// distinguishable from transient failures for probe stop counting.
	ErrTokenNotFound = errors.New("token does not exist")

	ErrUnsupportedQuest = errors.New("unsupported quest id")
)

// VerifyReason enumerates the typed rejections of purchase verification.
type VerifyReason string

const (
	VerifyReasonTxNotFound       VerifyReason = "tx_not_found"
	VerifyReasonTxFailed         VerifyReason = "tx_failed"
	VerifyReasonWrongDestination VerifyReason = "wrong_destination"
	VerifyReasonWrongFunction    VerifyReason = "wrong_function"
	VerifyReasonTokenMismatch    VerifyReason = "token_mismatch"
	VerifyReasonBuyerMismatch    VerifyReason = "buyer_mismatch"
	VerifyReasonNotListed        VerifyReason = "not_listed"
)

// VerificationError is surfaced to the purchase-confirmation caller so the
// surrounding system can present an accurate message. It is never recovered
// internally.
type VerificationError struct {
	Reason VerifyReason
	Detail string
}

func (e *VerificationError) Error() string {
	if len(e.Detail) == 0 {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func NewVerificationError(reason VerifyReason, format string, args ...interface{}) *VerificationError {
	return &VerificationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsVerificationError unwraps err into a VerificationError if it is one.
func AsVerificationError(err error) (*VerificationError, bool) {
	var ve *VerificationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
