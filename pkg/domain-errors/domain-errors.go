// Package domainerrors classifies why a ledger call failed.
//
// Every error that leaves a service carries a Code. Transports map codes to
// their own status vocabulary; the services never see HTTP.
package domainerrors

import "errors"

type Code string

// Request-shape and caller codes.
const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
)

// Ledger outcomes. A call failing with one of these committed nothing.
const (
	CodeMetadataTooLong     Code = "metadata_too_long"
	CodeCredentialNotFound  Code = "credential_not_found"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeInvariantViolation  Code = "invariant_violation"
)

// Node-side failures.
const (
	CodeTimeout  Code = "timeout"
	CodeInternal Code = "internal_error"
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c})
// works through fmt.Errorf chains.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches msg to err. An err that already carries a code keeps it;
// code only classifies errors from outside the ledger (store, broker).
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns err's code. Uncoded errors count as CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Rejected reports whether err is the ledger refusing a call, as opposed to
// the node failing to run it. Nil is not a rejection.
func Rejected(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case CodeInternal, CodeTimeout:
		return false
	default:
		return true
	}
}
