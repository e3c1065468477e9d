package service

import (
	"errors"
	"time"
)

// ErrorKind is the stable business meaning of a failure.
type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION"
	KindNotAvailable     ErrorKind = "NOT_AVAILABLE"
	KindReadOnly         ErrorKind = "READ_ONLY"
	KindAlreadyStarted   ErrorKind = "ALREADY_STARTED"
	KindNotStarted       ErrorKind = "NOT_STARTED"
	KindAlreadyCompleted ErrorKind = "ALREADY_COMPLETED"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindUnauthorized     ErrorKind = "UNAUTHORIZED"
	KindConflict         ErrorKind = "CONFLICT"
	KindTransient        ErrorKind = "TRANSIENT"
)

const (
	MsgInvalidBatch         = "Invalid batch identifier"
	MsgInvalidRole          = "Invalid role name"
	MsgBatchNotAvailable    = "Batch not available for this date"
	MsgReadOnlyDate         = "Cannot modify operations for past dates"
	MsgAlreadyStarted       = "Operation already started"
	MsgNotStarted           = "Operation has not been started yet"
	MsgAlreadyCompleted     = "Operation already completed"
	MsgInvalidOrdersCount   = "On-time deliveries cannot exceed total orders"
	MsgNegativeOrders       = "Delivery counts cannot be negative"
	MsgDriverNeedsEndDriver = "Driver role must be completed with delivery statistics"
	MsgOperationNotFound    = "Operation not found"
	MsgInvalidCredentials   = "Invalid email or password"
	MsgEmailExists          = "Email already registered"
	MsgInvalidToken         = "Invalid or expired token"
	MsgTemporaryFailure     = "Service temporarily unavailable, please retry"
)

// Error is returned by every service operation that fails.
type Error struct {
	Kind    ErrorKind
	Message string

	// set for KindAlreadyStarted
	StartedBy string
	StartedAt *time.Time

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func transient(err error) *Error {
	return &Error{Kind: KindTransient, Message: MsgTemporaryFailure, Err: err}
}

// KindOf reports the kind of err; anything unrecognised is transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}
