package booking

import (
	"errors"
	"fmt"
)

// ErrorKind is the failure taxonomy surfaced to callers.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // local, no network call made
	KindRejection  ErrorKind = "rejection"  // backend said no
	KindTransport  ErrorKind = "transport"  // backend unreachable or unreadable
	KindContract   ErrorKind = "contract"   // caller broke a state machine guard
)

var (
	ErrUnknownEventType    = errors.New("unknown event type")
	ErrBusy                = errors.New("a payment is already in progress")
	ErrStaleResponse       = errors.New("response belongs to an abandoned attempt")
	ErrNoPreviousStep      = errors.New("no previous step")
	ErrSlotNotOffered      = errors.New("time slot is not offered for the selected date")
	ErrDateInPast          = errors.New("date is in the past")
	ErrNotPayableReference = errors.New("only booking references can be paid")
	ErrWrongStep           = errors.New("event not allowed in the current step")
	ErrSessionNotFound     = errors.New("booking session not found or expired")
	ErrNoPendingOrder      = errors.New("no gateway checkout is pending")
)

// GenericUnavailableMessage is shown when the backend rejects a slot without a message.
const GenericUnavailableMessage = "This time slot is no longer available. Please choose another."

// GenericPaymentRejectedMessage is shown when the backend refuses a payment without a message.
const GenericPaymentRejectedMessage = "We could not confirm your payment. Please check the details and try again."

// GenericCancelledMessage is shown after the payer dismisses the hosted checkout.
const GenericCancelledMessage = "Payment was cancelled. Your booking has not been submitted."

// GenericFailureMessage is shown for transport failures.
const GenericFailureMessage = "We could not reach the booking service. Please try again."

// BookingError carries a taxonomy kind alongside the message the client should see.
type BookingError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func NewValidationError(msg string, fields map[string]string, err error) error {
	return &BookingError{Kind: KindValidation, Code: "validationError", Message: msg, Fields: fields, Err: err}
}

func NewRejectionError(code, msg string, err error) error {
	if msg == "" {
		msg = GenericUnavailableMessage
	}
	return &BookingError{Kind: KindRejection, Code: code, Message: msg, Err: err}
}

func NewTransportError(code string, err error) error {
	return &BookingError{Kind: KindTransport, Code: code, Message: GenericFailureMessage, Err: err}
}

func NewContractError(msg string, err error) error {
	return &BookingError{Kind: KindContract, Code: "contractError", Message: msg, Err: err}
}

// KindOf returns the taxonomy kind of err, or "" when err is not a BookingError.
func KindOf(err error) ErrorKind {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
