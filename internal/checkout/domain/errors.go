package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired         = errors.New("authentication required")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrNoNextStage          = errors.New("no stage after address, submit the order instead")
	ErrStageNotReady        = errors.New("checkout is not at the address stage")
	ErrInvalidPaymentMode   = errors.New("invalid payment mode")
	ErrSubmissionInProgress = errors.New("an order submission is already in progress")
	ErrUnknownPayment       = errors.New("no pending payment for order")
	ErrMissingPaymentRef    = errors.New("payment success without a payment reference")
)

type Field string

const (
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
	FieldPincode     Field = "pincode"
	FieldCity        Field = "city"
	FieldFullName    Field = "full_name"
	FieldAddressLine Field = "address_line"
	FieldLandmark    Field = "landmark"
)

type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonMalformed Reason = "malformed"
	ReasonTooLong   Reason = "too_long"
)

// ValidationError names the single offending draft field.
type ValidationError struct {
	Field   Field
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Field, e.Reason, e.Message)
}

func invalid(field Field, reason Reason, msg string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Message: msg}
}

// Phase records whether money had moved when a persistence call failed.
type Phase string

const (
	BeforePayment Phase = "BEFORE_PAYMENT"
	AfterPayment  Phase = "AFTER_PAYMENT"
)

// PersistenceError is an order insert or update failure.
// AfterPayment failures mean the customer was charged for an order not marked paid.
type PersistenceError struct {
	Phase      Phase
	OrderID    string
	PaymentRef string
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Phase == AfterPayment {
		return fmt.Sprintf("order %s paid (ref %s) but could not be marked paid: %v", e.OrderID, e.PaymentRef, e.Err)
	}
	if e.OrderID != "" {
		return fmt.Sprintf("order %s could not be saved: %v", e.OrderID, e.Err)
	}
	return fmt.Sprintf("order could not be saved: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsEscalation reports whether the failure needs reconciliation outside the request.
func (e *PersistenceError) IsEscalation() bool {
	return e.Phase == AfterPayment
}

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// AsPersistence unwraps err into a *PersistenceError.
func AsPersistence(err error) (*PersistenceError, bool) {
	var p *PersistenceError
	ok := errors.As(err, &p)
	return p, ok
}
