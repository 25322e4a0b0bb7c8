package checkout

import (
	"fmt"

	"github.com/MarcGrol/shopcheckout/lib/myerrors"
	"github.com/MarcGrol/shopcheckout/services/ordergateway"
)

type ErrorKind string

const (
	KindValidation             ErrorKind = "ValidationError"
	KindLookupDegraded         ErrorKind = "LookupDegraded"
	KindInventoryUnavailable   ErrorKind = "InventoryUnavailable"
	KindShippingRestriction    ErrorKind = "ShippingRestriction"
	KindOrderSubmissionFailure ErrorKind = "OrderSubmissionFailure"
)

// ItemProblem names a cart line the shopper can remove to get going again.
type ItemProblem struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Error is what every checkout operation reports to the shopper. Only the kind decides how it is presented.
type Error struct {
	Kind        ErrorKind
	Message     string
	Field       string
	Items       []ItemProblem
	Failure     ordergateway.FailureKind
	OrderNumber string
	err         error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) ErrorKind() string {
	return string(e.Kind)
}

type errorDetails struct {
	Field       string                   `json:"field,omitempty"`
	Items       []ItemProblem            `json:"items,omitempty"`
	Failure     ordergateway.FailureKind `json:"failure,omitempty"`
	OrderNumber string                   `json:"orderNumber,omitempty"`
}

func (e *Error) ErrorDetails() any {
	return errorDetails{
		Field:       e.Field,
		Items:       e.Items,
		Failure:     e.Failure,
		OrderNumber: e.OrderNumber,
	}
}

// Recoverable tells whether removing items from the cart resolves the error.
func (e *Error) Recoverable() bool {
	return e.Kind == KindInventoryUnavailable || e.Kind == KindShippingRestriction
}

func newValidationError(field string, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Field:   field,
		err:     myerrors.NewInvalidInputError(fmt.Errorf("%s: %s", field, message)),
	}
}

func newShippingRestriction(message string, items []ItemProblem) *Error {
	return &Error{
		Kind:    KindShippingRestriction,
		Message: message,
		Items:   items,
		err:     myerrors.NewUnprocessableError(fmt.Errorf("shipping restriction: %s", message)),
	}
}

func newInventoryUnavailable(message string, items []ItemProblem) *Error {
	return &Error{
		Kind:    KindInventoryUnavailable,
		Message: message,
		Items:   items,
		err:     myerrors.NewUnprocessableError(fmt.Errorf("inventory unavailable: %s", message)),
	}
}

func newSubmissionFailure(failure *ordergateway.Failure) *Error {
	e := &Error{
		Kind:    KindOrderSubmissionFailure,
		Message: failure.Message,
		Failure: failure.Kind,
		err:     failure,
	}
	if failure.Order != nil {
		e.OrderNumber = failure.Order.OrderNumber
	}
	return e
}
