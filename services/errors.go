package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced record does not exist (or is not
// visible to the caller)
var ErrNotFound = errors.New("record not found")

// StateError reports a request refused because of the current state of a record
type StateError struct {
	Code    string
	Message string
	Warning bool
}

func (e *StateError) Error() string {
	return e.Message
}

// ValidationError reports input that passed binding but breaks a business rule
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrOrderNotApproved = &StateError{
		Code:    "ORDER_NOT_APPROVED",
		Message: "The order has not been approved yet",
	}
	ErrPaymentExists = &StateError{
		Code:    "PAYMENT_ALREADY_SUBMITTED",
		Message: "Payment proof has already been uploaded for this order",
		Warning: true,
	}
	ErrPaymentDecided = &StateError{
		Code:    "PAYMENT_ALREADY_DECIDED",
		Message: "This payment has already been verified or rejected",
	}
	ErrServiceTypeInUse = &StateError{
		Code:    "SERVICE_TYPE_IN_USE",
		Message: "The service type is referenced by existing orders",
	}
	ErrServiceUnavailable = &StateError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: "The selected service is not currently offered",
	}
	ErrUsernameTaken = &StateError{
		Code:    "USERNAME_TAKEN",
		Message: "A user with this username already exists",
	}
	ErrVersionTaken = &StateError{
		Code:    "VERSION_EXISTS",
		Message: "A terms of service document with this version already exists",
	}
	ErrTermsActivationConflict = &StateError{
		Code:    "TERMS_ACTIVATION_CONFLICT",
		Message: "Another terms of service version was activated at the same time, try again",
	}
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// transitionError describes an order status change the transition table forbids
func transitionError(action string, from, to string) *StateError {
	return &StateError{
		Code:    "INVALID_TRANSITION",
		Message: fmt.Sprintf("Cannot %s an order from %s to %s", action, from, to),
	}
}

// notFound maps GORM's missing-record error onto ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation detects duplicate key errors (works with PostgreSQL, MySQL and SQLite)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "unique")
}
