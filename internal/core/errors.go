package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNegativeGrandTotal is returned when a bill's discounts exceed its subtotal.
var ErrNegativeGrandTotal = errors.New("grand total cannot be negative")

// ErrConcurrencyConflict is returned when the database aborts an operation
// because of a conflicting concurrent transaction. Callers may retry.
var ErrConcurrencyConflict = errors.New("concurrent modification detected, retry the operation")

// ValidationError marks malformed or missing input. It is surfaced verbatim
// to the caller and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing bill, product or credit note.
type NotFoundError struct {
	Kind string // "bill", "product", "credit note"
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Ref)
}

func billNotFound(id int64) error {
	return &NotFoundError{Kind: "bill", Ref: fmt.Sprintf("%d", id)}
}

func productNotFound(id int64) error {
	return &NotFoundError{Kind: "product", Ref: fmt.Sprintf("%d", id)}
}

func creditNoteNotFound(id int64) error {
	return &NotFoundError{Kind: "credit note", Ref: fmt.Sprintf("%d", id)}
}

// InsufficientStockError reports a stock mutation that would drive a product's
// quantity below zero. Available and Requested let the caller show the gap.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// ItemNotInBillError reports a credit-note line whose product was not on the
// originating bill.
type ItemNotInBillError struct {
	ProductName string
}

func (e *ItemNotInBillError) Error() string {
	return fmt.Sprintf("item %s not found in original bill", e.ProductName)
}

// ExcessReturnError reports a credit-note line returning more units than the
// originating bill line sold.
type ExcessReturnError struct {
	ProductName string
	Requested   int
	Sold        int
}

func (e *ExcessReturnError) Error() string {
	return fmt.Sprintf("credit quantity (%d) cannot exceed original quantity (%d) for %s",
		e.Requested, e.Sold, e.ProductName)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConcurrencyConflict reports whether err is a retryable conflict: either
// the explicit sentinel or a serialization/deadlock abort from Postgres.
func IsConcurrencyConflict(err error) bool {
	if errors.Is(err, ErrConcurrencyConflict) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
