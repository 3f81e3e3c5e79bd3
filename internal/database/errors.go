package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeLockNotAvailable    = "55P03"
)

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeSerialization:
			return ErrorClassSerialization
		case codeDeadlock:
			return ErrorClassDeadlock
		case codeLockNotAvailable:
			return ErrorClassTransient
		case codeUniqueViolation, codeForeignKeyViolation, codeNotNullViolation, codeCheckViolation, codeNumericOutOfRange:
			return ErrorClassPermanent
		}
	}

	// MapConstraintError replaces 55P03 with the sentinel.
	if errors.Is(err, ErrLockTimeout) {
		return ErrorClassTransient
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorClassPermanent
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

// MapConstraintError turns constraint violations reported by PostgreSQL into
// the domain sentinels. Other errors are returned unchanged.
func MapConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Constraint)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrReferentialConflict, pqErr.Constraint)
	case codeCheckViolation, codeNotNullViolation:
		return fmt.Errorf("%w: %s", ErrValidation, pqErr.Constraint)
	case codeNumericOutOfRange:
		return fmt.Errorf("%w: numeric value out of range", ErrValidation)
	case codeLockNotAvailable:
		return ErrLockTimeout
	}

	return err
}

var (
	ErrNotFound         = errors.New("not found")
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrSaleNotFound     = fmt.Errorf("sale %w", ErrNotFound)

	ErrValidation          = errors.New("validation failed")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrReferentialConflict = errors.New("referential conflict")
	ErrUnknownCustomer     = errors.New("unknown customer")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrInvalidLineItems    = errors.New("invalid line items")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrAlreadyConfirmed    = errors.New("sale already confirmed")
	ErrLockTimeout         = errors.New("lock timeout")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field rejected for one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RowError ties field errors to the position of a submitted line item row.
type RowError struct {
	Row    int          `json:"row"`
	Fields []FieldError `json:"fields"`
}

// LineItemsError rejects a whole line item batch. Reason is set when the batch
// fails as a whole (for example, no usable rows).
type LineItemsError struct {
	Reason string
	Rows   []RowError
}

func (e *LineItemsError) Error() string {
	if e.Reason != "" {
		return "invalid line items: " + e.Reason
	}
	return fmt.Sprintf("invalid line items: %d row(s) rejected", len(e.Rows))
}

func (e *LineItemsError) Unwrap() error { return ErrInvalidLineItems }

// StockShortageError reports the product that could not cover a sale.
type StockShortageError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (product %d): available %d, requested %d",
		e.ProductName, e.ProductID, e.Available, e.Requested)
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }
