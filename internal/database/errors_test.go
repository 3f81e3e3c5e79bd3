package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorClassPermanent},
		{"serialization", &pq.Error{Code: "40001"}, ErrorClassSerialization},
		{"deadlock", &pq.Error{Code: "40P01"}, ErrorClassDeadlock},
		{"lock not available", &pq.Error{Code: "55P03"}, ErrorClassTransient},
		{"mapped lock timeout", fmt.Errorf("lock sale: %w", ErrLockTimeout), ErrorClassTransient},
		{"wrapped deadlock", fmt.Errorf("lock products: %w", &pq.Error{Code: "40P01"}), ErrorClassDeadlock},
		{"unique violation", &pq.Error{Code: "23505"}, ErrorClassPermanent},
		{"no rows", sql.ErrNoRows, ErrorClassPermanent},
		{"domain error", ErrInsufficientStock, ErrorClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pq.Error{Code: "40P01"}))
	assert.True(t, IsRetryable(&pq.Error{Code: "40001"}))
	assert.False(t, IsRetryable(&pq.Error{Code: "23503"}))
	assert.False(t, IsRetryable(&StockShortageError{ProductID: 1}))
}

func TestMapConstraintError(t *testing.T) {
	dup := MapConstraintError(fmt.Errorf("create product: %w", &pq.Error{Code: "23505", Constraint: "products_sku_key"}))
	assert.ErrorIs(t, dup, ErrDuplicateKey)
	assert.Contains(t, dup.Error(), "products_sku_key")

	fk := MapConstraintError(&pq.Error{Code: "23503", Constraint: "sales_customer_id_fkey"})
	assert.ErrorIs(t, fk, ErrReferentialConflict)

	check := MapConstraintError(&pq.Error{Code: "23514", Constraint: "products_sku_format"})
	assert.ErrorIs(t, check, ErrValidation)

	assert.ErrorIs(t, MapConstraintError(&pq.Error{Code: "55P03"}), ErrLockTimeout)

	outOfRange := MapConstraintError(fmt.Errorf("create sale item: %w", &pq.Error{Code: "22003"}))
	assert.ErrorIs(t, outOfRange, ErrValidation)
	assert.False(t, IsRetryable(&pq.Error{Code: "22003"}))

	plain := errors.New("boom")
	assert.Same(t, plain, MapConstraintError(plain))
}

func TestNotFoundSentinels(t *testing.T) {
	assert.ErrorIs(t, ErrProductNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrCustomerNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrSaleNotFound, ErrNotFound)
	assert.Equal(t, "product not found", ErrProductNotFound.Error())
}

func TestTypedErrorsUnwrap(t *testing.T) {
	var err error = &StockShortageError{ProductID: 7, ProductName: "Widget", Available: 2, Requested: 5}
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 2, requested 5")

	var shortage *StockShortageError
	assert.True(t, errors.As(fmt.Errorf("confirm sale: %w", err), &shortage))
	assert.Equal(t, int64(7), shortage.ProductID)

	err = &ValidationError{Fields: []FieldError{{Field: "sku", Message: "invalid format"}}}
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: sku: invalid format", err.Error())

	err = &LineItemsError{Reason: "no line items"}
	assert.ErrorIs(t, err, ErrInvalidLineItems)
	assert.Equal(t, "invalid line items: no line items", err.Error())
}
