package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-inventory-sales/internal/database"
	"github.com/safar/go-inventory-sales/internal/models"
)

const customerColumns = `id, name, national_id, email, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	customer := &models.Customer{}
	var email sql.NullString

	err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.NationalID,
		&email,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		customer.Email = &email.String
	}

	return customer, nil
}

func CreateCustomer(ctx context.Context, db database.DBTX, in CustomerInput) (*models.Customer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO customers (name, national_id, email, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + customerColumns

	customer, err := scanCustomer(db.QueryRowContext(ctx, query, in.Name, in.NationalID, in.Email))
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", database.MapConstraintError(err))
	}

	return customer, nil
}

func UpdateCustomer(ctx context.Context, db database.DBTX, id int64, in CustomerInput) (*models.Customer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE customers
		SET name = $1, national_id = $2, email = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + customerColumns

	customer, err := scanCustomer(db.QueryRowContext(ctx, query, in.Name, in.NationalID, in.Email, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer: %w", database.MapConstraintError(err))
	}

	return customer, nil
}

// DeleteCustomer fails with ErrReferentialConflict while any sale references
// the customer.
func DeleteCustomer(ctx context.Context, db database.DBTX, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", database.MapConstraintError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrCustomerNotFound
	}

	return nil
}

func GetCustomer(ctx context.Context, db database.DBTX, id int64) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func customerExists(ctx context.Context, db database.DBTX, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)",
		id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

func ListCustomers(ctx context.Context, db database.DBTX, query string, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	pattern := likePattern(query)

	var total int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE name ILIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	offset := (page - 1) * pageSize
	listQuery := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE name ILIKE $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3`

	rows, err := db.QueryContext(ctx, listQuery, pattern, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(customers, total, page, pageSize), nil
}
