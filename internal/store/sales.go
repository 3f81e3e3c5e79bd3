package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/safar/go-inventory-sales/internal/database"
	"github.com/safar/go-inventory-sales/internal/models"
	"github.com/shopspring/decimal"
)

const saleColumns = `id, customer_id, status, total, created_at, confirmed_at`

func scanSale(row rowScanner) (*models.Sale, error) {
	sale := &models.Sale{}
	var confirmedAt sql.NullTime

	err := row.Scan(
		&sale.ID,
		&sale.CustomerID,
		&sale.Status,
		&sale.Total,
		&sale.CreatedAt,
		&confirmedAt,
	)
	if err != nil {
		return nil, err
	}

	if confirmedAt.Valid {
		sale.ConfirmedAt = &confirmedAt.Time
	}

	return sale, nil
}

// BuildSale validates the customer and line item rows and stores them as one
// pending sale. Either the sale and all its items are stored or nothing is.
func BuildSale(ctx context.Context, db *sql.DB, customerID int64, rows []LineItemRow) (*models.Sale, error) {
	var sale *models.Sale

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var err error
		sale, err = insertSale(ctx, tx, customerID, rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	return sale, nil
}

// RecordSale builds and confirms a sale in a single transaction, so a sale
// that cannot be confirmed is never stored.
func RecordSale(ctx context.Context, db *sql.DB, opts database.TxOptions, customerID int64, rows []LineItemRow) (*models.Sale, error) {
	var sale *models.Sale

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		built, err := insertSale(ctx, tx, customerID, rows)
		if err != nil {
			return err
		}

		sale, err = confirmSaleTx(ctx, tx, built.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return sale, nil
}

func insertSale(ctx context.Context, tx *sql.Tx, customerID int64, rows []LineItemRow) (*models.Sale, error) {
	exists, err := customerExists(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: customer %d", database.ErrUnknownCustomer, customerID)
	}

	kept, err := prepareLineItems(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(kept))
	for _, row := range kept {
		ids = append(ids, row.ProductID)
	}

	prices, err := productPrices(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	for _, row := range kept {
		if _, ok := prices[row.ProductID]; !ok {
			return nil, fmt.Errorf("%w: product %d", database.ErrUnknownProduct, row.ProductID)
		}
	}

	sale, err := scanSale(tx.QueryRowContext(ctx,
		`INSERT INTO sales (customer_id, status, total, created_at)
		 VALUES ($1, $2, 0, NOW())
		 RETURNING `+saleColumns,
		customerID, models.SaleStatusPending))
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", database.MapConstraintError(err))
	}

	sale.Items = make([]models.LineItem, 0, len(kept))
	for _, row := range kept {
		item := models.LineItem{
			SaleID:    sale.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			UnitPrice: prices[row.ProductID],
		}
		if row.UnitPrice != nil {
			item.UnitPrice = *row.UnitPrice
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO sale_items (sale_id, product_id, quantity, unit_price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			item.SaleID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("create sale item: %w", database.MapConstraintError(err))
		}

		sale.Items = append(sale.Items, item)
	}

	return sale, nil
}

func listLineItems(ctx context.Context, db database.DBTX, saleID int64) ([]models.LineItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, sale_id, product_id, quantity, unit_price
		 FROM sale_items
		 WHERE sale_id = $1
		 ORDER BY id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()

	items := []models.LineItem{}
	for rows.Next() {
		var item models.LineItem
		err := rows.Scan(
			&item.ID,
			&item.SaleID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func GetSale(ctx context.Context, db database.DBTX, id int64) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	sale, err := scanSale(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	items, err := listLineItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return sale, nil
}

// DeleteSale removes a sale and, by cascade, its line items. Stock taken by a
// confirmed sale is not given back.
func DeleteSale(ctx context.Context, db database.DBTX, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", database.MapConstraintError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrSaleNotFound
	}

	return nil
}

// ListSalesCursor pages through sales newest first. A zero customerID lists
// every customer's sales.
func ListSalesCursor(ctx context.Context, db database.DBTX, customerID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", database.ErrValidation)
	}

	_, limit = normalizePage(1, limit)

	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE ($1::bigint = 0 OR customer_id = $1::bigint)
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, customerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(sales) > limit
	if hasMore {
		sales = sales[:limit]
	}

	var nextCursor string
	if hasMore && len(sales) > 0 {
		last := sales[len(sales)-1]
		nextCursor = EncodeCursor(SaleCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      sales,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// SalesFilter narrows SummarizeSales. Zero values mean no restriction; To is
// exclusive.
type SalesFilter struct {
	CustomerID int64
	From       *time.Time
	To         *time.Time
	Status     models.SaleStatus
}

func (f SalesFilter) where() (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CustomerID != 0 {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at < $%d", *f.To)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SummarizeSales sums the totals of every sale matching the filter.
func SummarizeSales(ctx context.Context, db database.DBTX, filter SalesFilter) (*models.SalesSummary, error) {
	where, args := filter.where()

	summary := &models.SalesSummary{Average: decimal.Zero}
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM sales`+where, args...).
		Scan(&summary.Count, &summary.Total)
	if err != nil {
		return nil, fmt.Errorf("summarize sales: %w", err)
	}

	if summary.Count > 0 {
		summary.Average = decimal.NewFromInt(summary.Total).
			DivRound(decimal.NewFromInt(summary.Count), 2)
	}

	return summary, nil
}
