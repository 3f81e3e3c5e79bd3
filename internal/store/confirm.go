package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/safar/go-inventory-sales/internal/database"
	"github.com/safar/go-inventory-sales/internal/models"
)

// StockDelta is the decrement one product receives when a sale is confirmed.
type StockDelta struct {
	ProductID int64
	Quantity  int
	NewStock  int
}

// ConfirmationPlan is the result of checking a sale's line items against a
// snapshot of locked product rows. Deltas are ordered by product id.
type ConfirmationPlan struct {
	Total  int64
	Deltas []StockDelta
}

// PlanConfirmation validates every line item against the locked snapshot
// without mutating anything. Quantities for the same product are summed
// before comparing with its stock.
func PlanConfirmation(items []models.LineItem, locked map[int64]models.Product) (*ConfirmationPlan, error) {
	if len(items) == 0 {
		return nil, &database.LineItemsError{Reason: "sale has no line items"}
	}

	requested := make(map[int64]int, len(locked))
	var total int64

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line item %d has quantity %d",
				database.ErrInvalidQuantity, item.ID, item.Quantity)
		}

		product, ok := locked[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", database.ErrUnknownProduct, item.ProductID)
		}

		requested[item.ProductID] += item.Quantity
		if product.StockQuantity < requested[item.ProductID] {
			return nil, &database.StockShortageError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.StockQuantity,
				Requested:   requested[item.ProductID],
			}
		}

		subtotal, ok := lineSubtotal(item)
		if !ok || total > math.MaxInt64-subtotal {
			return nil, fmt.Errorf("%w: line item %d total out of range",
				database.ErrInvalidQuantity, item.ID)
		}
		total += subtotal
	}

	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	plan := &ConfirmationPlan{Total: total, Deltas: make([]StockDelta, 0, len(ids))}
	for _, id := range ids {
		plan.Deltas = append(plan.Deltas, StockDelta{
			ProductID: id,
			Quantity:  requested[id],
			NewStock:  locked[id].StockQuantity - requested[id],
		})
	}

	return plan, nil
}

// ConfirmSale locks the sale and its products, checks stock, decrements it and
// fixes the sale total, all in one transaction. Nothing is changed when any
// step fails.
func ConfirmSale(ctx context.Context, db *sql.DB, opts database.TxOptions, saleID int64) (*models.Sale, error) {
	var sale *models.Sale

	err := database.WithRetry(ctx, db, opts, func(tx *sql.Tx) error {
		var err error
		sale, err = confirmSaleTx(ctx, tx, saleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return sale, nil
}

func confirmSaleTx(ctx context.Context, tx *sql.Tx, saleID int64) (*models.Sale, error) {
	sale, err := lockSale(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}

	if sale.Confirmed() {
		return nil, fmt.Errorf("%w: sale %d", database.ErrAlreadyConfirmed, saleID)
	}

	items, err := listLineItems(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}

	locked, err := LockProducts(ctx, tx, distinctProductIDs(items))
	if err != nil {
		return nil, err
	}

	plan, err := PlanConfirmation(items, locked)
	if err != nil {
		return nil, err
	}

	for _, delta := range plan.Deltas {
		if err := DecrementStock(ctx, tx, delta.ProductID, delta.Quantity); err != nil {
			return nil, fmt.Errorf("product %d: %w", delta.ProductID, err)
		}
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE sales
		 SET total = $1, status = $2, confirmed_at = NOW()
		 WHERE id = $3
		 RETURNING total, status, confirmed_at`,
		plan.Total, models.SaleStatusConfirmed, saleID).Scan(&sale.Total, &sale.Status, &sale.ConfirmedAt)
	if err != nil {
		return nil, fmt.Errorf("update sale total: %w", database.MapConstraintError(err))
	}

	sale.Items = items
	return sale, nil
}

func lockSale(ctx context.Context, tx *sql.Tx, saleID int64) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`

	sale, err := scanSale(tx.QueryRowContext(ctx, query, saleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("lock sale: %w", database.MapConstraintError(err))
	}

	return sale, nil
}

// lineSubtotal multiplies quantity by unit price, reporting false when the
// price is negative or the product does not fit in an int64.
func lineSubtotal(item models.LineItem) (int64, bool) {
	if item.UnitPrice < 0 {
		return 0, false
	}
	if item.UnitPrice != 0 && int64(item.Quantity) > math.MaxInt64/item.UnitPrice {
		return 0, false
	}
	return item.Subtotal(), true
}

// distinctProductIDs returns the product ids referenced by items, ascending.
func distinctProductIDs(items []models.LineItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
