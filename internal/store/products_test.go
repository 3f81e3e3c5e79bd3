package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/safar/go-inventory-sales/internal/database"
	"github.com/safar/go-inventory-sales/internal/models"
)

func TestProductLedger(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	t.Run("sku format", func(t *testing.T) {
		_, err := CreateProduct(ctx, db, ProductInput{Name: "Short", SKU: "ab", Price: 1})
		if !errors.Is(err, database.ErrValidation) {
			t.Errorf("Expected validation error for sku ab, got: %v", err)
		}

		product, err := CreateProduct(ctx, db, ProductInput{Name: "Good", SKU: "ABC-123", Price: 1})
		if err != nil {
			t.Fatalf("Create product ABC-123: %v", err)
		}
		if product.ID == 0 {
			t.Error("Product ID should not be 0")
		}
	})

	t.Run("duplicate sku", func(t *testing.T) {
		if _, err := CreateProduct(ctx, db, ProductInput{Name: "First", SKU: "X-1", Price: 1}); err != nil {
			t.Fatalf("Create first X-1: %v", err)
		}

		_, err := CreateProduct(ctx, db, ProductInput{Name: "Second", SKU: "x-1", Price: 1})
		if !errors.Is(err, database.ErrDuplicateKey) {
			t.Errorf("Expected duplicate key, got: %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		id := mustCreateProduct(t, db, "UPD-1", 100, 5)

		updated, err := UpdateProduct(ctx, db, id, ProductInput{Name: "Renamed", SKU: "upd-2", Price: 150, StockQuantity: 8})
		if err != nil {
			t.Fatalf("Update product: %v", err)
		}
		if updated.SKU != "UPD-2" || updated.Price != 150 || updated.StockQuantity != 8 {
			t.Errorf("Unexpected updated product: %+v", updated)
		}

		_, err = UpdateProduct(ctx, db, id, ProductInput{Name: "Clash", SKU: "ABC-123", Price: 1})
		if !errors.Is(err, database.ErrDuplicateKey) {
			t.Errorf("Expected duplicate key on update, got: %v", err)
		}

		_, err = UpdateProduct(ctx, db, 999999, ProductInput{Name: "Ghost", SKU: "GHOST", Price: 1})
		if !errors.Is(err, database.ErrProductNotFound) {
			t.Errorf("Expected product not found, got: %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		id := mustCreateProduct(t, db, "DEL-1", 100, 5)

		if err := DeleteProduct(ctx, db, id); err != nil {
			t.Fatalf("Delete product: %v", err)
		}
		if err := DeleteProduct(ctx, db, id); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected not found on second delete, got: %v", err)
		}
	})

	t.Run("delete referenced", func(t *testing.T) {
		id := mustCreateProduct(t, db, "DEL-REF", 100, 5)
		customerID := mustCreateCustomer(t, db, "DELREF-1")

		if _, err := BuildSale(ctx, db, customerID, []LineItemRow{{ProductID: id, Quantity: 1}}); err != nil {
			t.Fatalf("Build sale: %v", err)
		}

		err := DeleteProduct(ctx, db, id)
		if !errors.Is(err, database.ErrReferentialConflict) {
			t.Errorf("Expected referential conflict, got: %v", err)
		}
		if _, err := GetProduct(ctx, db, id); err != nil {
			t.Errorf("Product should still exist: %v", err)
		}
	})

	t.Run("list filter", func(t *testing.T) {
		for _, sku := range []string{"LST-1", "LST-2", "LST-3"} {
			if _, err := CreateProduct(ctx, db, ProductInput{Name: "Lamp " + sku, SKU: sku, Price: 1}); err != nil {
				t.Fatalf("Create %s: %v", sku, err)
			}
		}

		page, err := ListProducts(ctx, db, "lamp", 1, 2)
		if err != nil {
			t.Fatalf("List products: %v", err)
		}
		products := page.Items.([]models.Product)
		if page.Total != 3 || page.TotalPages != 2 || len(products) != 2 {
			t.Errorf("Unexpected page: total=%d pages=%d items=%d", page.Total, page.TotalPages, len(products))
		}
		if products[0].SKU != "LST-3" {
			t.Errorf("Expected newest product first, got %s", products[0].SKU)
		}
	})
}

func TestConcurrentStockReservation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	id := mustCreateProduct(t, db, "TEST-001", 100, 10)

	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			errs <- database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
				locked, err := LockProducts(ctx, tx, []int64{id})
				if err != nil {
					return err
				}
				if locked[id].StockQuantity < 3 {
					return database.ErrInsufficientStock
				}
				return DecrementStock(ctx, tx, id, 3)
			})
		}()
	}

	successCount := 0
	for i := 0; i < 5; i++ {
		if err := <-errs; err == nil {
			successCount++
		} else if !errors.Is(err, database.ErrInsufficientStock) {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if successCount != 3 {
		t.Errorf("Expected 3 successful reservations, got %d", successCount)
	}
	if got := stockOf(t, db, id); got != 1 {
		t.Errorf("Expected stock 1, got %d", got)
	}
}
