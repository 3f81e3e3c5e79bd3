package service

import (
	"context"

	"github.com/safar/go-inventory-sales/internal/models"
	"github.com/safar/go-inventory-sales/internal/store"
	"github.com/safar/go-inventory-sales/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func (s *Service) CreateProduct(ctx context.Context, in store.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	product, err := store.CreateProduct(ctx, s.db, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.String("sku", product.SKU))
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in store.ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", id))

	product, err := store.UpdateProduct(ctx, s.db, id, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", zap.Int64("product_id", id), zap.Int("stock", product.StockQuantity))
	return product, nil
}

// DeleteProduct fails with ErrReferentialConflict while any sale line
// references the product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if err := store.DeleteProduct(ctx, s.db, id); err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	return store.GetProduct(ctx, s.db, id)
}

func (s *Service) ListProducts(ctx context.Context, query string, page, pageSize int) (*store.OffsetPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	return store.ListProducts(ctx, s.db, query, page, pageSize)
}

func (s *Service) CreateCustomer(ctx context.Context, in store.CustomerInput) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCustomer")
	defer span.End()

	customer, err := store.CreateCustomer(ctx, s.db, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer created", zap.Int64("customer_id", customer.ID))
	return customer, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, in store.CustomerInput) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateCustomer")
	defer span.End()

	return store.UpdateCustomer(ctx, s.db, id, in)
}

// DeleteCustomer fails with ErrReferentialConflict while the customer has
// sales.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCustomer")
	defer span.End()

	if err := store.DeleteCustomer(ctx, s.db, id); err != nil {
		return err
	}

	s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	return nil
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetCustomer")
	defer span.End()

	return store.GetCustomer(ctx, s.db, id)
}

func (s *Service) ListCustomers(ctx context.Context, query string, page, pageSize int) (*store.OffsetPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListCustomers")
	defer span.End()

	return store.ListCustomers(ctx, s.db, query, page, pageSize)
}
