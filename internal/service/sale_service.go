package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-inventory-sales/internal/database"
	"github.com/safar/go-inventory-sales/internal/models"
	"github.com/safar/go-inventory-sales/internal/store"
	"github.com/safar/go-inventory-sales/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EventPublisher receives sale events once their transaction has committed.
type EventPublisher interface {
	PublishSaleConfirmed(ctx context.Context, event *models.SaleConfirmedEvent) error
}

// Service exposes the product ledger, customer directory and sales operations.
type Service struct {
	db     *sql.DB
	txOpts database.TxOptions
	events EventPublisher
	logger *zap.Logger
}

// New creates a service. events may be nil, in which case no events are sent.
func New(db *sql.DB, txOpts database.TxOptions, events EventPublisher) *Service {
	return &Service{
		db:     db,
		txOpts: txOpts,
		events: events,
		logger: util.GetLogger(),
	}
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// BuildSale stores a pending sale for the customer.
func (s *Service) BuildSale(ctx context.Context, customerID int64, rows []store.LineItemRow) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.BuildSale")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", customerID), attribute.Int("rows", len(rows)))

	sale, err := store.BuildSale(ctx, s.db, customerID, rows)
	if err != nil {
		s.recordFailure(span, "build", err)
		return nil, err
	}

	util.SalesBuiltTotal.Inc()
	s.logger.Info("Sale built",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("customer_id", customerID),
		zap.Int("items", len(sale.Items)))

	return sale, nil
}

// ConfirmSale decrements stock for every line of a pending sale and fixes its
// total.
func (s *Service) ConfirmSale(ctx context.Context, saleID int64) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.ConfirmSale")
	defer span.End()
	span.SetAttributes(attribute.Int64("sale.id", saleID))

	start := time.Now()
	sale, err := store.ConfirmSale(ctx, s.db, s.txOpts, saleID)
	util.ConfirmLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(span, "confirm", err)
		return nil, err
	}

	s.afterConfirm(ctx, sale)
	return sale, nil
}

// RecordSale builds and confirms a sale atomically.
func (s *Service) RecordSale(ctx context.Context, customerID int64, rows []store.LineItemRow) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.RecordSale")
	defer span.End()
	span.SetAttributes(attribute.Int64("customer.id", customerID), attribute.Int("rows", len(rows)))

	start := time.Now()
	sale, err := store.RecordSale(ctx, s.db, s.txOpts, customerID, rows)
	util.ConfirmLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(span, "record", err)
		return nil, err
	}

	util.SalesBuiltTotal.Inc()
	s.afterConfirm(ctx, sale)
	return sale, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.GetSale")
	defer span.End()

	return store.GetSale(ctx, s.db, id)
}

func (s *Service) ListSales(ctx context.Context, customerID int64, cursor string, limit int) (*store.CursorPage, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.ListSales")
	defer span.End()

	return store.ListSalesCursor(ctx, s.db, customerID, cursor, limit)
}

// DeleteSale removes a sale. Stock is not restored.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "SaleService.DeleteSale")
	defer span.End()

	if err := store.DeleteSale(ctx, s.db, id); err != nil {
		return err
	}

	s.logger.Info("Sale deleted", zap.Int64("sale_id", id))
	return nil
}

func (s *Service) SalesSummary(ctx context.Context, filter store.SalesFilter) (*models.SalesSummary, error) {
	ctx, span := util.StartSpan(ctx, "SaleService.SalesSummary")
	defer span.End()

	return store.SummarizeSales(ctx, s.db, filter)
}

func (s *Service) afterConfirm(ctx context.Context, sale *models.Sale) {
	util.SalesConfirmedTotal.Inc()
	util.SalesRevenueTotal.Add(float64(sale.Total))
	util.StockUnitsSoldTotal.Add(float64(unitsSold(sale)))

	s.logger.Info("Sale confirmed",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("customer_id", sale.CustomerID),
		zap.Int64("total", sale.Total))

	s.publishConfirmed(ctx, sale)
}

// publishConfirmed sends the SaleConfirmed event. The sale is already
// committed, so a publish failure is logged and counted but not returned.
func (s *Service) publishConfirmed(ctx context.Context, sale *models.Sale) {
	if s.events == nil {
		return
	}

	event := newSaleConfirmedEvent(sale)
	if err := s.events.PublishSaleConfirmed(ctx, event); err != nil {
		util.EventsPublishFailedTotal.Inc()
		s.logger.Error("Failed to publish SaleConfirmed event",
			zap.Int64("sale_id", sale.ID),
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
}

func unitsSold(sale *models.Sale) int64 {
	var units int64
	for _, item := range sale.Items {
		units += int64(item.Quantity)
	}
	return units
}

func newSaleConfirmedEvent(sale *models.Sale) *models.SaleConfirmedEvent {
	items := make([]models.SaleItemData, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, models.SaleItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	timestamp := time.Now()
	if sale.ConfirmedAt != nil {
		timestamp = *sale.ConfirmedAt
	}

	return &models.SaleConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleConfirmed,
			Timestamp: timestamp,
		},
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Total:      sale.Total,
		Items:      items,
	}
}

func (s *Service) recordFailure(span trace.Span, op string, err error) {
	reason := failureReason(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	util.SalesFailedTotal.WithLabelValues(reason).Inc()

	if reason == "db_error" {
		s.logger.Error("Sale operation failed", zap.String("op", op), zap.Error(err))
		return
	}
	s.logger.Warn("Sale rejected", zap.String("op", op), zap.String("reason", reason), zap.Error(err))
}

// failureReason maps an error to a low-cardinality metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, database.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, database.ErrInvalidLineItems):
		return "invalid_items"
	case errors.Is(err, database.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, database.ErrUnknownProduct):
		return "unknown_product"
	case errors.Is(err, database.ErrUnknownCustomer):
		return "unknown_customer"
	case errors.Is(err, database.ErrAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, database.ErrNotFound):
		return "not_found"
	case errors.Is(err, database.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "db_error"
	}
}
