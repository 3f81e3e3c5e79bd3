package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safar/go-inventory-sales/internal/models"
	"github.com/safar/go-inventory-sales/internal/redisclient"
	"github.com/safar/go-inventory-sales/internal/store"
	"github.com/safar/go-inventory-sales/internal/util"
	"go.uber.org/zap"
)

// Service is the set of operations the HTTP layer exposes.
type Service interface {
	Ping(ctx context.Context) error

	CreateProduct(ctx context.Context, in store.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in store.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, query string, page, pageSize int) (*store.OffsetPage, error)

	CreateCustomer(ctx context.Context, in store.CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, in store.CustomerInput) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, query string, page, pageSize int) (*store.OffsetPage, error)

	BuildSale(ctx context.Context, customerID int64, rows []store.LineItemRow) (*models.Sale, error)
	ConfirmSale(ctx context.Context, saleID int64) (*models.Sale, error)
	RecordSale(ctx context.Context, customerID int64, rows []store.LineItemRow) (*models.Sale, error)
	GetSale(ctx context.Context, id int64) (*models.Sale, error)
	ListSales(ctx context.Context, customerID int64, cursor string, limit int) (*store.CursorPage, error)
	DeleteSale(ctx context.Context, id int64) error
	SalesSummary(ctx context.Context, filter store.SalesFilter) (*models.SalesSummary, error)
}

// IdempotencyStore deduplicates sale creation requests by client key.
type IdempotencyStore interface {
	ClaimSaleKey(ctx context.Context, key string) (saleID int64, claimed bool, err error)
	CompleteSaleKey(ctx context.Context, key string, saleID int64) error
	ReleaseSaleKey(ctx context.Context, key string) error
}

// Handler contains HTTP handlers
type Handler struct {
	service     Service
	idempotency IdempotencyStore
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler. idempotency may be nil.
func NewHandler(service Service, idempotency IdempotencyStore) *Handler {
	return &Handler{
		service:     service,
		idempotency: idempotency,
		logger:      util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(h.requestLogger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products", h.createProduct)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers", h.listCustomers)
		v1.GET("/customers/:id", h.getCustomer)
		v1.PUT("/customers/:id", h.updateCustomer)
		v1.DELETE("/customers/:id", h.deleteCustomer)

		v1.POST("/sales", h.buildSale)
		v1.POST("/sales/record", h.recordSale)
		v1.GET("/sales", h.listSales)
		v1.GET("/sales/:id", h.getSale)
		v1.POST("/sales/:id/confirm", h.confirmSale)
		v1.DELETE("/sales/:id", h.deleteSale)

		v1.GET("/reports/sales", h.salesSummary)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only while the database answers.
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// saleRequest is the body of POST /sales and POST /sales/record.
type saleRequest struct {
	CustomerID int64               `json:"customer_id"`
	Items      []store.LineItemRow `json:"items"`
}

func (h *Handler) buildSale(c *gin.Context) {
	h.createSale(c, h.service.BuildSale)
}

func (h *Handler) recordSale(c *gin.Context) {
	h.createSale(c, h.service.RecordSale)
}

func (h *Handler) createSale(c *gin.Context, create func(context.Context, int64, []store.LineItemRow) (*models.Sale, error)) {
	var req saleRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	var key string
	if h.idempotency != nil {
		key = c.GetHeader("Idempotency-Key")
	}

	if key != "" {
		saleID, claimed, err := h.idempotency.ClaimSaleKey(ctx, key)
		switch {
		case err != nil && isKeyInFlight(err):
			c.JSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is still in progress"})
			return
		case err != nil:
			h.logger.Warn("Idempotency store unavailable, continuing without it", zap.Error(err))
			key = ""
		case !claimed:
			h.logger.Info("Duplicate sale request detected",
				zap.String("idempotency_key", key),
				zap.Int64("sale_id", saleID))
			sale, err := h.service.GetSale(ctx, saleID)
			if err != nil {
				h.writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, sale)
			return
		}
	}

	sale, err := create(ctx, req.CustomerID, req.Items)
	if err != nil {
		if key != "" {
			if relErr := h.idempotency.ReleaseSaleKey(context.WithoutCancel(ctx), key); relErr != nil {
				h.logger.Warn("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(relErr))
			}
		}
		h.writeError(c, err)
		return
	}

	if key != "" {
		if err := h.idempotency.CompleteSaleKey(context.WithoutCancel(ctx), key, sale.ID); err != nil {
			h.logger.Warn("Failed to store idempotency key", zap.String("idempotency_key", key), zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, sale)
}

func (h *Handler) confirmSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sale, err := h.service.ConfirmSale(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sale)
}

func (h *Handler) getSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sale, err := h.service.GetSale(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sale)
}

func (h *Handler) listSales(c *gin.Context) {
	customerID, ok := queryInt64(c, "customer_id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", store.DefaultPageSize)
	if !ok {
		return
	}

	page, err := h.service.ListSales(c.Request.Context(), customerID, c.Query("cursor"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) deleteSale(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSale(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) salesSummary(c *gin.Context) {
	customerID, ok := queryInt64(c, "customer_id")
	if !ok {
		return
	}

	filter := store.SalesFilter{CustomerID: customerID}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter", "details": err.Error()})
			return
		}
		*dst = &t
	}

	switch status := models.SaleStatus(c.Query("status")); status {
	case "", models.SaleStatusPending, models.SaleStatusConfirmed:
		filter.Status = status
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status parameter"})
		return
	}

	summary, err := h.service.SalesSummary(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger logs one line per request through zap.
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		h.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, defaultValue int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return v, true
}

func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return v, true
}

// parseTime accepts RFC 3339 timestamps or plain dates (UTC midnight).
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

func isKeyInFlight(err error) bool {
	return errors.Is(err, redisclient.ErrKeyInFlight)
}
