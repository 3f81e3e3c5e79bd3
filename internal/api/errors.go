package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/go-inventory-sales/internal/database"
	"go.uber.org/zap"
)

// writeError maps domain errors to status codes. Unclassified errors are
// logged and answered with a generic 500 so internals are not leaked.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		verr     *database.ValidationError
		lerr     *database.LineItemsError
		shortage *database.StockShortageError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": verr.Fields,
		})
	case errors.As(err, &lerr):
		body := gin.H{"error": "Invalid line items", "rows": lerr.Rows}
		if lerr.Reason != "" {
			body["details"] = lerr.Reason
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, database.ErrValidation), errors.Is(err, database.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, database.ErrDuplicateKey),
		errors.Is(err, database.ErrReferentialConflict),
		errors.Is(err, database.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.As(err, &shortage):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        "Insufficient stock",
			"details":      shortage.Error(),
			"product_id":   shortage.ProductID,
			"product_name": shortage.ProductName,
			"available":    shortage.Available,
			"requested":    shortage.Requested,
		})
	case errors.Is(err, database.ErrUnknownCustomer), errors.Is(err, database.ErrUnknownProduct):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.Is(err, database.ErrLockTimeout):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Resource busy, retry later"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})

	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
