package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safar/go-inventory-sales/internal/store"
)

func (h *Handler) createProduct(c *gin.Context) {
	var in store.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in store.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) listProducts(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}

	result, err := h.service.ListProducts(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) createCustomer(c *gin.Context) {
	var in store.CustomerInput
	if !bindJSON(c, &in) {
		return
	}

	customer, err := h.service.CreateCustomer(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in store.CustomerInput
	if !bindJSON(c, &in) {
		return
	}

	customer, err := h.service.UpdateCustomer(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *Handler) listCustomers(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}

	result, err := h.service.ListCustomers(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func pageParams(c *gin.Context) (page, pageSize int, ok bool) {
	if page, ok = queryInt(c, "page", 1); !ok {
		return 0, 0, false
	}
	if pageSize, ok = queryInt(c, "page_size", store.DefaultPageSize); !ok {
		return 0, 0, false
	}
	return page, pageSize, true
}
