package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	NationalID string    `json:"national_id"`
	Email      *string   `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusConfirmed SaleStatus = "confirmed"
)

type Sale struct {
	ID          int64      `json:"id"`
	CustomerID  int64      `json:"customer_id"`
	Status      SaleStatus `json:"status"`
	Total       int64      `json:"total"`
	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	Items       []LineItem `json:"items,omitempty"`
}

func (s *Sale) Confirmed() bool {
	return s.Status == SaleStatusConfirmed
}

type LineItem struct {
	ID        int64 `json:"id"`
	SaleID    int64 `json:"sale_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// SalesSummary is the aggregate over a filtered set of sales.
type SalesSummary struct {
	Count   int64           `json:"count"`
	Total   int64           `json:"total"`
	Average decimal.Decimal `json:"average"`
}
