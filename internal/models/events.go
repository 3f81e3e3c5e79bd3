package models

import "time"

const EventTypeSaleConfirmed = "sale.confirmed"

type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

type SaleItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type SaleConfirmedEvent struct {
	BaseEvent
	SaleID     int64          `json:"sale_id"`
	CustomerID int64          `json:"customer_id"`
	Total      int64          `json:"total"`
	Items      []SaleItemData `json:"items"`
}
