package broker

import (
	"context"
	"fmt"

	"github.com/safar/go-inventory-sales/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleConfirmed publishes a SaleConfirmed event keyed by sale.
func (ep *EventPublisher) PublishSaleConfirmed(ctx context.Context, event *models.SaleConfirmedEvent) error {
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}
