package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-inventory-sales/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishSaleConfirmed(t *testing.T) {
	writer := &recordingWriter{}
	publisher := NewEventPublisher(&Producer{writer: writer, logger: zap.NewNop()})

	event := &models.SaleConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeSaleConfirmed,
			Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		SaleID:     7,
		CustomerID: 3,
		Total:      1500,
		Items:      []models.SaleItemData{{ProductID: 1, Quantity: 3, UnitPrice: 500}},
	}

	require.NoError(t, publisher.PublishSaleConfirmed(context.Background(), event))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "sale-7", string(writer.messages[0].Key))

	var decoded models.SaleConfirmedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, models.EventTypeSaleConfirmed, decoded.EventType)
	assert.Equal(t, int64(1500), decoded.Total)
	assert.Len(t, decoded.Items, 1)
}

func TestPublishEventWrapsWriterError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	producer := &Producer{writer: writer, logger: zap.NewNop()}

	err := producer.PublishEvent(context.Background(), "k", map[string]int{"a": 1})
	assert.ErrorContains(t, err, "broker down")

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}
