package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{channel: ch, exchange: ExchangeName, logger: zap.NewNop()}

	booking := &model.Booking{
		ID:        uuid.New(),
		ClientID:  "client-ana",
		Date:      model.NewDate(2024, 3, 4),
		StartTime: model.NewClock(9, 0),
		Modality:  model.ModalityOnline,
		Status:    model.BookingStatusScheduled,
		Origin:    model.OriginSelfService,
	}

	err := p.Publish(context.Background(), model.NewBookingEvent(model.EventBookingCreated, booking))
	require.NoError(t, err)
	require.Len(t, ch.published, 1)

	got := ch.published[0]
	assert.Equal(t, ExchangeName, got.exchange)
	assert.Equal(t, "booking.created", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, booking.ID.String(), got.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.msg.Body, &body))
	assert.Equal(t, "2024-03-04", body["date"])
	assert.Equal(t, "09:00", body["start_time"])
	assert.Equal(t, "client-ana", body["client_id"])
}

func TestRabbitMQPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &RabbitMQPublisher{channel: ch, exchange: ExchangeName, logger: zap.NewNop()}

	err := p.Publish(context.Background(), model.BookingEvent{Type: model.EventBookingCancelled})
	assert.ErrorContains(t, err, "booking.cancelled")
}

func TestRabbitMQPublisher_CloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{channel: ch, exchange: ExchangeName, logger: zap.NewNop()}

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(zap.NewNop())
	assert.NoError(t, p.Publish(context.Background(), model.BookingEvent{Type: model.EventBookingCreated}))
	assert.NoError(t, p.Close())
}
