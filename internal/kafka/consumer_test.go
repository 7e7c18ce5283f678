package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	msg := kafka.Message{Value: []byte(`{"type":"booking_paid","booking_id":12,"reference":"ref-1","email":"a@b.c","amount":"45.00","currency":"JOD"}`)}
	event, err := DecodeEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, EventBookingPaid, event.Type)
	assert.Equal(t, int64(12), event.BookingID)
	assert.Equal(t, "45.00", event.Amount)

	_, err = DecodeEvent(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, nil)
	assert.NotNil(t, p)
	assert.NoError(t, p.Close())
}
