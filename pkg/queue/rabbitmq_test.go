package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPublishingIsPersistentJSON(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	msg, err := buildPublishing(map[string]string{"type": "ride.started"}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)
	assert.NotEmpty(t, msg.MessageId)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "ride.started", body["type"])
}

func TestBuildPublishingRejectsUnencodablePayload(t *testing.T) {
	_, err := buildPublishing(make(chan int), time.Now())
	assert.Error(t, err)
}

func TestClosedPublisherRefusesToPublish(t *testing.T) {
	p := &RabbitMQPublisher{closed: true}
	assert.ErrorIs(t, p.Publish(context.Background(), "ride.created", struct{}{}), ErrClosed)
}
