package rascal

import (
	"testing"

	driver "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestDeliveryToMessagePreservesIdentityAndBody(t *testing.T) {
	d := driver.Delivery{
		Headers:       driver.Table{"x-custom": "1"},
		ContentType:   "application/json",
		MessageId:     "msg-1",
		CorrelationId: "corr-1",
		ReplyTo:       "replies",
		Body:          []byte(`{"ok":true}`),
	}

	msg := deliveryToMessage(d)
	assert.Equal(t, d.MessageId, msg.MessageId)
	assert.Equal(t, d.ContentType, msg.ContentType)
	assert.Equal(t, d.CorrelationId, msg.CorrelationId)
	assert.Equal(t, d.ReplyTo, msg.ReplyTo)
	assert.Equal(t, d.Body, msg.Body)
	assert.Equal(t, d.Headers["x-custom"], msg.Headers["x-custom"])
}
