package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingProducer records sent messages instead of talking to a broker.
type capturingProducer struct {
	sarama.SyncProducer
	messages []*sarama.ProducerMessage
}

func (c *capturingProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	c.messages = append(c.messages, msg)
	return 0, int64(len(c.messages)), nil
}

func (c *capturingProducer) Close() error { return nil }

func headerValue(msg *sarama.ProducerMessage, key string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishedEventBodyCarriesEnvelope(t *testing.T) {
	producer := &capturingProducer{}
	publisher := &Publisher{producer: producer}

	err := publisher.PublishPaymentCompleted(context.Background(), PaymentCompletedEvent{
		PaymentID: 42,
		OrderID:   7,
		Amount:    500,
		Currency:  "LYD",
	})
	require.NoError(t, err)
	require.Len(t, producer.messages, 1)

	msg := producer.messages[0]
	body, err := msg.Value.Encode()
	require.NoError(t, err)

	var decoded PaymentCompletedEvent
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, EventTypePaymentCompleted, decoded.EventType)
	assert.NotEmpty(t, decoded.EventID)
	assert.False(t, decoded.Timestamp.IsZero())

	// The body envelope and the Kafka headers must agree, otherwise a
	// consumer reading only the JSON loses event identity.
	assert.Equal(t, decoded.EventID, headerValue(msg, "event_id"))
	assert.Equal(t, decoded.EventType, headerValue(msg, "event_type"))

	assert.Equal(t, uint(42), decoded.PaymentID)
	assert.Equal(t, "payment_42", string(msg.Key.(sarama.StringEncoder)))
	assert.Equal(t, TopicPayments, msg.Topic)
}

func TestNotifyCriticalStampsEnvelope(t *testing.T) {
	producer := &capturingProducer{}
	publisher := &Publisher{producer: producer}

	err := publisher.NotifyCritical(context.Background(), "gateway", map[string]any{
		"payment_id": uint(11),
	})
	require.NoError(t, err)
	require.Len(t, producer.messages, 1)

	body, err := producer.messages[0].Value.Encode()
	require.NoError(t, err)

	var decoded PaymentAlertEvent
	require.NoError(t, json.Unmarshal(body, &decoded))

	assert.Equal(t, EventTypePaymentAlert, decoded.EventType)
	assert.NotEmpty(t, decoded.EventID)
	assert.False(t, decoded.Timestamp.IsZero())
	assert.Equal(t, uint(11), decoded.PaymentID)
	assert.Equal(t, "critical", decoded.Severity)
}
