package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/medsouq/marketplace/pkg/logger"
)

// Publisher wraps Kafka producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishPaymentCompleted publishes a payment completed event with tracing
func (p *Publisher) PublishPaymentCompleted(ctx context.Context, event PaymentCompletedEvent) error {
	event.EventType = EventTypePaymentCompleted
	return p.publish(ctx, TopicPayments, fmt.Sprintf("payment_%d", event.PaymentID), &event.EventMeta, &event)
}

// PublishOrderCancelled publishes an order cancelled event with tracing
func (p *Publisher) PublishOrderCancelled(ctx context.Context, event OrderCancelledEvent) error {
	event.EventType = EventTypeOrderCancelled
	return p.publish(ctx, TopicPayments, fmt.Sprintf("order_%d", event.OrderID), &event.EventMeta, &event)
}

// PublishInstallmentReminder publishes an installment reminder event
func (p *Publisher) PublishInstallmentReminder(ctx context.Context, event InstallmentReminderEvent) error {
	event.EventType = EventTypeInstallmentReminder
	return p.publish(ctx, TopicReminders, fmt.Sprintf("plan_%d", event.PlanID), &event.EventMeta, &event)
}

// NotifyCritical publishes a critical alert. It satisfies the error
// handler's Notifier contract.
func (p *Publisher) NotifyCritical(ctx context.Context, kind string, details map[string]any) error {
	event := PaymentAlertEvent{
		Kind:     kind,
		Severity: "critical",
		Details:  details,
	}
	if v, ok := details["payment_id"].(uint); ok {
		event.PaymentID = v
	}
	if v, ok := details["user_id"].(uint); ok {
		event.UserID = v
	}
	event.EventType = EventTypePaymentAlert
	return p.publish(ctx, TopicAlerts, kind, &event.EventMeta, &event)
}

// publish marshals the event and sends it with trace context injected
// into the Kafka headers. event must be a pointer into the same struct
// meta belongs to, so the stamped metadata ends up in the marshaled body.
func (p *Publisher) publish(ctx context.Context, topic, key string, meta *EventMeta, event any) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+meta.EventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", meta.EventType),
		),
	)
	defer span.End()

	// Set event metadata
	if meta.EventID == "" {
		meta.EventID = fmt.Sprintf("evt_%d", time.Now().UnixNano())
	}
	meta.Timestamp = time.Now()

	span.SetAttributes(attribute.String("event.id", meta.EventID))

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{
			Key:   []byte("event_type"),
			Value: []byte(meta.EventType),
		},
		{
			Key:   []byte("event_id"),
			Value: []byte(meta.EventID),
		},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", meta.EventType).
			Str("trace_id", span.SpanContext().TraceID().String()).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Logger.Info().
		Str("event_id", meta.EventID).
		Str("event_type", meta.EventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str("trace_id", span.SpanContext().TraceID().String()).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
