package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"catalog-admin/internal/products"
	"catalog-admin/internal/products/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
)

const consumerTag = "catalog-notifications"

var eventSummaries = map[string]string{
	products.EventCreated: "product added to catalog",
	products.EventUpdated: "product details changed",
	products.EventDeleted: "product removed from catalog",
}

type Consumer struct {
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, logger *slog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := messaging.DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		return nil, err
	}

	return &Consumer{
		channel: ch,
		queue:   queue,
		logger:  logger,
	}, nil
}

func (c *Consumer) Listen(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume queue %q: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}

			if err := c.handle(msg); err != nil {
				c.logger.Error("handle catalog event failed",
					"message_id", msg.MessageId,
					"redelivered", msg.Redelivered,
					"error", err,
				)
				// requeue once; a redelivered poison message is dropped
				_ = msg.Nack(false, !msg.Redelivered)
				continue
			}

			_ = msg.Ack(false)
		}
	}
}

func (c *Consumer) handle(msg amqp.Delivery) error {
	var event products.ProductEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}
	if event.ProductID == "" {
		return fmt.Errorf("event %q without product id", event.EventType)
	}
	if msg.Type != "" && msg.Type != event.EventType {
		return fmt.Errorf("message type %q does not match event %q", msg.Type, event.EventType)
	}

	summary, ok := eventSummaries[event.EventType]
	if !ok {
		return fmt.Errorf("unknown event type %q", event.EventType)
	}

	attrs := []any{
		"product_id", event.ProductID,
		"message_id", msg.MessageId,
		"occurred_at", event.Timestamp,
	}
	if event.Name != "" {
		attrs = append(attrs, "name", event.Name)
	}
	c.logger.Info(summary, attrs...)

	return nil
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
