package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher publishes JSON events to durable RabbitMQ queues. The zero-value
// (or nil) publisher is disabled and drops events silently, which keeps
// services free of broker configuration concerns.
type Publisher struct {
	url    string
	logger zerolog.Logger
}

// NewPublisher returns a Publisher for the given AMQP URL. An empty URL
// yields a disabled publisher.
func NewPublisher(url string, logger zerolog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Enabled reports whether the publisher has a broker to talk to.
func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

// Publish marshals payload and delivers it to the named durable queue.
// Errors are logged and returned; callers ignore them on the request path.
func (p *Publisher) Publish(ctx context.Context, queue string, payload interface{}) error {
	if !p.Enabled() {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn().Err(err).Str("queue", queue).Msg("amqp dial failed")
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Warn().Err(err).Str("queue", queue).Msg("amqp channel open failed")
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.logger.Warn().Err(err).Str("queue", queue).Msg("amqp queue declare failed")
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		p.logger.Warn().Err(err).Str("queue", queue).Msg("amqp publish failed")
		return fmt.Errorf("amqp publish: %w", err)
	}

	return nil
}
