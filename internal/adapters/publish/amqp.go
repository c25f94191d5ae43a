// Package publish delivers domain facts to RabbitMQ. Facts are published to
// a durable topic exchange with the fact kind as routing key, so consumers
// can bind to exactly the kinds they care about (e.g. registration.*).
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventtickets/internal/domain"
)

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects to the broker and declares the durable topic
// exchange. The caller owns the returned publisher's lifecycle via Close.
func NewAMQPPublisher(url, exchange string) (domain.FactPublisher, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := &amqpPublisher{conn: conn, ch: ch, exchange: exchange}
	return p, p.close, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, fact domain.Fact) error {
	body, err := json.Marshal(fact)
	if err != nil {
		return fmt.Errorf("encode fact: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, fact.Kind, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    fact.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", fact.Kind, err)
	}
	return nil
}

func (p *amqpPublisher) close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that only logs. Used in development
// when no broker is configured.
func NewNoopPublisher() domain.FactPublisher {
	return &noopPublisher{}
}

func (n *noopPublisher) Publish(_ context.Context, fact domain.Fact) error {
	log.Println("[PUBLISH] Fact would be published (noop)", "kind", fact.Kind, "event_id", fact.EventID)
	return nil
}
