// Package queue contains the background consumer that turns registration
// facts into participant notifications. It binds a durable queue to the fact
// exchange for registration.* routing keys and sends the confirmation or
// cancellation email for each message.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"eventtickets/internal/domain"
)

const notificationQueueName = "registration.notifications"

// NotificationConsumer consumes registration facts and delivers emails.
type NotificationConsumer struct {
	URL          string
	Exchange     string
	EmailService domain.EmailService
	Logger       *slog.Logger
}

// Run connects to the broker and consumes until ctx is cancelled. Connection
// failures are retried with capped exponential backoff; message-level
// failures are logged and the message is rejected without requeue so a bad
// payload cannot wedge the queue. Delivery is at-least-once: a crash between
// sending the email and acking redelivers, and the participant may receive
// the email twice.
func (c *NotificationConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Error("notification-consumer: dial broker", "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(ctx, conn); err != nil {
			c.Logger.Error("notification-consumer: consume loop ended", "err", err)
		}
		_ = conn.Close()
	}
}

func (c *NotificationConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if err := ch.ExchangeDeclare(c.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := ch.QueueDeclare(notificationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(notificationQueueName, "registration.*", c.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(notificationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := c.handleMessage(ctx, d.Body); err != nil {
				c.Logger.Error("notification-consumer: handle message", "err", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *NotificationConsumer) handleMessage(ctx context.Context, body []byte) error {
	var fact domain.Fact
	if err := json.Unmarshal(body, &fact); err != nil {
		return fmt.Errorf("decode fact: %w", err)
	}
	if fact.ParticipantEmail == "" {
		return nil
	}

	switch fact.Kind {
	case domain.FactRegistrationCreated:
		return c.EmailService.SendRegistrationConfirmed(ctx, &domain.RegistrationConfirmedEmailData{
			Email:            fact.ParticipantEmail,
			Name:             fact.ParticipantName,
			EventTitle:       fact.EventTitle,
			ConfirmationCode: fact.ConfirmationCode,
		})
	case domain.FactRegistrationCancelled:
		return c.EmailService.SendRegistrationCancelled(ctx, &domain.RegistrationCancelledEmailData{
			Email:       fact.ParticipantEmail,
			Name:        fact.ParticipantName,
			EventTitle:  fact.EventTitle,
			Reason:      fact.CancelReason,
			ByOrganizer: fact.CancelledByOrganizer,
		})
	}
	return nil
}
