// Package rpc implements a correlation-ID request/reply client over
// RabbitMQ, per spec §4.G. The teacher's own RPC transport is go-micro over
// NATS (services/*/microservice), but NATS request/reply has no per-call
// exclusive reply queue, delivery-mode header, or content-type header —
// the AMQP-shaped wire contract in spec §6 needs amqp091-go instead
// (grounded on the rabbitmq/amqp091-go dependency present in the pack's
// wudi-gateway and goldmine-build-goldmine manifests). The "one resource
// per call, released on every exit path" discipline follows the teacher's
// RedirectStore.ResolveURL cache-then-db sequencing.
package rpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/go-systems-lab/shortlink/internal/apperr"
	"github.com/go-systems-lab/shortlink/internal/obs"
)

// Client issues RPC calls over a single shared connection/channel. Publishes
// and consumer registrations are serialized by a mutex-free design: each
// Call declares and tears down its own exclusive reply queue, so concurrent
// calls never contend on shared broker state beyond the channel itself,
// which amqp091-go's Channel already serializes internally.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial opens one connection and one channel to the broker at url.
func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, apperr.Wrap(apperr.QueueError, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, apperr.Wrap(apperr.QueueError, err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

// Close releases the channel and connection, in that order.
func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Call publishes payload to queueName and waits for a reply carrying the
// matching correlation ID, per spec §4.G's numbered protocol.
func (c *Client) Call(ctx context.Context, queueName string, payload []byte, timeout time.Duration) ([]byte, error) {
	replyQueue, err := c.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.QueueError, err).WithContext("queue", queueName)
	}
	defer c.ch.QueueDelete(replyQueue.Name, false, false, false)

	corrID := uuid.New().String()

	deliveries, err := c.ch.Consume(replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.QueueError, err).WithContext("queue", queueName)
	}

	err = c.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: corrID,
		ReplyTo:       replyQueue.Name,
		DeliveryMode:  amqp.Transient,
		Body:          payload,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.QueueError, err).WithContext("queue", queueName)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil, apperr.New(apperr.QueueError).WithMessage("reply channel closed").WithContext("queue", queueName)
			}
			if d.CorrelationId != corrID {
				return nil, apperr.New(apperr.QueueError).
					WithMessage("rpc protocol violation").
					WithContext("queue", queueName).
					WithContext("expected_correlation_id", corrID).
					WithContext("got_correlation_id", d.CorrelationId)
			}
			return d.Body, nil
		case <-timer.C:
			return nil, apperr.New(apperr.RequestTimeout).WithContext("queue", queueName)
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.RequestTimeout, ctx.Err()).WithContext("queue", queueName)
		}
	}
}

// Publish fire-and-forgets a persistent message to queueName — used by the
// click-events queue, which is durability- not latency-oriented, unlike
// RPC replies.
func (c *Client) Publish(ctx context.Context, queueName string, payload []byte) error {
	err := c.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return apperr.Wrap(apperr.QueueError, err).WithContext("queue", queueName)
	}
	obs.QueueMessagesPublished.WithLabelValues(queueName).Inc()
	return nil
}

// DeclareQueue declares a durable queue, used at startup for the
// well-known queues spec §6 names (click_events, dashboard_request).
func (c *Client) DeclareQueue(name string) error {
	_, err := c.ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return apperr.Wrap(apperr.QueueError, err).WithContext("queue", name)
	}
	return nil
}
