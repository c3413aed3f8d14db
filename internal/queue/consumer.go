package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DatasetHandler reacts to one dataset.loaded event.
type DatasetHandler func(ctx context.Context, ev DatasetLoadedEvent) error

// StartDatasetConsumer connects to the broker at url, declares the
// dataset.loaded queue (durable) and hands every message to handle. It
// reconnects with exponential backoff and returns only when ctx is done.
// Messages the handler rejects are nacked without requeue so a poison
// message cannot spin the loop.
func StartDatasetConsumer(ctx context.Context, url string, log logrus.FieldLogger, handle DatasetHandler) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warnf("dataset-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, log, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("dataset-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log logrus.FieldLogger, handle DatasetHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.WithError(err).Warn("dataset-consumer: set QoS failed")
	}

	if _, err := ch.QueueDeclare(DatasetLoadedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, DatasetLoadedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(ctx, d.Body, handle); err != nil {
			log.WithError(err).Error("dataset-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(ctx context.Context, body []byte, handle DatasetHandler) error {
	var ev DatasetLoadedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Table == "" {
		return errors.New("event without table")
	}
	return handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
