package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/county-health/internal/queue"
)

// PublishDatasetLoaded publishes a DatasetLoadedEvent to the
// "dataset.loaded" queue at the broker url. Messages are persistent so a
// server that is briefly down still sees the reload when it reconnects.
func PublishDatasetLoaded(ctx context.Context, url string, event q.DatasetLoadedEvent) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.DatasetLoadedQueue, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		q.DatasetLoadedQueue, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// NewDatasetLoadedEvent builds the event for a finished load.
func NewDatasetLoadedEvent(source, table string, columns, indexes []string, rows int64, replaced bool) q.DatasetLoadedEvent {
	return q.DatasetLoadedEvent{
		Table:    table,
		Source:   source,
		Columns:  columns,
		Indexes:  indexes,
		Rows:     rows,
		Replaced: replaced,
		LoadedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
