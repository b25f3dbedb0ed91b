package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/studioflow/studioflow/shared/rabbitmq"
)

// NudgeConsumer bridges RabbitMQ enqueue notifications to the worker's poll
// loop. The notifications are advisory: they only shortcut the poll interval,
// so every delivery is acked regardless of content and a lost message costs
// at most one poll interval of latency.
type NudgeConsumer struct {
	client *rabbitmq.Client
	worker *Worker
	logger *slog.Logger
	tag    string
}

// NewNudgeConsumer creates a new NudgeConsumer
func NewNudgeConsumer(client *rabbitmq.Client, w *Worker, consumerTag string, logger *slog.Logger) *NudgeConsumer {
	return &NudgeConsumer{
		client: client,
		worker: w,
		logger: logger,
		tag:    consumerTag,
	}
}

// Run consumes notifications until ctx is canceled or the delivery channel
// closes.
func (c *NudgeConsumer) Run(ctx context.Context) error {
	deliveries, err := c.client.Consume(c.tag)
	if err != nil {
		return fmt.Errorf("failed to start consuming notifications: %w", err)
	}

	c.logger.Info("Worker notification consumer started",
		slog.String("consumer_tag", c.tag),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Notification consumer stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Notification delivery channel closed")
				return nil
			}
			c.handleDelivery(delivery)
		}
	}
}

func (c *NudgeConsumer) handleDelivery(delivery amqp.Delivery) {
	var nudge struct {
		JobID    string `json:"job_id"`
		Enqueued int    `json:"enqueued"`
	}

	if err := json.Unmarshal(delivery.Body, &nudge); err != nil {
		c.logger.Warn("Malformed worker notification",
			slog.String("error", err.Error()),
			slog.String("body", string(delivery.Body)),
		)
	} else {
		c.logger.Debug("Worker notification received",
			slog.String("job_id", nudge.JobID),
			slog.Int("enqueued", nudge.Enqueued),
		)
		c.worker.Nudge()
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("Failed to ACK notification",
			slog.String("error", err.Error()),
		)
	}
}
