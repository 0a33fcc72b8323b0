package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"farm-market/internal/model"
)

// Consumer turns order.placed events into buyer notifications. For now
// notifications are structured log lines; the queue contract is what
// matters.
type Consumer struct {
	Log zerolog.Logger
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("notify consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notify consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(d)
		}
	}
}

func (c *Consumer) handle(d amqp.Delivery) {
	var evt model.Event[model.OrderPlacedPayload]
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad json -> dlq")
		_ = d.Nack(false, false)
		return
	}
	if evt.Type != model.EventOrderPlaced {
		c.Log.Warn().Str("type", evt.Type).Msg("unexpected event type -> ack")
		_ = d.Ack(false)
		return
	}

	c.Log.Info().
		Str("buyer_id", evt.BuyerID).
		Int("lines", len(evt.Payload.Lines)).
		Str("total", evt.Payload.Total.String()).
		Msg("order confirmation sent")

	_ = d.Ack(false)
}
