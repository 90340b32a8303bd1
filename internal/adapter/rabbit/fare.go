package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/metrics"
	"github.com/kompa2go/kommute-fare/pkg/rabbit"
)

const (
	publishRetries  = 5
	publishInterval = time.Second
	reconnectDelay  = 2 * time.Second
)

type FareBroker struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewFareBroker(client *rabbit.RabbitMQ, l logger.Logger) *FareBroker {
	return &FareBroker{
		client: client,
		l:      l,
	}
}

func (r *FareBroker) publish(ctx context.Context, exchange, routingKey string, event types.FareEvent, msg any) (err error) {
	defer func() { metrics.RecordRabbitMQPublish(routingKey, err) }()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Type:          event.String(),
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationId: wrap.RequestID(ctx),
	}

	if err := retry(ctx, publishRetries, publishInterval, func() error {
		if err := r.client.EnsureConnection(ctx); err != nil {
			return err
		}
		return r.client.Ch().PublishWithContext(ctx, exchange, routingKey, false, false, pub)
	}); err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrPublishFailed, routingKey, err)
	}

	return nil
}

func (r *FareBroker) PublishFareQuoted(ctx context.Context, msg models.FareQuotedMessage) error {
	ctx = wrap.WithAction(ctx, "publish_fare_quoted")
	key := "fare.quoted." + routingSegment(msg.VehicleClass.String())

	if err := r.publish(ctx, ExchangeFareTopic, key, types.EventFareQuoted, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *FareBroker) PublishFareAdjusted(ctx context.Context, msg models.FareAdjustedMessage) error {
	ctx = wrap.WithAction(ctx, "publish_fare_adjusted")
	key := "fare.adjusted." + routingSegment(string(msg.Direction))

	if err := r.publish(ctx, ExchangeFareTopic, key, types.EventFareAdjusted, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *FareBroker) PublishFareSettled(ctx context.Context, msg models.FareSettledMessage) error {
	ctx = wrap.WithAction(ctx, "publish_fare_settled")
	key := "fare.settled." + routingSegment(msg.Jurisdiction)

	if err := r.publish(ctx, ExchangeFareTopic, key, types.EventFareSettled, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// routingSegment makes a value safe for a topic routing key.
func routingSegment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", "*", "_", "#", "_").Replace(s)
}

// -- Consumers

type TripCompletedHandlerFunc func(ctx context.Context, msg models.TripCompletedMessage) error

// ConsumeTripCompleted слушает trip.completed.* события и передаёт их в fn.
// Reconnects until ctx is done.
func (r *FareBroker) ConsumeTripCompleted(ctx context.Context, fn TripCompletedHandlerFunc) error {
	const op = "FareBroker.ConsumeTripCompleted"

	for {
		if ctx.Err() != nil {
			r.l.Debug(ctx, "consume trip completed stopped by context")
			return nil
		}

		// Проверяем и восстанавливаем соединение
		if err := r.client.EnsureConnection(ctx); err != nil {
			r.l.Error(ctx, "ensure connection failed", err, "op", op)
			sleep(ctx, reconnectDelay)
			continue
		}

		ch := r.client.Ch()
		if err := ch.Qos(16, 0, false); err != nil {
			r.l.Warn(ctx, "failed to set qos", "op", op, "err", err.Error())
		}

		msgs, err := ch.Consume(QueueTripCompleted, "", false, false, false, false, nil)
		if err != nil {
			r.l.Error(ctx, "consume failed", err, "op", op)
			sleep(ctx, reconnectDelay)
			continue
		}

		r.l.Info(ctx, "start consuming trip completions", "queue", QueueTripCompleted)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				r.l.Info(ctx, "trip completed consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					r.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					sleep(ctx, reconnectDelay)
					break consumeLoop
				}

				r.handleTripCompleted(ctx, fn, msg)
			}
		}
	}
}

func (r *FareBroker) handleTripCompleted(ctx context.Context, fn TripCompletedHandlerFunc, msg amqp.Delivery) {
	ctx = wrap.WithAction(ctx, "rabbitmq_handle_trip_completed")

	var req models.TripCompletedMessage
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		r.l.Error(ctx, "decode failed", err)
		metrics.RecordRabbitMQConsume(QueueTripCompleted, err)
		_ = msg.Nack(false, false)
		return
	}

	correlationID := msg.CorrelationId
	if correlationID == "" {
		correlationID = req.CorrelationID
	}
	ctx = wrap.WithRequestID(wrap.WithTripID(ctx, req.TripID), correlationID)

	err := fn(ctx, req)
	metrics.RecordRabbitMQConsume(QueueTripCompleted, err)

	switch {
	case err == nil, errors.Is(err, types.ErrSettlementExists):
		// повторная доставка уже учтена
		if ackErr := msg.Ack(false); ackErr != nil {
			r.l.Warn(ctx, "ack failed", "err", ackErr.Error())
		}
	case isRecoverableError(err) && !msg.Redelivered:
		r.l.Error(wrap.ErrorCtx(ctx, err), "failed to settle trip, requeue", err)
		_ = msg.Nack(false, true)
	default:
		r.l.Error(wrap.ErrorCtx(ctx, err), "failed to settle trip, dropping", err)
		_ = msg.Nack(false, false)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
