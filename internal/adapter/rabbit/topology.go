package rabbit

import (
	"fmt"

	"github.com/kompa2go/kommute-fare/pkg/rabbit"
)

const (
	ExchangeFareTopic = "fare_topic"
	ExchangeTripTopic = "trip_topic"

	QueueTripCompleted      = "trip_completed"
	BindingTripCompleted    = "trip.completed.*"
	deadLetterTripCompleted = "trip_completed.dlq"
)

// DeclareTopology declares the exchanges and queues the service relies on. It is idempotent.
func DeclareTopology(client *rabbit.RabbitMQ) error {
	ch := client.Ch()
	if ch == nil {
		return fmt.Errorf("rabbit channel is closed")
	}

	for _, exchange := range []string{ExchangeFareTopic, ExchangeTripTopic} {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}

	if _, err := ch.QueueDeclare(deadLetterTripCompleted, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", deadLetterTripCompleted, err)
	}

	q, err := ch.QueueDeclare(QueueTripCompleted, true, false, false, false, map[string]any{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": deadLetterTripCompleted,
	})
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueTripCompleted, err)
	}

	if err := ch.QueueBind(q.Name, BindingTripCompleted, ExchangeTripTopic, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}

	return nil
}
