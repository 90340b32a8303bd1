package microservices

import (
	"context"
	"errors"

	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler"
	"github.com/kompa2go/kommute-fare/pkg/rabbit"
)

var errRabbitClosed = errors.New("rabbitmq connection is closed")

func rabbitPing(client *rabbit.RabbitMQ) handler.Pinger {
	return func(ctx context.Context) error {
		if client.IsConnectionClosed() {
			return errRabbitClosed
		}
		return nil
	}
}
