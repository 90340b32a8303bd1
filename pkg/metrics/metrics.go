package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Business metrics
	FareQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_quotes_total",
			Help: "Total number of fare quotes issued",
		},
		[]string{"jurisdiction", "vehicle_class", "status"},
	)

	FareQuoteAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fare_quote_amount",
			Help:    "Quoted fare in currency units",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		},
		[]string{"jurisdiction", "vehicle_class"},
	)

	FareAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_adjustments_total",
			Help: "Total number of manual fare adjustments",
		},
		[]string{"direction", "saturated"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_settlements_total",
			Help: "Total number of processed trip settlements",
		},
		[]string{"jurisdiction", "status"},
	)

	SettledGrossAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_settled_gross_amount_total",
			Help: "Sum of settled gross fares in currency units",
		},
		[]string{"jurisdiction", "currency"},
	)

	TariffFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_fallback_total",
			Help: "Number of times the default tariff was used instead of the stored one",
		},
		[]string{"jurisdiction", "reason"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"routing_key", "status"},
	)

	RabbitMQMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_consumed_total",
			Help: "Total number of messages consumed from RabbitMQ",
		},
		[]string{"queue", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, code).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, code).Observe(duration.Seconds())
}

// RecordQuote records an issued quote and its fare.
func RecordQuote(jurisdiction, vehicleClass string, fare float64, err error) {
	FareQuotesTotal.WithLabelValues(jurisdiction, vehicleClass, status(err)).Inc()
	if err == nil {
		FareQuoteAmount.WithLabelValues(jurisdiction, vehicleClass).Observe(fare)
	}
}

func RecordAdjustment(direction string, saturated bool) {
	FareAdjustmentsTotal.WithLabelValues(direction, strconv.FormatBool(saturated)).Inc()
}

// RecordSettlement records a settlement outcome. gross is added only for newly stored settlements.
func RecordSettlement(jurisdiction, currency, outcome string, gross float64) {
	SettlementsTotal.WithLabelValues(jurisdiction, outcome).Inc()
	if gross > 0 {
		SettledGrossAmount.WithLabelValues(jurisdiction, currency).Add(gross)
	}
}

func RecordTariffFallback(jurisdiction, reason string) {
	TariffFallbackTotal.WithLabelValues(jurisdiction, reason).Inc()
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation string, err error, duration time.Duration) {
	DatabaseQueriesTotal.WithLabelValues(operation, status(err)).Inc()
	DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(routingKey string, err error) {
	RabbitMQMessagesPublished.WithLabelValues(routingKey, status(err)).Inc()
}

// RecordRabbitMQConsume records RabbitMQ consume metrics
func RecordRabbitMQConsume(queue string, err error) {
	RabbitMQMessagesConsumed.WithLabelValues(queue, status(err)).Inc()
}
