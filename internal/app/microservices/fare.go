package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kompa2go/kommute-fare/config"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/server"
	"github.com/kompa2go/kommute-fare/internal/adapter/locationIQ"
	repo "github.com/kompa2go/kommute-fare/internal/adapter/postgres"
	rabbitadapter "github.com/kompa2go/kommute-fare/internal/adapter/rabbit"
	"github.com/kompa2go/kommute-fare/internal/adapter/redis"
	"github.com/kompa2go/kommute-fare/internal/service/auth"
	"github.com/kompa2go/kommute-fare/internal/service/fare"
	"github.com/kompa2go/kommute-fare/internal/service/tariff"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	"github.com/kompa2go/kommute-fare/pkg/metrics"
	"github.com/kompa2go/kommute-fare/pkg/postgres"
	"github.com/kompa2go/kommute-fare/pkg/rabbit"
	ws "github.com/kompa2go/kommute-fare/pkg/wsHub"
)

type FareService struct {
	postgresDB  *postgres.PostgreDB
	redisClient *redis.Client
	rabbit      *rabbit.RabbitMQ
	hub         *ws.ConnectionHub
	httpServer  *server.API
	cfg         config.Config
	log         logger.Logger
}

func NewFare(ctx context.Context, cfg config.Config, log logger.Logger) (*FareService, error) {
	s := &FareService{cfg: cfg, log: log}

	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}
	s.postgresDB = postgresDB

	redisClient, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Error(ctx, "Failed to setup redis", err)
		s.close(ctx)
		return nil, err
	}
	s.redisClient = redisClient

	rabbitClient, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to setup rabbitmq", err)
		s.close(ctx)
		return nil, err
	}
	s.rabbit = rabbitClient

	if err := rabbitadapter.DeclareTopology(rabbitClient); err != nil {
		log.Error(ctx, "Failed to declare rabbitmq topology", err)
		s.close(ctx)
		return nil, err
	}

	// geocoding is optional, quotes with explicit coordinates work without it
	var geocoder fare.Geocoder
	if cfg.ExternalAPIConfig.LocationIQapiKey != "" {
		geocoder = locationIQ.New(cfg.ExternalAPIConfig.LocationIQapiKey)
	} else {
		log.Warn(ctx, "locationiq api key is not set, address geocoding disabled")
	}

	tariffService := tariff.NewService(repo.NewTariffRepo(postgresDB.Pool), cfg.Tariff.Default(), cfg.Tariff.CacheTTL, log)
	broker := rabbitadapter.NewFareBroker(rabbitClient, log)
	fareService := fare.New(redis.NewQuoteRepository(redisClient), tariffService, broker, geocoder, cfg.Redis.QuoteTTL, log)

	s.hub = ws.NewConnHub(log)
	s.hub.OnChange = func(total int) {
		metrics.WebSocketConnectionsGauge.WithLabelValues(string(cfg.Mode)).Set(float64(total))
	}

	httpServer, err := server.New(cfg, server.Deps{
		Auth:     auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		Fare:     fareService,
		Splitter: tariffService,
		Hub:      s.hub,
		Checks: map[string]handler.Pinger{
			"postgres": postgresDB.Pool.Ping,
			"redis":    redisClient.Ping,
			"rabbitmq": rabbitPing(rabbitClient),
		},
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		s.close(ctx)
		return nil, err
	}
	s.httpServer = httpServer

	return s, nil
}

func (s *FareService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "fare service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Fare service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *FareService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.hub != nil {
		s.hub.Close()
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn(ctx, "Failed to close redis client", "error", err.Error())
		}
	}

	s.postgresDB.Close()
}
