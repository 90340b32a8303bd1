package microservices

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kompa2go/kommute-fare/config"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/server"
	repo "github.com/kompa2go/kommute-fare/internal/adapter/postgres"
	rabbitadapter "github.com/kompa2go/kommute-fare/internal/adapter/rabbit"
	"github.com/kompa2go/kommute-fare/internal/service/auth"
	"github.com/kompa2go/kommute-fare/internal/service/settlement"
	"github.com/kompa2go/kommute-fare/internal/service/tariff"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/postgres"
	"github.com/kompa2go/kommute-fare/pkg/rabbit"
	"github.com/kompa2go/kommute-fare/pkg/trm"
)

// SettlementService consumes trip completions and records fare splits.
type SettlementService struct {
	postgresDB *postgres.PostgreDB
	rabbit     *rabbit.RabbitMQ
	broker     *rabbitadapter.FareBroker
	settlement *settlement.Service
	httpServer *server.API
	cfg        config.Config
	log        logger.Logger
}

func NewSettlement(ctx context.Context, cfg config.Config, log logger.Logger) (*SettlementService, error) {
	s := &SettlementService{cfg: cfg, log: log}

	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}
	s.postgresDB = postgresDB

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

	tariffService := tariff.NewService(repo.NewTariffRepo(postgresDB.Pool), cfg.Tariff.Default(), cfg.Tariff.CacheTTL, log)
	s.broker = rabbitadapter.NewFareBroker(rabbitClient, log)
	s.settlement = settlement.New(repo.NewSettlementRepo(postgresDB.Pool), tariffService, s.broker, trm.New(postgresDB.Pool), log)

	httpServer, err := server.New(cfg, server.Deps{
		Auth: auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		Checks: map[string]handler.Pinger{
			"postgres": postgresDB.Pool.Ping,
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

func (s *SettlementService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	consumeCtx, cancel := context.WithCancel(wrap.WithAction(ctx, "consume_trip_completed"))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.broker.ConsumeTripCompleted(consumeCtx, s.settlement.HandleTripCompleted); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	s.httpServer.Run(ctx, errCh)
	defer func() {
		// consumer must drain before the broker and pool are closed
		cancel()
		wg.Wait()
		s.close(ctx)
		s.log.Info(ctx, "settlement service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Settlement service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *SettlementService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	if s.rabbit != nil {
		if err := s.rabbit.Close(ctx); err != nil {
			s.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
		}
	}

	s.postgresDB.Close()
}
