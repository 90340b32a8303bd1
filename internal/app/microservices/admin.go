package microservices

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kompa2go/kommute-fare/config"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/server"
	repo "github.com/kompa2go/kommute-fare/internal/adapter/postgres"
	"github.com/kompa2go/kommute-fare/internal/service/admin"
	"github.com/kompa2go/kommute-fare/internal/service/auth"
	"github.com/kompa2go/kommute-fare/internal/service/tariff"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	"github.com/kompa2go/kommute-fare/pkg/postgres"
)

type AdminService struct {
	postgresDB *postgres.PostgreDB
	httpServer *server.API
	cfg        config.Config
	log        logger.Logger
}

func NewAdmin(ctx context.Context, cfg config.Config, log logger.Logger) (*AdminService, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "Failed to setup database", err)
		return nil, err
	}

	tariffService := tariff.NewService(repo.NewTariffRepo(postgresDB.Pool), cfg.Tariff.Default(), cfg.Tariff.CacheTTL, log)
	adminService := admin.NewAdminService(repo.NewSettlementRepo(postgresDB.Pool), tariffService, log)

	httpServer, err := server.New(cfg, server.Deps{
		Auth:     auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		Admin:    adminService,
		Splitter: adminService,
		Checks: map[string]handler.Pinger{
			"postgres": postgresDB.Pool.Ping,
		},
	}, log)
	if err != nil {
		log.Error(ctx, "Failed to setup http server", err)
		postgresDB.Close()
		return nil, err
	}

	return &AdminService{
		postgresDB: postgresDB,
		httpServer: httpServer,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (s *AdminService) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	s.httpServer.Run(ctx, errCh)
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "admin service closed")
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	s.log.Info(ctx, "Admin service has been started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		s.log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	}
}

func (s *AdminService) close(ctx context.Context) {
	if s.httpServer != nil {
		if err := s.httpServer.Stop(ctx); err != nil {
			s.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}
	s.postgresDB.Close()
}
