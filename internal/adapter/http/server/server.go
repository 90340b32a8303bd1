package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kompa2go/kommute-fare/config"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/middleware"
	wshandler "github.com/kompa2go/kommute-fare/internal/adapter/http/ws"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	ws "github.com/kompa2go/kommute-fare/pkg/wsHub"
)

const serverIPAddress = "%s:%s"

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health      *handler.Health
	fare        *handler.Fare
	split       *handler.Split
	admin       *handler.Admin
	negotiation *wshandler.NegotiationHandler
}

// Deps are the services behind the routes of one mode. Unused ones stay nil.
type Deps struct {
	Auth     middleware.TokenVerifier
	Fare     FareService
	Splitter handler.FareSplitter
	Admin    handler.AdminService
	Hub      *ws.ConnectionHub
	Checks   map[string]handler.Pinger
}

// FareService serves both the REST and the websocket negotiation routes.
type FareService interface {
	handler.FareService
	wshandler.FareService
}

func New(cfg config.Config, deps Deps, logger logger.Logger) (*API, error) {
	var addr string
	h := &handlers{
		health: handler.NewHealth(string(cfg.Mode), deps.Checks, logger),
	}

	if deps.Auth == nil {
		return nil, errors.New("token verifier is required")
	}

	switch cfg.Mode {
	case types.FareService:
		if deps.Fare == nil || deps.Splitter == nil || deps.Hub == nil {
			return nil, errors.New("fare service, splitter and websocket hub are required")
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.FareService)
		h.fare = handler.NewFare(deps.Fare, deps.Hub, logger)
		h.split = handler.NewSplit(deps.Splitter, logger)
		h.negotiation = wshandler.NewNegotiationHandler(deps.Fare, deps.Hub, logger)
	case types.SettlementService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.SettlementService)
	case types.AdminService:
		if deps.Admin == nil || deps.Splitter == nil {
			return nil, errors.New("admin service and splitter are required")
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.AdminService)
		h.admin = handler.NewAdmin(deps.Admin, logger)
		h.split = handler.NewSplit(deps.Splitter, logger)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	mid := middleware.NewMiddleware(deps.Auth, logger)

	api := &API{
		mode: cfg.Mode,

		mux:    http.NewServeMux(),
		routes: h,
		m:      mid,
		addr:   addr,
		cfg:    cfg,
		log:    logger,
	}

	setupRoutes(api.mux, api.routes, api.m, api.mode, api.log)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return api, nil
}

// Handler returns the full middleware chain, used by tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux. Metrics sits right on the
// mux so it sees the matched route pattern.
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Auth(a.m.Metrics(string(a.mode))(a.mux)))))
}
