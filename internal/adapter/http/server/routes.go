package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kompa2go/kommute-fare/docs"
	"github.com/kompa2go/kommute-fare/internal/adapter/http/middleware"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, mode types.ServiceMode, log logger.Logger) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, mode, log)
	setupMetricsRoute(mux)

	switch mode {
	case types.FareService:
		setupFareRoutes(mux, routes, m)
	case types.AdminService:
		setupAdminRoutes(mux, routes, m)
	}
}

// setupFareRoutes setups routes for fare service
func setupFareRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /fares/quote", m.RequireRoles(routes.fare.QuoteFare, types.RolePassenger, types.RoleDriver))              // Price a trip
	mux.Handle("POST /fares/split", m.RequireRoles(routes.split.SplitFare, types.RoleAdmin))                                    // Split a fare
	mux.Handle("GET /fares/{quote_id}", m.RequireRoles(routes.fare.GetQuote, types.RolePassenger, types.RoleDriver))            // Read a live quote
	mux.Handle("POST /fares/{quote_id}/adjust", m.RequireRoles(routes.fare.AdjustFare, types.RolePassenger, types.RoleDriver)) // Move the fare one step
	mux.HandleFunc("GET /ws/fares/{quote_id}", routes.negotiation.HandleWS)                                                     // WebSocket negotiation
}

// setupAdminRoutes setups routes for admin service
func setupAdminRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /admin/revenue/estimate", m.RequireRoles(routes.admin.EstimateRevenue, types.RoleAdmin))       // Revenue projection
	mux.Handle("GET /admin/revenue/settled", m.RequireRoles(routes.admin.SettledRevenue, types.RoleAdmin))         // Settled revenue of a period
	mux.Handle("GET /admin/settlements/{trip_id}", m.RequireRoles(routes.admin.GetSettlement, types.RoleAdmin))    // Settlement of a trip
	mux.Handle("GET /admin/tariffs", m.RequireRoles(routes.admin.ListTariffs, types.RoleAdmin))                    // All tariffs
	mux.Handle("GET /admin/tariffs/{jurisdiction}", m.RequireRoles(routes.admin.GetTariff, types.RoleAdmin))       // Tariff of a jurisdiction
	mux.Handle("PUT /admin/tariffs/{jurisdiction}", m.RequireRoles(routes.admin.PutTariff, types.RoleAdmin))       // Create or replace a tariff
	mux.Handle("POST /fares/split", m.RequireRoles(routes.split.SplitFare, types.RoleAdmin))                       // Split a fare
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	instanceName, ok := docs.InstanceFor(mode)
	if !ok {
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "unknown service mode for swagger setup", "mode", mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(instanceName)
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
