package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type Health struct {
	serviceName string
	checks      map[string]Pinger
	log         logger.Logger
}

func NewHealth(serviceName string, checks map[string]Pinger, log logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		checks:      checks,
		log:         log,
	}
}

// HealthCheck godoc
// @Summary      Health Check
// @Description  Returns the health status of the service and its dependencies
// @Tags         Health
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (a *Health) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(wrap.WithAction(r.Context(), "health_check"), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(a.checks))
	for name, ping := range a.checks {
		if err := ping(ctx); err != nil {
			a.log.Warn(ctx, "dependency is unavailable", "dependency", name, "error", err.Error())
			deps[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "available"
	}

	response := envelope{
		"status": "available",
		"system_info": map[string]string{
			"service-name": a.serviceName,
		},
		"dependencies": deps,
	}
	if status != http.StatusOK {
		response["status"] = "degraded"
	}

	if err := writeJSON(w, status, response, nil); err != nil {
		a.log.Error(ctx, "healthcheck", err)
		return
	}
}
