package config

import (
	"flag"
	"fmt"
	"strings"
)

const HelpMessage = `
Kommute fare service

Usage:
  kommute-fare --mode=<mode> [--config-path=config.yaml]

Modes:
  fare-service        trip quotes and fare negotiation (HTTP + WebSocket)
  settlement-service  splits completed trip fares (RabbitMQ consumer)
  admin-service       tariff management and revenue reporting

Options:
  --mode          service mode
  --config-path   path to the config yaml file (default: config.yaml)
  --help          show this message
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig prints the effective configuration with secrets masked.
func PrintConfig(cfg *Config) {
	var b strings.Builder

	fmt.Fprintf(&b, "mode: %s\n", cfg.Mode)
	fmt.Fprintf(&b, "database: %s@%s:%s/%s (password: %s)\n", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, mask(cfg.Database.Password))
	fmt.Fprintf(&b, "redis: %s (quote ttl: %s)\n", cfg.Redis.URL, cfg.Redis.QuoteTTL)
	fmt.Fprintf(&b, "rabbitmq: %s@%s:%s\n", cfg.RabbitMQ.User, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	fmt.Fprintf(&b, "ports: fare=%s settlement=%s admin=%s\n", cfg.Services.FareService, cfg.Services.SettlementService, cfg.Services.AdminService)
	fmt.Fprintf(&b, "jwt secret: %s, locationiq key: %s\n", mask(cfg.Auth.JWTSecret), mask(cfg.ExternalAPIConfig.LocationIQapiKey))
	fmt.Fprintf(&b, "default tariff: %s/%s base=%s km=%s min=%s commission=%s iva=%s bounds=[%s, %s] step=%s\n",
		cfg.Tariff.Jurisdiction, cfg.Tariff.Currency,
		cfg.Tariff.BaseFare, cfg.Tariff.PerKmRate, cfg.Tariff.PerMinuteRate,
		cfg.Tariff.CommissionRate, cfg.Tariff.TaxRate,
		cfg.Tariff.MinFare, cfg.Tariff.MaxFare, cfg.Tariff.AdjustmentStep,
	)

	fmt.Print(b.String())
}

func mask(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "****"
}
