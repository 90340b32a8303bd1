package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode

		Database          DatabaseConfig
		Redis             RedisConfig
		RabbitMQ          RabbitMQConfig
		ExternalAPIConfig ExternalAPIConfig
		Services          ServicesConfig
		Auth              Auth
		Tariff            TariffConfig
		Log               LogConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"kommute_user"`
		Password string `env:"DATABASE_PASSWORD" default:"kommute_pass"`
		Database string `env:"DATABASE_DATABASE" default:"kommute_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`         // максимум открытых соединений
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`          // минимум соединений в пуле
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"` // макс. "время жизни" соединения
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`  // макс. "время простоя" соединения
	}

	RedisConfig struct {
		URL      string        `env:"REDIS_URL" default:"redis://localhost:6379/0"`
		QuoteTTL time.Duration `env:"REDIS_QUOTE_TTL" default:"10m"`
	}

	ExternalAPIConfig struct {
		LocationIQapiKey string `env:"LOCATIONIQ_API_KEY"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	ServicesConfig struct {
		FareService       string `env:"SERVICES_FARE_SERVICE" default:"3000"`
		SettlementService string `env:"SERVICES_SETTLEMENT_SERVICE" default:"3002"`
		AdminService      string `env:"SERVICES_ADMIN_SERVICE" default:"3004"`
	}

	Auth struct {
		AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" default:"15m"`
		JWTSecret      string        `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	// TariffConfig is the fallback tariff used when the tariff store has no
	// row for a jurisdiction or is unreachable.
	TariffConfig struct {
		Jurisdiction    string          `env:"TARIFF_JURISDICTION" default:"CR"`
		Currency        string          `env:"TARIFF_CURRENCY" default:"CRC"`
		BaseFare        decimal.Decimal `env:"TARIFF_BASE_FARE" default:"500"`
		PerKmRate       decimal.Decimal `env:"TARIFF_PER_KM_RATE" default:"300"`
		PerMinuteRate   decimal.Decimal `env:"TARIFF_PER_MINUTE_RATE" default:"50"`
		CommissionRate  decimal.Decimal `env:"TARIFF_COMMISSION_RATE" default:"0.15"`
		DriverShareRate decimal.Decimal `env:"TARIFF_DRIVER_SHARE_RATE" default:"0.85"`
		TaxRate         decimal.Decimal `env:"TARIFF_TAX_RATE" default:"0.13"`
		MinFare         decimal.Decimal `env:"TARIFF_MIN_FARE" default:"1000"`
		MaxFare         decimal.Decimal `env:"TARIFF_MAX_FARE" default:"100000"`
		AdjustmentStep  decimal.Decimal `env:"TARIFF_ADJUSTMENT_STEP" default:"100"`
		Precision       int32           `env:"TARIFF_PRECISION" default:"0"`

		CacheTTL time.Duration `env:"TARIFF_CACHE_TTL" default:"1m"`
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" default:"info"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

// Default converts the configured fallback into a tariff model.
func (c TariffConfig) Default() models.Tariff {
	return models.Tariff{
		Jurisdiction:    c.Jurisdiction,
		Currency:        c.Currency,
		BaseFare:        c.BaseFare,
		PerKmRate:       c.PerKmRate,
		PerMinuteRate:   c.PerMinuteRate,
		CommissionRate:  c.CommissionRate,
		DriverShareRate: c.DriverShareRate,
		TaxRate:         c.TaxRate,
		MinFare:         c.MinFare,
		MaxFare:         c.MaxFare,
		AdjustmentStep:  c.AdjustmentStep,
		Precision:       c.Precision,
	}
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	if err := cfg.Tariff.Default().Validate(); err != nil {
		return nil, fmt.Errorf("default tariff: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}

// PoolLimits tunes the pgx pool.
func (c DatabaseConfig) PoolLimits() (maxConns, minConns int32, maxLifetime, maxIdle time.Duration) {
	return c.MaxConns, c.MinConns, c.MaxConnLifetime, c.MaxConnIdleTime
}
