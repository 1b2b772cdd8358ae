package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/tiendadigital/marketplace-api/internal/core/domain"
)

type Config struct {
	Port      string `env:"PORT,       default=4000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	APIPrefix string `env:"API_PREFIX, default=/api"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Audit     AuditConfig
	Telemetry TelemetryConfig
}

type AuthConfig struct {
	AccessSecret      string     `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret     string     `env:"REFRESH_TOKEN_SECRET"`
	AccessExpiration  Expiration `env:"ACCESS_TOKEN_EXPIRATION,  default=1h"`
	RefreshExpiration Expiration `env:"REFRESH_TOKEN_EXPIRATION, default=7d"`
	BcryptCost        int        `env:"BCRYPT_COST,              default=10"`
	// PruneSchedule is a standard cron expression; empty disables pruning.
	PruneSchedule string `env:"REFRESH_TOKEN_PRUNE_SCHEDULE"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=marketplace"`
}

type RedisConfig struct {
	Addr          string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB            int           `env:"REDIS_DB,        default=0"`
	TokenCacheTTL time.Duration `env:"TOKEN_CACHE_TTL, default=10m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads configuration from process environment variables.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on settings that would otherwise surface at the first
// sign or verify call.
func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("config: ACCESS_TOKEN_SECRET: %w", domain.ErrConfig)
	}
	if c.Auth.RefreshSecret == "" {
		return fmt.Errorf("config: REFRESH_TOKEN_SECRET: %w", domain.ErrConfig)
	}
	if c.Auth.AccessExpiration.Duration() <= 0 || c.Auth.RefreshExpiration.Duration() <= 0 {
		return fmt.Errorf("config: token expirations must be positive")
	}
	return nil
}
