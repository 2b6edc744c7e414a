package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/subsets-backend/internal/data/db"
	"github.com/yungbote/subsets-backend/internal/observability"
	"github.com/yungbote/subsets-backend/internal/platform/envutil"
	"github.com/yungbote/subsets-backend/internal/platform/klass"
	"github.com/yungbote/subsets-backend/internal/platform/lds"
	"github.com/yungbote/subsets-backend/internal/platform/locker"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

const (
	StoreLDS      = "lds"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config is read once at startup and handed to the constructors.
type Config struct {
	Port           string
	StoreBackend   string
	SQLitePath     string
	Concurrency    int
	MetricsEnabled bool
	CORSOrigins    []string

	Klass    klass.Config
	LDS      lds.Config
	Redis    locker.RedisConfig
	Postgres db.PostgresConfig
	Otel     observability.OtelConfig
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:           envutil.String("PORT", "8080"),
		StoreBackend:   strings.ToLower(envutil.String("STORE_BACKEND", StoreLDS)),
		SQLitePath:     envutil.String("SQLITE_PATH", "subsets.db"),
		Concurrency:    envutil.Int("STATISTICAL_UNIT_CONCURRENCY", 4),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),
		CORSOrigins:    envutil.List("CORS_ALLOWED_ORIGINS", nil),

		Klass:    klass.ConfigFromEnv(),
		LDS:      lds.ConfigFromEnv(),
		Redis:    locker.RedisConfigFromEnv(),
		Postgres: db.PostgresConfigFromEnv(),
		Otel:     observability.OtelConfigFromEnv(),
	}
	switch cfg.StoreBackend {
	case StoreLDS, StorePostgres, StoreSQLite, StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q (want lds, postgres, sqlite or memory)", cfg.StoreBackend)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if log != nil {
		log.Info("Configuration loaded",
			"port", cfg.Port,
			"store_backend", cfg.StoreBackend,
			"klass_url", cfg.Klass.BaseURL,
			"redis_locks", cfg.Redis.Addr != "",
			"otel_enabled", cfg.Otel.Enabled,
		)
	}
	return cfg, nil
}
