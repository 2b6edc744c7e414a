package app

import (
	httpserver "github.com/yungbote/subsets-backend/internal/http"
	httpH "github.com/yungbote/subsets-backend/internal/http/handlers"
	"github.com/yungbote/subsets-backend/internal/observability"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Subsets *httpH.SubsetsHandler
}

func wireHandlers(log *logger.Logger, services Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(services.Health, metrics),
		Subsets: httpH.NewSubsetsHandler(log, services.Series, services.Version),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *httpserver.Server {
	rc := httpserver.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		TracingEnabled: cfg.Otel.Enabled,
		CORSOrigins:    cfg.CORSOrigins,
		SubsetsHandler: handlers.Subsets,
		HealthHandler:  handlers.Health,
	}
	if cfg.MetricsEnabled {
		rc.Metrics = metrics
	}
	return httpserver.NewServer(rc)
}
