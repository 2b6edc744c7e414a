package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/subsets-backend/internal/http/handlers"
	httpMW "github.com/yungbote/subsets-backend/internal/http/middleware"
	"github.com/yungbote/subsets-backend/internal/observability"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	SubsetsHandler *httpH.SubsetsHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.HandleMethodNotAllowed = true

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/health/alive", cfg.HealthHandler.Alive)
		r.GET("/health/ready", cfg.HealthHandler.Ready)
	}

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if h := cfg.SubsetsHandler; h != nil {
		subsets := r.Group("/subsets")
		{
			subsets.GET("", h.ListSeries)
			subsets.POST("", h.CreateSeries)
			subsets.GET("/schema", h.Schema)
			subsets.GET("/:id", h.GetSeries)
			subsets.PUT("/:id", h.UpdateSeries)
			subsets.DELETE("/:id", h.DeleteSeries)

			// Versions
			subsets.GET("/:id/versions", h.ListVersions)
			subsets.POST("/:id/versions", h.CreateVersion)
			subsets.GET("/:id/versions/:versionId", h.GetVersion)
			subsets.PUT("/:id/versions/:versionId", h.UpdateVersion)
			subsets.DELETE("/:id/versions/:versionId", h.DeleteVersion)

			// Codes
			subsets.GET("/:id/codes", h.Codes)
			subsets.GET("/:id/codesAt", h.CodesAt)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
