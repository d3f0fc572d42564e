package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/contentstream-backend/internal/http/handlers"
	httpMW "github.com/yungbote/contentstream-backend/internal/http/middleware"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	MetricsEnabled bool

	AuthMiddleware *httpMW.AuthMiddleware
	ContentHandler *httpH.ContentHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.MetricsEnabled {
		r.Use(httpMW.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.OptionalAuth())
	}

	if cfg.ContentHandler != nil {
		content := api.Group("/content")

		// Anonymous callers get undeduplicated results.
		content.GET("/:type/unseen", cfg.ContentHandler.GetUnseen)

		user := content.Group("")
		if cfg.AuthMiddleware != nil {
			user.Use(cfg.AuthMiddleware.RequireUser())
		}
		user.GET("/stats", cfg.ContentHandler.GetStatsSummary)
		user.GET("/:type/stats", cfg.ContentHandler.GetStats)
		user.POST("/:type/completed", cfg.ContentHandler.MarkCompletedBatch)
		user.POST("/:type/:external_id/seen", cfg.ContentHandler.MarkSeen)
		user.POST("/:type/:external_id/completed", cfg.ContentHandler.MarkCompleted)
		user.POST("/:type/:external_id/identity", cfg.ContentHandler.ResolveIdentity)
	}

	return r
}
