package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/contentstream-backend/internal/http"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		MetricsEnabled: cfg.MetricsEnabled,
		AuthMiddleware: middleware.Auth,
		ContentHandler: handlers.Content,
		HealthHandler:  handlers.Health,
	})
}
