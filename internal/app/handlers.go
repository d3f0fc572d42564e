package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/contentstream-backend/internal/http/handlers"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
)

type Handlers struct {
	Content *httpH.ContentHandler
	Health  *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Content: httpH.NewContentHandler(log, svc.Selection, svc.Mutation, svc.Stats, svc.Identity),
		Health:  httpH.NewHealthHandler(db, svc.Guard),
	}
}
