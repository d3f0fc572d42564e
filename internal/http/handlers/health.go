package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"gorm.io/gorm"

	"github.com/yungbote/contentstream-backend/internal/services"
)

type HealthHandler struct {
	db    *gorm.DB
	guard services.StoreGuard
}

func NewHealthHandler(db *gorm.DB, guard services.StoreGuard) *HealthHandler {
	return &HealthHandler{db: db, guard: guard}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Ready reports whether the database answers and the store breaker is closed.
func (h *HealthHandler) Ready(c *gin.Context) {
	status := gin.H{"database": "ok", "breaker": "closed"}
	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.guard != nil {
		st := h.guard.State()
		status["breaker"] = st.String()
		if st == gobreaker.StateOpen {
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, status)
}
