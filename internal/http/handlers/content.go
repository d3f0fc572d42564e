package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/contentstream-backend/internal/data/repos"
	"github.com/yungbote/contentstream-backend/internal/http/response"
	"github.com/yungbote/contentstream-backend/internal/pkg/ctxutil"
	apperr "github.com/yungbote/contentstream-backend/internal/pkg/errors"
	"github.com/yungbote/contentstream-backend/internal/pkg/logger"
	"github.com/yungbote/contentstream-backend/internal/services"
)

const defaultUnseenCount = 10

type ContentHandler struct {
	log       *logger.Logger
	selection services.SelectionService
	mutation  services.MutationService
	stats     services.StatsService
	identity  services.IdentityService
}

func NewContentHandler(
	log *logger.Logger,
	selection services.SelectionService,
	mutation services.MutationService,
	stats services.StatsService,
	identity services.IdentityService,
) *ContentHandler {
	return &ContentHandler{
		log:       log.With("handler", "ContentHandler"),
		selection: selection,
		mutation:  mutation,
		stats:     stats,
		identity:  identity,
	}
}

// GET /api/content/:type/unseen?count=&category=&policy=
func (h *ContentHandler) GetUnseen(c *gin.Context) {
	count := defaultUnseenCount
	if raw := strings.TrimSpace(c.Query("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_argument", fmt.Errorf("count must be a positive integer"))
			return
		}
		count = n
	}
	req := services.SelectionRequest{
		UserID:      ctxutil.UserID(c.Request.Context()),
		ContentType: c.Param("type"),
		Category:    strings.TrimSpace(c.Query("category")),
		Count:       count,
		Policy:      repos.Policy(strings.ToLower(strings.TrimSpace(c.Query("policy")))),
	}
	res, err := h.selection.GetUnseen(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondSelection(c, response.SelectionFlags{
		Wraparound: res.Wraparound,
		Degraded:   res.Degraded,
		Truncated:  res.Truncated,
		PoolSize:   res.PoolSize,
	}, res)
}

// POST /api/content/:type/:external_id/seen
func (h *ContentHandler) MarkSeen(c *gin.Context) {
	err := h.mutation.MarkSeen(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("type"), c.Param("external_id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/content/:type/:external_id/completed
func (h *ContentHandler) MarkCompleted(c *gin.Context) {
	err := h.mutation.MarkCompleted(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("type"), c.Param("external_id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type completedBatchRequest struct {
	ExternalIDs []string `json:"external_ids"`
}

// POST /api/content/:type/completed
func (h *ContentHandler) MarkCompletedBatch(c *gin.Context) {
	var body completedBatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	n, err := h.mutation.MarkCompletedBatch(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("type"), body.ExternalIDs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"newly_completed": n})
}

// GET /api/content/:type/stats
func (h *ContentHandler) GetStats(c *gin.Context) {
	st, err := h.stats.GetStats(c.Request.Context(), ctxutil.UserID(c.Request.Context()), c.Param("type"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// GET /api/content/stats
func (h *ContentHandler) GetStatsSummary(c *gin.Context) {
	all, err := h.stats.GetStatsSummary(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": all})
}

// POST /api/content/:type/:external_id/identity
func (h *ContentHandler) ResolveIdentity(c *gin.Context) {
	ext := strings.TrimSpace(c.Param("external_id"))
	if ext == "" {
		response.RespondServiceError(c, fmt.Errorf("%w: external id required", apperr.ErrInvalidArgument))
		return
	}
	dense, err := h.identity.ResolveOrAssign(c.Request.Context(), nil, c.Param("type"), ext)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"content_type": c.Param("type"), "external_id": ext, "dense_id": dense})
}
