package emaillogs

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/response"
)

const maxListLimit = 500

// Lister reads email logs.
type Lister interface {
	List(ctx context.Context, limit int) ([]*models.EmailLog, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   Lister
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo Lister, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /emails?limit=N. Call after RequireRole(admin).
func (h *Handler) List(c *gin.Context) {
	limit := DefaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	logs, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list email logs", zap.Error(err))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}
