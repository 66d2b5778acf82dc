package settings

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/pkg/response"
)

// CodeStore reads and replaces the creator code.
type CodeStore interface {
	CreatorCode(ctx context.Context) (string, error)
	SetCreatorCode(ctx context.Context, code string) error
}

// CreatorCodeRequest is the body for PUT /admins/creator-code.
type CreatorCodeRequest struct {
	CreatorCode string `json:"creator_code" binding:"required,notblank,min=6"`
}

// Handler serves the creator-code endpoints.
type Handler struct {
	store  CodeStore
	logger *zap.Logger
}

// NewHandler creates a settings handler.
func NewHandler(store CodeStore, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// GetCreatorCode handles GET /admins/creator-code.
func (h *Handler) GetCreatorCode(c *gin.Context) {
	code, err := h.store.CreatorCode(c.Request.Context())
	if err != nil {
		h.logger.Error("read creator code", zap.Error(err))
		response.Internal(c, "failed to read creator code")
		return
	}
	response.OK(c, gin.H{"creator_code": code})
}

// UpdateCreatorCode handles PUT /admins/creator-code.
func (h *Handler) UpdateCreatorCode(c *gin.Context) {
	var req CreatorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Creator code must be at least 6 characters")
		return
	}
	code := strings.TrimSpace(req.CreatorCode)
	if len(code) < 6 {
		response.BadRequest(c, "Creator code must be at least 6 characters")
		return
	}
	if err := h.store.SetCreatorCode(c.Request.Context(), code); err != nil {
		h.logger.Error("update creator code", zap.Error(err))
		response.Internal(c, "failed to update creator code")
		return
	}
	h.logger.Info("creator code updated")
	response.OK(c, gin.H{"creator_code": code})
}
