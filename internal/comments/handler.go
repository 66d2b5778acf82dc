package comments

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/internal/realtime"
	"github.com/epost-hub/backend/pkg/response"
)

// Store is the comment persistence used by the handler. *Repository implements it.
type Store interface {
	TargetExists(ctx context.Context, t Target) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	Create(ctx context.Context, t Target, userID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error)
	ListByTarget(ctx context.Context, t Target) ([]*models.Comment, error)
	CountByTarget(ctx context.Context, t Target) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Publisher pushes realtime updates. *realtime.Hub implements it.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload interface{})
}

// CreateRequest is the body for posting a comment.
type CreateRequest struct {
	Content  string     `json:"content" binding:"required,notblank,max=5000"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// Handler handles comment HTTP endpoints.
type Handler struct {
	store  Store
	pub    Publisher
	logger *zap.Logger
}

// NewHandler creates a comments handler. pub may be nil.
func NewHandler(store Store, pub Publisher, logger *zap.Logger) *Handler {
	return &Handler{store: store, pub: pub, logger: logger}
}

// CreateForEvent handles POST /events/:id/comments.
func (h *Handler) CreateForEvent(c *gin.Context) { h.create(c, TargetEvent) }

// CreateForQuestion handles POST /community/questions/:id/comments.
func (h *Handler) CreateForQuestion(c *gin.Context) { h.create(c, TargetQuestion) }

// ListForEvent handles GET /events/:id/comments.
func (h *Handler) ListForEvent(c *gin.Context) { h.list(c, TargetEvent) }

// ListForQuestion handles GET /community/questions/:id/comments.
func (h *Handler) ListForQuestion(c *gin.Context) { h.list(c, TargetQuestion) }

// CountForQuestion handles GET /community/questions/:id/comments/count.
func (h *Handler) CountForQuestion(c *gin.Context) {
	t, ok := target(c, TargetQuestion)
	if !ok {
		return
	}
	n, err := h.store.CountByTarget(c.Request.Context(), t)
	if err != nil {
		h.fail(c, "count comments", err)
		return
	}
	response.OK(c, gin.H{"count": n})
}

func (h *Handler) create(c *gin.Context, kind TargetKind) {
	t, ok := target(c, kind)
	if !ok {
		return
	}
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "comment content is required")
		return
	}
	ctx := c.Request.Context()
	exists, err := h.store.TargetExists(ctx, t)
	if err != nil {
		h.fail(c, "create comment", err)
		return
	}
	if !exists {
		h.fail(c, "create comment", ErrTargetNotFound)
		return
	}
	if req.ParentID != nil {
		parent, err := h.store.GetByID(ctx, *req.ParentID)
		if errors.Is(err, ErrNotFound) || (err == nil && !t.Matches(parent)) {
			response.BadRequest(c, "parent comment does not belong to this "+string(kind))
			return
		}
		if err != nil {
			h.fail(c, "create comment", err)
			return
		}
	}
	comment, err := h.store.Create(ctx, t, claims.UserID, strings.TrimSpace(req.Content), req.ParentID)
	if err != nil {
		h.fail(c, "create comment", err)
		return
	}
	if h.pub != nil {
		topic := realtime.EventTopic(t.ID)
		if kind == TargetQuestion {
			topic = realtime.QuestionTopic(t.ID)
		}
		h.pub.Publish(ctx, topic, realtime.CommentAdded, comment)
	}
	response.Created(c, comment)
}

func (h *Handler) list(c *gin.Context, kind TargetKind) {
	t, ok := target(c, kind)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	exists, err := h.store.TargetExists(ctx, t)
	if err != nil {
		h.fail(c, "list comments", err)
		return
	}
	if !exists {
		h.fail(c, "list comments", ErrTargetNotFound)
		return
	}
	flat, err := h.store.ListByTarget(ctx, t)
	if err != nil {
		h.fail(c, "list comments", err)
		return
	}
	response.OK(c, BuildTree(flat))
}

// Delete handles DELETE /comments/:id. Authors may delete their own comments, admins any.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	ctx := c.Request.Context()
	comment, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(c, "delete comment", err)
		return
	}
	if comment.UserID != claims.UserID && !claims.HasRole(models.RoleAdmin) {
		response.Forbidden(c, "only the author or an admin can delete this comment")
		return
	}
	if err := h.store.Delete(ctx, id); err != nil {
		h.fail(c, "delete comment", err)
		return
	}
	response.OK(c, gin.H{"message": "Comment deleted"})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "comment not found")
	case errors.Is(err, ErrTargetNotFound):
		response.NotFound(c, "not found")
	default:
		h.logger.Error(op, zap.Error(err))
		response.Internal(c, "failed to "+op)
	}
}

func target(c *gin.Context, kind TargetKind) (Target, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+string(kind)+" id")
		return Target{}, false
	}
	return Target{Kind: kind, ID: id}, true
}
