package links

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/response"
)

// FilterAll is the listing value that disables a filter.
const FilterAll = "All"

// Store is the directory persistence used by the handler. *Repository implements it.
type Store interface {
	List(ctx context.Context, f Filter) ([]*models.Link, error)
	Create(ctx context.Context, l *models.Link) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
}

// CreateRequest is the body for POST /links.
type CreateRequest struct {
	Title       string     `json:"title" binding:"required,notblank,max=300"`
	URL         string     `json:"url" binding:"required,url"`
	Location    string     `json:"location" binding:"required,notblank,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

// CategoryRequest is the body for POST /categories.
type CategoryRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// Handler handles the external resource directory.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a links handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// List handles GET /links?location=&category=.
func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Location: filterValue(c.Query("location")),
		Category: filterValue(c.Query("category")),
	}
	list, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list links", zap.Error(err))
		response.Internal(c, "failed to list links")
		return
	}
	response.OK(c, list)
}

// Create handles POST /links (admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l := &models.Link{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		URL:         strings.TrimSpace(req.URL),
		Location:    strings.TrimSpace(req.Location),
		CategoryID:  req.CategoryID,
	}
	if err := h.store.Create(c.Request.Context(), l); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			response.BadRequest(c, "unknown category")
			return
		}
		h.logger.Error("create link", zap.Error(err))
		response.Internal(c, "failed to create link")
		return
	}
	response.Created(c, l)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(c *gin.Context) {
	list, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.Error("list categories", zap.Error(err))
		response.Internal(c, "failed to list categories")
		return
	}
	response.OK(c, list)
}

// CreateCategory handles POST /categories (admin).
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "category name is required")
		return
	}
	cat, err := h.store.CreateCategory(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			response.Conflict(c, "category already exists")
			return
		}
		h.logger.Error("create category", zap.Error(err))
		response.Internal(c, "failed to create category")
		return
	}
	response.Created(c, cat)
}

func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, FilterAll) {
		return ""
	}
	return v
}
