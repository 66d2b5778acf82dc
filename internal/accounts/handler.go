package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/response"
)

// Store is the account persistence used by the profile endpoints. *auth.Repository implements it.
type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.UserPublic, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd auth.ProfileUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.UserPublic, error)
}

// UpdateRequest is the body for PUT /me. Omitted fields stay unchanged.
type UpdateRequest struct {
	Name           *string `json:"name" binding:"omitempty,notblank,min=3"`
	Email          *string `json:"email" binding:"omitempty,email"`
	OfficeNumber   *string `json:"office_number" binding:"omitempty,numeric"`
	OfficeHours    *string `json:"office_hours"`
	OfficeLocation *string `json:"office_location"`
}

// Handler serves the account endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an accounts handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.store.GetProfile(c.Request.Context(), auth.UserIDFrom(c))
	if err != nil {
		h.fail(c, "get profile", err)
		return
	}
	response.OK(c, profile)
}

// Update handles PUT /me. Office fields are ignored for members.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	claims, _ := auth.ClaimsFrom(c)
	upd := auth.ProfileUpdate{Name: trimmed(req.Name)}
	if req.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		upd.Email = &e
	}
	if claims.Role == models.RoleAdmin {
		upd.OfficeNumber = trimmed(req.OfficeNumber)
		upd.OfficeHours = trimmed(req.OfficeHours)
		upd.OfficeLocation = trimmed(req.OfficeLocation)
	}
	ctx := c.Request.Context()
	if err := h.store.UpdateProfile(ctx, claims.UserID, upd); err != nil {
		h.fail(c, "update profile", err)
		return
	}
	profile, err := h.store.GetProfile(ctx, claims.UserID)
	if err != nil {
		h.fail(c, "get profile", err)
		return
	}
	response.OK(c, profile)
}

// Delete handles DELETE /me.
func (h *Handler) Delete(c *gin.Context) {
	id := auth.UserIDFrom(c)
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete account", err)
		return
	}
	h.logger.Info("account deleted", zap.String("user_id", id.String()))
	response.OK(c, gin.H{"message": "Account deleted"})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list users", err)
		return
	}
	response.OK(c, list)
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, auth.ErrDuplicate):
		response.Conflict(c, "email already registered")
	default:
		h.logger.Error(op, zap.Error(err))
		response.Internal(c, "failed to "+op)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
