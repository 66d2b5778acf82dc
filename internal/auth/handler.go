package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/password"
	"github.com/epost-hub/backend/pkg/response"
)

// UserStore is the persistence the auth handler needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateMember(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	CreateAdmin(ctx context.Context, name, email, passwordHash string, profile models.AdminProfile) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// CreatorCodeSource returns the current admin creator code.
type CreatorCodeSource interface {
	CreatorCode(ctx context.Context) (string, error)
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// MemberRequest is the body for POST /auth/members.
type MemberRequest struct {
	Name     string `json:"name" binding:"required,notblank,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// AdminRequest is the body for POST /auth/admins.
type AdminRequest struct {
	Name           string `json:"name" binding:"required,notblank,min=3"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	OfficeNumber   string `json:"office_number" binding:"omitempty,numeric"`
	OfficeHours    string `json:"office_hours"`
	OfficeLocation string `json:"office_location"`
	CreatorCode    string `json:"creator_code" binding:"required"`
}

// PasswordRequest is the body for POST /auth/password.
type PasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users  UserStore
	codes  CreatorCodeSource
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserStore, codes CreatorCodeSource, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{users: users, codes: codes, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("login lookup", zap.Error(err))
			response.Internal(c, "failed to log in")
			return
		}
		response.Unauthorized(c, "invalid credentials")
		return
	}
	if !password.Check(req.Password, user.PasswordHash) {
		response.Unauthorized(c, "invalid credentials")
		return
	}
	h.respondWithToken(c, http.StatusOK, user)
}

// RegisterMember handles POST /auth/members.
func (h *Handler) RegisterMember(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to hash password")
		return
	}
	user, err := h.users.CreateMember(c.Request.Context(), strings.TrimSpace(req.Name), normalizeEmail(req.Email), hash)
	if err != nil {
		h.createFailed(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

// RegisterAdmin handles POST /auth/admins. The creator code must match the stored setting.
func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	current, err := h.codes.CreatorCode(c.Request.Context())
	if err != nil {
		h.logger.Error("read creator code", zap.Error(err))
		response.Internal(c, "failed to verify creator code")
		return
	}
	if req.CreatorCode != current {
		response.BadRequest(c, "Invalid creator code")
		return
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to hash password")
		return
	}
	profile := models.AdminProfile{
		OfficeNumber:   strings.TrimSpace(req.OfficeNumber),
		OfficeHours:    strings.TrimSpace(req.OfficeHours),
		OfficeLocation: strings.TrimSpace(req.OfficeLocation),
		CreatorCode:    req.CreatorCode,
	}
	user, err := h.users.CreateAdmin(c.Request.Context(), strings.TrimSpace(req.Name), normalizeEmail(req.Email), hash, profile)
	if err != nil {
		h.createFailed(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, user)
}

// UpdatePassword handles POST /auth/password for the authenticated user.
func (h *Handler) UpdatePassword(c *gin.Context) {
	userID := UserIDFrom(c)
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("load user for password update", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	if !password.Check(req.OldPassword, user.PasswordHash) {
		response.BadRequest(c, "Old password is incorrect")
		return
	}
	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("update password", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	response.OK(c, gin.H{"message": "Password updated successfully"})
}

func (h *Handler) createFailed(c *gin.Context, err error) {
	if errors.Is(err, ErrDuplicate) {
		response.Conflict(c, "email already registered")
		return
	}
	h.logger.Error("create user", zap.Error(err))
	response.Internal(c, "failed to create user")
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.jwt.Generate(user)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		response.Internal(c, "failed to generate token")
		return
	}
	c.JSON(status, response.Body{Success: true, Data: TokenResponse{Token: token, User: user.ToPublic()}})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
