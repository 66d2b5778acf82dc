package questions

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

const (
	// AnonymousName is stored for public questions asked without a name.
	AnonymousName = "Anonymous"
	// AnonymousEmail is stored for public questions asked without an email.
	AnonymousEmail = "anonymous@epost-hub.invalid"
)

// Store is the question persistence used by the handler. *Repository implements it.
type Store interface {
	Create(ctx context.Context, q *models.Question) error
	ListPublic(ctx context.Context) ([]models.PublicQuestion, error)
	ListPrivate(ctx context.Context) ([]*models.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier forwards private questions to the admins. notify.QueueNotifier implements it.
type Notifier interface {
	PrivateQuestion(ctx context.Context, q *models.Question) error
}

// Publisher pushes realtime updates. *realtime.Hub implements it.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload interface{})
}

// CreateRequest is the body for POST /community/questions.
type CreateRequest struct {
	Text      string `json:"text" binding:"required,notblank,max=5000"`
	IsPrivate bool   `json:"is_private"`
	Name      string `json:"name" binding:"max=200"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// Handler handles community Q&A endpoints.
type Handler struct {
	store    Store
	notifier Notifier
	pub      Publisher
	logger   *zap.Logger
}

// NewHandler creates a questions handler. notifier and pub may be nil.
func NewHandler(store Store, notifier Notifier, pub Publisher, logger *zap.Logger) *Handler {
	return &Handler{store: store, notifier: notifier, pub: pub, logger: logger}
}

// Create handles POST /community/questions. Runs behind OptionalJWT.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q := &models.Question{
		Text:      strings.TrimSpace(req.Text),
		IsPrivate: req.IsPrivate,
	}
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if claims, ok := auth.ClaimsFrom(c); ok {
		uid := claims.UserID
		q.UserID = &uid
		q.Username = firstNonEmpty(claims.Name, name)
		q.UserEmail = firstNonEmpty(strings.ToLower(claims.Email), email)
		if q.UserEmail == "" {
			response.BadRequest(c, "a contact email is required")
			return
		}
		if q.Username == "" {
			q.Username = q.UserEmail
		}
	} else if req.IsPrivate {
		if name == "" || email == "" {
			response.BadRequest(c, "name and email are required for private questions")
			return
		}
		q.Username, q.UserEmail = name, email
	} else {
		q.Username = firstNonEmpty(name, AnonymousName)
		q.UserEmail = firstNonEmpty(email, AnonymousEmail)
	}

	ctx := c.Request.Context()
	if err := h.store.Create(ctx, q); err != nil {
		h.logger.Error("create question", zap.Error(err))
		response.Internal(c, "failed to create question")
		return
	}
	if q.IsPrivate {
		if h.notifier != nil {
			if err := h.notifier.PrivateQuestion(ctx, q); err != nil {
				h.logger.Warn("private question notice not queued", zap.String("question_id", q.ID.String()), zap.Error(err))
			}
		}
		h.publish(ctx, realtime.TopicModeration, realtime.QuestionAsked, q)
	} else {
		h.publish(ctx, realtime.TopicModeration, realtime.QuestionAsked, publicView(q))
	}
	response.Created(c, q)
}

// ListPublic handles GET /community/questions/public.
func (h *Handler) ListPublic(c *gin.Context) {
	list, err := h.store.ListPublic(c.Request.Context())
	if err != nil {
		h.logger.Error("list public questions", zap.Error(err))
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, list)
}

// ListPrivate handles GET /community/questions/private (admin).
func (h *Handler) ListPrivate(c *gin.Context) {
	list, err := h.store.ListPrivate(c.Request.Context())
	if err != nil {
		h.logger.Error("list private questions", zap.Error(err))
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, list)
}

// Resolve handles DELETE /community/questions/:id (admin). Resolving deletes the question.
func (h *Handler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	ctx := c.Request.Context()
	if err := h.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "question not found")
			return
		}
		h.logger.Error("resolve question", zap.Error(err))
		response.Internal(c, "failed to resolve question")
		return
	}
	h.publish(ctx, realtime.TopicModeration, realtime.QuestionRemoved, gin.H{"id": id})
	h.publish(ctx, realtime.QuestionTopic(id), realtime.QuestionRemoved, gin.H{"id": id})
	response.OK(c, gin.H{"message": "Question resolved"})
}

func (h *Handler) publish(ctx context.Context, topic, event string, payload interface{}) {
	if h.pub != nil {
		h.pub.Publish(ctx, topic, event, payload)
	}
}

func publicView(q *models.Question) models.PublicQuestion {
	return models.PublicQuestion{ID: q.ID, Text: q.Text, Username: q.Username, DatePosted: q.DatePosted}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
