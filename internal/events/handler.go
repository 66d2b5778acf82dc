package events

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/internal/realtime"
	"github.com/epost-hub/backend/pkg/response"
	"github.com/epost-hub/backend/pkg/storage"
)

const dateLayout = "2006-01-02"

// Store is the event persistence used by the handler. *Repository implements it.
type Store interface {
	CleanupStore
	Create(ctx context.Context, ev *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListByStatus(ctx context.Context, status models.EventStatus) ([]*models.Event, error)
	CountByStatus(ctx context.Context, status models.EventStatus) (int, error)
	TransitionFromPending(ctx context.Context, id uuid.UUID, to models.EventStatus, reason string) (bool, error)
	UpdateContent(ctx context.Context, ev *models.Event) error
	IncrementInterest(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Geocoder resolves addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (float64, float64, error)
}

// FlyerStore uploads and removes flyer files. *storage.S3 implements it.
type FlyerStore interface {
	UploadFlyer(ctx context.Context, filename string, body io.Reader, size int64) (string, error)
	DeleteFlyer(ctx context.Context, flyerURL string) error
}

// Notifier emails event creators about moderation and edits.
type Notifier interface {
	EventApproved(ctx context.Context, ev *models.Event) error
	EventDenied(ctx context.Context, ev *models.Event, reason string) error
	EventModified(ctx context.Context, ev *models.Event) error
}

// Publisher pushes realtime updates. *realtime.Hub implements it.
type Publisher interface {
	Publish(ctx context.Context, topic, event string, payload interface{})
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	Website     string   `json:"website" binding:"omitempty,url"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Flyer       string   `json:"flyer" binding:"omitempty,url"`
}

// UpdateRequest is the body for PATCH /events/:id. Omitted fields stay unchanged; empty strings clear.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Type        *string `json:"type"`
	Address     *string `json:"address"`
	Website     *string `json:"website" binding:"omitempty,url|len=0"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Flyer       *string `json:"flyer" binding:"omitempty,url|len=0"`
}

// DenyRequest is the body for PATCH /events/:id/deny.
type DenyRequest struct {
	Reason string `json:"reason"`
}

// BulkDeleteRequest is the body for DELETE /events.
type BulkDeleteRequest struct {
	EventIDs []uuid.UUID `json:"event_ids" binding:"required,min=1"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store    Store
	geocoder Geocoder
	flyers   FlyerStore
	notifier Notifier
	pub      Publisher
	cleaner  *Cleaner
	now      func() time.Time
	logger   *zap.Logger
}

// NewHandler creates an events handler. flyers and pub may be nil.
func NewHandler(store Store, geocoder Geocoder, flyers FlyerStore, notifier Notifier, pub Publisher, cleaner *Cleaner, logger *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		geocoder: geocoder,
		flyers:   flyers,
		notifier: notifier,
		pub:      pub,
		cleaner:  cleaner,
		now:      time.Now,
		logger:   logger,
	}
}

// Create handles POST /events. Admin events are approved immediately, member events wait for moderation.
func (h *Handler) Create(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ev := &models.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.TrimSpace(req.Type),
		Address:     strings.TrimSpace(req.Address),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Website:     strings.TrimSpace(req.Website),
		StartTime:   strings.TrimSpace(req.StartTime),
		EndTime:     strings.TrimSpace(req.EndTime),
		Flyer:       strings.TrimSpace(req.Flyer),
		Status:      models.InitialStatusFor(claims.Role),
	}
	if !ev.HasTitleOrFlyer() {
		response.BadRequest(c, "Either title or flyer is required")
		return
	}
	var err error
	if ev.StartDate, err = parseDate(req.StartDate); err != nil {
		response.BadRequest(c, "start_date must be YYYY-MM-DD")
		return
	}
	if ev.EndDate, err = parseDate(req.EndDate); err != nil {
		response.BadRequest(c, "end_date must be YYYY-MM-DD")
		return
	}
	if ev.StartDate != nil && ev.EndDate != nil && ev.EndDate.Before(*ev.StartDate) {
		response.BadRequest(c, "end_date must not be before start_date")
		return
	}
	ctx := c.Request.Context()
	if ev.Address != "" && (ev.Latitude == nil || ev.Longitude == nil) {
		h.geocode(ctx, ev)
	}
	creator := claims.UserID
	ev.CreatedBy = &creator
	if err := h.store.Create(ctx, ev); err != nil {
		h.logger.Error("create event", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	ev.Creator = &models.Author{ID: claims.UserID, Name: claims.Name, Email: claims.Email}
	if ev.Status == models.EventPending {
		h.publish(ctx, realtime.TopicModeration, realtime.EventSubmitted, ev)
	}
	response.Created(c, ev)
}

// UploadFlyer handles POST /events/flyers (multipart field "file").
func (h *Handler) UploadFlyer(c *gin.Context) {
	if h.flyers == nil {
		response.ServiceUnavailable(c, "flyer storage is not configured")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fh.Size > storage.MaxFlyerFileSize {
		response.BadRequest(c, "file exceeds 10MB limit")
		return
	}
	if _, ok := storage.FlyerContentType(fh.Filename); !ok {
		response.BadRequest(c, "flyer must be an image (jpg, png, webp, gif) or a PDF")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "could not read file")
		return
	}
	defer f.Close()
	url, err := h.flyers.UploadFlyer(c.Request.Context(), fh.Filename, f, fh.Size)
	if err != nil {
		h.logger.Error("upload flyer", zap.Error(err))
		response.Internal(c, "failed to upload flyer")
		return
	}
	response.Created(c, gin.H{"url": url})
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get event", err)
		return
	}
	response.OK(c, ev)
}

// ListApproved handles GET /events/approved.
func (h *Handler) ListApproved(c *gin.Context) {
	h.listByStatus(c, models.EventApproved)
}

// ListPending handles GET /events/pending.
func (h *Handler) ListPending(c *gin.Context) {
	h.listByStatus(c, models.EventPending)
}

func (h *Handler) listByStatus(c *gin.Context, status models.EventStatus) {
	list, err := h.store.ListByStatus(c.Request.Context(), status)
	if err != nil {
		h.fail(c, "list events", err)
		return
	}
	response.OK(c, list)
}

// PendingCount handles GET /events/pending/count.
func (h *Handler) PendingCount(c *gin.Context) {
	n, err := h.store.CountByStatus(c.Request.Context(), models.EventPending)
	if err != nil {
		h.fail(c, "count pending events", err)
		return
	}
	response.OK(c, gin.H{"count": n})
}

// ListExpired handles GET /events/expired: events whose end date has passed.
func (h *Handler) ListExpired(c *gin.Context) {
	list, err := h.store.ListEndedBefore(c.Request.Context(), h.now())
	if err != nil {
		h.fail(c, "list expired events", err)
		return
	}
	response.OK(c, list)
}

// Approve handles PATCH /events/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ev, changed, err := h.moderate(c.Request.Context(), id, models.EventApproved, "")
	if err != nil {
		h.fail(c, "approve event", err)
		return
	}
	if changed {
		if err := h.notifier.EventApproved(c.Request.Context(), ev); err != nil {
			h.logger.Warn("approval notification failed", zap.String("event_id", id.String()), zap.Error(err))
		}
	}
	response.OK(c, ev)
}

// Deny handles PATCH /events/:id/deny. A non-blank reason is required before anything is read or written.
func (h *Handler) Deny(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req DenyRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		response.BadRequest(c, "Denial reason is required")
		return
	}
	reason := strings.TrimSpace(req.Reason)
	ev, changed, err := h.moderate(c.Request.Context(), id, models.EventDenied, reason)
	if err != nil {
		h.fail(c, "deny event", err)
		return
	}
	if changed {
		if err := h.notifier.EventDenied(c.Request.Context(), ev, reason); err != nil {
			h.logger.Warn("denial notification failed", zap.String("event_id", id.String()), zap.Error(err))
		}
	}
	response.OK(c, ev)
}

// moderate applies a guarded PENDING -> to transition. Repeating the same transition is a no-op
// (changed=false); attempting the opposite one yields ErrInvalidTransition.
func (h *Handler) moderate(ctx context.Context, id uuid.UUID, to models.EventStatus, reason string) (*models.Event, bool, error) {
	changed, err := h.store.TransitionFromPending(ctx, id, to, reason)
	if err != nil {
		return nil, false, err
	}
	ev, err := h.store.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if changed {
		h.publish(ctx, realtime.TopicModeration, realtime.EventModerated, ev)
		return ev, true, nil
	}
	if ev.Status == to {
		return ev, false, nil
	}
	return ev, false, ErrInvalidTransition
}

// Update handles PATCH /events/:id. Only the creator or an admin may edit.
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	ev, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(c, "get event", err)
		return
	}
	if !claims.HasRole(models.RoleAdmin) && (ev.CreatedBy == nil || *ev.CreatedBy != claims.UserID) {
		response.Forbidden(c, "only the creator or an admin can edit this event")
		return
	}

	oldAddress := ev.Address
	setString(&ev.Title, req.Title)
	setString(&ev.Description, req.Description)
	setString(&ev.Type, req.Type)
	setString(&ev.Address, req.Address)
	setString(&ev.Website, req.Website)
	setString(&ev.StartTime, req.StartTime)
	setString(&ev.EndTime, req.EndTime)
	setString(&ev.Flyer, req.Flyer)
	if req.StartDate != nil {
		if ev.StartDate, err = parseDate(*req.StartDate); err != nil {
			response.BadRequest(c, "start_date must be YYYY-MM-DD")
			return
		}
	}
	if req.EndDate != nil {
		if ev.EndDate, err = parseDate(*req.EndDate); err != nil {
			response.BadRequest(c, "end_date must be YYYY-MM-DD")
			return
		}
	}
	if !ev.HasTitleOrFlyer() {
		response.BadRequest(c, "Either title or flyer is required")
		return
	}
	if ev.StartDate != nil && ev.EndDate != nil && ev.EndDate.Before(*ev.StartDate) {
		response.BadRequest(c, "end_date must not be before start_date")
		return
	}
	if ev.Address != oldAddress {
		ev.Latitude, ev.Longitude = nil, nil
		if ev.Address != "" {
			h.geocode(ctx, ev)
		}
	}
	if err := h.store.UpdateContent(ctx, ev); err != nil {
		h.fail(c, "update event", err)
		return
	}
	if err := h.notifier.EventModified(ctx, ev); err != nil {
		h.logger.Warn("modification notification failed", zap.String("event_id", id.String()), zap.Error(err))
	}
	h.publish(ctx, realtime.EventTopic(id), realtime.EventUpdated, ev)
	response.OK(c, ev)
}

// Interest handles POST /events/:id/interest. No de-duplication happens server-side.
func (h *Handler) Interest(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.store.IncrementInterest(ctx, id); err != nil {
		h.fail(c, "increment interest", err)
		return
	}
	ev, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.fail(c, "get event", err)
		return
	}
	response.OK(c, ev)
}

// BulkDelete handles DELETE /events. Unknown ids are skipped.
func (h *Handler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "event_ids must be a non-empty list of ids")
		return
	}
	ctx := c.Request.Context()
	deleted := 0
	for _, id := range req.EventIDs {
		ev, err := h.store.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			h.logger.Error("bulk delete lookup", zap.String("event_id", id.String()), zap.Error(err))
			response.Internal(c, "failed to delete events")
			return
		}
		if err := h.store.Delete(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			h.logger.Error("bulk delete", zap.String("event_id", id.String()), zap.Error(err))
			response.Internal(c, "failed to delete events")
			return
		}
		deleted++
		if ev.Flyer != "" && h.flyers != nil {
			if err := h.flyers.DeleteFlyer(ctx, ev.Flyer); err != nil {
				h.logger.Warn("flyer delete failed", zap.String("event_id", id.String()), zap.Error(err))
			}
		}
	}
	response.OK(c, gin.H{"deleted_count": deleted})
}

// Cleanup handles DELETE /events/cleanup.
func (h *Handler) Cleanup(c *gin.Context) {
	n, err := h.cleaner.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("cleanup", zap.Int("deleted", n), zap.Error(err))
		response.Internal(c, "cleanup failed partway; run it again")
		return
	}
	response.OK(c, gin.H{
		"deleted_count": n,
		"message":       "Deleted events that ended before " + h.cleaner.Cutoff().Format(dateLayout),
	})
}

// geocode fills coordinates from the address. Failures leave them nil.
func (h *Handler) geocode(ctx context.Context, ev *models.Event) {
	if h.geocoder == nil {
		return
	}
	lat, lng, err := h.geocoder.Geocode(ctx, ev.Address)
	if err != nil {
		h.logger.Warn("geocoding failed", zap.String("address", ev.Address), zap.Error(err))
		ev.Latitude, ev.Longitude = nil, nil
		return
	}
	ev.Latitude, ev.Longitude = &lat, &lng
}

func (h *Handler) publish(ctx context.Context, topic, event string, payload interface{}) {
	if h.pub != nil {
		h.pub.Publish(ctx, topic, event, payload)
	}
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, "event has already been moderated")
	default:
		h.logger.Error(op, zap.Error(err))
		response.Internal(c, "failed to "+op)
	}
}

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// parseDate accepts YYYY-MM-DD or RFC 3339; empty means no date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return nil, err
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &t, nil
}
