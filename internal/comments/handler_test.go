package comments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/validation"
)

type memStore struct {
	targets  map[uuid.UUID]TargetKind
	comments []*models.Comment
}

func (m *memStore) TargetExists(_ context.Context, t Target) (bool, error) {
	return m.targets[t.ID] == t.Kind, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Comment, error) {
	for _, c := range m.comments {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Create(_ context.Context, t Target, userID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error) {
	c := &models.Comment{ID: uuid.New(), Content: content, CreatedAt: time.Now(), UserID: userID, ParentID: parentID,
		Author: &models.Author{ID: userID, Name: "Someone"}}
	id := t.ID
	if t.Kind == TargetEvent {
		c.EventID = &id
	} else {
		c.QuestionID = &id
	}
	m.comments = append(m.comments, c)
	cp := *c
	return &cp, nil
}

func (m *memStore) ListByTarget(_ context.Context, t Target) ([]*models.Comment, error) {
	out := []*models.Comment{}
	for _, c := range m.comments {
		if t.Matches(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) CountByTarget(ctx context.Context, t Target) (int, error) {
	list, _ := m.ListByTarget(ctx, t)
	return len(list), nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	for i, c := range m.comments {
		if c.ID == id {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type recorder struct {
	topics []string
}

func (r *recorder) Publish(_ context.Context, topic, _ string, _ interface{}) {
	r.topics = append(r.topics, topic)
}

type fixture struct {
	store    *memStore
	pub      *recorder
	router   *gin.Engine
	event    uuid.UUID
	question uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())
	f := &fixture{event: uuid.New(), question: uuid.New(), pub: &recorder{}}
	f.store = &memStore{targets: map[uuid.UUID]TargetKind{f.event: TargetEvent, f.question: TargetQuestion}}
	h := NewHandler(f.store, f.pub, zap.NewNop())

	as := func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader("X-User")); err == nil {
			auth.SetClaims(c, &auth.Claims{UserID: id, Role: models.Role(c.GetHeader("X-Role"))})
		}
	}
	r := gin.New()
	r.POST("/events/:id/comments", as, h.CreateForEvent)
	r.GET("/events/:id/comments", h.ListForEvent)
	r.POST("/community/questions/:id/comments", as, h.CreateForQuestion)
	r.GET("/community/questions/:id/comments", h.ListForQuestion)
	r.GET("/community/questions/:id/comments/count", h.CountForQuestion)
	r.DELETE("/comments/:id", as, h.Delete)
	f.router = r
	return f
}

func (f *fixture) do(method, path string, user uuid.UUID, role models.Role, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set("X-User", user.String())
		req.Header.Set("X-Role", string(role))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestCreateAndThreadedList(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	path := "/events/" + f.event.String() + "/comments"

	w, out := f.do(http.MethodPost, path, user, models.RoleMember, gin.H{"content": "Count me in"})
	require.Equal(t, http.StatusCreated, w.Code)
	parentID := out["data"].(map[string]interface{})["id"].(string)

	w, _ = f.do(http.MethodPost, path, user, models.RoleMember, gin.H{"content": "Me too", "parent_id": parentID})
	require.Equal(t, http.StatusCreated, w.Code)

	w, out = f.do(http.MethodGet, path, uuid.Nil, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	roots := out["data"].([]interface{})
	require.Len(t, roots, 1)
	replies := roots[0].(map[string]interface{})["replies"].([]interface{})
	assert.Len(t, replies, 1)
	assert.Equal(t, []string{"event:" + f.event.String(), "event:" + f.event.String()}, f.pub.topics)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	w, _ := f.do(http.MethodPost, "/events/"+f.event.String()+"/comments", user, models.RoleMember, gin.H{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(http.MethodPost, "/events/"+uuid.NewString()+"/comments", user, models.RoleMember, gin.H{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(http.MethodPost, "/events/"+f.event.String()+"/comments", uuid.Nil, "", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := f.do(http.MethodPost, "/community/questions/"+f.question.String()+"/comments", user, models.RoleMember, gin.H{"content": "q"})
	require.Equal(t, http.StatusCreated, w.Code)
	questionComment := out["data"].(map[string]interface{})["id"].(string)

	w, _ = f.do(http.MethodPost, "/events/"+f.event.String()+"/comments", user, models.RoleMember,
		gin.H{"content": "cross-thread", "parent_id": questionComment})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountForQuestion(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	for i := 0; i < 3; i++ {
		w, _ := f.do(http.MethodPost, "/community/questions/"+f.question.String()+"/comments", user, models.RoleMember, gin.H{"content": "answer"})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, out := f.do(http.MethodGet, "/community/questions/"+f.question.String()+"/comments/count", uuid.Nil, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), out["data"].(map[string]interface{})["count"])
}

func TestDeletePermissions(t *testing.T) {
	f := newFixture(t)
	author, stranger, admin := uuid.New(), uuid.New(), uuid.New()
	_, out := f.do(http.MethodPost, "/events/"+f.event.String()+"/comments", author, models.RoleMember, gin.H{"content": "mine"})
	id := out["data"].(map[string]interface{})["id"].(string)

	w, _ := f.do(http.MethodDelete, "/comments/"+id, stranger, models.RoleMember, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, f.store.comments, 1)

	w, _ = f.do(http.MethodDelete, "/comments/"+id, admin, models.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.store.comments)

	w, _ = f.do(http.MethodDelete, "/comments/"+id, author, models.RoleMember, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuildTree(t *testing.T) {
	a := &models.Comment{ID: uuid.New()}
	b := &models.Comment{ID: uuid.New(), ParentID: &a.ID}
	c := &models.Comment{ID: uuid.New(), ParentID: &b.ID}
	orphanParent := uuid.New()
	d := &models.Comment{ID: uuid.New(), ParentID: &orphanParent}

	roots := BuildTree([]*models.Comment{a, b, c, d})
	require.Len(t, roots, 2)
	assert.Equal(t, a.ID, roots[0].ID)
	assert.Equal(t, d.ID, roots[1].ID)
	require.Len(t, roots[0].Replies, 1)
	assert.Equal(t, c.ID, roots[0].Replies[0].Replies[0].ID)
}
