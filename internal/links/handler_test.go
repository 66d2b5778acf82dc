package links

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/validation"
)

type memStore struct {
	links      []*models.Link
	categories []models.Category
	lastFilter Filter
}

func (m *memStore) List(_ context.Context, f Filter) ([]*models.Link, error) {
	m.lastFilter = f
	out := []*models.Link{}
	for _, l := range m.links {
		if f.Location != "" && l.Location != f.Location {
			continue
		}
		if f.Category != "" && l.Category.Name != f.Category {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, l *models.Link) error {
	l.Category = models.Category{Name: models.UncategorizedName}
	if l.CategoryID != nil {
		found := false
		for _, c := range m.categories {
			if c.ID == *l.CategoryID {
				l.Category, found = c, true
			}
		}
		if !found {
			return ErrCategoryNotFound
		}
	}
	l.ID = uuid.New()
	m.links = append(m.links, l)
	return nil
}

func (m *memStore) ListCategories(_ context.Context) ([]models.Category, error) {
	return m.categories, nil
}

func (m *memStore) CreateCategory(_ context.Context, name string) (*models.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return nil, ErrDuplicate
		}
	}
	c := models.Category{ID: uuid.New(), Name: name}
	m.categories = append(m.categories, c)
	return &c, nil
}

func newRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())
	store := &memStore{}
	h := NewHandler(store, zap.NewNop())
	r := gin.New()
	r.GET("/links", h.List)
	r.POST("/links", h.Create)
	r.GET("/categories", h.ListCategories)
	r.POST("/categories", h.CreateCategory)
	return r, store
}

func send(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateLinkAndFilter(t *testing.T) {
	r, store := newRouter(t)

	w := send(r, http.MethodPost, "/categories", gin.H{"name": "Housing"})
	require.Equal(t, http.StatusCreated, w.Code)
	catID := store.categories[0].ID

	w = send(r, http.MethodPost, "/links", gin.H{"title": "HUD-VASH", "url": "https://www.va.gov/homeless", "location": "Tulsa", "category_id": catID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = send(r, http.MethodPost, "/links", gin.H{"title": "Food bank", "url": "https://example.org", "location": "Dallas"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), models.UncategorizedName)

	w = send(r, http.MethodGet, "/links?location=All&category=Housing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, Filter{Category: "Housing"}, store.lastFilter)
	assert.Contains(t, w.Body.String(), "HUD-VASH")
	assert.NotContains(t, w.Body.String(), "Food bank")

	w = send(r, http.MethodGet, "/links?category=Uncategorized", nil)
	assert.Contains(t, w.Body.String(), "Food bank")
	assert.NotContains(t, w.Body.String(), "HUD-VASH")

	send(r, http.MethodGet, "/links?location=&category=", nil)
	assert.Equal(t, Filter{}, store.lastFilter)
}

func TestCreateLinkValidation(t *testing.T) {
	r, _ := newRouter(t)

	w := send(r, http.MethodPost, "/links", gin.H{"title": "Bad", "url": "not a url", "location": "Tulsa"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/links", gin.H{"title": " ", "url": "https://example.org", "location": "Tulsa"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPost, "/links", gin.H{"title": "Ok", "url": "https://example.org", "location": "Tulsa", "category_id": uuid.New()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicateCategory(t *testing.T) {
	r, _ := newRouter(t)
	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/categories", gin.H{"name": "Legal"}).Code)
	assert.Equal(t, http.StatusConflict, send(r, http.MethodPost, "/categories", gin.H{"name": "Legal"}).Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodPost, "/categories", gin.H{"name": ""}).Code)

	w := send(r, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Legal")
}
