package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/middleware"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/validation"
)

type memStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]*models.Event
	comments map[uuid.UUID]int
	users    map[uuid.UUID]models.Author
	ops      []string
	writes   int
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[uuid.UUID]*models.Event{},
		comments: map[uuid.UUID]int{},
		users:    map[uuid.UUID]models.Author{},
	}
}

func (m *memStore) withCreator(ev *models.Event) *models.Event {
	cp := *ev
	if ev.CreatedBy != nil {
		if a, ok := m.users[*ev.CreatedBy]; ok {
			cp.Creator = &a
		}
	}
	return &cp
}

func (m *memStore) Create(_ context.Context, ev *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	cp := *ev
	m.events[ev.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "get")
	ev, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.withCreator(ev), nil
}

func (m *memStore) ListByStatus(_ context.Context, status models.EventStatus) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Event{}
	for _, ev := range m.events {
		if ev.Status == status {
			out = append(out, m.withCreator(ev))
		}
	}
	return out, nil
}

func (m *memStore) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	list, _ := m.ListByStatus(ctx, status)
	return len(list), nil
}

func (m *memStore) ListEndedBefore(_ context.Context, cutoff time.Time) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
	out := []*models.Event{}
	for _, ev := range m.events {
		if ev.EndDate != nil && ev.EndDate.Before(day) {
			out = append(out, m.withCreator(ev))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(*out[j].EndDate) })
	return out, nil
}

func (m *memStore) TransitionFromPending(_ context.Context, id uuid.UUID, to models.EventStatus, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok || ev.Status != models.EventPending {
		return false, nil
	}
	m.writes++
	ev.Status = to
	ev.DenialReason = reason
	return true, nil
}

func (m *memStore) UpdateContent(_ context.Context, ev *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.events[ev.ID]
	if !ok {
		return ErrNotFound
	}
	m.writes++
	cp := *ev
	cp.Status = cur.Status
	cp.Creator = nil
	m.events[ev.ID] = &cp
	return nil
}

func (m *memStore) IncrementInterest(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.Interested++
	return nil
}

func (m *memStore) DeleteComments(_ context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "comments:"+id.String())
	n := m.comments[id]
	delete(m.comments, id)
	return int64(n), nil
}

func (m *memStore) DeleteEvent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.comments[id] > 0 {
		return errors.New("foreign key violation: comments reference event")
	}
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	m.ops = append(m.ops, "event:"+id.String())
	delete(m.events, id)
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := m.DeleteComments(ctx, id); err != nil {
		return err
	}
	return m.DeleteEvent(ctx, id)
}

func (m *memStore) status(id uuid.UUID) models.EventStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id].Status
}

type fakeGeocoder struct {
	calls int
	err   error
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ string) (float64, float64, error) {
	g.calls++
	if g.err != nil {
		return 0, 0, g.err
	}
	return 32.7767, -96.797, nil
}

type fakeNotifier struct {
	approved, denied, modified int
	lastReason                 string
	lastTo                     string
	err                        error
}

func (n *fakeNotifier) EventApproved(_ context.Context, ev *models.Event) error {
	n.approved++
	if ev.Creator != nil {
		n.lastTo = ev.Creator.Email
	}
	return n.err
}

func (n *fakeNotifier) EventDenied(_ context.Context, _ *models.Event, reason string) error {
	n.denied++
	n.lastReason = reason
	return n.err
}

func (n *fakeNotifier) EventModified(context.Context, *models.Event) error {
	n.modified++
	return n.err
}

type fakeFlyers struct {
	deleted []string
	err     error
}

func (f *fakeFlyers) UploadFlyer(_ context.Context, filename string, body io.Reader, _ int64) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	return "https://flyers.example.com/flyers/" + filename, nil
}

func (f *fakeFlyers) DeleteFlyer(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return f.err
}

type fixture struct {
	store    *memStore
	geo      *fakeGeocoder
	notifier *fakeNotifier
	flyers   *fakeFlyers
	jwt      *auth.JWTService
	router   *gin.Engine
	admin    *models.User
	member   *models.User
	other    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.Register())

	f := &fixture{
		store:    newMemStore(),
		geo:      &fakeGeocoder{},
		notifier: &fakeNotifier{},
		flyers:   &fakeFlyers{},
		jwt:      auth.NewJWTService("test-secret", 1),
		admin:    &models.User{ID: uuid.New(), Name: "Alex Admin", Email: "alex@example.com", Role: models.RoleAdmin},
		member:   &models.User{ID: uuid.New(), Name: "Morgan", Email: "morgan@example.com", Role: models.RoleMember},
		other:    &models.User{ID: uuid.New(), Name: "Riley", Email: "riley@example.com", Role: models.RoleMember},
	}
	for _, u := range []*models.User{f.admin, f.member, f.other} {
		f.store.users[u.ID] = models.Author{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	cleaner := NewCleaner(f.store, f.flyers, 1, zap.NewNop())
	h := NewHandler(f.store, f.geo, f.flyers, f.notifier, nil, cleaner, zap.NewNop())

	r := gin.New()
	authed := middleware.JWT(f.jwt)
	admin := middleware.RequireRole(models.RoleAdmin)
	r.POST("/events", authed, middleware.RequireRole(models.RoleAdmin, models.RoleMember), h.Create)
	r.POST("/events/flyers", authed, h.UploadFlyer)
	r.GET("/events/approved", h.ListApproved)
	r.GET("/events/pending", authed, admin, h.ListPending)
	r.GET("/events/pending/count", authed, admin, h.PendingCount)
	r.GET("/events/expired", authed, admin, h.ListExpired)
	r.DELETE("/events", authed, admin, h.BulkDelete)
	r.DELETE("/events/cleanup", authed, admin, h.Cleanup)
	r.GET("/events/:id", h.Get)
	r.PATCH("/events/:id", authed, h.Update)
	r.PATCH("/events/:id/approve", authed, admin, h.Approve)
	r.PATCH("/events/:id/deny", authed, admin, h.Deny)
	r.POST("/events/:id/interest", h.Interest)
	f.router = r
	return f
}

func (f *fixture) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := f.jwt.Generate(u)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path string, as *models.User, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+f.token(t, as))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (f *fixture) seed(status models.EventStatus, owner *models.User) *models.Event {
	id := owner.ID
	ev := &models.Event{Title: "Coffee Social", Address: "1 Main St", Status: status, CreatedBy: &id}
	_ = f.store.Create(context.Background(), ev)
	return ev
}

func data(out map[string]interface{}) map[string]interface{} {
	d, _ := out["data"].(map[string]interface{})
	return d
}

func TestCreateStatusFollowsRole(t *testing.T) {
	f := newFixture(t)

	w, out := f.do(t, http.MethodPost, "/events", f.member, gin.H{"title": "Picnic", "address": "Fair Park, Dallas"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "PENDING", data(out)["status"])
	assert.Equal(t, 32.7767, data(out)["latitude"])

	w, out = f.do(t, http.MethodPost, "/events", f.admin, gin.H{"title": "Parade"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "APPROVED", data(out)["status"])
	assert.Equal(t, 1, f.geo.calls)
}

func TestCreateRequiresTitleOrFlyer(t *testing.T) {
	f := newFixture(t)

	w, out := f.do(t, http.MethodPost, "/events", f.member, gin.H{"description": "no title", "title": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Either title or flyer is required", out["error"])
	assert.Empty(t, f.store.events)

	w, _ = f.do(t, http.MethodPost, "/events", f.member, gin.H{"flyer": "https://flyers.example.com/flyers/a.png"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateSkipsGeocodeWithCoordinatesAndToleratesFailure(t *testing.T) {
	f := newFixture(t)

	w, out := f.do(t, http.MethodPost, "/events", f.member, gin.H{"title": "A", "address": "x", "latitude": 1.5, "longitude": 2.5})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, f.geo.calls)
	assert.Equal(t, 1.5, data(out)["latitude"])

	f.geo.err = errors.New("quota exceeded")
	w, out = f.do(t, http.MethodPost, "/events", f.member, gin.H{"title": "B", "address": "y"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, data(out)["latitude"])
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, http.MethodPost, "/events", f.member, gin.H{"title": "A", "start_date": "2026-05-02", "end_date": "2026-05-01"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerationRequiresVerifiedAdmin(t *testing.T) {
	f := newFixture(t)
	ev := f.seed(models.EventPending, f.member)
	path := "/events/" + ev.ID.String() + "/approve"

	w, _ := f.do(t, http.MethodPatch, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(t, http.MethodPatch, path, f.member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	forged := auth.NewJWTService("attacker", 1)
	tok, err := forged.Generate(f.admin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPatch, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, models.EventPending, f.store.status(ev.ID))
	assert.Equal(t, 0, f.notifier.approved)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ev := f.seed(models.EventPending, f.member)
	path := "/events/" + ev.ID.String() + "/approve"

	w, out := f.do(t, http.MethodPatch, path, f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "APPROVED", data(out)["status"])
	assert.Equal(t, models.EventApproved, f.store.status(ev.ID))
	assert.Equal(t, 1, f.notifier.approved)
	assert.Equal(t, "morgan@example.com", f.notifier.lastTo)

	w, _ = f.do(t, http.MethodPatch, path, f.admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.notifier.approved, "repeat approval must not re-notify")

	w, _ = f.do(t, http.MethodPatch, "/events/"+ev.ID.String()+"/deny", f.admin, gin.H{"reason": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.EventApproved, f.store.status(ev.ID))
}

func TestApproveSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	ev := f.seed(models.EventPending, f.member)

	w, _ := f.do(t, http.MethodPatch, "/events/"+ev.ID.String()+"/approve", f.admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.notifier.approved)
	assert.Equal(t, models.EventApproved, f.store.status(ev.ID))
}

func TestApproveMissing(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, http.MethodPatch, "/events/"+uuid.NewString()+"/approve", f.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.do(t, http.MethodPatch, "/events/evt1/approve", f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDenyRequiresReasonBeforeAnyAccess(t *testing.T) {
	f := newFixture(t)
	ev := f.seed(models.EventPending, f.member)
	f.store.ops = nil
	writes := f.store.writes
	path := "/events/" + ev.ID.String() + "/deny"

	for _, body := range []interface{}{nil, gin.H{}, gin.H{"reason": ""}, gin.H{"reason": "   "}} {
		w, out := f.do(t, http.MethodPatch, path, f.admin, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Denial reason is required", out["error"])
	}
	assert.Empty(t, f.store.ops)
	assert.Equal(t, writes, f.store.writes)
	assert.Equal(t, models.EventPending, f.store.status(ev.ID))
	assert.Equal(t, 0, f.notifier.denied)
}

func TestDeny(t *testing.T) {
	f := newFixture(t)
	ev := f.seed(models.EventPending, f.member)
	path := "/events/" + ev.ID.String() + "/deny"

	w, out := f.do(t, http.MethodPatch, path, f.admin, gin.H{"reason": " Not veteran related "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENIED", data(out)["status"])
	assert.Equal(t, "Not veteran related", data(out)["denial_reason"])
	assert.Equal(t, 1, f.notifier.denied)
	assert.Equal(t, "Not veteran related", f.notifier.lastReason)

	w, _ = f.do(t, http.MethodPatch, path, f.admin, gin.H{"reason": "again"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.notifier.denied)

	w, _ = f.do(t, http.MethodPatch, "/events/"+ev.ID.String()+"/approve", f.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ev := f.seed(models.EventApproved, f.member)
	lat, lng := 1.0, 2.0
	f.store.events[ev.ID].Latitude, f.store.events[ev.ID].Longitude = &lat, &lng
	path := "/events/" + ev.ID.String()

	w, _ := f.do(t, http.MethodPatch, path, f.other, gin.H{"title": "Hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, out := f.do(t, http.MethodPatch, path, f.member, gin.H{"description": "Bring a mug"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bring a mug", data(out)["description"])
	assert.Equal(t, 0, f.geo.calls)
	assert.Equal(t, 1, f.notifier.modified)
	assert.Equal(t, models.EventApproved, f.store.status(ev.ID))

	w, out = f.do(t, http.MethodPatch, path, f.admin, gin.H{"address": "2 Elm St"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.geo.calls)
	assert.Equal(t, 32.7767, data(out)["latitude"])
	assert.Equal(t, 2, f.notifier.modified)

	f.geo.err = errors.New("no results")
	w, out = f.do(t, http.MethodPatch, path, f.admin, gin.H{"address": "nowhere"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, data(out)["latitude"])
	assert.Nil(t, f.store.events[ev.ID].Latitude)

	w, out = f.do(t, http.MethodPatch, path, f.member, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Either title or flyer is required", out["error"])
}

func TestInterest(t *testing.T) {
	f := newFixture(t)
	ev := f.seed(models.EventApproved, f.member)

	for i := 0; i < 2; i++ {
		w, _ := f.do(t, http.MethodPost, "/events/"+ev.ID.String()+"/interest", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 2, f.store.events[ev.ID].Interested)

	w, _ := f.do(t, http.MethodPost, "/events/"+uuid.NewString()+"/interest", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListsAndCount(t *testing.T) {
	f := newFixture(t)
	f.seed(models.EventPending, f.member)
	f.seed(models.EventPending, f.other)
	f.seed(models.EventApproved, f.admin)

	w, out := f.do(t, http.MethodGet, "/events/pending/count", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), data(out)["count"])

	w, out = f.do(t, http.MethodGet, "/events/approved", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["data"], 1)

	w, _ = f.do(t, http.MethodGet, "/events/pending", f.member, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func endingOn(f *fixture, end time.Time, flyer string, comments int) *models.Event {
	ev := f.seed(models.EventApproved, f.member)
	e := f.store.events[ev.ID]
	e.EndDate = &end
	e.Flyer = flyer
	f.store.comments[ev.ID] = comments
	return e
}

func TestCleanupDeletesExactlyExpired(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cleaner := NewCleaner(f.store, f.flyers, 1, zap.NewNop())
	cleaner.now = func() time.Time { return now }

	old := endingOn(f, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), "https://flyers.example.com/flyers/old.png", 3)
	edge := endingOn(f, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), "", 1)
	atCutoff := endingOn(f, time.Date(2026, 9, 16, 0, 0, 0, 0, time.UTC), "", 0)
	recent := endingOn(f, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), "", 2)
	undated := f.seed(models.EventApproved, f.member)

	f.store.ops = nil
	n, err := cleaner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, gone := range []*models.Event{old, edge} {
		assert.NotContains(t, f.store.events, gone.ID)
		assert.NotContains(t, f.store.comments, gone.ID)
		ci := indexOf(f.store.ops, "comments:"+gone.ID.String())
		ei := indexOf(f.store.ops, "event:"+gone.ID.String())
		assert.True(t, ci >= 0 && ci < ei, "comments must be deleted before the event")
	}
	for _, kept := range []*models.Event{atCutoff, recent, undated} {
		assert.Contains(t, f.store.events, kept.ID)
	}
	assert.Equal(t, 2, f.store.comments[recent.ID])
	assert.Equal(t, []string{"https://flyers.example.com/flyers/old.png"}, f.flyers.deleted)

	n, err = cleaner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCleanupContinuesWhenFlyerDeleteFails(t *testing.T) {
	f := newFixture(t)
	f.flyers.err = errors.New("access denied")
	ev := endingOn(f, time.Now().AddDate(0, -3, 0), "https://flyers.example.com/flyers/x.png", 0)

	w, out := f.do(t, http.MethodDelete, "/events/cleanup", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), data(out)["deleted_count"])
	assert.NotContains(t, f.store.events, ev.ID)
}

func TestBulkDelete(t *testing.T) {
	f := newFixture(t)
	a := endingOn(f, time.Now(), "https://flyers.example.com/flyers/a.png", 2)
	b := f.seed(models.EventPending, f.member)
	keep := f.seed(models.EventPending, f.member)

	w, out := f.do(t, http.MethodDelete, "/events", f.admin, gin.H{"event_ids": []uuid.UUID{a.ID, b.ID, uuid.New()}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), data(out)["deleted_count"])
	assert.NotContains(t, f.store.events, a.ID)
	assert.NotContains(t, f.store.comments, a.ID)
	assert.Contains(t, f.store.events, keep.ID)
	assert.Equal(t, []string{"https://flyers.example.com/flyers/a.png"}, f.flyers.deleted)

	w, _ = f.do(t, http.MethodDelete, "/events", f.admin, gin.H{"event_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadFlyer(t *testing.T) {
	f := newFixture(t)
	upload := func(name string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, _ = fw.Write([]byte("fake image bytes"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/events/flyers", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+f.token(t, f.member))
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		return w
	}

	w := upload("flyer.png")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "flyers/flyer.png")

	w = upload("flyer.exe")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadFlyerWithoutStorage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newMemStore(), nil, nil, &fakeNotifier{}, nil, nil, zap.NewNop())
	r := gin.New()
	r.POST("/events/flyers", h.UploadFlyer)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events/flyers", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
