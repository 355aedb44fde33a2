package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/surojit-ghosh/url-shortener/internal/analytics"
	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/reqinfo"
	"github.com/surojit-ghosh/url-shortener/internal/service"
)

// MockLinkService mocks the link management service
type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) Create(ctx context.Context, userID string, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LinkResponse), args.Error(1)
}

func (m *MockLinkService) Get(ctx context.Context, key string) (*model.LinkResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LinkResponse), args.Error(1)
}

func (m *MockLinkService) List(ctx context.Context, userID string) ([]model.LinkResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LinkResponse), args.Error(1)
}

func (m *MockLinkService) Update(ctx context.Context, userID, key string, req *model.UpdateLinkRequest) (*model.LinkResponse, error) {
	args := m.Called(ctx, userID, key, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LinkResponse), args.Error(1)
}

func (m *MockLinkService) Delete(ctx context.Context, userID, key string) error {
	args := m.Called(ctx, userID, key)
	return args.Error(0)
}

// MockRedirectService mocks key resolution
type MockRedirectService struct {
	mock.Mock
}

func (m *MockRedirectService) Redirect(ctx context.Context, key string, info reqinfo.Info) (string, error) {
	args := m.Called(ctx, key, info)
	return args.String(0), args.Error(1)
}

func (m *MockRedirectService) VerifyPassword(ctx context.Context, key, password string, info reqinfo.Info) (string, error) {
	args := m.Called(ctx, key, password, info)
	return args.String(0), args.Error(1)
}

// MockStatsProvider mocks click summaries
type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) Stats(ctx context.Context, key string) (*model.LinkStatsResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LinkStatsResponse), args.Error(1)
}

func (m *MockStatsProvider) Dashboard(ctx context.Context, userID string) (*model.DashboardResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardResponse), args.Error(1)
}

// MockTracker mocks direct click ingestion
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Record(ctx context.Context, ev analytics.ClickEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// MockDB mocks the database health interface
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDB) Close() {
	m.Called()
}

// MockCache mocks the cache health interface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type handlerMocks struct {
	links    *MockLinkService
	redirect *MockRedirectService
	stats    *MockStatsProvider
	tracker  *MockTracker
	db       *MockDB
	cache    *MockCache
}

func setupRouter(t *testing.T) (*gin.Engine, *handlerMocks) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := &handlerMocks{
		links:    new(MockLinkService),
		redirect: new(MockRedirectService),
		stats:    new(MockStatsProvider),
		tracker:  new(MockTracker),
		db:       new(MockDB),
		cache:    new(MockCache),
	}
	geo := reqinfo.NewGeoResolver("", logger)

	h := NewHandler(m.links, m.redirect, m.stats, m.tracker, geo, m.db, m.cache, logger)
	r := gin.New()
	h.RegisterRoutes(r)
	return r, m
}

func doJSON(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		cacheErr   error
		wantStatus int
	}{
		{"all healthy", nil, nil, http.StatusOK},
		{"database down", errors.New("db down"), nil, http.StatusServiceUnavailable},
		{"cache down", nil, errors.New("cache down"), http.StatusServiceUnavailable},
		{"everything down", errors.New("db down"), errors.New("cache down"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := setupRouter(t)
			m.db.On("Ping", mock.Anything).Return(tt.dbErr)
			m.cache.On("Ping", mock.Anything).Return(tt.cacheErr)

			w := doJSON(r, http.MethodGet, "/health", nil, nil)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCreateLink(t *testing.T) {
	auth := map[string]string{"X-User-ID": "u1"}

	t.Run("created", func(t *testing.T) {
		r, m := setupRouter(t)
		resp := &model.LinkResponse{Key: "abc", URL: "https://example.com"}
		m.links.On("Create", mock.Anything, "u1", mock.AnythingOfType("*model.CreateLinkRequest")).Return(resp, nil)

		w := doJSON(r, http.MethodPost, "/api/v1/links", model.CreateLinkRequest{URL: "https://example.com"}, auth)
		require.Equal(t, http.StatusCreated, w.Code)

		var got model.LinkResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "abc", got.Key)
		m.links.AssertExpectations(t)
	})

	t.Run("missing user header", func(t *testing.T) {
		r, m := setupRouter(t)
		w := doJSON(r, http.MethodPost, "/api/v1/links", model.CreateLinkRequest{URL: "https://example.com"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		m.links.AssertNotCalled(t, "Create")
	})

	t.Run("invalid url", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Create", mock.Anything, "u1", mock.Anything).Return(nil, service.ErrInvalidURL)

		w := doJSON(r, http.MethodPost, "/api/v1/links", model.CreateLinkRequest{URL: "notaurl"}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("key conflict", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Create", mock.Anything, "u1", mock.Anything).Return(nil, service.ErrKeyExists)

		w := doJSON(r, http.MethodPost, "/api/v1/links", model.CreateLinkRequest{URL: "https://example.com", Key: "taken"}, auth)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _ := setupRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/links", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "u1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRedirectLink(t *testing.T) {
	t.Run("temporary redirect to resolved target", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("Redirect", mock.Anything, "abc", mock.Anything).Return("https://example.com/landing", nil)

		w := doJSON(r, http.MethodGet, "/abc", nil, nil)
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "https://example.com/landing", w.Header().Get("Location"))
	})

	t.Run("not found", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("Redirect", mock.Anything, "nope", mock.Anything).Return("", service.ErrLinkNotFound)

		w := doJSON(r, http.MethodGet, "/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("Redirect", mock.Anything, "old", mock.Anything).Return("", service.ErrLinkExpired)

		w := doJSON(r, http.MethodGet, "/old", nil, nil)
		assert.Equal(t, http.StatusGone, w.Code)
	})

	t.Run("password challenge", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("Redirect", mock.Anything, "secret", mock.Anything).Return("", service.ErrPasswordRequired)

		w := doJSON(r, http.MethodGet, "/secret", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["password_required"])
	})

	t.Run("unexpected error collapses to not found", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("Redirect", mock.Anything, "boom", mock.Anything).Return("", errors.New("store exploded"))

		w := doJSON(r, http.MethodGet, "/boom", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("request context reaches the service", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("Redirect", mock.Anything, "ctx", mock.MatchedBy(func(info reqinfo.Info) bool {
			return info.ClientIP == "203.0.113.9"
		})).Return("https://example.com", nil)

		req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		m.redirect.AssertExpectations(t)
	})
}

func TestVerifyPassword(t *testing.T) {
	body := model.VerifyPasswordRequest{Password: "hunter2"}

	t.Run("success returns resolved target", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("VerifyPassword", mock.Anything, "secret", "hunter2", mock.Anything).Return("https://example.com/de", nil)

		w := doJSON(r, http.MethodPost, "/secret/verify-password", body, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.VerifyPasswordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "https://example.com/de", resp.RedirectURL)
	})

	t.Run("wrong password", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("VerifyPassword", mock.Anything, "secret", "hunter2", mock.Anything).Return("", service.ErrInvalidPassword)

		w := doJSON(r, http.MethodPost, "/secret/verify-password", body, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not protected", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("VerifyPassword", mock.Anything, "open", "hunter2", mock.Anything).Return("", service.ErrNotPasswordProtected)

		w := doJSON(r, http.MethodPost, "/open/verify-password", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		r, m := setupRouter(t)
		m.redirect.On("VerifyPassword", mock.Anything, "old", "hunter2", mock.Anything).Return("", service.ErrLinkExpired)

		w := doJSON(r, http.MethodPost, "/old/verify-password", body, nil)
		assert.Equal(t, http.StatusGone, w.Code)
	})
}

func TestGetLink(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Get", mock.Anything, "abc").Return(&model.LinkResponse{Key: "abc", URL: "https://example.com"}, nil)

		w := doJSON(r, http.MethodGet, "/api/v1/links/abc", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Get", mock.Anything, "nope").Return(nil, service.ErrLinkNotFound)

		w := doJSON(r, http.MethodGet, "/api/v1/links/nope", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListLinks(t *testing.T) {
	r, m := setupRouter(t)
	m.links.On("List", mock.Anything, "u1").Return([]model.LinkResponse{{Key: "a"}, {Key: "b"}}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/links", nil, map[string]string{"X-User-ID": "u1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []model.LinkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestUpdateLink(t *testing.T) {
	auth := map[string]string{"X-User-ID": "u1"}
	newURL := "https://changed.example.com"

	t.Run("updated", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Update", mock.Anything, "u1", "abc", mock.AnythingOfType("*model.UpdateLinkRequest")).
			Return(&model.LinkResponse{Key: "abc", URL: newURL}, nil)

		w := doJSON(r, http.MethodPatch, "/api/v1/links/abc", model.UpdateLinkRequest{URL: &newURL}, auth)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not owned", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Update", mock.Anything, "u1", "abc", mock.Anything).Return(nil, service.ErrLinkNotFound)

		w := doJSON(r, http.MethodPatch, "/api/v1/links/abc", model.UpdateLinkRequest{URL: &newURL}, auth)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteLink(t *testing.T) {
	auth := map[string]string{"X-User-ID": "u1"}

	t.Run("deleted", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Delete", mock.Anything, "u1", "abc").Return(nil)

		w := doJSON(r, http.MethodDelete, "/api/v1/links/abc", nil, auth)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		r, m := setupRouter(t)
		m.links.On("Delete", mock.Anything, "u1", "nope").Return(service.ErrLinkNotFound)

		w := doJSON(r, http.MethodDelete, "/api/v1/links/nope", nil, auth)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLinkStats(t *testing.T) {
	r, m := setupRouter(t)
	m.stats.On("Stats", mock.Anything, "abc").Return(&model.LinkStatsResponse{Key: "abc", TotalClicks: 3}, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/links/abc/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.LinkStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 3, resp.TotalClicks)
}

func TestDashboard(t *testing.T) {
	t.Run("aggregates for the calling user", func(t *testing.T) {
		r, m := setupRouter(t)
		m.stats.On("Dashboard", mock.Anything, "u1").Return(&model.DashboardResponse{
			Overview: model.DashboardOverview{TotalLinks: 2, TotalClicks: 10, ClicksToday: 3, AvgClicksPerLink: 5},
			TopLinks: []model.TopLink{{Key: "a", Clicks: 7}},
		}, nil)

		w := doJSON(r, http.MethodGet, "/api/v1/analytics/dashboard", nil, map[string]string{"X-User-ID": "u1"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp model.DashboardResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.EqualValues(t, 10, resp.Overview.TotalClicks)
		require.Len(t, resp.TopLinks, 1)
		assert.Equal(t, "a", resp.TopLinks[0].Key)
		m.stats.AssertExpectations(t)
	})

	t.Run("requires a user", func(t *testing.T) {
		r, m := setupRouter(t)
		w := doJSON(r, http.MethodGet, "/api/v1/analytics/dashboard", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		m.stats.AssertNotCalled(t, "Dashboard")
	})
}

func TestTrackClick(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		r, m := setupRouter(t)
		m.tracker.On("Record", mock.Anything, mock.MatchedBy(func(ev analytics.ClickEvent) bool {
			return ev.Key == "abc" && ev.TargetURL == "https://example.com"
		})).Return(nil)

		w := doJSON(r, http.MethodPost, "/api/v1/analytics/track", analytics.ClickEvent{
			Key:        "abc",
			TargetURL:  "https://example.com",
			OccurredAt: time.Now().UTC(),
		}, nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
		m.tracker.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		r, m := setupRouter(t)
		w := doJSON(r, http.MethodPost, "/api/v1/analytics/track", analytics.ClickEvent{Key: "abc"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		m.tracker.AssertNotCalled(t, "Record")
	})
}
