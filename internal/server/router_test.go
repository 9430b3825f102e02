package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/relaydesk/relaydesk/internal/api/handlers"
	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/service"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateWidgetKey(ctx context.Context, token string) (string, string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.String(1), args.Error(2)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) GenerateResponse(ctx context.Context, message, widgetID, businessID string, cfg domain.AIConfig) *domain.AIResponse {
	args := m.Called(ctx, message, widgetID, businessID, cfg)
	return args.Get(0).(*domain.AIResponse)
}

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) StoreItem(ctx context.Context, item service.KnowledgeItem) (*service.StoreResult, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StoreResult), args.Error(1)
}

func (m *MockKnowledgeService) DeleteItem(ctx context.Context, itemID string) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockKnowledgeService) DeleteAll(ctx context.Context, businessID, widgetID string) error {
	args := m.Called(ctx, businessID, widgetID)
	return args.Error(0)
}

func (m *MockKnowledgeService) Stats(ctx context.Context) (*vectorstore.CollectionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vectorstore.CollectionInfo), args.Error(1)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, query string, scope service.ScopeFilter, limit int, scoreThreshold float64) ([]domain.RetrievalResult, error) {
	args := m.Called(ctx, query, scope, limit, scoreThreshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievalResult), args.Error(1)
}

func setupRouter(validator *MockAuthValidator) (http.Handler, *MockChatService, *MockKnowledgeService, *MockSearchService) {
	mockChat := new(MockChatService)
	mockKnowledge := new(MockKnowledgeService)
	mockSearch := new(MockSearchService)

	cfg := RouterConfig{
		ChatHandler:      handlers.NewChatHandler(mockChat),
		KnowledgeHandler: handlers.NewKnowledgeHandler(mockKnowledge, mockSearch, nil, nil),
	}
	if validator != nil {
		cfg.AuthValidator = validator
	}

	return NewRouter(cfg), mockChat, mockKnowledge, mockSearch
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _ := setupRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_ChatRoute(t *testing.T) {
	router, mockChat, _, _ := setupRouter(nil)

	mockChat.On("GenerateResponse", mock.Anything, "hi", "widget-1", "", mock.Anything).
		Return(&domain.AIResponse{Success: true, Response: "hello", Confidence: 0.7, Sources: []domain.SourceSummary{}})

	body := `{"message":"hi","widgetId":"widget-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockChat.AssertExpectations(t)
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	validator := new(MockAuthValidator)
	router, _, _, _ := setupRouter(validator)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/chat"},
		{http.MethodPost, "/api/knowledge-base/store"},
		{http.MethodPost, "/api/knowledge-base/search"},
		{http.MethodGet, "/api/knowledge-base/stats"},
		{http.MethodDelete, "/api/knowledge-base/delete/item-1"},
		{http.MethodDelete, "/api/knowledge-base/delete-all"},
		{http.MethodGet, "/api/knowledge-base/jobs/job-1"},
		{http.MethodGet, "/api/knowledge-base/search-logs"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, bytes.NewReader([]byte("{}")))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_AuthenticatedRoutes_WithValidAuth(t *testing.T) {
	validator := new(MockAuthValidator)
	validator.On("ValidateWidgetKey", mock.Anything, "rdk_good").Return("widget-9", "biz-9", nil)

	router, mockChat, _, _ := setupRouter(validator)

	mockChat.On("GenerateResponse", mock.Anything, "hi", "widget-9", "biz-9", mock.Anything).
		Return(&domain.AIResponse{Success: true, Response: "hello", Confidence: 0.7, Sources: []domain.SourceSummary{}})

	body := `{"message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Authorization", "Bearer rdk_good")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockChat.AssertExpectations(t)
	validator.AssertExpectations(t)
}

func TestRouter_HealthNeverRequiresAuth(t *testing.T) {
	validator := new(MockAuthValidator)
	router, _, _, _ := setupRouter(validator)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_KnowledgeRoutes(t *testing.T) {
	router, _, mockKnowledge, mockSearch := setupRouter(nil)

	mockKnowledge.On("Stats", mock.Anything).
		Return(&vectorstore.CollectionInfo{Name: "relaydesk_kb", Count: 10, Dimension: 1536}, nil)
	mockKnowledge.On("DeleteItem", mock.Anything, "item-7").Return(nil)
	mockSearch.On("Search", mock.Anything, "hours", service.ScopeFilter{BusinessID: "biz-1"}, 5, 0.0).
		Return([]domain.RetrievalResult{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge-base/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/knowledge-base/delete/item-7", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"query":"hours","businessId":"biz-1"}`
	req = httptest.NewRequest(http.MethodPost, "/api/knowledge-base/search", bytes.NewReader([]byte(body)))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	mockKnowledge.AssertExpectations(t)
	mockSearch.AssertExpectations(t)
}
