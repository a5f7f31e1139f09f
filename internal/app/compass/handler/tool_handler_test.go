package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListTools(ctx context.Context) ([]entity.ToolListItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ToolListItem), args.Error(1)
}

func (m *MockCatalogService) CreateTool(ctx context.Context, name string) (*entity.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) GetTool(ctx context.Context, id string) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockCatalogService) GetToolReviews(ctx context.Context, toolID string, includeUnsafe bool) ([]entity.Review, error) {
	args := m.Called(ctx, toolID, includeUnsafe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func newToolRouter(handler *ToolHandler) *gin.Engine {
	router := gin.New()
	router.GET("/tools", handler.ListTools)
	router.POST("/tools", handler.CreateTool)
	router.GET("/tools/:tool_id", handler.GetTool)
	router.GET("/tools/:tool_id/reviews", handler.GetToolReviews)
	return router
}

func TestListToolsHandler(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("ListTools", mock.Anything).Return([]entity.ToolListItem{
		{ID: "nearpod", Name: "Nearpod", ReviewCount: 3, AverageRating: 4.3},
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var tools []entity.ToolListItem
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &tools))
	assert.Len(t, tools, 1)
	assert.Equal(t, "nearpod", tools[0].ID)
}

func TestListToolsHandler_Error(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("ListTools", mock.Anything).Return(nil, errors.New("mongo down"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateToolHandler(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("CreateTool", mock.Anything, "Khan Academy").Return(&entity.Product{ID: "khanacademy", Name: "Khan Academy"}, nil)

	body, _ := json.Marshal(entity.CreateToolRequest{Name: "Khan Academy"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "khanacademy")
}

func TestCreateToolHandler_MissingName(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateTool", mock.Anything, mock.Anything)
}

func TestGetToolHandler_NotFound(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("GetTool", mock.Anything, "missing").Return(nil, service.ErrToolNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools/missing", nil)
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetToolReviewsHandler_DefaultsToSafeOnly(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("GetToolReviews", mock.Anything, "nearpod", false).Return([]entity.Review{{ID: "r1"}}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools/nearpod/reviews", nil)
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertCalled(t, "GetToolReviews", mock.Anything, "nearpod", false)
}

func TestGetToolReviewsHandler_IncludeUnsafeFlag(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("GetToolReviews", mock.Anything, "nearpod", true).Return([]entity.Review{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools/nearpod/reviews?includeUnsafe=true", nil)
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertCalled(t, "GetToolReviews", mock.Anything, "nearpod", true)
}

func TestGetToolReviewsHandler_NilBecomesEmptyArray(t *testing.T) {
	mockService := new(MockCatalogService)
	handler := NewToolHandler(mockService)

	mockService.On("GetToolReviews", mock.Anything, "nearpod", false).Return([]entity.Review(nil), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools/nearpod/reviews", nil)
	newToolRouter(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
