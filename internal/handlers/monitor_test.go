package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ajaysbsic/MarketIntel-sub001/internal/config"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/handlers"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/logger"
	"github.com/ajaysbsic/MarketIntel-sub001/internal/models"
)

// MockMonitorStore is a mock implementation of handlers.MonitorStore.
type MockMonitorStore struct {
	mock.Mock
}

func (m *MockMonitorStore) Create(ctx context.Context, req *models.CreateMonitorRequest) (*models.Monitor, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Monitor), args.Error(1)
}

func (m *MockMonitorStore) Get(ctx context.Context, id string) (*models.Monitor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Monitor), args.Error(1)
}

func (m *MockMonitorStore) List(ctx context.Context, activeOnly bool) ([]models.Monitor, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Monitor), args.Error(1)
}

func (m *MockMonitorStore) ListDue(ctx context.Context, now time.Time, defaultIntervalMinutes int) ([]models.Monitor, error) {
	args := m.Called(ctx, now, defaultIntervalMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Monitor), args.Error(1)
}

func (m *MockMonitorStore) Update(ctx context.Context, id string, req *models.UpdateMonitorRequest) (*models.Monitor, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Monitor), args.Error(1)
}

func (m *MockMonitorStore) ToggleActive(ctx context.Context, id string, active bool) (*models.Monitor, error) {
	args := m.Called(ctx, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Monitor), args.Error(1)
}

func (m *MockMonitorStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMonitorStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func registryConfig() config.RegistryConfig {
	return config.RegistryConfig{DefaultCheckIntervalMinutes: 60}
}

func setupMonitorRouter(store handlers.MonitorStore, cfg config.RegistryConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := handlers.NewMonitorHandler(store, nil, cfg, logger.NewNop())
	router.POST("/monitors", h.Create)
	router.GET("/monitors", h.List)
	router.GET("/monitors/due", h.ListDue)
	router.GET("/monitors/:id", h.Get)
	router.PUT("/monitors/:id", h.Update)
	router.POST("/monitors/:id/toggle", h.Toggle)
	router.DELETE("/monitors/:id", h.Delete)
	router.POST("/monitors/import", h.Import)
	return router
}

func testMonitor() *models.Monitor {
	return &models.Monitor{
		ID:                   "monitor-1",
		Keyword:              "quantum computing",
		IsActive:             true,
		CheckIntervalMinutes: 60,
		MaxResults:           10,
		Tags:                 []string{"tech"},
		CreatedBy:            "api",
		CreatedAt:            time.Now().UTC(),
		UpdatedAt:            time.Now().UTC(),
	}
}

func TestMonitorHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(*MockMonitorStore)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "create valid monitor",
			requestBody: models.CreateMonitorRequest{Keyword: "quantum computing"},
			mockSetup: func(m *MockMonitorStore) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(req *models.CreateMonitorRequest) bool {
					// Validation fills the configured interval and default cap.
					return req.Keyword == "quantum computing" &&
						req.CheckIntervalMinutes == 60 &&
						req.MaxResults == models.DefaultMaxResults
				})).Return(testMonitor(), nil)
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var monitor models.Monitor
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monitor))
				assert.Equal(t, "quantum computing", monitor.Keyword)
				assert.NotEmpty(t, monitor.ID)
			},
		},
		{
			name:           "blank keyword rejected",
			requestBody:    models.CreateMonitorRequest{Keyword: "   "},
			mockSetup:      func(*MockMonitorStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative interval rejected",
			requestBody:    models.CreateMonitorRequest{Keyword: "golang", CheckIntervalMinutes: -5},
			mockSetup:      func(*MockMonitorStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "repository error",
			requestBody: models.CreateMonitorRequest{Keyword: "golang"},
			mockSetup: func(m *MockMonitorStore) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockMonitorStore)
			tt.mockSetup(store)
			router := setupMonitorRouter(store, registryConfig())

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/monitors", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestMonitorHandler_Create_CapReached(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("Count", mock.Anything).Return(5, nil)

	cfg := registryConfig()
	cfg.MaxMonitors = 5
	router := setupMonitorRouter(store, cfg)

	body, _ := json.Marshal(models.CreateMonitorRequest{Keyword: "golang"})
	req := httptest.NewRequest(http.MethodPost, "/monitors", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMonitorHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		mockSetup      func(*MockMonitorStore)
		expectedStatus int
	}{
		{
			name: "existing monitor",
			id:   "monitor-1",
			mockSetup: func(m *MockMonitorStore) {
				m.On("Get", mock.Anything, "monitor-1").Return(testMonitor(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "monitor not found",
			id:   "missing",
			mockSetup: func(m *MockMonitorStore) {
				m.On("Get", mock.Anything, "missing").Return(nil, models.ErrMonitorNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockMonitorStore)
			tt.mockSetup(store)
			router := setupMonitorRouter(store, registryConfig())

			req := httptest.NewRequest(http.MethodGet, "/monitors/"+tt.id, http.NoBody)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			store.AssertExpectations(t)
		})
	}
}

func TestMonitorHandler_List(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("List", mock.Anything, false).Return([]models.Monitor{*testMonitor()}, nil)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodGet, "/monitors", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "monitors")
	assert.EqualValues(t, 1, response["count"])
	store.AssertExpectations(t)
}

func TestMonitorHandler_List_ActiveOnly(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("List", mock.Anything, true).Return([]models.Monitor{}, nil)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodGet, "/monitors?active=true", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestMonitorHandler_ListDue(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time"), 60).
		Return([]models.Monitor{*testMonitor()}, nil)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodGet, "/monitors/due", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestMonitorHandler_ListDue_IntervalOverride(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("ListDue", mock.Anything, mock.AnythingOfType("time.Time"), 30).
		Return([]models.Monitor{}, nil)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodGet, "/monitors/due?interval_minutes=30", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	store.AssertExpectations(t)
}

func TestMonitorHandler_ListDue_BadInterval(t *testing.T) {
	store := new(MockMonitorStore)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodGet, "/monitors/due?interval_minutes=soon", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "ListDue", mock.Anything, mock.Anything, mock.Anything)
}

func TestMonitorHandler_Update(t *testing.T) {
	inactive := testMonitor()
	inactive.IsActive = false

	tests := []struct {
		name           string
		requestBody    string
		mockSetup      func(*MockMonitorStore)
		expectedStatus int
	}{
		{
			name:        "partial update",
			requestBody: `{"is_active": false}`,
			mockSetup: func(m *MockMonitorStore) {
				m.On("Update", mock.Anything, "monitor-1", mock.MatchedBy(func(req *models.UpdateMonitorRequest) bool {
					return req.IsActive != nil && !*req.IsActive && req.Keyword == nil
				})).Return(inactive, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "checkpoint update",
			requestBody: `{"last_checked_utc": "2026-02-10T08:00:00Z"}`,
			mockSetup: func(m *MockMonitorStore) {
				m.On("Update", mock.Anything, "monitor-1", mock.MatchedBy(func(req *models.UpdateMonitorRequest) bool {
					return req.LastCheckedUtc != nil
				})).Return(testMonitor(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty update rejected",
			requestBody:    `{}`,
			mockSetup:      func(*MockMonitorStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank keyword rejected",
			requestBody:    `{"keyword": "  "}`,
			mockSetup:      func(*MockMonitorStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "monitor not found",
			requestBody: `{"is_active": true}`,
			mockSetup: func(m *MockMonitorStore) {
				m.On("Update", mock.Anything, "monitor-1", mock.Anything).Return(nil, models.ErrMonitorNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockMonitorStore)
			tt.mockSetup(store)
			router := setupMonitorRouter(store, registryConfig())

			req := httptest.NewRequest(http.MethodPut, "/monitors/monitor-1", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			store.AssertExpectations(t)
		})
	}
}

func TestMonitorHandler_Toggle(t *testing.T) {
	store := new(MockMonitorStore)
	inactive := testMonitor()
	inactive.IsActive = false
	store.On("ToggleActive", mock.Anything, "monitor-1", false).Return(inactive, nil)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodPost, "/monitors/monitor-1/toggle",
		bytes.NewBufferString(`{"is_active": false, "toggled_by": "scheduler"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var monitor models.Monitor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monitor))
	assert.False(t, monitor.IsActive)
	store.AssertExpectations(t)
}

func TestMonitorHandler_Toggle_MissingFlag(t *testing.T) {
	store := new(MockMonitorStore)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodPost, "/monitors/monitor-1/toggle", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "ToggleActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestMonitorHandler_Delete(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("Get", mock.Anything, "monitor-1").Return(testMonitor(), nil)
	store.On("Delete", mock.Anything, "monitor-1").Return(nil)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodDelete, "/monitors/monitor-1", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	store.AssertExpectations(t)
}

func TestMonitorHandler_Delete_NotFound(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("Get", mock.Anything, "missing").Return(nil, models.ErrMonitorNotFound)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodDelete, "/monitors/missing", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// importBody builds a multipart upload holding an in-memory workbook.
func importBody(t *testing.T, rows [][]string) (*bytes.Buffer, string) {
	t.Helper()

	f := excelize.NewFile()
	header := []string{"keyword", "interval_minutes", "max_results", "tags", "active", "created_by"}
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue("Sheet1", cell, name))
	}
	for r, row := range rows {
		for col, val := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}

	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "monitors.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestMonitorHandler_Import(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("Create", mock.Anything, mock.Anything).Return(testMonitor(), nil)
	inactive := testMonitor()
	inactive.IsActive = false
	store.On("ToggleActive", mock.Anything, "monitor-1", false).Return(inactive, nil)
	router := setupMonitorRouter(store, registryConfig())

	body, contentType := importBody(t, [][]string{
		{"golang", "30", "10", "dev", "true", "analyst"},
		{"", "30", "10", "", "true", ""},
		{"rust", "60", "5", "", "false", ""},
	})

	req := httptest.NewRequest(http.MethodPost, "/monitors/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Imported   int               `json:"imported"`
		ErrorCount int               `json:"error_count"`
		Errors     []map[string]any  `json:"errors"`
		Monitors   []json.RawMessage `json:"monitors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Imported)
	assert.Equal(t, 1, response.ErrorCount)
	assert.Len(t, response.Monitors, 2)

	store.AssertNumberOfCalls(t, "Create", 2)
	store.AssertNumberOfCalls(t, "ToggleActive", 1)
}

func TestMonitorHandler_Import_CapReached(t *testing.T) {
	store := new(MockMonitorStore)
	store.On("Count", mock.Anything).Return(2, nil)
	store.On("Create", mock.Anything, mock.Anything).Return(testMonitor(), nil)

	cfg := registryConfig()
	cfg.MaxMonitors = 3
	router := setupMonitorRouter(store, cfg)

	body, contentType := importBody(t, [][]string{
		{"golang", "30", "10", "", "true", ""},
		{"rust", "30", "10", "", "true", ""},
	})

	req := httptest.NewRequest(http.MethodPost, "/monitors/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Imported   int              `json:"imported"`
		ErrorCount int              `json:"error_count"`
		Errors     []map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Imported)
	assert.Equal(t, 1, response.ErrorCount)

	store.AssertNumberOfCalls(t, "Create", 1)
}

func TestMonitorHandler_Import_MissingFile(t *testing.T) {
	store := new(MockMonitorStore)
	router := setupMonitorRouter(store, registryConfig())

	req := httptest.NewRequest(http.MethodPost, "/monitors/import", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
