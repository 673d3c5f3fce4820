package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/service"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	os.Exit(m.Run())
}

// MockTaskService - мок сервисного слоя
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, p service.CreateTaskParams) (*task.Task, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ChangeStatus(ctx context.Context, title, assignedTo string, requested task.Status, role user.Role) (*task.Task, error) {
	args := m.Called(ctx, title, assignedTo, requested, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, filter task.Filter, sortBy task.Sort, viewer user.Role) ([]service.TaskView, error) {
	args := m.Called(ctx, filter, sortBy, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.TaskView), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, title, assignedTo string, options ...service.TaskOption) (*task.Task, error) {
	args := m.Called(ctx, title, assignedTo, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, title string) error {
	args := m.Called(ctx, title)
	return args.Error(0)
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

func newRouter(svc handlers.TaskService) http.Handler {
	h := handlers.NewTaskHandler(svc)
	r := chi.NewRouter()
	r.Get("/tasks", h.GetTasks)
	r.Post("/tasks", h.PostTask)
	r.Put("/tasks/{title}", h.UpdateTask)
	r.Patch("/tasks/{title}", h.PatchTaskStatus)
	r.Delete("/tasks/{title}", h.DeleteTask)
	r.Get("/health", h.HealthCheck)
	return r
}

func sampleTask() *task.Task {
	return &task.Task{
		Title:          "Отчёт",
		EstimatedHours: 5,
		Status:         task.StatusPending,
		AssignedTo:     "user@example.com",
		AssignedBy:     "admin@example.com",
		Priority:       task.PriorityMedium,
	}
}

// TestPostTask тестирует создание задачи через HTTP
func TestPostTask(t *testing.T) {
	validBody := `{
		"title": "Отчёт",
		"description": "Квартальный отчёт",
		"estimated_hours": 5,
		"assigned_to": "user@example.com",
		"assigned_by": "admin@example.com",
		"priority": "Medium"
	}`

	tests := []struct {
		name         string
		body         string
		contentType  string
		setupMock    func(*MockTaskService)
		expectedCode int
	}{
		{
			name:        "success - 201",
			body:        validBody,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(p service.CreateTaskParams) bool {
					return p.Title == "Отчёт" && p.AssignedTo == "user@example.com"
				})).Return(sampleTask(), nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "error - неверный content-type",
			body:         validBody,
			contentType:  "text/plain",
			setupMock:    func(m *MockTaskService) {},
			expectedCode: http.StatusUnsupportedMediaType,
		},
		{
			name:         "error - битый JSON",
			body:         `{"title": `,
			contentType:  "application/json",
			setupMock:    func(m *MockTaskService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:        "error - дубликат названия",
			body:        validBody,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, service.NewDuplicateTitle("Отчёт", "user@example.com"))
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:        "error - ошибка валидации",
			body:        validBody,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("estimated_hours", "должно быть положительным"))
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockTaskService)
			tt.setupMock(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()

			newRouter(mockSvc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}

// TestGetTasks тестирует выдачу списка задач
func TestGetTasks(t *testing.T) {
	t.Run("success - фильтры и роль уходят в сервис", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		views := []service.TaskView{{
			Task:              sampleTask(),
			AssignedToDetails: &user.Details{Name: "user", Email: "user@example.com", Role: user.RoleUser},
		}}
		mockSvc.On("ListTasks", mock.Anything,
			task.Filter{AssignedTo: "user@example.com", Status: task.StatusPending, TitlePrefix: "От"},
			task.SortLatest, user.RoleAdmin).Return(views, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/tasks?assigned_to=user@example.com&status=Pending&title=От&sort_by=latest&role=admin", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Contains(t, body, "tasks")
		mockSvc.AssertExpectations(t)
	})

	t.Run("роль по умолчанию - user", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("ListTasks", mock.Anything, task.Filter{}, task.Sort(""), user.RoleUser).
			Return([]service.TaskView{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("error - неизвестная роль", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		req := httptest.NewRequest(http.MethodGet, "/tasks?role=manager", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "ListTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

// TestPatchTaskStatus тестирует переход статуса через HTTP
func TestPatchTaskStatus(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMock    func(*MockTaskService)
		expectedCode int
	}{
		{
			name: "success - 200",
			body: `{"status": "In Progress", "role": "user", "email": "user@example.com"}`,
			setupMock: func(m *MockTaskService) {
				started := sampleTask()
				started.Status = task.StatusInProgress
				m.On("ChangeStatus", mock.Anything, "Отчёт", "user@example.com",
					task.StatusInProgress, user.RoleUser).Return(started, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "error - пустой email",
			body:         `{"status": "In Progress", "role": "user"}`,
			setupMock:    func(m *MockTaskService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "error - неизвестная роль",
			body:         `{"status": "In Progress", "role": "boss", "email": "user@example.com"}`,
			setupMock:    func(m *MockTaskService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "error - ролевой запрет даёт 403",
			body: `{"status": "Approved", "role": "user", "email": "user@example.com"}`,
			setupMock: func(m *MockTaskService) {
				m.On("ChangeStatus", mock.Anything, "Отчёт", "user@example.com",
					task.StatusApproved, user.RoleUser).
					Return(nil, service.NewInvalidRoleTransition(user.RoleUser, task.StatusApproved))
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name: "error - утверждение не из Completed даёт 409",
			body: `{"status": "Approved", "role": "admin", "email": "user@example.com"}`,
			setupMock: func(m *MockTaskService) {
				m.On("ChangeStatus", mock.Anything, "Отчёт", "user@example.com",
					task.StatusApproved, user.RoleAdmin).
					Return(nil, service.NewIllegalStateTransition(task.StatusPending, task.StatusApproved))
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "error - неизвестный статус даёт 400",
			body: `{"status": "Done", "role": "user", "email": "user@example.com"}`,
			setupMock: func(m *MockTaskService) {
				m.On("ChangeStatus", mock.Anything, "Отчёт", "user@example.com",
					task.Status("Done"), user.RoleUser).
					Return(nil, service.NewUnknownStatus(task.Status("Done")))
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "error - задача не найдена даёт 404",
			body: `{"status": "In Progress", "role": "user", "email": "user@example.com"}`,
			setupMock: func(m *MockTaskService) {
				m.On("ChangeStatus", mock.Anything, "Отчёт", "user@example.com",
					task.StatusInProgress, user.RoleUser).
					Return(nil, service.NewNotFound("задача", "Отчёт"))
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockTaskService)
			tt.setupMock(mockSvc)

			req := httptest.NewRequest(http.MethodPatch, "/tasks/Отчёт", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			newRouter(mockSvc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			mockSvc.AssertExpectations(t)
		})
	}
}

// TestUpdateTask тестирует правку полей задачи через HTTP
func TestUpdateTask(t *testing.T) {
	t.Run("success - 200", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("UpdateTask", mock.Anything, "Отчёт", "user@example.com", mock.Anything).
			Return(sampleTask(), nil)

		body := `{"assigned_to": "user@example.com", "description": "новое описание"}`
		req := httptest.NewRequest(http.MethodPut, "/tasks/Отчёт", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("error - пустой assigned_to", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		body := `{"description": "новое описание"}`
		req := httptest.NewRequest(http.MethodPut, "/tasks/Отчёт", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockSvc.AssertNotCalled(t, "UpdateTask",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - конфликт версий даёт 409", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("UpdateTask", mock.Anything, "Отчёт", "user@example.com", mock.Anything).
			Return(nil, service.NewVersionConflict("Отчёт"))

		body := `{"assigned_to": "user@example.com"}`
		req := httptest.NewRequest(http.MethodPut, "/tasks/Отчёт", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

// TestDeleteTask тестирует удаление задачи через HTTP
func TestDeleteTask(t *testing.T) {
	t.Run("success - 204", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("DeleteTask", mock.Anything, "Отчёт").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/tasks/Отчёт", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("error - не найдена даёт 404", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("DeleteTask", mock.Anything, "Нет такой").Return(service.NewNotFound("задача", "Нет такой"))

		req := httptest.NewRequest(http.MethodDelete, "/tasks/Нет%20такой", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// TestHealthCheck тестирует проверку здоровья через HTTP
func TestHealthCheck(t *testing.T) {
	t.Run("success - 200", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("HealthCheck", mock.Anything).Return(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ok")
	})

	t.Run("error - 503 при недоступном хранилище", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("HealthCheck", mock.Anything).Return(assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		newRouter(mockSvc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
