package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"
	"timeTracker/internal/service"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) Query(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) AddNote(ctx context.Context, note *task.Note) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *MockTaskRepository) GetNotes(ctx context.Context, taskID uuid.UUID) ([]*task.Note, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Note), args.Error(1)
}

func (m *MockTaskRepository) CreateTag(ctx context.Context, tag *task.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTagByName(ctx context.Context, name string) (*task.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Tag), args.Error(1)
}

func (m *MockTaskRepository) AttachTag(ctx context.Context, link *task.TaskTag) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTaskTags(ctx context.Context, taskID uuid.UUID) ([]*task.TaskTag, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.TaskTag), args.Error(1)
}

// Atomic в моке просто выполняет fn на самом моке
func (m *MockTaskRepository) Atomic(ctx context.Context, fn func(tx repo.TaskRepository) error) error {
	return fn(m)
}

var _ repo.TaskRepository = (*MockTaskRepository)(nil)

var defaultSettings = service.Settings{
	Visibility: tasklist.Visibility{ShowQueued: true, ShowRanked: true, ShowClosed: true, RetentionDays: 7},
}

func newMockService(m *MockTaskRepository) *service.TaskService {
	return service.NewTaskService(m, nil, defaultSettings)
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := newMockService(mockRepo)
			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, service.IsCode(err, service.CodeStoreUnavailable))
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_Create тестирует проверки и ошибки хранилища при создании
func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	diskFull := errors.New("disk full")

	tests := []struct {
		name      string
		params    service.CreateParams
		setupMock func(*MockTaskRepository)
		errorCode string
	}{
		{
			name:      "error - empty description",
			params:    service.CreateParams{Description: "   "},
			setupMock: func(m *MockTaskRepository) {},
			errorCode: service.CodeValidation,
		},
		{
			name:   "error - store fails",
			params: service.CreateParams{Description: "write report"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(diskFull)
			},
			errorCode: service.CodeStoreUnavailable,
		},
		{
			name:   "error - parent not found",
			params: service.CreateParams{Description: "child", ParentID: ptrID(uuid.New())},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, mock.Anything).Return(nil, repo.ErrNotFound)
			},
			errorCode: service.CodeNotFound,
		},
		{
			name:   "success - trimmed description",
			params: service.CreateParams{Description: "  write report  ", StartNow: true},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.Description == "write report" && t.StartedAt != nil
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := newMockService(mockRepo)
			created, err := svc.Create(ctx, tt.params)

			if tt.errorCode != "" {
				require.Error(t, err)
				assert.True(t, service.IsCode(err, tt.errorCode), err.Error())
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "write report", created.Description)
				id, ok := svc.RunningID()
				assert.True(t, ok)
				assert.Equal(t, created.UUID, id)
			}

			mockRepo.AssertExpectations(t)
		})
	}

	t.Run("store error keeps cause", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(diskFull)

		_, err := newMockService(mockRepo).Create(ctx, service.CreateParams{Description: "x"})
		assert.ErrorIs(t, err, diskFull)
	})
}

// TestTaskService_Update тестирует обновление задачи
func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	taskID := uuid.New()
	started := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		opts      []task.TaskOption
		setupMock func(*MockTaskRepository)
		errorCode string
	}{
		{
			name: "error - task not found",
			opts: []task.TaskOption{task.WithDescription("new")},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(nil, repo.ErrNotFound)
			},
			errorCode: service.CodeNotFound,
		},
		{
			name: "error - end before start",
			opts: []task.TaskOption{task.WithEndedAt(started.Add(-time.Hour))},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(&task.Task{
					UUID: taskID, Description: "old", StartedAt: &started,
				}, nil)
			},
			errorCode: service.CodeValidation,
		},
		{
			name: "error - blank description",
			opts: []task.TaskOption{task.WithDescription("   ")},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(&task.Task{UUID: taskID, Description: "old"}, nil)
			},
			errorCode: service.CodeValidation,
		},
		{
			name: "success - nil options are skipped",
			opts: []task.TaskOption{task.WithStartedAt(time.Time{}), task.WithRank(2)},
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, taskID).Return(&task.Task{UUID: taskID, Description: "old"}, nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(t *task.Task) bool {
					return t.Description == "old" && t.Rank != nil && *t.Rank == 2
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			svc := newMockService(mockRepo)
			updated, err := svc.Update(ctx, taskID, tt.opts...)

			if tt.errorCode != "" {
				require.Error(t, err)
				assert.True(t, service.IsCode(err, tt.errorCode), err.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, task.StatusRanked, tasklist.Classify(updated))
				assert.Len(t, svc.View().Ranked, 1)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

// TestTaskService_NoOps тестирует команды над отсутствующими задачами
func TestTaskService_NoOps(t *testing.T) {
	ctx := context.Background()
	missing := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("GetByID", mock.Anything, missing).Return(nil, repo.ErrNotFound)
	mockRepo.On("Delete", mock.Anything, missing).Return(repo.ErrNotFound)

	svc := newMockService(mockRepo)

	stopped, err := svc.Stop(ctx, missing, time.Time{})
	assert.NoError(t, err)
	assert.Nil(t, stopped)

	started, err := svc.Start(ctx, missing, false)
	assert.NoError(t, err)
	assert.Nil(t, started)

	resumed, err := svc.Resume(ctx, missing, service.ResumeParams{})
	assert.NoError(t, err)
	assert.Nil(t, resumed)

	assert.NoError(t, svc.Delete(ctx, missing))

	mockRepo.AssertExpectations(t)
}

// TestTaskService_LoadListStoreError тестирует отказ хранилища при загрузке
func TestTaskService_LoadListStoreError(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := newMockService(mockRepo).LoadList(context.Background())
	require.Error(t, err)
	assert.True(t, service.IsCode(err, service.CodeStoreUnavailable))
}

// TestTaskService_DispatchUnknown тестирует неизвестную команду
func TestTaskService_DispatchUnknown(t *testing.T) {
	svc := newMockService(new(MockTaskRepository))

	_, err := svc.Dispatch(context.Background(), service.Command{Type: "explode"})
	require.Error(t, err)
	assert.True(t, service.IsCode(err, service.CodeValidation))
}

func ptrID(id uuid.UUID) *uuid.UUID {
	return &id
}
