package service

import (
	"context"
	"sync"
	"time"

	"timeTracker/internal/events"
	"timeTracker/internal/logger"
	repo "timeTracker/internal/repository"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
)

// здесь происходит проверка ошибок бизнес-логики и живёт состояние списка

type Publisher interface {
	Publish(events.Event)
}

// Settings - настройки списка, которые читает контроллер
type Settings struct {
	Visibility     tasklist.Visibility
	AutoOpenEditor bool
}

type SettingsSaver func(Settings) error

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

func WithSettingsSaver(save SettingsSaver) Option {
	return func(s *TaskService) {
		s.saveSettings = save
	}
}

// TaskService - контроллер жизненного цикла задач.
// Все команды выполняются под mu целиком, включая обновление доски.
type TaskService struct {
	repo      repo.TaskRepository
	publisher Publisher
	settings  Settings

	mu            sync.Mutex
	board         *tasklist.Board
	runningID     *uuid.UUID
	lastRunningID *uuid.UUID

	now          func() time.Time
	saveSettings SettingsSaver
	handlers     map[CommandType]commandHandler
}

func NewTaskService(repository repo.TaskRepository, publisher Publisher, settings Settings, opts ...Option) *TaskService {
	s := &TaskService{
		repo:      repository,
		publisher: publisher,
		settings:  settings,
		board:     tasklist.NewBoard(tasklist.Partitioned{}),
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.handlers = s.commandTable()
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Хранилище не отвечает", err)
		return NewStoreUnavailable("health check", err)
	}
	return nil
}

// RunningID - текущая запущенная задача, если есть
func (s *TaskService) RunningID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningID == nil {
		return uuid.Nil, false
	}
	return *s.runningID, true
}

func (s *TaskService) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *TaskService) publish(e events.Event) {
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
}

func (s *TaskService) publishQueueCount() {
	s.publish(events.QueueCountChanged(s.board.QueueCount()))
}

func (s *TaskService) setRunning(id uuid.UUID) {
	running := id
	last := id
	s.runningID = &running
	s.lastRunningID = &last
}

func (s *TaskService) clearRunning(id uuid.UUID) {
	if s.runningID != nil && *s.runningID == id {
		s.runningID = nil
	}
}

func taskNotFound(id uuid.UUID) *BusinessError {
	return NewNotFound("задача", id.String())
}
