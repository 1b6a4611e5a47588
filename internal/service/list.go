package service

import (
	"context"

	"timeTracker/internal/events"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EntryView struct {
	Task     *task.Task
	Status   task.Status
	Expanded bool
	First    bool
}

// ListView - снимок видимой части доски
type ListView struct {
	Ongoing    []EntryView
	Queued     []EntryView
	Ranked     []EntryView
	Counts     tasklist.Counts
	QueueCount int
	RunningID  *uuid.UUID
}

type VisibilityParams struct {
	ShowQueued     *bool
	ShowRanked     *bool
	ShowClosed     *bool
	RetentionDays  *int
	AutoOpenEditor *bool
}

// LoadList перечитывает рабочий набор задач и заново строит доску
func (s *TaskService) LoadList(ctx context.Context) (ListView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return ListView{}, err
	}
	return s.view(), nil
}

func (s *TaskService) reload(ctx context.Context) error {
	now := s.now()
	vis := s.settings.Visibility
	since := vis.Since(now)

	tasks, err := s.repo.Query(ctx, task.Filter{CreatedSince: &since, IncludeUnstarted: true})
	if err != nil {
		logger.Error("Service: Не удалось загрузить список", err)
		return storeError("загрузка списка", err)
	}

	board := tasklist.NewBoard(tasklist.Partition(tasks, vis, now))
	board.Adopt(s.board)
	s.board = board

	if s.runningID == nil {
		for _, e := range board.Ongoing.Visible() {
			if e.Status() == task.StatusRunning {
				s.setRunning(e.ID())
				break
			}
		}
	}

	logger.Debug("Service: Список загружен",
		zap.Int("ongoing", board.Counts.Ongoing),
		zap.Int("queued", board.Counts.Queued),
		zap.Int("ranked", board.Counts.Ranked))

	s.publish(events.ListReady(board.HasAny()))
	s.publishQueueCount()
	return nil
}

// View возвращает текущую доску без обращения к хранилищу
func (s *TaskService) View() ListView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *TaskService) view() ListView {
	res := ListView{
		Ongoing:    entryViews(s.board.Ongoing),
		Queued:     entryViews(s.board.Queued),
		Ranked:     entryViews(s.board.Ranked),
		Counts:     s.board.Counts,
		QueueCount: s.board.QueueCount(),
	}
	if s.runningID != nil {
		id := *s.runningID
		res.RunningID = &id
	}
	return res
}

func entryViews(lane *tasklist.Lane) []EntryView {
	visible := lane.Visible()
	res := make([]EntryView, 0, len(visible))
	for _, e := range visible {
		res = append(res, EntryView{
			Task:     e.Task.Clone(),
			Status:   e.Status(),
			Expanded: e.Expanded,
			First:    e.First,
		})
	}
	return res
}

func (s *TaskService) QueueCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.QueueCount()
}

// Suggestions - описания недавно закрытых задач для подсказки при создании
func (s *TaskService) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Suggestions()
}

// SetVisibility меняет переключатели, сохраняет их и перезагружает список
func (s *TaskService) SetVisibility(ctx context.Context, params VisibilityParams) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if params.ShowQueued != nil {
		next.Visibility.ShowQueued = *params.ShowQueued
	}
	if params.ShowRanked != nil {
		next.Visibility.ShowRanked = *params.ShowRanked
	}
	if params.ShowClosed != nil {
		next.Visibility.ShowClosed = *params.ShowClosed
	}
	if params.RetentionDays != nil {
		if *params.RetentionDays < 0 {
			return s.settings, NewValidationError("retention_days", "значение не может быть отрицательным")
		}
		next.Visibility.RetentionDays = *params.RetentionDays
	}
	if params.AutoOpenEditor != nil {
		next.AutoOpenEditor = *params.AutoOpenEditor
	}

	if s.saveSettings != nil {
		if err := s.saveSettings(next); err != nil {
			logger.Error("Service: Не удалось сохранить настройки", err)
			return s.settings, NewStoreUnavailable("сохранение настроек", err)
		}
	}
	s.settings = next

	logger.Info("Service: Настройки списка изменены",
		zap.Bool("show_queued", next.Visibility.ShowQueued),
		zap.Bool("show_ranked", next.Visibility.ShowRanked),
		zap.Bool("show_closed", next.Visibility.ShowClosed),
		zap.Int("retention_days", next.Visibility.RetentionDays))

	return next, s.reload(ctx)
}

// OpenCurrent просит открыть редактор для запущенной задачи
func (s *TaskService) OpenCurrent() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningID == nil {
		return uuid.Nil, false
	}
	id := *s.runningID
	s.publish(events.EditorRequested(id))
	return id, true
}
