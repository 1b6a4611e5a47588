package service

import (
	"context"
	"errors"
	"strings"

	"timeTracker/internal/events"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskDetails - задача вместе с заметками и привязанными тегами
type TaskDetails struct {
	Task  *task.Task
	Notes []*task.Note
	Tags  []*task.TaskTag
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*TaskDetails, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, taskNotFound(id)
		}
		return nil, storeError("получение задачи", err)
	}

	notes, err := s.repo.GetNotes(ctx, id)
	if err != nil {
		return nil, storeError("получение заметок", err)
	}
	tags, err := s.repo.GetTaskTags(ctx, id)
	if err != nil {
		return nil, storeError("получение тегов", err)
	}

	return &TaskDetails{Task: t, Notes: notes, Tags: tags}, nil
}

func (s *TaskService) AddNote(ctx context.Context, taskID uuid.UUID, text string) (*task.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("text", "заметка не может быть пустой")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note := &task.Note{
		UUID:      uuid.New(),
		TaskID:    taskID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.repo.AddNote(ctx, note); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, taskNotFound(taskID)
		}
		logger.Error("Service: Не удалось добавить заметку", err, zap.String("task_id", taskID.String()))
		return nil, storeError("добавление заметки", err)
	}
	return note, nil
}

// AttachTag привязывает тег по имени, создавая его при необходимости.
// Повторная привязка - не ошибка.
func (s *TaskService) AttachTag(ctx context.Context, taskID uuid.UUID, name string) (*task.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "имя тега не может быть пустым")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var tag *task.Tag

	err := s.repo.Atomic(ctx, func(tx repo.TaskRepository) error {
		if _, err := tx.GetByID(ctx, taskID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return taskNotFound(taskID)
			}
			return err
		}

		found, err := tx.GetTagByName(ctx, name)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			found = &task.Tag{UUID: uuid.New(), Name: name, CreatedAt: now}
			if err := tx.CreateTag(ctx, found); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		err = tx.AttachTag(ctx, &task.TaskTag{TaskID: taskID, TagID: found.UUID, CreatedAt: now})
		if err != nil && !errors.Is(err, repo.ErrAlreadyExists) {
			return err
		}
		tag = found
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось привязать тег", err, zap.String("task_id", taskID.String()))
		return nil, storeError("привязка тега", err)
	}
	return tag, nil
}

// ActivateToken сообщает подписчикам, что в задаче активирован токен
func (s *TaskService) ActivateToken(ctx context.Context, taskID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return NewValidationError("token", "токен не может быть пустым")
	}

	if _, err := s.repo.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return taskNotFound(taskID)
		}
		return storeError("получение задачи", err)
	}

	s.publish(events.TokenActivated(taskID, token))
	return nil
}
