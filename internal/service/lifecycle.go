package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"timeTracker/internal/events"
	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateParams struct {
	Description      string
	StartNow         bool
	ParentID         *uuid.UUID
	BringNotes       bool
	BringTags        bool
	FetchSimilarTags bool
	HideParent       bool
	StopOthers       bool
	Rank             *int
}

type ResumeParams struct {
	BringNotes bool
	BringTags  bool
	HideParent bool
	StopOthers bool
}

// результат одной единицы работы: что поменялось в хранилище
type changes struct {
	created *task.Task
	updated []*task.Task
	hidden  []uuid.UUID
}

func (s *TaskService) Create(ctx context.Context, params CreateParams) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.create(ctx, params)
}

func (s *TaskService) create(ctx context.Context, params CreateParams) (*task.Task, error) {
	description := strings.TrimSpace(params.Description)
	if description == "" {
		return nil, NewValidationError("description", task.ErrEmptyDescription.Error())
	}

	now := s.now()
	var ch changes

	err := s.repo.Atomic(ctx, func(tx repo.TaskRepository) error {
		if params.StartNow && params.StopOthers {
			stopped, err := stopRunning(ctx, tx, uuid.Nil, now)
			if err != nil {
				return err
			}
			ch.updated = append(ch.updated, stopped...)
		}

		newTask := &task.Task{
			UUID:        uuid.New(),
			Description: description,
			CreatedAt:   now,
			Rank:        params.Rank,
		}
		if params.StartNow {
			startedAt := now
			newTask.StartedAt = &startedAt
		}

		var parent *task.Task
		if params.ParentID != nil {
			p, err := tx.GetByID(ctx, *params.ParentID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return taskNotFound(*params.ParentID)
				}
				return err
			}
			parent = p
			parentID := p.UUID
			newTask.ParentID = &parentID
			if newTask.Rank == nil && p.Rank != nil {
				r := *p.Rank
				newTask.Rank = &r
			}
		}

		if err := newTask.Validate(); err != nil {
			return NewValidationError("task", err.Error())
		}
		if err := tx.Create(ctx, newTask); err != nil {
			return err
		}

		switch {
		case parent != nil:
			if params.BringNotes {
				if err := copyNotes(ctx, tx, parent.UUID, newTask.UUID); err != nil {
					return err
				}
			}
			if params.BringTags {
				if err := copyTags(ctx, tx, parent.UUID, newTask.UUID, now); err != nil {
					return err
				}
			}
		case params.FetchSimilarTags:
			if err := s.attachSimilarTags(ctx, tx, newTask, now); err != nil {
				return err
			}
		}

		if parent != nil && params.HideParent {
			if err := tx.Delete(ctx, parent.UUID); err != nil && !errors.Is(err, repo.ErrNotFound) {
				return err
			}
			ch.hidden = append(ch.hidden, parent.UUID)
		}

		ch.created = newTask
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось создать задачу", err, zap.String("description", description))
		return nil, storeError("создание задачи", err)
	}

	s.apply(ch)
	created := ch.created

	entry, _ := s.board.Find(created.UUID)
	if entry != nil {
		entry.Expanded = true
		s.board.MarkFirst(entry)
	}
	if params.StopOthers && params.StartNow {
		s.board.CollapseUnstarted()
	}
	if created.IsRunning() {
		s.setRunning(created.UUID)
	}

	s.publishQueueCount()
	if s.settings.AutoOpenEditor {
		s.publish(events.EditorRequested(created.UUID))
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Bool("started", created.IsStarted()))
	return created.Clone(), nil
}

// Start запускает ещё не начатую задачу. Запущенная - без изменений,
// закрытую запускать нельзя, для неё есть Resume.
func (s *TaskService) Start(ctx context.Context, id uuid.UUID, stopOthers bool) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var ch changes
	var noop bool

	err := s.repo.Atomic(ctx, func(tx repo.TaskRepository) error {
		t, err := tx.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				noop = true
				return nil
			}
			return err
		}

		status := tasklist.Classify(t)
		if status == task.StatusClosed || status == task.StatusUnclosed {
			return NewInvalidTransition(id.String(), string(status), "start")
		}

		if stopOthers {
			stopped, err := stopRunning(ctx, tx, id, now)
			if err != nil {
				return err
			}
			ch.updated = append(ch.updated, stopped...)
		}

		// уже запущена: остальные остановлены, сама задача не меняется
		if status == task.StatusRunning {
			ch.updated = append(ch.updated, t)
			return nil
		}

		startedAt := now
		t.StartedAt = &startedAt
		if err := tx.Update(ctx, t); err != nil {
			return err
		}
		ch.updated = append(ch.updated, t)
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось запустить задачу", err, zap.String("task_id", id.String()))
		return nil, storeError("запуск задачи", err)
	}
	if noop {
		logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
		return nil, nil
	}

	s.apply(ch)
	if stopOthers {
		s.board.CollapseUnstarted()
	}
	s.setRunning(id)
	s.publishQueueCount()

	started := ch.updated[len(ch.updated)-1]
	return started.Clone(), nil
}

// Stop закрывает запущенную задачу. Нулевое end означает "сейчас".
// Отсутствующая или не запущенная задача - не ошибка.
func (s *TaskService) Stop(ctx context.Context, id uuid.UUID, end time.Time) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stop(ctx, id, end)
}

func (s *TaskService) stop(ctx context.Context, id uuid.UUID, end time.Time) (*task.Task, error) {
	if end.IsZero() {
		end = s.now()
	}

	var stopped *task.Task
	err := s.repo.Atomic(ctx, func(tx repo.TaskRepository) error {
		t, err := tx.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil
			}
			return err
		}
		if !t.IsRunning() {
			return nil
		}
		if end.Before(*t.StartedAt) {
			return NewValidationError("ended_at", task.ErrEndBeforeStart.Error())
		}

		t.EndedAt = &end
		if err := tx.Update(ctx, t); err != nil {
			return err
		}
		stopped = t
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось остановить задачу", err, zap.String("task_id", id.String()))
		return nil, storeError("остановка задачи", err)
	}

	s.clearRunning(id)
	if stopped == nil {
		return nil, nil
	}

	s.apply(changes{updated: []*task.Task{stopped}})
	return stopped.Clone(), nil
}

// Resume создаёт новую запущенную задачу с тем же описанием; исходная остаётся как есть.
// Отсутствующий источник - не ошибка.
func (s *TaskService) Resume(ctx context.Context, id uuid.UUID, params ResumeParams) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resume(ctx, id, params)
}

func (s *TaskService) resume(ctx context.Context, id uuid.UUID, params ResumeParams) (*task.Task, error) {
	source, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, nil
		}
		return nil, storeError("получение задачи", err)
	}

	parentID := source.UUID
	return s.create(ctx, CreateParams{
		Description: source.Description,
		StartNow:    true,
		ParentID:    &parentID,
		BringNotes:  params.BringNotes,
		BringTags:   params.BringTags,
		HideParent:  params.HideParent,
		StopOthers:  params.StopOthers,
	})
}

// Delete удаляет задачу навсегда; запись на доске только скрывается
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repo.ErrNotFound) {
		logger.Error("Service: Не удалось удалить задачу", err, zap.String("task_id", id.String()))
		return storeError("удаление задачи", err)
	}

	s.clearRunning(id)
	s.apply(changes{hidden: []uuid.UUID{id}})
	s.publishQueueCount()
	return nil
}

// Update правит поля задачи; пустые опции пропускаются
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, opts ...task.TaskOption) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated *task.Task
	var wasRunning bool
	err := s.repo.Atomic(ctx, func(tx repo.TaskRepository) error {
		t, err := tx.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return taskNotFound(id)
			}
			return err
		}
		wasRunning = t.IsRunning()

		for _, opt := range opts {
			if opt != nil {
				opt(t)
			}
		}
		if err := t.Validate(); err != nil {
			return NewValidationError("task", err.Error())
		}

		if err := tx.Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось обновить задачу", err, zap.String("task_id", id.String()))
		return nil, storeError("обновление задачи", err)
	}

	switch {
	case updated.IsRunning() && !wasRunning:
		s.setRunning(id)
	case !updated.IsRunning():
		s.clearRunning(id)
	}
	s.apply(changes{updated: []*task.Task{updated}})
	s.publishQueueCount()
	return updated.Clone(), nil
}

// ToggleLastRunning останавливает последнюю запущенную задачу,
// а если она уже остановлена - возобновляет её
func (s *TaskService) ToggleLastRunning(ctx context.Context, params ResumeParams) (*task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRunningID == nil {
		return nil, nil
	}
	id := *s.lastRunningID

	last, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.lastRunningID = nil
			return nil, nil
		}
		return nil, storeError("получение задачи", err)
	}

	if last.IsRunning() {
		return s.stop(ctx, id, time.Time{})
	}
	return s.resume(ctx, id, params)
}

// apply переносит результат единицы работы на доску
func (s *TaskService) apply(ch changes) {
	vis := s.settings.Visibility
	for _, t := range ch.updated {
		s.board.Place(t, vis)
	}
	if ch.created != nil {
		s.board.Place(ch.created, vis)
	}
	for _, id := range ch.hidden {
		if s.board.Hide(id) {
			s.publish(events.TaskHidden(id))
		}
		s.clearRunning(id)
	}
}

// stopRunning закрывает все запущенные задачи, кроме except
func stopRunning(ctx context.Context, tx repo.TaskRepository, except uuid.UUID, now time.Time) ([]*task.Task, error) {
	running, err := tx.Query(ctx, task.Filter{OnlyRunning: true})
	if err != nil {
		return nil, err
	}

	stopped := make([]*task.Task, 0, len(running))
	for _, t := range running {
		if t.UUID == except {
			continue
		}
		endedAt := now
		if endedAt.Before(*t.StartedAt) {
			endedAt = *t.StartedAt
		}
		t.EndedAt = &endedAt
		if err := tx.Update(ctx, t); err != nil {
			return nil, err
		}
		logger.Info("Service: Задача остановлена", zap.String("task_id", t.UUID.String()))
		stopped = append(stopped, t)
	}
	return stopped, nil
}

// заметки получают новые id, текст и время сохраняются
func copyNotes(ctx context.Context, tx repo.TaskRepository, from, to uuid.UUID) error {
	notes, err := tx.GetNotes(ctx, from)
	if err != nil {
		return err
	}
	for _, n := range notes {
		copied := &task.Note{
			UUID:      uuid.New(),
			TaskID:    to,
			Text:      n.Text,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		}
		if err := tx.AddNote(ctx, copied); err != nil {
			return err
		}
	}
	return nil
}

// привязки тегов копируются с теми же TagID и новым временем
func copyTags(ctx context.Context, tx repo.TaskRepository, from, to uuid.UUID, now time.Time) error {
	links, err := tx.GetTaskTags(ctx, from)
	if err != nil {
		return err
	}
	for _, l := range links {
		err := tx.AttachTag(ctx, &task.TaskTag{TaskID: to, TagID: l.TagID, CreatedAt: now})
		if err != nil && !errors.Is(err, repo.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}

// attachSimilarTags привязывает теги, которые уже стояли на задачах с тем же описанием.
// Берутся задачи, начатые в окне хранения, а также не начатые и запущенные;
// теги идут от самой свежей привязки, без повторов.
func (s *TaskService) attachSimilarTags(ctx context.Context, tx repo.TaskRepository, t *task.Task, now time.Time) error {
	description := t.Description
	similar, err := tx.Query(ctx, task.Filter{Description: &description})
	if err != nil {
		return err
	}

	since := s.settings.Visibility.Since(now)
	candidates := make([]*task.Task, 0, len(similar))
	for _, c := range similar {
		if c.UUID == t.UUID {
			continue
		}
		if c.StartedAt == nil || c.IsRunning() || !c.StartedAt.Before(since) {
			candidates = append(candidates, c)
		}
	}

	var links []*task.TaskTag
	for _, c := range candidates {
		found, err := tx.GetTaskTags(ctx, c.UUID)
		if err != nil {
			return err
		}
		links = append(links, found...)
	}
	// свежие привязки первыми, независимо от возраста задачи
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	seen := make(map[uuid.UUID]struct{})
	for _, l := range links {
		if _, ok := seen[l.TagID]; ok {
			continue
		}
		seen[l.TagID] = struct{}{}
		if err := tx.AttachTag(ctx, &task.TaskTag{TaskID: t.UUID, TagID: l.TagID, CreatedAt: now}); err != nil {
			return err
		}
	}
	return nil
}
