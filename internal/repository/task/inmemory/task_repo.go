package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
)

type TaskStorage struct {
	storage  map[uuid.UUID]*task.Task
	ids      []uuid.UUID
	notes    map[uuid.UUID][]*task.Note
	tags     map[uuid.UUID]*task.Tag
	taskTags map[uuid.UUID][]*task.TaskTag
	mtx      *sync.RWMutex
	txMtx    *sync.Mutex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage:  make(map[uuid.UUID]*task.Task),
		ids:      []uuid.UUID{},
		notes:    make(map[uuid.UUID][]*task.Note),
		tags:     make(map[uuid.UUID]*task.Tag),
		taskTags: make(map[uuid.UUID][]*task.TaskTag),
		mtx:      &sync.RWMutex{},
		txMtx:    &sync.Mutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}
	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToUpdate.UUID]; !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	s.storage[taskToUpdate.UUID] = taskToUpdate.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// полное удаление вместе с заметками и привязками тегов
func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	delete(s.notes, id)
	delete(s.taskTags, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// задачи в порядке создания, подходящие под фильтр
func (s *TaskStorage) Query(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if !filter.Match(t) {
			continue
		}
		res = append(res, t.Clone())
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *TaskStorage) AddNote(ctx context.Context, note *task.Note) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[note.TaskID]; !ok {
		return repo.ErrNotFound
	}
	c := *note
	s.notes[note.TaskID] = append(s.notes[note.TaskID], &c)
	return nil
}

func (s *TaskStorage) GetNotes(ctx context.Context, taskID uuid.UUID) ([]*task.Note, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Note, 0, len(s.notes[taskID]))
	for _, n := range s.notes[taskID] {
		c := *n
		res = append(res, &c)
	}
	return res, nil
}

func (s *TaskStorage) CreateTag(ctx context.Context, tag *task.Tag) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, existing := range s.tags {
		if existing.Name == tag.Name {
			return repo.ErrAlreadyExists
		}
	}
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now()
	}
	c := *tag
	s.tags[tag.UUID] = &c
	return nil
}

func (s *TaskStorage) GetTagByName(ctx context.Context, name string) (*task.Tag, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, tag := range s.tags {
		if tag.Name == name {
			c := *tag
			return &c, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *TaskStorage) AttachTag(ctx context.Context, link *task.TaskTag) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[link.TaskID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := s.tags[link.TagID]; !ok {
		return repo.ErrNotFound
	}
	for _, existing := range s.taskTags[link.TaskID] {
		if existing.TagID == link.TagID {
			return repo.ErrAlreadyExists
		}
	}
	c := *link
	s.taskTags[link.TaskID] = append(s.taskTags[link.TaskID], &c)
	return nil
}

func (s *TaskStorage) GetTaskTags(ctx context.Context, taskID uuid.UUID) ([]*task.TaskTag, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.TaskTag, 0, len(s.taskTags[taskID]))
	for _, l := range s.taskTags[taskID] {
		c := *l
		res = append(res, &c)
	}
	return res, nil
}

// Atomic делает снимок состояния и восстанавливает его, если fn вернула ошибку.
// Единицы работы выполняются строго по одной.
func (s *TaskStorage) Atomic(ctx context.Context, fn func(tx repo.TaskRepository) error) error {
	s.txMtx.Lock()
	defer s.txMtx.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		logger.Debug("Repository: Откат изменений в памяти")
		return err
	}
	return nil
}

type snapshot struct {
	storage  map[uuid.UUID]*task.Task
	ids      []uuid.UUID
	notes    map[uuid.UUID][]*task.Note
	tags     map[uuid.UUID]*task.Tag
	taskTags map[uuid.UUID][]*task.TaskTag
}

func (s *TaskStorage) snapshot() snapshot {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	snap := snapshot{
		storage:  make(map[uuid.UUID]*task.Task, len(s.storage)),
		ids:      append([]uuid.UUID(nil), s.ids...),
		notes:    make(map[uuid.UUID][]*task.Note, len(s.notes)),
		tags:     make(map[uuid.UUID]*task.Tag, len(s.tags)),
		taskTags: make(map[uuid.UUID][]*task.TaskTag, len(s.taskTags)),
	}
	// сохранённые значения не меняются на месте, достаточно копии контейнеров
	for k, v := range s.storage {
		snap.storage[k] = v
	}
	for k, v := range s.notes {
		snap.notes[k] = append([]*task.Note(nil), v...)
	}
	for k, v := range s.tags {
		snap.tags[k] = v
	}
	for k, v := range s.taskTags {
		snap.taskTags[k] = append([]*task.TaskTag(nil), v...)
	}
	return snap
}

func (s *TaskStorage) restore(snap snapshot) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage = snap.storage
	s.ids = snap.ids
	s.notes = snap.notes
	s.tags = snap.tags
	s.taskTags = snap.taskTags
}
