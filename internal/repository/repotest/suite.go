// Package repotest содержит общий набор проверок для реализаций хранилища.
package repotest

import (
	"context"
	"errors"
	"time"

	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreSuite прогоняет контракт TaskRepository. NewStore вызывается
// перед каждым тестом и должен вернуть пустое хранилище.
type StoreSuite struct {
	suite.Suite
	NewStore func() repo.TaskRepository

	ctx   context.Context
	store repo.TaskRepository
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

var base = time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

func at(minutes int) *time.Time {
	t := base.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func (s *StoreSuite) createTask(desc string, created int) *task.Task {
	t := &task.Task{UUID: uuid.New(), Description: desc, CreatedAt: *at(created)}
	require.NoError(s.T(), s.store.Create(s.ctx, t))
	return t
}

func (s *StoreSuite) TestCreateAndGet() {
	rank := 3
	parent := uuid.New()
	created := &task.Task{
		UUID:        uuid.New(),
		Description: "write report",
		CreatedAt:   *at(0),
		StartedAt:   at(1),
		Rank:        &rank,
		ParentID:    &parent,
		StillOpen:   true,
	}

	require.NoError(s.T(), s.store.Create(s.ctx, created))

	got, err := s.store.GetByID(s.ctx, created.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "write report", got.Description)
	assert.True(s.T(), got.CreatedAt.Equal(created.CreatedAt))
	require.NotNil(s.T(), got.StartedAt)
	assert.True(s.T(), got.StartedAt.Equal(*created.StartedAt))
	assert.Nil(s.T(), got.EndedAt)
	require.NotNil(s.T(), got.Rank)
	assert.Equal(s.T(), 3, *got.Rank)
	require.NotNil(s.T(), got.ParentID)
	assert.Equal(s.T(), parent, *got.ParentID)
	assert.True(s.T(), got.StillOpen)
}

func (s *StoreSuite) TestGetByID_NotFound() {
	_, err := s.store.GetByID(s.ctx, uuid.New())
	assert.True(s.T(), errors.Is(err, repo.ErrNotFound))
}

func (s *StoreSuite) TestUpdate() {
	t := s.createTask("draft", 0)

	t.Description = "final"
	t.StartedAt = at(5)
	t.EndedAt = at(10)
	require.NoError(s.T(), s.store.Update(s.ctx, t))
	assert.NotNil(s.T(), t.UpdatedAt)

	got, err := s.store.GetByID(s.ctx, t.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "final", got.Description)
	require.NotNil(s.T(), got.EndedAt)
	assert.True(s.T(), got.EndedAt.Equal(*at(10)))

	missing := &task.Task{UUID: uuid.New(), Description: "ghost"}
	assert.True(s.T(), errors.Is(s.store.Update(s.ctx, missing), repo.ErrNotFound))
}

func (s *StoreSuite) TestDeleteRemovesNotesAndTags() {
	t := s.createTask("to delete", 0)
	tag := &task.Tag{UUID: uuid.New(), Name: "work", CreatedAt: *at(0)}
	require.NoError(s.T(), s.store.CreateTag(s.ctx, tag))
	require.NoError(s.T(), s.store.AttachTag(s.ctx, &task.TaskTag{TaskID: t.UUID, TagID: tag.UUID, CreatedAt: *at(1)}))
	require.NoError(s.T(), s.store.AddNote(s.ctx, &task.Note{UUID: uuid.New(), TaskID: t.UUID, Text: "n", CreatedAt: *at(1)}))

	require.NoError(s.T(), s.store.Delete(s.ctx, t.UUID))

	_, err := s.store.GetByID(s.ctx, t.UUID)
	assert.True(s.T(), errors.Is(err, repo.ErrNotFound))

	notes, err := s.store.GetNotes(s.ctx, t.UUID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), notes)

	links, err := s.store.GetTaskTags(s.ctx, t.UUID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), links)

	assert.True(s.T(), errors.Is(s.store.Delete(s.ctx, t.UUID), repo.ErrNotFound))
}

func (s *StoreSuite) TestQuery() {
	old := s.createTask("old", 0)
	old.StartedAt = at(0)
	old.EndedAt = at(1)
	require.NoError(s.T(), s.store.Update(s.ctx, old))

	oldQueued := s.createTask("old queued", 1)
	fresh := s.createTask("fresh", 60*24)
	fresh.StartedAt = at(60 * 24)
	require.NoError(s.T(), s.store.Update(s.ctx, fresh))

	since := *at(60 * 12)

	s.Run("working set", func() {
		got, err := s.store.Query(s.ctx, task.Filter{CreatedSince: &since, IncludeUnstarted: true})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []uuid.UUID{oldQueued.UUID, fresh.UUID}, ids(got))
	})

	s.Run("only running", func() {
		got, err := s.store.Query(s.ctx, task.Filter{OnlyRunning: true})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []uuid.UUID{fresh.UUID}, ids(got))
	})

	s.Run("by description", func() {
		desc := "old"
		got, err := s.store.Query(s.ctx, task.Filter{Description: &desc})
		require.NoError(s.T(), err)
		assert.Equal(s.T(), []uuid.UUID{old.UUID}, ids(got))
	})
}

func (s *StoreSuite) TestTags() {
	t := s.createTask("tagged", 0)
	tag := &task.Tag{UUID: uuid.New(), Name: "deep-work", CreatedAt: *at(0)}
	require.NoError(s.T(), s.store.CreateTag(s.ctx, tag))

	dup := &task.Tag{UUID: uuid.New(), Name: "deep-work", CreatedAt: *at(0)}
	assert.True(s.T(), errors.Is(s.store.CreateTag(s.ctx, dup), repo.ErrAlreadyExists))

	found, err := s.store.GetTagByName(s.ctx, "deep-work")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), tag.UUID, found.UUID)

	_, err = s.store.GetTagByName(s.ctx, "missing")
	assert.True(s.T(), errors.Is(err, repo.ErrNotFound))

	link := &task.TaskTag{TaskID: t.UUID, TagID: tag.UUID, CreatedAt: *at(2)}
	require.NoError(s.T(), s.store.AttachTag(s.ctx, link))
	assert.True(s.T(), errors.Is(s.store.AttachTag(s.ctx, link), repo.ErrAlreadyExists))

	links, err := s.store.GetTaskTags(s.ctx, t.UUID)
	require.NoError(s.T(), err)
	require.Len(s.T(), links, 1)
	assert.Equal(s.T(), tag.UUID, links[0].TagID)
}

func (s *StoreSuite) TestNotes() {
	t := s.createTask("with notes", 0)
	for i := 0; i < 2; i++ {
		require.NoError(s.T(), s.store.AddNote(s.ctx, &task.Note{
			UUID: uuid.New(), TaskID: t.UUID, Text: "note", CreatedAt: *at(i),
		}))
	}

	notes, err := s.store.GetNotes(s.ctx, t.UUID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), notes, 2)
}

func (s *StoreSuite) TestAtomic_RollbackOnError() {
	kept := s.createTask("kept", 0)
	boom := errors.New("boom")

	err := s.store.Atomic(s.ctx, func(tx repo.TaskRepository) error {
		if err := tx.Create(s.ctx, &task.Task{UUID: uuid.New(), Description: "rolled back", CreatedAt: *at(1)}); err != nil {
			return err
		}
		if err := tx.Delete(s.ctx, kept.UUID); err != nil {
			return err
		}
		return boom
	})
	assert.True(s.T(), errors.Is(err, boom))

	all, err := s.store.Query(s.ctx, task.Filter{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []uuid.UUID{kept.UUID}, ids(all))
}

func (s *StoreSuite) TestAtomic_Commit() {
	created := &task.Task{UUID: uuid.New(), Description: "committed", CreatedAt: *at(0)}

	err := s.store.Atomic(s.ctx, func(tx repo.TaskRepository) error {
		return tx.Create(s.ctx, created)
	})
	require.NoError(s.T(), err)

	_, err = s.store.GetByID(s.ctx, created.UUID)
	assert.NoError(s.T(), err)
}

func (s *StoreSuite) TestHealthCheck() {
	assert.NoError(s.T(), s.store.HealthCheck(s.ctx))
}

func ids(tasks []*task.Task) []uuid.UUID {
	res := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.UUID)
	}
	return res
}
