package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"
	"timeTracker/internal/repository/repotest"
	"timeTracker/internal/repository/task/sqlite"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var _ repo.TaskRepository = (*sqlite.Storage)(nil)

func newStorage(t *testing.T) *sqlite.Storage {
	t.Helper()
	storage, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

// TestStorage_Contract прогоняет общий контракт хранилища на файле во временном каталоге
func TestStorage_Contract(t *testing.T) {
	s := &repotest.StoreSuite{}
	s.NewStore = func() repo.TaskRepository { return newStorage(s.T()) }
	suite.Run(t, s)
}

// TestStorage_Reopen проверяет, что данные переживают повторное открытие и миграции не падают
func TestStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")

	storage, err := sqlite.New(ctx, path)
	require.NoError(t, err)

	created := &task.Task{UUID: uuid.New(), Description: "survives restart"}
	require.NoError(t, storage.Create(ctx, created))
	require.NoError(t, storage.Close())

	reopened, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "survives restart", got.Description)
}

// TestStorage_AttachTagUnknownTask тестирует нарушение внешнего ключа
func TestStorage_AttachTagUnknownTask(t *testing.T) {
	ctx := context.Background()
	storage := newStorage(t)

	tag := &task.Tag{UUID: uuid.New(), Name: "orphan"}
	require.NoError(t, storage.CreateTag(ctx, tag))

	err := storage.AttachTag(ctx, &task.TaskTag{TaskID: uuid.New(), TagID: tag.UUID})
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
