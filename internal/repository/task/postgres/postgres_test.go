package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"
	"timeTracker/internal/repository/repotest"
	"timeTracker/internal/repository/task/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var _ repo.TaskRepository = (*postgres.Storage)(nil)

// PostgresTestSuite для интеграционных тестов с PostgreSQL.
// Контракт хранилища берётся из repotest, сверху - проверки, специфичные для PostgreSQL.
type PostgresTestSuite struct {
	repotest.StoreSuite
	container  testcontainers.Container
	storage    *postgres.Storage
	connString string
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb", host, port.Port())

	// миграции применяются внутри New
	s.storage, err = postgres.New(ctx, s.connString, postgres.PoolConfig{MaxConns: 4})
	require.NoError(s.T(), err)

	s.NewStore = func() repo.TaskRepository {
		s.cleanupDatabase()
		return s.storage
	}
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(context.Background())
	}
}

// cleanupDatabase очищает все таблицы через отдельное подключение
func (s *PostgresTestSuite) cleanupDatabase() {
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, s.connString)
	if err != nil {
		s.T().Logf("Не удалось подключиться для очистки: %v", err)
		return
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "TRUNCATE task_tags, notes, tags, tasks"); err != nil {
		s.T().Logf("Не удалось очистить таблицы: %v", err)
	}
}

// TestPostgresTestSuite запускает suite
func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

// TestStorage_EndWithoutStartRejected тестирует CHECK-ограничение схемы
func (s *PostgresTestSuite) TestStorage_EndWithoutStartRejected() {
	ctx := context.Background()
	ended := time.Now()

	err := s.storage.Create(ctx, &task.Task{UUID: uuid.New(), Description: "broken", EndedAt: &ended})
	require.Error(s.T(), err)
	assert.NotErrorIs(s.T(), err, repo.ErrAlreadyExists)
}

// TestStorage_UpdateSetsUpdatedAt тестирует, что updated_at выставляет сервер
func (s *PostgresTestSuite) TestStorage_UpdateSetsUpdatedAt() {
	ctx := context.Background()

	created := &task.Task{UUID: uuid.New(), Description: "touch me"}
	require.NoError(s.T(), s.storage.Create(ctx, created))
	assert.Nil(s.T(), created.UpdatedAt)

	created.Description = "touched"
	require.NoError(s.T(), s.storage.Update(ctx, created))
	require.NotNil(s.T(), created.UpdatedAt)

	got, err := s.storage.GetByID(ctx, created.UUID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.UpdatedAt)
	assert.WithinDuration(s.T(), *created.UpdatedAt, *got.UpdatedAt, time.Millisecond)
}
