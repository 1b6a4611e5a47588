package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/migrations"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

const taskColumns = `uuid, description, created_at, started_at, ended_at, rank, parent_id, still_open, reminder, updated_at`

// querier - общее подмножество пула и транзакции
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	storage := &Storage{pool: pool, q: pool}
	if err := storage.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return storage, nil
}

// Migrate применяет встроенные миграции через database/sql поверх того же пула
func (s *Storage) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	return migrations.Up(db, migrations.DialectPostgres)
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start, 50*time.Millisecond)

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.q.Exec(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Description,
		taskToCreate.CreatedAt,
		taskToCreate.StartedAt,
		taskToCreate.EndedAt,
		taskToCreate.Rank,
		taskToCreate.ParentID,
		taskToCreate.StillOpen,
		taskToCreate.Reminder,
		taskToCreate.UpdatedAt,
	)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start, 100*time.Millisecond)

	rows, err := s.q.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	t, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start, 100*time.Millisecond)

	query := `UPDATE tasks
			SET description = $1,
				started_at = $2,
				ended_at = $3,
				rank = $4,
				parent_id = $5,
				still_open = $6,
				reminder = $7,
				updated_at = NOW()
			WHERE uuid = $8
			RETURNING updated_at`

	err := s.q.QueryRow(ctx, query,
		taskToUpdate.Description,
		taskToUpdate.StartedAt,
		taskToUpdate.EndedAt,
		taskToUpdate.Rank,
		taskToUpdate.ParentID,
		taskToUpdate.StillOpen,
		taskToUpdate.Reminder,
		taskToUpdate.UUID,
	).Scan(&taskToUpdate.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Задача для обновления не найдена",
				zap.String("task_id", taskToUpdate.UUID.String()))
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

// полное удаление; заметки и привязки тегов удаляются каскадом
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow(start, 100*time.Millisecond)

	tag, err := s.q.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Полное удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("полное удаление: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start, 100*time.Millisecond)

	where, args := repo.WhereClause(filter, repo.Dollar)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY created_at`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func (s *Storage) AddNote(ctx context.Context, note *task.Note) error {
	query := `INSERT INTO notes (uuid, task_id, text, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := s.q.Exec(ctx, query, note.UUID, note.TaskID, note.Text, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		if hasCode(err, codeForeignKeyViolation) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить заметку", err)
		return fmt.Errorf("добавление заметки: %w", err)
	}
	return nil
}

func (s *Storage) GetNotes(ctx context.Context, taskID uuid.UUID) ([]*task.Note, error) {
	rows, err := s.q.Query(ctx,
		`SELECT uuid, task_id, text, created_at, updated_at FROM notes WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить заметки", err)
		return nil, fmt.Errorf("получение заметок: %w", err)
	}

	notes, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Note])
	if err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return notes, nil
}

func (s *Storage) CreateTag(ctx context.Context, tag *task.Tag) error {
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now()
	}

	_, err := s.q.Exec(ctx, `INSERT INTO tags (uuid, name, created_at) VALUES ($1, $2, $3)`,
		tag.UUID, tag.Name, tag.CreatedAt)
	if err != nil {
		if hasCode(err, codeUniqueViolation) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось создать тег", err)
		return fmt.Errorf("создание тега: %w", err)
	}
	return nil
}

func (s *Storage) GetTagByName(ctx context.Context, name string) (*task.Tag, error) {
	rows, err := s.q.Query(ctx, `SELECT uuid, name, created_at FROM tags WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("получение тега: %w", err)
	}

	tag, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[task.Tag])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение тега: %w", err)
	}
	return tag, nil
}

func (s *Storage) AttachTag(ctx context.Context, link *task.TaskTag) error {
	_, err := s.q.Exec(ctx, `INSERT INTO task_tags (task_id, tag_id, created_at) VALUES ($1, $2, $3)`,
		link.TaskID, link.TagID, link.CreatedAt)
	if err != nil {
		switch {
		case hasCode(err, codeUniqueViolation):
			return repo.ErrAlreadyExists
		case hasCode(err, codeForeignKeyViolation):
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось привязать тег", err)
		return fmt.Errorf("привязка тега: %w", err)
	}
	return nil
}

func (s *Storage) GetTaskTags(ctx context.Context, taskID uuid.UUID) ([]*task.TaskTag, error) {
	rows, err := s.q.Query(ctx,
		`SELECT task_id, tag_id, created_at FROM task_tags WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить теги задачи", err)
		return nil, fmt.Errorf("получение тегов задачи: %w", err)
	}

	links, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.TaskTag])
	if err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return links, nil
}

// Atomic выполняет fn в транзакции; вложенный вызов переиспользует текущую
func (s *Storage) Atomic(ctx context.Context, fn func(tx repo.TaskRepository) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		logger.Error("Repository: Не удалось начать транзакцию", err)
		return fmt.Errorf("начало транзакции: %w", err)
	}

	if err := fn(&Storage{pool: s.pool, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error("Repository: Не удалось откатить транзакцию", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

func warnIfSlow(start time.Time, limit time.Duration) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
