package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/migrations"
	"timeTracker/internal/models/task"
	repo "timeTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const slowQuery = 50 * time.Millisecond

const taskColumns = `uuid, description, created_at, started_at, ended_at, rank, parent_id, still_open, reminder, updated_at`

// Storage - локальное хранилище в файле SQLite.
// q - либо само соединение, либо открытая транзакция.
type Storage struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

// New открывает (и при необходимости создаёт) файл базы и применяет миграции
func New(ctx context.Context, path string) (*Storage, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("домашний каталог: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("каталог базы: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		logger.Error("Repository: Ошибка открытия SQLite", err, zap.String("path", path))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}
	// одна запись за раз, иначе SQLite отвечает database is locked
	db.SetMaxOpenConns(1)

	if err := migrations.Up(db.DB, migrations.DialectSQLite); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Repository: Успешное подключение к SQLite", zap.String("path", path))
	return &Storage{db: db, q: db}, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие SQLite")
	return s.db.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start)

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, query,
		taskToCreate.UUID,
		taskToCreate.Description,
		taskToCreate.CreatedAt.UTC(),
		utc(taskToCreate.StartedAt),
		utc(taskToCreate.EndedAt),
		taskToCreate.Rank,
		taskToCreate.ParentID,
		taskToCreate.StillOpen,
		utc(taskToCreate.Reminder),
		utc(taskToCreate.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start)

	t := &task.Task{}
	err := sqlx.GetContext(ctx, s.q, t, `SELECT `+taskColumns+` FROM tasks WHERE uuid = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow(start)

	now := time.Now()
	query := `UPDATE tasks
			SET description = ?,
				started_at = ?,
				ended_at = ?,
				rank = ?,
				parent_id = ?,
				still_open = ?,
				reminder = ?,
				updated_at = ?
			WHERE uuid = ?`

	res, err := s.q.ExecContext(ctx, query,
		taskToUpdate.Description,
		utc(taskToUpdate.StartedAt),
		utc(taskToUpdate.EndedAt),
		taskToUpdate.Rank,
		taskToUpdate.ParentID,
		taskToUpdate.StillOpen,
		utc(taskToUpdate.Reminder),
		now.UTC(),
		taskToUpdate.UUID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repo.ErrNotFound
	}

	taskToUpdate.UpdatedAt = &now
	return nil
}

// полное удаление; заметки и привязки тегов удаляются каскадом
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow(start)

	res, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE uuid = ?`, id)
	if err != nil {
		logger.Error("Repository: Полное удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("полное удаление: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, filter task.Filter) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(start)

	where, args := repo.WhereClause(filter, repo.Question)
	for i, arg := range args {
		if tm, ok := arg.(time.Time); ok {
			args[i] = tm.UTC()
		}
	}
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY created_at`

	tasks := []*task.Task{}
	if err := sqlx.SelectContext(ctx, s.q, &tasks, query, args...); err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *Storage) AddNote(ctx context.Context, note *task.Note) error {
	query := `INSERT INTO notes (uuid, task_id, text, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, query, note.UUID, note.TaskID, note.Text, note.CreatedAt.UTC(), utc(note.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить заметку", err)
		return fmt.Errorf("добавление заметки: %w", err)
	}
	return nil
}

func (s *Storage) GetNotes(ctx context.Context, taskID uuid.UUID) ([]*task.Note, error) {
	notes := []*task.Note{}
	query := `SELECT uuid, task_id, text, created_at, updated_at FROM notes WHERE task_id = ? ORDER BY created_at`

	if err := sqlx.SelectContext(ctx, s.q, &notes, query, taskID); err != nil {
		logger.Error("Repository: Не удалось получить заметки", err)
		return nil, fmt.Errorf("получение заметок: %w", err)
	}
	return notes, nil
}

func (s *Storage) CreateTag(ctx context.Context, tag *task.Tag) error {
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = time.Now()
	}

	_, err := s.q.ExecContext(ctx, `INSERT INTO tags (uuid, name, created_at) VALUES (?, ?, ?)`,
		tag.UUID, tag.Name, tag.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось создать тег", err)
		return fmt.Errorf("создание тега: %w", err)
	}
	return nil
}

func (s *Storage) GetTagByName(ctx context.Context, name string) (*task.Tag, error) {
	tag := &task.Tag{}
	err := sqlx.GetContext(ctx, s.q, tag, `SELECT uuid, name, created_at FROM tags WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("получение тега: %w", err)
	}
	return tag, nil
}

func (s *Storage) AttachTag(ctx context.Context, link *task.TaskTag) error {
	_, err := s.q.ExecContext(ctx, `INSERT INTO task_tags (task_id, tag_id, created_at) VALUES (?, ?, ?)`,
		link.TaskID, link.TagID, link.CreatedAt.UTC())
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return repo.ErrAlreadyExists
		case isForeignKeyViolation(err):
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось привязать тег", err)
		return fmt.Errorf("привязка тега: %w", err)
	}
	return nil
}

func (s *Storage) GetTaskTags(ctx context.Context, taskID uuid.UUID) ([]*task.TaskTag, error) {
	links := []*task.TaskTag{}
	query := `SELECT task_id, tag_id, created_at FROM task_tags WHERE task_id = ? ORDER BY created_at`

	if err := sqlx.SelectContext(ctx, s.q, &links, query, taskID); err != nil {
		logger.Error("Repository: Не удалось получить теги задачи", err)
		return nil, fmt.Errorf("получение тегов задачи: %w", err)
	}
	return links, nil
}

// Atomic выполняет fn в транзакции; вложенный вызов переиспользует текущую
func (s *Storage) Atomic(ctx context.Context, fn func(tx repo.TaskRepository) error) error {
	if _, inTx := s.q.(*sqlx.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("Repository: Не удалось начать транзакцию", err)
		return fmt.Errorf("начало транзакции: %w", err)
	}

	if err := fn(&Storage{db: s.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Repository: Не удалось откатить транзакцию", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Repository: Не удалось зафиксировать транзакцию", err)
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}

// время храним в UTC: SQLite сравнивает метки как строки
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
