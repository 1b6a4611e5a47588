package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("запись не найдена")
	ErrAlreadyExists = errors.New("запись уже существует")
)

// TaskRepository - хранилище задач, заметок и тегов.
// Atomic выполняет fn в одной единице работы: либо всё, либо ничего.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error

	Create(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	Update(ctx context.Context, t *task.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, filter task.Filter) ([]*task.Task, error)

	AddNote(ctx context.Context, note *task.Note) error
	GetNotes(ctx context.Context, taskID uuid.UUID) ([]*task.Note, error)

	CreateTag(ctx context.Context, tag *task.Tag) error
	GetTagByName(ctx context.Context, name string) (*task.Tag, error)
	AttachTag(ctx context.Context, link *task.TaskTag) error
	GetTaskTags(ctx context.Context, taskID uuid.UUID) ([]*task.TaskTag, error)

	Atomic(ctx context.Context, fn func(tx TaskRepository) error) error
}

func Dollar(n int) string {
	return "$" + strconv.Itoa(n)
}

func Question(int) string {
	return "?"
}

// WhereClause строит условие WHERE для фильтра; placeholder задаёт синтаксис параметров
func WhereClause(f task.Filter, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any

	if f.CreatedSince != nil {
		args = append(args, *f.CreatedSince)
		cond := "created_at >= " + placeholder(len(args))
		if f.IncludeUnstarted {
			cond = "(" + cond + " OR started_at IS NULL)"
		}
		conds = append(conds, cond)
	}

	if f.Description != nil {
		args = append(args, *f.Description)
		conds = append(conds, "description = "+placeholder(len(args)))
	}

	if f.OnlyRunning {
		conds = append(conds, "started_at IS NOT NULL AND ended_at IS NULL")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
