// Package tasklist классифицирует задачи, раскладывает их по дорожкам
// и строит детерминированный порядок отображения.
package tasklist

import (
	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

// Entry - задача в списке вместе с состоянием отображения
type Entry struct {
	Task     *task.Task
	Visible  bool
	Expanded bool
	First    bool
}

func NewEntry(t *task.Task) *Entry {
	return &Entry{Task: t, Visible: true}
}

func (e *Entry) ID() uuid.UUID {
	return e.Task.UUID
}

func (e *Entry) Status() task.Status {
	return Classify(e.Task)
}

func IDs(entries []*Entry) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID())
	}
	return ids
}
