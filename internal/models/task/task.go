package task

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	Description string     `json:"description" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	Rank        *int       `json:"rank,omitempty" db:"rank"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	StillOpen   bool       `json:"still_open" db:"still_open"`
	Reminder    *time.Time `json:"reminder,omitempty" db:"reminder"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

type Status string

const StatusRunning Status = "running"
const StatusUnclosed Status = "unclosed"
const StatusRanked Status = "ranked"
const StatusQueued Status = "queued"
const StatusClosed Status = "closed"

var (
	ErrEmptyDescription = errors.New("описание задачи не может быть пустым")
	ErrEndWithoutStart  = errors.New("время окончания задано без времени начала")
	ErrEndBeforeStart   = errors.New("время окончания раньше времени начала")
)

// Validate проверяет инварианты строки перед записью в хранилище
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.EndedAt != nil {
		if t.StartedAt == nil {
			return ErrEndWithoutStart
		}
		if t.EndedAt.Before(*t.StartedAt) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

func (t *Task) IsStarted() bool {
	return t.StartedAt != nil
}

func (t *Task) IsRunning() bool {
	return t.StartedAt != nil && t.EndedAt == nil
}

// Clone возвращает копию без общих указателей
func (t *Task) Clone() *Task {
	c := *t
	c.StartedAt = copyTime(t.StartedAt)
	c.EndedAt = copyTime(t.EndedAt)
	c.Reminder = copyTime(t.Reminder)
	c.UpdatedAt = copyTime(t.UpdatedAt)
	if t.Rank != nil {
		r := *t.Rank
		c.Rank = &r
	}
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
