package task

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	UUID      uuid.UUID  `json:"uuid" db:"uuid"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	Text      string     `json:"text" db:"text"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

type Tag struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaskTag связывает задачу с тегом; ключ (TaskID, TagID)
type TaskTag struct {
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	TagID     uuid.UUID `json:"tag_id" db:"tag_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
