package task

import "time"

// Filter описывает выборку задач. Пустые поля не ограничивают выборку.
// CreatedSince и IncludeUnstarted объединяются через ИЛИ, остальные условия через И.
type Filter struct {
	CreatedSince     *time.Time
	IncludeUnstarted bool
	Description      *string
	OnlyRunning      bool
}

func (f Filter) Match(t *Task) bool {
	if f.CreatedSince != nil {
		inWindow := !t.CreatedAt.Before(*f.CreatedSince)
		if !inWindow && !(f.IncludeUnstarted && t.StartedAt == nil) {
			return false
		}
	}
	if f.Description != nil && t.Description != *f.Description {
		return false
	}
	if f.OnlyRunning && !t.IsRunning() {
		return false
	}
	return true
}
