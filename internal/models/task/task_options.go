package task

import (
	"strings"
	"time"
)

type TaskOption func(*Task)

// WithDescription не пропускает пустое описание: его отклонит Validate
func WithDescription(description string) TaskOption {
	description = strings.TrimSpace(description)
	return func(task *Task) {
		task.Description = description
	}
}

func WithStartedAt(startedAt time.Time) TaskOption {
	if startedAt.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.StartedAt = &startedAt
	}
}

func WithEndedAt(endedAt time.Time) TaskOption {
	if endedAt.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.EndedAt = &endedAt
	}
}

func WithRank(rank int) TaskOption {
	return func(task *Task) {
		task.Rank = &rank
	}
}

func WithoutRank() TaskOption {
	return func(task *Task) {
		task.Rank = nil
	}
}

func WithStillOpen(open bool) TaskOption {
	return func(task *Task) {
		task.StillOpen = open
	}
}

func WithReminder(reminder time.Time) TaskOption {
	if reminder.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.Reminder = &reminder
	}
}
