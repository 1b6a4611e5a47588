package tasklist

import "timeTracker/internal/models/task"

// Classify определяет статус по сохранённым полям задачи.
// Порядок проверок важен: сначала отсутствие старта, затем отсутствие окончания.
func Classify(t *task.Task) task.Status {
	if t == nil {
		return task.StatusQueued
	}
	if t.StartedAt == nil {
		if t.Rank != nil {
			return task.StatusRanked
		}
		return task.StatusQueued
	}
	if t.EndedAt == nil {
		return task.StatusRunning
	}
	if t.StillOpen {
		return task.StatusUnclosed
	}
	return task.StatusClosed
}
