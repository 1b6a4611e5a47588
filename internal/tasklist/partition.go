package tasklist

import (
	"sort"
	"time"

	"timeTracker/internal/models/task"
)

type Visibility struct {
	ShowQueued    bool
	ShowRanked    bool
	ShowClosed    bool
	RetentionDays int
}

// Since - нижняя граница окна хранения относительно now
func (v Visibility) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -v.RetentionDays)
}

// InWindow: задача создана в окне хранения или ещё не начата
func (v Visibility) InWindow(t *task.Task, now time.Time) bool {
	return !t.CreatedAt.Before(v.Since(now)) || t.StartedAt == nil
}

// Shows: показывается ли статус при текущих переключателях
func (v Visibility) Shows(status task.Status) bool {
	switch status {
	case task.StatusQueued:
		return v.ShowQueued
	case task.StatusRanked:
		return v.ShowRanked
	case task.StatusClosed:
		return v.ShowClosed
	}
	return true
}

type Counts struct {
	Ongoing int `json:"ongoing"`
	Queued  int `json:"queued"`
	Ranked  int `json:"ranked"`
}

type Partitioned struct {
	Ongoing []*Entry
	Queued  []*Entry
	Ranked  []*Entry
	Counts  Counts
}

// Partition раскладывает задачи по трём дорожкам. Задачи вне окна хранения
// и задачи со скрытым статусом в результат и в счётчики не попадают.
func Partition(tasks []*task.Task, vis Visibility, now time.Time) Partitioned {
	var res Partitioned

	for _, t := range tasks {
		if t == nil || !vis.InWindow(t, now) {
			continue
		}

		entry := NewEntry(t)
		if !vis.Shows(entry.Status()) {
			continue
		}

		switch entry.Status() {
		case task.StatusRanked:
			res.Ranked = append(res.Ranked, entry)
			res.Counts.Ranked++
		case task.StatusQueued:
			res.Queued = append(res.Queued, entry)
			res.Counts.Queued++
		default:
			res.Ongoing = append(res.Ongoing, entry)
			res.Counts.Ongoing++
		}
	}

	SortEntries(res.Ongoing)

	sort.SliceStable(res.Queued, func(i, j int) bool {
		return res.Queued[i].Task.CreatedAt.Before(res.Queued[j].Task.CreatedAt)
	})
	sort.SliceStable(res.Ranked, func(i, j int) bool {
		return rankOf(res.Ranked[i]) < rankOf(res.Ranked[j])
	})

	return res
}
