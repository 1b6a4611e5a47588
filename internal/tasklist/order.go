package tasklist

import (
	"math"
	"sort"
	"time"

	"timeTracker/internal/models/task"
)

type bucket struct {
	status task.Status
	less   func(a, b *Entry) bool
}

// порядок корзин фиксирован; less == nil означает входной порядок
var buckets = []bucket{
	{status: task.StatusRunning, less: func(a, b *Entry) bool {
		return a.Task.CreatedAt.Before(b.Task.CreatedAt)
	}},
	{status: task.StatusUnclosed},
	{status: task.StatusRanked, less: func(a, b *Entry) bool {
		return rankOf(a) < rankOf(b)
	}},
	{status: task.StatusQueued, less: func(a, b *Entry) bool {
		return a.Task.CreatedAt.After(b.Task.CreatedAt)
	}},
	{status: task.StatusClosed, less: func(a, b *Entry) bool {
		return startOf(a).After(startOf(b))
	}},
}

// Order возвращает видимые записи в порядке отображения: корзины по статусу
// склеиваются в фиксированном порядке, внутри корзины действует её ключ.
// Сортировка устойчивая, поэтому Order(Order(s)) совпадает с Order(s).
func Order(entries []*Entry) []*Entry {
	rest := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil && e.Visible {
			rest = append(rest, e)
		}
	}

	ordered := make([]*Entry, 0, len(rest))
	for _, b := range buckets {
		var group, remaining []*Entry
		for _, e := range rest {
			if e.Status() == b.status {
				group = append(group, e)
			} else {
				remaining = append(remaining, e)
			}
		}
		if b.less != nil {
			sort.SliceStable(group, func(i, j int) bool {
				return b.less(group[i], group[j])
			})
		}
		ordered = append(ordered, group...)
		rest = remaining
	}

	return append(ordered, rest...)
}

// Collection - упорядоченная коллекция, привязанная к отображению,
// которую переставляют перемещением элемента на индекс.
type Collection interface {
	Entries() []*Entry
	SetChildIndex(e *Entry, index int)
}

// SortCollection переставляет живую коллекцию, перенося записи
// на целевые индексы по одной в итоговом порядке.
func SortCollection(c Collection) {
	for i, e := range Order(c.Entries()) {
		c.SetChildIndex(e, i)
	}
}

// SortEntries переставляет срез на месте через удаление и вставку.
// Скрытые записи не участвуют и оказываются после видимых.
func SortEntries(list []*Entry) {
	for i, e := range Order(list) {
		from := indexOf(list, e)
		if from < 0 {
			continue
		}
		removeInsert(list, from, i)
	}
}

func indexOf(list []*Entry, e *Entry) int {
	for i := range list {
		if list[i] == e {
			return i
		}
	}
	return -1
}

// removeInsert убирает элемент с позиции from и вставляет его на позицию to
func removeInsert(list []*Entry, from, to int) {
	if from == to {
		return
	}
	e := list[from]
	if from > to {
		copy(list[to+1:from+1], list[to:from])
	} else {
		copy(list[from:to], list[from+1:to+1])
	}
	list[to] = e
}

func rankOf(e *Entry) int {
	if e.Task.Rank == nil {
		return math.MaxInt
	}
	return *e.Task.Rank
}

func startOf(e *Entry) time.Time {
	if e.Task.StartedAt == nil {
		return time.Time{}
	}
	return *e.Task.StartedAt
}
