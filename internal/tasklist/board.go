package tasklist

import (
	"sort"

	"timeTracker/internal/models/task"

	"github.com/google/uuid"
)

type LaneName string

const LaneOngoing LaneName = "ongoing"
const LaneQueued LaneName = "queued"
const LaneRanked LaneName = "ranked"

// Lane - дорожка отображения; скрытые записи остаются в ней до следующей загрузки
type Lane struct {
	Name    LaneName
	entries []*Entry
}

func NewLane(name LaneName, entries []*Entry) *Lane {
	return &Lane{Name: name, entries: entries}
}

func (l *Lane) Entries() []*Entry {
	return l.entries
}

// SetChildIndex переносит запись на index, сдвигая остальные
func (l *Lane) SetChildIndex(e *Entry, index int) {
	from := indexOf(l.entries, e)
	if from < 0 {
		return
	}
	if index >= len(l.entries) {
		index = len(l.entries) - 1
	}
	if index < 0 {
		index = 0
	}
	removeInsert(l.entries, from, index)
}

func (l *Lane) Visible() []*Entry {
	res := make([]*Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Visible {
			res = append(res, e)
		}
	}
	return res
}

func (l *Lane) add(e *Entry) {
	l.entries = append(l.entries, e)
}

func (l *Lane) remove(e *Entry) {
	if i := indexOf(l.entries, e); i >= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
	}
}

// Board - текущее состояние списка: три дорожки и счётчики видимых записей
type Board struct {
	Ongoing *Lane
	Queued  *Lane
	Ranked  *Lane
	Counts  Counts
}

func NewBoard(p Partitioned) *Board {
	return &Board{
		Ongoing: NewLane(LaneOngoing, p.Ongoing),
		Queued:  NewLane(LaneQueued, p.Queued),
		Ranked:  NewLane(LaneRanked, p.Ranked),
		Counts:  p.Counts,
	}
}

func (b *Board) Lanes() []*Lane {
	return []*Lane{b.Ongoing, b.Queued, b.Ranked}
}

func (b *Board) Find(id uuid.UUID) (*Entry, *Lane) {
	for _, lane := range b.Lanes() {
		for _, e := range lane.entries {
			if e.ID() == id {
				return e, lane
			}
		}
	}
	return nil, nil
}

// Hide скрывает запись, не удаляя её из дорожки.
// false, если записи нет или она уже скрыта.
func (b *Board) Hide(id uuid.UUID) bool {
	e, _ := b.Find(id)
	if e == nil || !e.Visible {
		return false
	}
	e.Visible = false
	b.recount()
	return true
}

// Upsert кладёт свежую версию задачи на доску. Запись переезжает
// на дорожку своего нового статуса, состояние отображения сохраняется.
func (b *Board) Upsert(t *task.Task) *Entry {
	e := b.move(t)
	b.Refresh()
	return e
}

// Place - Upsert с учётом переключателей видимости
func (b *Board) Place(t *task.Task, vis Visibility) *Entry {
	e := b.move(t)
	e.Visible = vis.Shows(e.Status())
	b.Refresh()
	return e
}

func (b *Board) move(t *task.Task) *Entry {
	e, lane := b.Find(t.UUID)
	if e == nil {
		e = NewEntry(t)
	} else {
		lane.remove(e)
		e.Task = t
	}
	b.laneFor(e).add(e)
	return e
}

// Adopt переносит состояние отображения со старой доски на записи новой
func (b *Board) Adopt(old *Board) {
	if old == nil {
		return
	}
	for _, lane := range b.Lanes() {
		for _, e := range lane.entries {
			if prev, _ := old.Find(e.ID()); prev != nil {
				e.Expanded = prev.Expanded
				e.First = prev.First
			}
		}
	}
}

func (b *Board) laneFor(e *Entry) *Lane {
	switch e.Status() {
	case task.StatusQueued:
		return b.Queued
	case task.StatusRanked:
		return b.Ranked
	default:
		return b.Ongoing
	}
}

// Refresh пересортировывает дорожки и пересчитывает счётчики
func (b *Board) Refresh() {
	SortCollection(b.Ongoing)
	sort.SliceStable(b.Queued.entries, func(i, j int) bool {
		return b.Queued.entries[i].Task.CreatedAt.Before(b.Queued.entries[j].Task.CreatedAt)
	})
	sort.SliceStable(b.Ranked.entries, func(i, j int) bool {
		return rankOf(b.Ranked.entries[i]) < rankOf(b.Ranked.entries[j])
	})
	b.recount()
}

func (b *Board) recount() {
	b.Counts = Counts{
		Ongoing: len(b.Ongoing.Visible()),
		Queued:  len(b.Queued.Visible()),
		Ranked:  len(b.Ranked.Visible()),
	}
}

// MarkFirst снимает признак первой записи со всех и ставит его на e
func (b *Board) MarkFirst(e *Entry) {
	for _, x := range b.Ongoing.entries {
		x.First = false
	}
	e.First = true
}

// CollapseUnstarted сворачивает все ещё не начатые записи
func (b *Board) CollapseUnstarted() {
	for _, lane := range b.Lanes() {
		for _, e := range lane.entries {
			if e.Task.StartedAt == nil {
				e.Expanded = false
			}
		}
	}
}

func (b *Board) HasAny() bool {
	for _, lane := range b.Lanes() {
		if len(lane.Visible()) > 0 {
			return true
		}
	}
	return false
}

// QueueCount - число видимых задач в очереди
func (b *Board) QueueCount() int {
	count := 0
	for _, lane := range b.Lanes() {
		for _, e := range lane.Visible() {
			if e.Status() == task.StatusQueued {
				count++
			}
		}
	}
	return count
}

// Suggestions возвращает описания видимых закрытых задач в порядке списка.
// Вторая запись идёт первой: первая обычно только что закрыта.
func (b *Board) Suggestions() []string {
	var closed []string
	for _, e := range b.Ongoing.Visible() {
		if e.Status() == task.StatusClosed {
			closed = append(closed, e.Task.Description)
		}
	}

	var res []string
	seen := make(map[string]struct{}, len(closed))
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		res = append(res, s)
	}

	if len(closed) > 1 {
		add(closed[1])
	}
	for _, s := range closed {
		add(s)
	}
	return res
}
