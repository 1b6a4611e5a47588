package tasklist_test

import (
	"testing"
	"time"

	"timeTracker/internal/models/task"
	"timeTracker/internal/tasklist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

func at(minutes int) *time.Time {
	t := base.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func rank(r int) *int {
	return &r
}

func newTask(desc string, created int) *task.Task {
	return &task.Task{UUID: uuid.New(), Description: desc, CreatedAt: *at(created)}
}

func running(desc string, created int) *task.Task {
	t := newTask(desc, created)
	t.StartedAt = at(created)
	return t
}

func closed(desc string, created, started, ended int) *task.Task {
	t := newTask(desc, created)
	t.StartedAt = at(started)
	t.EndedAt = at(ended)
	return t
}

func ranked(desc string, created, r int) *task.Task {
	t := newTask(desc, created)
	t.Rank = rank(r)
	return t
}

func entries(tasks ...*task.Task) []*tasklist.Entry {
	res := make([]*tasklist.Entry, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, tasklist.NewEntry(t))
	}
	return res
}

func TestClassify(t *testing.T) {
	unclosed := closed("unclosed", 0, 1, 2)
	unclosed.StillOpen = true

	startedRanked := running("started with rank", 0)
	startedRanked.Rank = rank(1)

	tests := []struct {
		name string
		task *task.Task
		want task.Status
	}{
		{name: "no start no rank - queued", task: newTask("q", 0), want: task.StatusQueued},
		{name: "no start with rank - ranked", task: ranked("r", 0, 3), want: task.StatusRanked},
		{name: "started not ended - running", task: running("run", 0), want: task.StatusRunning},
		{name: "ended with open flag - unclosed", task: unclosed, want: task.StatusUnclosed},
		{name: "ended - closed", task: closed("c", 0, 1, 2), want: task.StatusClosed},
		{name: "rank ignored once started", task: startedRanked, want: task.StatusRunning},
		{name: "nil task - queued", task: nil, want: task.StatusQueued},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tasklist.Classify(tt.task))
		})
	}
}

func TestOrder_Scenario(t *testing.T) {
	t1 := running("T1", 0)
	t2 := newTask("T2", 10)
	t3 := ranked("T3", 20, 5)

	got := tasklist.Order(entries(t2, t3, t1))

	assert.Equal(t, []uuid.UUID{t1.UUID, t3.UUID, t2.UUID}, tasklist.IDs(got))
}

func TestOrder_BucketPrecedence(t *testing.T) {
	// временные метки подобраны так, чтобы спорить с порядком корзин
	c := closed("closed", 100, 100, 101)
	q := newTask("queued", 90)
	r := ranked("ranked", 80, 1)
	u := closed("unclosed", 70, 70, 71)
	u.StillOpen = true
	run := running("running", 60)

	got := tasklist.Order(entries(c, q, r, u, run))

	assert.Equal(t, []uuid.UUID{run.UUID, u.UUID, r.UUID, q.UUID, c.UUID}, tasklist.IDs(got))
}

func TestOrder_InternalKeys(t *testing.T) {
	t.Run("running by creation ascending", func(t *testing.T) {
		a := running("a", 1)
		b := running("b", 2)
		got := tasklist.Order(entries(b, a))
		assert.Equal(t, []uuid.UUID{a.UUID, b.UUID}, tasklist.IDs(got))
	})

	t.Run("queued by creation descending", func(t *testing.T) {
		a := newTask("a", 1)
		b := newTask("b", 2)
		got := tasklist.Order(entries(a, b))
		assert.Equal(t, []uuid.UUID{b.UUID, a.UUID}, tasklist.IDs(got))
	})

	t.Run("ranked by rank ascending", func(t *testing.T) {
		a := ranked("a", 1, 9)
		b := ranked("b", 2, 3)
		got := tasklist.Order(entries(a, b))
		assert.Equal(t, []uuid.UUID{b.UUID, a.UUID}, tasklist.IDs(got))
	})

	t.Run("closed by start descending", func(t *testing.T) {
		a := closed("a", 0, 5, 6)
		b := closed("b", 0, 7, 8)
		got := tasklist.Order(entries(a, b))
		assert.Equal(t, []uuid.UUID{b.UUID, a.UUID}, tasklist.IDs(got))
	})

	t.Run("unclosed keeps input order", func(t *testing.T) {
		a := closed("a", 5, 5, 6)
		a.StillOpen = true
		b := closed("b", 1, 1, 2)
		b.StillOpen = true
		got := tasklist.Order(entries(a, b))
		assert.Equal(t, []uuid.UUID{a.UUID, b.UUID}, tasklist.IDs(got))
	})
}

func TestOrder_Idempotent(t *testing.T) {
	same1 := running("same1", 5)
	same2 := running("same2", 5)
	set := entries(
		closed("c1", 0, 3, 4), newTask("q1", 2), same1, ranked("r1", 1, 2),
		same2, closed("c2", 0, 3, 9), newTask("q2", 2), ranked("r2", 1, 2),
	)

	once := tasklist.Order(set)
	twice := tasklist.Order(once)

	assert.Equal(t, tasklist.IDs(once), tasklist.IDs(twice))
	assert.Len(t, once, len(set))
}

func TestOrder_SkipsHidden(t *testing.T) {
	set := entries(running("a", 0), running("b", 1))
	set[0].Visible = false

	got := tasklist.Order(set)

	require.Len(t, got, 1)
	assert.Equal(t, set[1].ID(), got[0].ID())
}

func TestSort_ModesProduceSameOrder(t *testing.T) {
	tasks := []*task.Task{
		closed("c1", 0, 3, 4), newTask("q1", 2), running("run1", 5), ranked("r1", 1, 2),
		running("run0", 1), closed("c2", 0, 8, 9), newTask("q2", 3), ranked("r0", 1, 1),
	}

	slice := entries(tasks...)
	slice[1].Visible = false

	lane := tasklist.NewLane(tasklist.LaneOngoing, entries(tasks...))
	lane.Entries()[1].Visible = false

	tasklist.SortEntries(slice)
	tasklist.SortCollection(lane)

	assert.Equal(t, tasklist.IDs(slice), tasklist.IDs(lane.Entries()))
	// скрытая запись остаётся в коллекции после видимых
	assert.Equal(t, tasks[1].UUID, slice[len(slice)-1].ID())
	assert.Len(t, slice, len(tasks))
}

func TestPartition(t *testing.T) {
	now := base.AddDate(0, 0, 10)
	vis := tasklist.Visibility{ShowQueued: true, ShowRanked: true, ShowClosed: true, RetentionDays: 3}

	old := closed("old closed", 0, 0, 1)
	oldQueued := newTask("old queued", 0)
	fresh := closed("fresh closed", 60*24*9, 60*24*9, 60*24*9+5)
	run := running("run", 60*24*9)
	q := newTask("queue", 60*24*9)
	r := ranked("rank", 60*24*9, 1)

	t.Run("retention window drops old started tasks", func(t *testing.T) {
		p := tasklist.Partition([]*task.Task{old, oldQueued, fresh, run, q, r}, vis, now)

		assert.Equal(t, []uuid.UUID{run.UUID, fresh.UUID}, tasklist.IDs(p.Ongoing))
		assert.ElementsMatch(t, []uuid.UUID{oldQueued.UUID, q.UUID}, tasklist.IDs(p.Queued))
		assert.Equal(t, []uuid.UUID{r.UUID}, tasklist.IDs(p.Ranked))
		assert.Equal(t, tasklist.Counts{Ongoing: 2, Queued: 2, Ranked: 1}, p.Counts)
	})

	t.Run("queued lane by creation ascending", func(t *testing.T) {
		p := tasklist.Partition([]*task.Task{q, oldQueued}, vis, now)
		assert.Equal(t, []uuid.UUID{oldQueued.UUID, q.UUID}, tasklist.IDs(p.Queued))
	})

	t.Run("hidden statuses are absent from counts", func(t *testing.T) {
		off := tasklist.Visibility{RetentionDays: 3}
		p := tasklist.Partition([]*task.Task{fresh, run, q, r}, off, now)

		assert.Equal(t, []uuid.UUID{run.UUID}, tasklist.IDs(p.Ongoing))
		assert.Empty(t, p.Queued)
		assert.Empty(t, p.Ranked)
		assert.Equal(t, tasklist.Counts{Ongoing: 1}, p.Counts)
	})
}

func TestBoard_UpsertMovesBetweenLanes(t *testing.T) {
	q := newTask("q", 0)
	board := tasklist.NewBoard(tasklist.Partition([]*task.Task{q}, tasklist.Visibility{ShowQueued: true, RetentionDays: 1}, base))
	require.Equal(t, 1, board.QueueCount())

	started := q.Clone()
	started.StartedAt = at(5)
	board.Upsert(started)

	e, lane := board.Find(q.UUID)
	require.NotNil(t, e)
	assert.Equal(t, tasklist.LaneOngoing, lane.Name)
	assert.Equal(t, 0, board.QueueCount())
	assert.Equal(t, tasklist.Counts{Ongoing: 1}, board.Counts)
}

func TestBoard_HideKeepsEntry(t *testing.T) {
	run := running("run", 0)
	board := tasklist.NewBoard(tasklist.Partition([]*task.Task{run}, tasklist.Visibility{RetentionDays: 1}, base))

	assert.True(t, board.Hide(run.UUID))
	assert.False(t, board.Hide(run.UUID))
	assert.False(t, board.Hide(uuid.New()))
	assert.Len(t, board.Ongoing.Entries(), 1)
	assert.False(t, board.HasAny())
}

func TestBoard_Suggestions(t *testing.T) {
	c1 := closed("write report", 0, 10, 11)
	c2 := closed("review", 0, 8, 9)
	c3 := closed("write report", 0, 6, 7)
	c4 := closed("standup", 0, 4, 5)

	board := tasklist.NewBoard(tasklist.Partition([]*task.Task{c1, c2, c3, c4},
		tasklist.Visibility{ShowClosed: true, RetentionDays: 1}, base))

	assert.Equal(t, []string{"review", "write report", "standup"}, board.Suggestions())
}

func TestVisibility_Shows(t *testing.T) {
	vis := tasklist.Visibility{ShowQueued: false, ShowRanked: true, ShowClosed: false}

	assert.False(t, vis.Shows(task.StatusQueued))
	assert.True(t, vis.Shows(task.StatusRanked))
	assert.False(t, vis.Shows(task.StatusClosed))
	assert.True(t, vis.Shows(task.StatusRunning))
	assert.True(t, vis.Shows(task.StatusUnclosed))
}

func TestBoard_PlaceAppliesVisibility(t *testing.T) {
	vis := tasklist.Visibility{ShowQueued: true, ShowClosed: false, RetentionDays: 1}
	run := running("run", 0)
	board := tasklist.NewBoard(tasklist.Partition([]*task.Task{run}, vis, base))

	stopped := run.Clone()
	stopped.EndedAt = at(30)
	e := board.Place(stopped, vis)

	assert.False(t, e.Visible)
	assert.False(t, board.HasAny())

	q := newTask("q", 40)
	e = board.Place(q, vis)
	assert.True(t, e.Visible)
	assert.Equal(t, 1, board.QueueCount())
}

func TestBoard_AdoptKeepsDisplayState(t *testing.T) {
	vis := tasklist.Visibility{ShowQueued: true, ShowClosed: true, RetentionDays: 1}
	a := running("a", 0)
	b := running("b", 1)

	old := tasklist.NewBoard(tasklist.Partition([]*task.Task{a, b}, vis, base))
	ea, _ := old.Find(a.UUID)
	ea.Expanded = true
	old.MarkFirst(ea)

	fresh := tasklist.NewBoard(tasklist.Partition([]*task.Task{a.Clone(), b.Clone()}, vis, base))
	fresh.Adopt(old)

	got, _ := fresh.Find(a.UUID)
	require.NotNil(t, got)
	assert.True(t, got.Expanded)
	assert.True(t, got.First)

	other, _ := fresh.Find(b.UUID)
	assert.False(t, other.First)

	fresh.Adopt(nil)
	assert.True(t, got.First)
}
