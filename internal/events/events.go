package events

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

type Kind string

const KindListReady Kind = "list_ready"
const KindQueueCountChanged Kind = "queue_count_changed"
const KindTokenActivated Kind = "token_activated"
const KindEditorRequested Kind = "editor_requested"
const KindTaskHidden Kind = "task_hidden"

type Event struct {
	Kind       Kind      `json:"kind"`
	HasAnyTask bool      `json:"has_any_task"`
	Count      int       `json:"count"`
	TaskID     uuid.UUID `json:"task_id"`
	Token      string    `json:"token"`
}

// MarshalJSON пишет только поля, которые несёт сигнал данного вида
func (e Event) MarshalJSON() ([]byte, error) {
	wire := struct {
		Kind       Kind       `json:"kind"`
		HasAnyTask *bool      `json:"has_any_task,omitempty"`
		Count      *int       `json:"count,omitempty"`
		TaskID     *uuid.UUID `json:"task_id,omitempty"`
		Token      string     `json:"token,omitempty"`
	}{Kind: e.Kind, Token: e.Token}

	switch e.Kind {
	case KindListReady:
		wire.HasAnyTask = &e.HasAnyTask
	case KindQueueCountChanged:
		wire.Count = &e.Count
	}
	if e.TaskID != uuid.Nil {
		wire.TaskID = &e.TaskID
	}
	return json.Marshal(wire)
}

func ListReady(hasAnyTask bool) Event {
	return Event{Kind: KindListReady, HasAnyTask: hasAnyTask}
}

func QueueCountChanged(count int) Event {
	return Event{Kind: KindQueueCountChanged, Count: count}
}

func TokenActivated(taskID uuid.UUID, token string) Event {
	return Event{Kind: KindTokenActivated, TaskID: taskID, Token: token}
}

func EditorRequested(taskID uuid.UUID) Event {
	return Event{Kind: KindEditorRequested, TaskID: taskID}
}

func TaskHidden(taskID uuid.UUID) Event {
	return Event{Kind: KindTaskHidden, TaskID: taskID}
}

// Bus раздаёт события подписчикам. Publish не блокируется:
// если буфер подписчика полон, событие для него теряется.
type Bus struct {
	mtx     *sync.RWMutex
	nextID  int
	subs    map[int]chan Event
	dropped int
}

func NewBus() *Bus {
	return &Bus{
		mtx:  &sync.RWMutex{},
		subs: make(map[int]chan Event),
	}
}

func (b *Bus) Publish(e Event) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped++
		}
	}
}

// Subscribe возвращает канал событий и функцию отписки
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mtx.Lock()
			defer b.mtx.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Bus) Dropped() int {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	return b.dropped
}
