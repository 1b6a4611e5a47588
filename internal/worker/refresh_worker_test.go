package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"timeTracker/internal/service"
	"timeTracker/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRefresher struct {
	mock.Mock
	calls atomic.Int32
}

func (m *MockRefresher) LoadList(ctx context.Context) (service.ListView, error) {
	m.calls.Add(1)
	args := m.Called(ctx)
	return args.Get(0).(service.ListView), args.Error(1)
}

// TestRefreshWorker_Check тестирует одно обновление
func TestRefreshWorker_Check(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "success - list reloaded", expected: true},
		{name: "error - store unavailable", err: errors.New("db locked"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockRefresher)
			m.On("LoadList", mock.Anything).Return(service.ListView{}, tt.err)

			w := worker.NewRefreshWorker(m, nil)
			assert.Equal(t, tt.expected, w.Check(context.Background()))
			m.AssertExpectations(t)
		})
	}
}

// TestRefreshWorker_Interval тестирует значение интервала по умолчанию
func TestRefreshWorker_Interval(t *testing.T) {
	zero := time.Duration(0)
	custom := 5 * time.Second

	assert.Equal(t, time.Minute, worker.NewRefreshWorker(nil, nil).Interval())
	assert.Equal(t, time.Minute, worker.NewRefreshWorker(nil, &zero).Interval())
	assert.Equal(t, custom, worker.NewRefreshWorker(nil, &custom).Interval())
}

// TestRefreshWorker_Start тестирует тикер и остановку по контексту
func TestRefreshWorker_Start(t *testing.T) {
	m := new(MockRefresher)
	m.On("LoadList", mock.Anything).Return(service.ListView{}, nil)

	interval := 10 * time.Millisecond
	w := worker.NewRefreshWorker(m, &interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker не остановился")
	}
}
