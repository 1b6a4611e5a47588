package worker

import (
	"context"
	"time"

	"timeTracker/internal/logger"
	"timeTracker/internal/service"

	"go.uber.org/zap"
)

const defaultInterval = time.Minute

type Refresher interface {
	LoadList(ctx context.Context) (service.ListView, error)
}

// RefreshWorker периодически перечитывает список, чтобы окно хранения
// сдвигалось без команд пользователя
type RefreshWorker struct {
	refresher Refresher
	interval  time.Duration
}

func NewRefreshWorker(refresher Refresher, interval *time.Duration) *RefreshWorker {
	intervalToSet := defaultInterval
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}
	return &RefreshWorker{
		refresher: refresher,
		interval:  intervalToSet,
	}
}

func (w *RefreshWorker) Interval() time.Duration {
	return w.interval
}

func (w *RefreshWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновое обновление списка запущено", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновое обновление останавливается")
			return
		}
	}
}

// Check выполняет одно обновление; ошибка хранилища только логируется
func (w *RefreshWorker) Check(ctx context.Context) bool {
	start := time.Now()

	view, err := w.refresher.LoadList(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка обновления списка", zap.Error(err))
		return false
	}

	logger.Debug(
		"Worker: Список обновлён",
		zap.Duration("ms", time.Since(start)),
		zap.Int("ongoing", view.Counts.Ongoing),
		zap.Int("queued", view.Counts.Queued),
		zap.Int("ranked", view.Counts.Ranked),
	)
	return true
}
