package app

import (
	"context"
	"fmt"

	"timeTracker/internal/config"
	"timeTracker/internal/logger"
	repo "timeTracker/internal/repository"
	"timeTracker/internal/repository/task/inmemory"
	"timeTracker/internal/repository/task/postgres"
	"timeTracker/internal/repository/task/sqlite"
	"timeTracker/internal/service"
	"timeTracker/internal/tasklist"

	"go.uber.org/zap"
)

// OpenStore открывает хранилище по database.driver. Вторым значением
// возвращается функция закрытия.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repo.TaskRepository, func() error, error) {
	logger.Info("Открытие хранилища", zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		return store, store.Close, nil

	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.URL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConnections,
			MinConns:        cfg.MinConnections,
			MaxConnIdleTime: cfg.IdleTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return store, func() error {
			store.Close()
			return nil
		}, nil

	case config.DriverInMemory:
		return inmemory.NewTaskStorage(), func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("неизвестный драйвер хранилища %q", cfg.Driver)
	}
}

// NewService собирает контроллер с настройками из конфига.
// Изменённые настройки сохраняются в configPath, если он задан.
func NewService(cfg *config.Config, configPath string, store repo.TaskRepository, publisher service.Publisher) *service.TaskService {
	settings := service.Settings{
		Visibility: tasklist.Visibility{
			ShowQueued:    cfg.List.ShowQueued,
			ShowRanked:    cfg.List.ShowRanked,
			ShowClosed:    cfg.List.ShowClosed,
			RetentionDays: cfg.List.RetentionDays,
		},
		AutoOpenEditor: cfg.List.AutoOpenEditor,
	}

	var saver service.Option
	if configPath != "" {
		saver = service.WithSettingsSaver(func(s service.Settings) error {
			cfg.List = config.ListConfig{
				RetentionDays:  s.Visibility.RetentionDays,
				ShowQueued:     s.Visibility.ShowQueued,
				ShowRanked:     s.Visibility.ShowRanked,
				ShowClosed:     s.Visibility.ShowClosed,
				AutoOpenEditor: s.AutoOpenEditor,
			}
			return cfg.Save(configPath)
		})
	}

	return service.NewTaskService(store, publisher, settings, saver)
}
