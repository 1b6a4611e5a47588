package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"timeTracker/internal/config"
	"timeTracker/internal/events"
	"timeTracker/internal/handlers"
	"timeTracker/internal/logger"
	"timeTracker/internal/middleware"
	"timeTracker/internal/service"
	"timeTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	configPath string
	server     *http.Server
	router     *chi.Mux
	bus        *events.Bus
	service    *service.TaskService
	worker     *worker.RefreshWorker
	shutdowns  []func() error // функции для graceful shutdown, вызываются в обратном порядке
}

func New(cfg *config.Config, configPath string) *App {
	return &App{
		config:     cfg,
		configPath: configPath,
		shutdowns:  make([]func() error, 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() error {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
		return nil
	})

	store, closeStore, err := OpenStore(ctx, a.config.Database)
	if err != nil {
		return nil, err
	}
	a.shutdowns = append(a.shutdowns, closeStore)

	a.bus = events.NewBus()
	a.service = NewService(a.config, a.configPath, store, a.bus)

	if _, err := a.service.LoadList(ctx); err != nil {
		// сервер поднимается и без списка: его перечитает воркер
		logger.Error("Ошибка первичной загрузки списка", err)
	}

	interval := a.config.Worker.RefreshInterval
	a.worker = worker.NewRefreshWorker(a.service, &interval)

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(a.config.Server.CORSOrigins))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	handlers.NewTaskHandler(a.service, a.bus).Routes(r)
	return r
}

// Run обслуживает запросы и воркер до отмены ctx, затем завершает работу
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("Остановка сервера...")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	return multierr.Append(g.Wait(), a.Shutdown())
}

func (a *App) Shutdown() error {
	var err error
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.shutdowns[i]())
	}
	a.shutdowns = nil
	return err
}

func (a *App) Handler() http.Handler {
	return a.router
}
