package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"timeTracker/internal/app"
	"timeTracker/internal/config"
	"timeTracker/internal/logger"
	"timeTracker/internal/service"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session - открытое хранилище и контроллер на время одной команды
type session struct {
	v       *viper.Viper
	out     io.Writer
	service *service.TaskService
	close   func() error
}

// NewRootCmd собирает дерево команд. out - куда печатать результат.
func NewRootCmd(out io.Writer) (*cobra.Command, func() error) {
	s := &session{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "tt",
		Short:         "Учёт времени по задачам",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd.Context())
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("config", "config.yml", "путь к config.yml")
	flags.String("db", "", "путь к файлу SQLite (перекрывает database.path)")
	flags.String("driver", "", "драйвер хранилища: sqlite, postgres, inmemory")
	flags.BoolP("verbose", "v", false, "писать журнал в stderr")

	for _, name := range []string{"config", "db", "driver", "verbose"} {
		_ = s.v.BindPFlag(name, flags.Lookup(name))
	}
	s.v.SetEnvPrefix("TIMETRACKER")
	s.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	s.v.AutomaticEnv()

	root.AddCommand(
		s.listCmd(),
		s.newCmd(),
		s.startCmd(),
		s.stopCmd(),
		s.resumeCmd(),
		s.deleteCmd(),
		s.toggleCmd(),
		s.suggestCmd(),
		s.noteCmd(),
		s.tagCmd(),
		s.settingsCmd(),
	)

	return root, s.shutdown
}

// Execute запускает CLI с аргументами процесса
func Execute(ctx context.Context) error {
	root, shutdown := NewRootCmd(os.Stdout)
	err := root.ExecuteContext(ctx)
	if closeErr := shutdown(); err == nil {
		err = closeErr
	}
	return err
}

func (s *session) open(ctx context.Context) error {
	if s.v.GetBool("verbose") {
		if err := logger.Init(true); err != nil {
			return fmt.Errorf("инициализация логгера: %w", err)
		}
	}

	configPath := s.v.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if db := s.v.GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	if driver := s.v.GetString("driver"); driver != "" {
		cfg.Database.Driver = driver
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, closeStore, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	s.close = closeStore
	s.service = app.NewService(cfg, configPath, store, nil)

	if _, err := s.service.LoadList(ctx); err != nil {
		return err
	}
	return nil
}

func (s *session) shutdown() error {
	defer logger.Sync()
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}
