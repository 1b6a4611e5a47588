package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"timeTracker/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

type Dialect string

const DialectSQLite Dialect = "sqlite"
const DialectPostgres Dialect = "postgres"

// Up применяет все встроенные миграции диалекта
func Up(db *sql.DB, dialect Dialect) error {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return err
	}

	logger.Info("Migrations: Применение миграций", zap.String("dialect", string(dialect)))
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("версия схемы: %w", err)
	}
	logger.Info("Migrations: Схема актуальна", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down откатывает все миграции
func Down(db *sql.DB, dialect Dialect) error {
	m, err := newMigrate(db, dialect)
	if err != nil {
		return err
	}

	logger.Info("Migrations: Откат миграций", zap.String("dialect", string(dialect)))
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Migrations: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}
	return nil
}

// экземпляр migrate не закрываем: его Close закрыл бы и переданный *sql.DB
func newMigrate(db *sql.DB, dialect Dialect) (*migrate.Migrate, error) {
	var (
		fsys   embed.FS
		driver database.Driver
		err    error
	)

	switch dialect {
	case DialectSQLite:
		fsys = sqliteFS
		driver, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	case DialectPostgres:
		fsys = postgresFS
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return nil, fmt.Errorf("неизвестный диалект %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("драйвер миграций: %w", err)
	}

	src, err := iofs.New(fsys, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}
