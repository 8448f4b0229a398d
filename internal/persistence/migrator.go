package persistence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"

	_ "github.com/golang-migrate/migrate/v4/source/file" // nolint:revive
)

// Migrator applies the versioned SQL migrations in
// internal/persistence/migrations. AutoMigrate behind --db-init is a dev
// shortcut; deployments run these.
type Migrator struct {
	Logger *slog.Logger
	DB     *DB

	migrator *migrate.Migrate
}

func (m *Migrator) Init(_ context.Context) error {
	m.Logger = m.Logger.With("component", "persistence.Migrator")

	db, err := m.DB.DB()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m.migrator, err = migrate.NewWithDatabaseInstance("file://internal/persistence/migrations", "postgres", driver)
	return err
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := m.fix(ctx); err != nil {
		return err
	}

	m.Logger.Info("migrating database up")

	if err := m.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	m.Logger.Info("database migration completed")
	return nil
}

// Down rolls back one step, not the whole history.
func (m *Migrator) Down(ctx context.Context) error {
	if err := m.fix(ctx); err != nil {
		return err
	}

	m.Logger.Info("migrating database down")

	if err := m.migrator.Steps(-1); err != nil {
		return err
	}

	m.Logger.Info("database migration completed")
	return nil
}

// fix clears a dirty version left behind by an interrupted run so the next
// attempt can proceed.
func (m *Migrator) fix(_ context.Context) error {
	version, dirty, err := m.migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	}
	if !dirty {
		return nil
	}

	m.Logger.Info("database is dirty, fixing", "version", version)

	return m.migrator.Force(int(version)) // nolint:gosec
}
