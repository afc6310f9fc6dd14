package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFS embed.FS

// SchemaVersion describes the applied migration state.
type SchemaVersion struct {
	Version uint
	Dirty   bool
	Latest  uint
}

// Current reports whether every embedded migration has been applied cleanly.
func (v SchemaVersion) Current() bool {
	return !v.Dirty && v.Version == v.Latest
}

// newMigrator builds a golang-migrate instance over a dedicated connection so
// closing the migrator never closes the Store's pool.
func (s *Store) newMigrator() (*migrate.Migrate, error) {
	conn, err := sql.Open(s.db.DriverName(), s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}

	var driver database.Driver
	switch s.dialect {
	case DialectPostgres:
		driver, err = migratepgx.WithInstance(conn, &migratepgx.Config{})
	default:
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations/"+string(s.dialect))
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func (s *Store) migrateUp() error {
	m, err := s.newMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Migrate applies pending migrations and returns the resulting version.
func (s *Store) Migrate() (SchemaVersion, error) {
	if err := s.migrateUp(); err != nil {
		return SchemaVersion{}, err
	}
	return s.SchemaVersion()
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion() (SchemaVersion, error) {
	latest, err := latestMigration(s.dialect)
	if err != nil {
		return SchemaVersion{}, err
	}
	m, err := s.newMigrator()
	if err != nil {
		return SchemaVersion{}, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{Latest: latest}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("read schema version: %w", err)
	}
	return SchemaVersion{Version: version, Dirty: dirty, Latest: latest}, nil
}

func latestMigration(dialect Dialect) (uint, error) {
	source, err := iofs.New(migrationFS, "migrations/"+string(dialect))
	if err != nil {
		return 0, fmt.Errorf("open migration source: %w", err)
	}
	defer source.Close()

	version, err := source.First()
	if err != nil {
		return 0, fmt.Errorf("read first migration: %w", err)
	}
	for {
		next, err := source.Next(version)
		if err != nil {
			// fs.ErrNotExist marks the last migration.
			return version, nil
		}
		version = next
	}
}
