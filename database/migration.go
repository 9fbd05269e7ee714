package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/mbolis/opinio/log"
)

//go:embed migrations
var schemaFiles embed.FS

// migrateDB applies the embedded schema migrations and returns the version
// the database ends up at. A database left dirty by a failed migration is
// refused.
func migrateDB(db *sql.DB) (uint, error) {
	src, err := iofs.New(schemaFiles, "migrations")
	if err != nil {
		return 0, errors.Wrap(err, "migrations source")
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return 0, errors.Wrap(err, "migrations driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, errors.Wrap(err, "migrator")
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, errors.Wrap(err, "schema version")
	}
	if dirty {
		return from, errors.Errorf("schema version %d is dirty", from)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return from, errors.Wrap(err, "migrate up")
	}

	to, _, err := m.Version()
	if err != nil {
		return from, errors.Wrap(err, "schema version")
	}
	if to != from {
		log.WithFields(log.Fields{"from": from, "to": to}).Info("database.migrate: schema upgraded")
	}
	return to, nil
}
