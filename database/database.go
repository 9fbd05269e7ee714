package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite file at url and brings its schema up to date.
// Foreign keys are enforced on every pooled connection.
func Open(url string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dsn(url))
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping")
	}

	if _, err = migrateDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return db, nil
}

func dsn(url string) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_foreign_keys=on&_busy_timeout=5000"
}
