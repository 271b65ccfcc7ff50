package models

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDB opens the SQLite file with a busy timeout so the ingest loop, the
// scheduler and the history server can share it.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", withBusyTimeout(dsn))
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// withBusyTimeout appends _busy_timeout to dsn unless it already sets one.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}
