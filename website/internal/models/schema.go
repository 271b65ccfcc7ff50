package models

import (
	"database/sql"
	"fmt"
	"sync"
)

// writeMu serializes writers. SQLite allows a single writer, and the MQTT
// ingest loop, the scheduler and HTTP handlers all write.
var writeMu sync.Mutex

// TimeFormat is how timestamps are stored in TEXT columns.
const TimeFormat = "2006-01-02 15:04:05"

var schema = []struct {
	name string
	stmt string
}{
	{"sensor_data", `
		CREATE TABLE IF NOT EXISTS sensor_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			temperature REAL NOT NULL,
			humidity REAL NOT NULL,
			soil_moisture INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sensor_data_timestamp_idx ON sensor_data (timestamp);
	`},
	{"watering_log", `
		CREATE TABLE IF NOT EXISTS watering_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			trigger TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			status TEXT NOT NULL,
			command_sent INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
	`},
	{"sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(43) PRIMARY KEY,
			data BLOB NOT NULL,
			expiry TIMESTAMP(6) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions (expiry);
	`},
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password CHAR(60) NOT NULL,
			authorised INTEGER DEFAULT 0,
			admin INTEGER DEFAULT 0,
			created DATETIME NOT NULL
		);
	`},
}

// Migrate creates every table the controller uses if it does not exist yet.
func Migrate(db *sql.DB) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	for _, table := range schema {
		if _, err := db.Exec(table.stmt); err != nil {
			return fmt.Errorf("create %s table: %w", table.name, err)
		}
	}
	return nil
}
