package models

import (
	"database/sql"
	"fmt"
	"time"
)

// WateringEvent records one evaluate-and-command cycle or manual run.
type WateringEvent struct {
	ID          int       `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Trigger     string    `json:"trigger"`
	DurationMS  int       `json:"duration_ms"`
	Status      string    `json:"status"`
	CommandSent bool      `json:"command_sent"`
	Error       string    `json:"error,omitempty"`
}

type WateringModelInterface interface {
	Insert(e WateringEvent) (int, error)
	Recent(limit int) ([]WateringEvent, error)
}

type WateringModel struct {
	DB *sql.DB
}

func (m *WateringModel) Insert(e WateringEvent) (int, error) {
	writeMu.Lock()
	defer writeMu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	stmt := `INSERT INTO watering_log (timestamp, trigger, duration_ms, status, command_sent, error)
	VALUES (?, ?, ?, ?, ?, ?)`

	result, err := m.DB.Exec(stmt, e.Timestamp.UTC().Format(TimeFormat), e.Trigger, e.DurationMS,
		e.Status, e.CommandSent, e.Error)
	if err != nil {
		return 0, fmt.Errorf("insert watering event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (m *WateringModel) Recent(limit int) ([]WateringEvent, error) {
	stmt := `SELECT id, timestamp, trigger, duration_ms, status, command_sent, error
	FROM watering_log ORDER BY id DESC LIMIT ?`

	rows, err := m.DB.Query(stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []WateringEvent
	for rows.Next() {
		var (
			e  WateringEvent
			ts string
		)
		err = rows.Scan(&e.ID, &ts, &e.Trigger, &e.DurationMS, &e.Status, &e.CommandSent, &e.Error)
		if err != nil {
			return nil, err
		}
		if e.Timestamp, err = time.Parse(TimeFormat, ts); err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
