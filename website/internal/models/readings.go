package models

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

type SensorReading struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture int       `json:"soil_moisture"`
}

type SensorReadingModelInterface interface {
	Insert(temperature, humidity float64, soilMoisture int, at time.Time) (int, error)
	Latest() (SensorReading, error)
	Recent(limit int) ([]SensorReading, error)
	Count() (int, error)
	Sampled(maxPoints int) ([]SensorReading, error)
}

type SensorReadingModel struct {
	DB *sql.DB
}

func (m *SensorReadingModel) Insert(temperature, humidity float64, soilMoisture int, at time.Time) (int, error) {
	writeMu.Lock()
	defer writeMu.Unlock()

	stmt := `INSERT INTO sensor_data (timestamp, temperature, humidity, soil_moisture)
	VALUES (?, ?, ?, ?)`

	result, err := m.DB.Exec(stmt, at.UTC().Format(TimeFormat), temperature, humidity, soilMoisture)
	if err != nil {
		return 0, fmt.Errorf("insert sensor reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// Latest returns the most recently stored reading.
func (m *SensorReadingModel) Latest() (SensorReading, error) {
	stmt := `SELECT id, timestamp, temperature, humidity, soil_moisture FROM sensor_data
	ORDER BY timestamp DESC, id DESC LIMIT 1`

	r, err := scanReading(m.DB.QueryRow(stmt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SensorReading{}, ErrNoRecord
		}
		return SensorReading{}, err
	}
	return r, nil
}

// Recent returns up to limit readings, newest first.
func (m *SensorReadingModel) Recent(limit int) ([]SensorReading, error) {
	stmt := `SELECT id, timestamp, temperature, humidity, soil_moisture FROM sensor_data
	ORDER BY timestamp DESC, id DESC LIMIT ?`

	rows, err := m.DB.Query(stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []SensorReading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

func (m *SensorReadingModel) Count() (int, error) {
	var n int
	err := m.DB.QueryRow("SELECT COUNT(*) FROM sensor_data").Scan(&n)
	return n, err
}

// Sampled returns at most maxPoints readings in insertion order, keeping
// every n-th row so the whole history fits on one chart.
func (m *SensorReadingModel) Sampled(maxPoints int) ([]SensorReading, error) {
	total, err := m.Count()
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}

	step := 1
	if maxPoints > 0 && total > maxPoints {
		step = int(math.Ceil(float64(total) / float64(maxPoints)))
	}

	rows, err := m.DB.Query(`SELECT id, timestamp, temperature, humidity, soil_moisture
	FROM sensor_data ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying data: %w", err)
	}
	defer rows.Close()

	var readings []SensorReading
	count := 0
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if count%step == 0 {
			readings = append(readings, r)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return readings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(s rowScanner) (SensorReading, error) {
	var (
		r  SensorReading
		ts string
	)
	if err := s.Scan(&r.ID, &ts, &r.Temperature, &r.Humidity, &r.SoilMoisture); err != nil {
		return SensorReading{}, err
	}
	t, err := time.Parse(TimeFormat, ts)
	if err != nil {
		return SensorReading{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	r.Timestamp = t
	return r, nil
}
