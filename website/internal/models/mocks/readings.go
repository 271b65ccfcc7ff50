package mocks

import (
	"sync"
	"time"

	"furitingoasis/irrigation/website/internal/models"
)

var mockReading = models.SensorReading{
	ID:           1,
	Timestamp:    time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC),
	Temperature:  30,
	Humidity:     60,
	SoilMoisture: 30,
}

// SensorReadingModel keeps readings in memory. An empty model with Empty set
// behaves like a fresh database.
type SensorReadingModel struct {
	Empty bool

	mu       sync.Mutex
	inserted []models.SensorReading
}

func (m *SensorReadingModel) Insert(temperature, humidity float64, soilMoisture int, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := models.SensorReading{
		ID:           len(m.inserted) + 2,
		Timestamp:    at,
		Temperature:  temperature,
		Humidity:     humidity,
		SoilMoisture: soilMoisture,
	}
	m.inserted = append(m.inserted, r)
	return r.ID, nil
}

// Inserted returns the readings stored through Insert.
func (m *SensorReadingModel) Inserted() []models.SensorReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SensorReading(nil), m.inserted...)
}

func (m *SensorReadingModel) Latest() (models.SensorReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.inserted); n > 0 {
		return m.inserted[n-1], nil
	}
	if m.Empty {
		return models.SensorReading{}, models.ErrNoRecord
	}
	return mockReading, nil
}

func (m *SensorReadingModel) Recent(limit int) ([]models.SensorReading, error) {
	if m.Empty {
		return nil, nil
	}
	return []models.SensorReading{mockReading}, nil
}

func (m *SensorReadingModel) Count() (int, error) {
	if m.Empty {
		return 0, nil
	}
	return 1, nil
}

func (m *SensorReadingModel) Sampled(maxPoints int) ([]models.SensorReading, error) {
	return m.Recent(maxPoints)
}
