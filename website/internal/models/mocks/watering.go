package mocks

import (
	"sync"

	"furitingoasis/irrigation/website/internal/models"
)

type WateringModel struct {
	mu     sync.Mutex
	events []models.WateringEvent
}

func (m *WateringModel) Insert(e models.WateringEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = len(m.events) + 1
	m.events = append(m.events, e)
	return e.ID, nil
}

func (m *WateringModel) Recent(limit int) ([]models.WateringEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WateringEvent
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}
