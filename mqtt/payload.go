package mqtt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrBadPayload is returned for telemetry or command messages that do not
// follow the wire format.
var ErrBadPayload = errors.New("mqtt: malformed payload")

// SensorPayload is one telemetry frame from the sensor node.
type SensorPayload struct {
	Temperature  float64
	Humidity     float64
	SoilMoisture int
}

// ParseSensorPayload parses "temperature,humidity,soil" as published by the
// node. Soil moisture is an integer percentage.
func ParseSensorPayload(payload []byte) (SensorPayload, error) {
	fields := strings.Split(strings.TrimSpace(string(payload)), ",")
	if len(fields) != 3 {
		return SensorPayload{}, fmt.Errorf("%w: want 3 fields, got %d", ErrBadPayload, len(fields))
	}

	temp, err := parseFloat(fields[0])
	if err != nil {
		return SensorPayload{}, fmt.Errorf("%w: temperature: %v", ErrBadPayload, err)
	}
	hum, err := parseFloat(fields[1])
	if err != nil {
		return SensorPayload{}, fmt.Errorf("%w: humidity: %v", ErrBadPayload, err)
	}
	soil, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return SensorPayload{}, fmt.Errorf("%w: soil moisture: %v", ErrBadPayload, err)
	}

	return SensorPayload{Temperature: temp, Humidity: hum, SoilMoisture: soil}, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// String renders the payload in wire format.
func (p SensorPayload) String() string {
	return fmt.Sprintf("%.2f,%.2f,%d", p.Temperature, p.Humidity, p.SoilMoisture)
}

// PumpCommand returns the control message that runs the pump for durationMS.
func PumpCommand(durationMS int) string {
	return "ON," + strconv.Itoa(durationMS)
}

// ParsePumpCommand parses "ON,<ms>" and returns the duration.
func ParsePumpCommand(payload []byte) (int, error) {
	action, value, ok := strings.Cut(strings.TrimSpace(string(payload)), ",")
	if !ok || strings.ToUpper(strings.TrimSpace(action)) != "ON" {
		return 0, fmt.Errorf("%w: %q", ErrBadPayload, payload)
	}
	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%w: bad duration %q", ErrBadPayload, value)
	}
	return ms, nil
}
