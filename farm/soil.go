package main

import (
	"math"
)

// soilCalibration maps the capacitive probe voltage to a moisture percentage.
// The probe reads high in dry soil and low in water.
type soilCalibration struct {
	DryVolts float64
	WetVolts float64
}

// Percent returns the moisture for a probe voltage, clamped to 0..100.
func (c soilCalibration) Percent(volts float64) int {
	span := c.DryVolts - c.WetVolts
	if span == 0 || math.IsNaN(volts) {
		return 0
	}
	p := (c.DryVolts - volts) / span * 100
	return int(math.Round(math.Max(0, math.Min(100, p))))
}
