package fuzzy

// Variable names used by rule selectors.
const (
	Soil     = "soil_moisture"
	Air      = "air_humidity"
	Temp     = "temperature"
	Watering = "watering_time_ms"
)

// SoilMoisture returns the soil moisture variable (0-100 %).
func SoilMoisture() *Variable {
	return &Variable{
		Domain: Domain{Name: Soil, Min: 0, Max: 100, Step: 1},
		Regions: []Region{
			newRegion("very_dry", 0, 0, 30),
			newRegion("dry", 20, 35, 50),
			newRegion("moist", 40, 55, 70),
			newRegion("wet", 60, 100, 100),
		},
	}
}

// AirHumidity returns the air humidity variable (0-100 %).
func AirHumidity() *Variable {
	return &Variable{
		Domain: Domain{Name: Air, Min: 0, Max: 100, Step: 1},
		Regions: []Region{
			newRegion("low", 0, 0, 40),
			newRegion("medium", 30, 50, 70),
			newRegion("high", 60, 100, 100),
		},
	}
}

// Temperature returns the air temperature variable (0-40 °C).
func Temperature() *Variable {
	return &Variable{
		Domain: Domain{Name: Temp, Min: 0, Max: 40, Step: 1},
		Regions: []Region{
			newRegion("cool", 0, 0, 20),
			newRegion("warm", 15, 25, 30),
			newRegion("hot", 25, 40, 40),
		},
	}
}

// WateringTime returns the output variable, pump run time in milliseconds.
func WateringTime() *Variable {
	return &Variable{
		Domain: Domain{Name: Watering, Min: 0, Max: MaxDurationMS, Step: 1},
		Regions: []Region{
			newRegion("no_water", 0, 0, 0),
			newRegion("very_short", 0, 15000, 30000),
			newRegion("short", 20000, 40000, 60000),
			newRegion("medium", 50000, 70000, 90000),
			newRegion("long", 80000, 120000, 120000),
		},
	}
}
