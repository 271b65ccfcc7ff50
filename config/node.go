package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Node is the configuration of the Raspberry Pi field node that reads the
// sensors and drives the pump relay.
type Node struct {
	MQTT Config

	NodeClientID   string
	StatusTopic    string
	SensorInterval time.Duration
	SensorRetries  int

	PumpPin        string
	RelayActiveLow bool

	SoilChannel  int
	SoilDryVolts float64
	SoilWetVolts float64

	// HumidityOffset corrects the SHT2x reading for the enclosure.
	HumidityOffset float64
}

func LoadNode() *Node {
	_ = godotenv.Load()

	return &Node{
		MQTT: *Load(),

		NodeClientID:   getEnv("NODE_CLIENT_ID", "irrigation-node"),
		StatusTopic:    getEnv("NODE_STATUS_TOPIC", "esp32/status"),
		SensorInterval: getEnvDuration("NODE_SENSOR_INTERVAL", 10*time.Second),
		SensorRetries:  getEnvInt("NODE_SENSOR_RETRIES", 3),

		PumpPin:        getEnv("NODE_PUMP_PIN", "37"),
		RelayActiveLow: getEnvBool("NODE_RELAY_ACTIVE_LOW", true),

		SoilChannel:  getEnvInt("SOIL_ADC_CHANNEL", 0),
		SoilDryVolts: getEnvFloat("SOIL_DRY_VOLTS", 2.8),
		SoilWetVolts: getEnvFloat("SOIL_WET_VOLTS", 1.2),

		HumidityOffset: getEnvFloat("NODE_HUMIDITY_OFFSET", 0),
	}
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return f
}
