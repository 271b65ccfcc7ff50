package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	HTTPAddr       string
	SiteAddr       string
	CookieSecure   bool
	SessionTTL     time.Duration
	OperatorConfig string

	// SQLite
	DSN string

	// MQTT
	MQTTBroker        string
	MQTTPort          int
	MQTTClientID      string
	MQTTUsername      string
	MQTTPassword      string
	MQTTTopicSensor   string
	MQTTTopicControl  string
	MQTTKeepAlive     time.Duration
	MQTTMaxRetries    int
	MQTTRetryInterval time.Duration

	// Scheduler
	ScheduleTimezone string
	ScheduleTimes    []string

	// Manual watering
	DefaultManualDurationMS int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":5000"),
		SiteAddr:       getEnv("SITE_ADDR", ":8080"),
		CookieSecure:   getEnvBool("COOKIE_SECURE", true),
		SessionTTL:     getEnvDuration("SESSION_LIFETIME", 12*time.Hour),
		OperatorConfig: getEnv("OPERATOR_CONFIG", "config.json"),

		DSN: getEnv("DB_DSN", "instance/sensor_data.db"),

		MQTTBroker:        getEnv("MQTT_BROKER", "localhost"),
		MQTTPort:          getEnvInt("MQTT_PORT", 1883),
		MQTTClientID:      getEnv("MQTT_CLIENT_ID", "irrigation-controller"),
		MQTTUsername:      getEnv("MQTT_USERNAME", ""),
		MQTTPassword:      getEnv("MQTT_PASSWORD", ""),
		MQTTTopicSensor:   getEnv("MQTT_TOPIC_SENSOR", "esp32/sensor_data"),
		MQTTTopicControl:  getEnv("MQTT_TOPIC_CONTROL", "esp32/watering_control"),
		MQTTKeepAlive:     getEnvDuration("MQTT_KEEPALIVE", 60*time.Second),
		MQTTMaxRetries:    getEnvInt("MQTT_MAX_RETRIES", 5),
		MQTTRetryInterval: getEnvDuration("MQTT_RETRY_INTERVAL", 5*time.Second),

		ScheduleTimezone: getEnv("SCHEDULE_TIMEZONE", "Asia/Jakarta"),
		ScheduleTimes:    getEnvList("SCHEDULE_TIMES", []string{"07:00", "17:00"}),

		DefaultManualDurationMS: getEnvInt("DEFAULT_MANUAL_DURATION_MS", 30000),
	}
}

// BrokerURL returns the broker address in the form paho expects.
func (c *Config) BrokerURL() string {
	if strings.Contains(c.MQTTBroker, "://") {
		return c.MQTTBroker
	}
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
