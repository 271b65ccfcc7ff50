package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"furitingoasis/irrigation/config"
	wire "furitingoasis/irrigation/mqtt"

	"gobot.io/x/gobot/v2"
	"gobot.io/x/gobot/v2/drivers/gpio"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/mqtt"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// DeviceState is published on the status topic after every sensor cycle.
type DeviceState struct {
	Pump          int     `json:"pump"`
	PumpTimeOn    string  `json:"pump_time_on"`
	LastCommandMS int     `json:"last_command_ms"`
	SoilVolts     float64 `json:"soil_volts"`
	Error         string  `json:"error"`
}

// nodeError is the last fault seen by the node, reported in DeviceState.
type nodeError struct {
	mu  sync.Mutex
	msg string
}

func (e *nodeError) Set(msg string) {
	e.mu.Lock()
	e.msg = msg
	e.mu.Unlock()
}

func (e *nodeError) Get() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.msg
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

func main() {
	cfg := config.LoadNode()
	calibration := soilCalibration{DryVolts: cfg.SoilDryVolts, WetVolts: cfg.SoilWetVolts}
	lastErr := &nodeError{msg: "none"}

	//////////////////////////////////////////
	//GPIO PINS
	r := raspi.NewAdaptor()
	sht2x := i2c.NewSHT2xDriver(r)
	ads1115 := i2c.NewADS1115Driver(r)
	pumpRelay := gpio.NewRelayDriver(r, cfg.PumpPin)
	waterPump := newPump(pumpRelay, cfg.RelayActiveLow)

	var mqttAdaptor *mqtt.Adaptor
	if cfg.MQTT.MQTTUsername != "" {
		mqttAdaptor = mqtt.NewAdaptorWithAuth(cfg.MQTT.BrokerURL(), cfg.NodeClientID,
			cfg.MQTT.MQTTUsername, cfg.MQTT.MQTTPassword)
	} else {
		mqttAdaptor = mqtt.NewAdaptor(cfg.MQTT.BrokerURL(), cfg.NodeClientID)
	}
	mqttAdaptor.SetAutoReconnect(true)

	sendAlert := func(message string) {
		mqttAdaptor.Publish(cfg.StatusTopic+"/alerts", []byte(message))
		log.Println("MQTT alert sent:", message)
	}

	go func() {
		now := time.Now().UTC()
		nextMidnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		dailyReset := time.NewTimer(nextMidnight.Sub(now))
		defer dailyReset.Stop()

		for range dailyReset.C {
			log.Printf("Pump ran %s yesterday, resetting daily counter (00:00 UTC).", formatDuration(waterPump.ResetDaily()))
			dailyReset.Reset(24 * time.Hour)
		}
	}()

	readSensors := func() (wire.SensorPayload, float64, error) {
		var (
			temp, humidity float32
			volts          float64
			err            error
		)
		for i := 0; i < cfg.SensorRetries; i++ {
			temp, err = sht2x.Temperature()
			if err == nil {
				humidity, err = sht2x.Humidity()
			}
			if err == nil {
				volts, err = ads1115.ReadWithDefaults(cfg.SoilChannel)
			}
			if err == nil {
				return wire.SensorPayload{
					Temperature:  float64(temp),
					Humidity:     float64(humidity) + cfg.HumidityOffset,
					SoilMoisture: calibration.Percent(volts),
				}, volts, nil
			}
			log.Printf("Error reading sensor data (attempt %d): %v\n", i+1, err)
			time.Sleep(2 * time.Second)
		}
		sendAlert(fmt.Sprintf("Failed to read sensor data after %d attempts: %v", cfg.SensorRetries, err))
		lastErr.Set("sensor read failed")
		return wire.SensorPayload{}, 0, err
	}

	work := func() {
		mqttAdaptor.On(cfg.MQTT.MQTTTopicControl, func(msg mqtt.Message) {
			log.Printf("Received pump command: %s", msg.Payload())
			ms, err := wire.ParsePumpCommand(msg.Payload())
			if err != nil {
				log.Println("Ignoring pump command:", err)
				return
			}
			if err := waterPump.Run(ms); err != nil {
				log.Println("Refusing pump command:", err)
				sendAlert(err.Error())
				lastErr.Set("pump command refused")
				return
			}
			log.Printf("Pump ON for %d ms", ms)
		})

		gobot.Every(cfg.SensorInterval, func() {
			reading, volts, err := readSensors()
			if err != nil {
				log.Println("Error reading sensor data:", err)
				return
			}

			if mqttAdaptor.Publish(cfg.MQTT.MQTTTopicSensor, []byte(reading.String())) {
				log.Printf("Published sensor data: %s", reading)
				lastErr.Set("none")
			} else {
				log.Println("Failed to publish sensor data")
				lastErr.Set("mqtt publish failed")
			}

			state := DeviceState{
				PumpTimeOn:    formatDuration(waterPump.DailyOn()),
				LastCommandMS: waterPump.LastCommandMS(),
				SoilVolts:     volts,
				Error:         lastErr.Get(),
			}
			if waterPump.Running() {
				state.Pump = 1
			}
			stateJSON, err := json.Marshal(state)
			if err != nil {
				log.Println("Error marshaling device state:", err)
				return
			}
			mqttAdaptor.Publish(cfg.StatusTopic, stateJSON)
		})
	}

	farmBot := gobot.NewRobot("IrrigationNode",
		[]gobot.Connection{r, mqttAdaptor},
		[]gobot.Device{sht2x, ads1115, pumpRelay},
		work,
	)

	// The relay must not stay closed if the node is stopped mid-run.
	defer waterPump.Off()

	if err := farmBot.Start(); err != nil {
		log.Fatal("Error starting robot:", err)
	}
}
