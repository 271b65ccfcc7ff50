package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"furitingoasis/irrigation/fuzzy"
	"furitingoasis/irrigation/mqtt"
	"furitingoasis/irrigation/website/internal/models"
)

const (
	triggerAPI            = "api"
	triggerManual         = "manual"
	triggerSchedulePrefix = "schedule:"
)

var errNoSensorData = errors.New("no sensor data available")

type cycleResult struct {
	Trigger     string               `json:"trigger"`
	Reading     models.SensorReading `json:"sensor_data"`
	Decision    fuzzy.Decision       `json:"watering_recommendation"`
	PumpCommand string               `json:"pump_command"`
	CommandSent bool                 `json:"command_sent"`
}

// recommend evaluates the newest stored reading without touching the pump.
func (app *application) recommend() (models.SensorReading, fuzzy.Decision, error) {
	reading, err := app.readings.Latest()
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			return models.SensorReading{}, fuzzy.Decision{}, errNoSensorData
		}
		return models.SensorReading{}, fuzzy.Decision{}, err
	}

	decision, err := app.decide(reading)
	return reading, decision, err
}

func (app *application) decide(reading models.SensorReading) (fuzzy.Decision, error) {
	start := time.Now()
	decision, err := app.engine.CalculateWatering(float64(reading.SoilMoisture), reading.Humidity, reading.Temperature)
	app.metrics.evaluationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		app.metrics.evaluationErrors.Inc()
		return fuzzy.Decision{}, err
	}
	app.metrics.decisions.WithLabelValues(decision.Status).Inc()
	return decision, nil
}

// runCycle evaluates the latest reading, commands the pump when the decision
// calls for water, and logs the outcome.
func (app *application) runCycle(trigger string) (cycleResult, error) {
	app.cycleMu.Lock()
	defer app.cycleMu.Unlock()

	reading, decision, err := app.recommend()
	if err != nil {
		if errors.Is(err, fuzzy.ErrInvalidInput) {
			app.recordWatering(models.WateringEvent{
				Trigger: trigger,
				Status:  "evaluation failed",
				Error:   err.Error(),
			})
		}
		return cycleResult{Trigger: trigger}, err
	}

	res := cycleResult{
		Trigger:     trigger,
		Reading:     reading,
		Decision:    decision,
		PumpCommand: "OFF",
	}
	event := models.WateringEvent{
		Trigger:    trigger,
		DurationMS: decision.DurationMS,
		Status:     decision.Status,
	}

	if decision.PumpOn() {
		res.PumpCommand = "ON"
		if err := app.sendPumpCommand(trigger, decision.DurationMS); err != nil {
			event.Error = err.Error()
			app.recordWatering(event)
			return res, err
		}
		res.CommandSent = true
		event.CommandSent = true
	}

	app.recordWatering(event)
	return res, nil
}

// activatePump runs the pump for a fixed duration chosen by an operator.
func (app *application) activatePump(durationMS int) (models.WateringEvent, error) {
	app.cycleMu.Lock()
	defer app.cycleMu.Unlock()

	event := models.WateringEvent{
		Trigger:    triggerManual,
		DurationMS: durationMS,
		Status:     fuzzy.Status(durationMS),
	}
	err := app.sendPumpCommand(triggerManual, durationMS)
	if err != nil {
		event.Error = err.Error()
	} else {
		event.CommandSent = true
	}
	app.recordWatering(event)
	return event, err
}

func (app *application) sendPumpCommand(trigger string, durationMS int) error {
	kind := trigger
	if strings.HasPrefix(trigger, triggerSchedulePrefix) {
		kind = "schedule"
	}

	err := app.publisher.Publish(app.config.MQTTTopicControl, mqtt.PumpCommand(durationMS))
	if err != nil {
		app.metrics.commands.WithLabelValues(kind, "failed").Inc()
		app.logger.Error("failed to send pump command", "trigger", trigger, "duration_ms", durationMS, "error", err)
		return fmt.Errorf("send pump command: %w", err)
	}
	app.metrics.commands.WithLabelValues(kind, "sent").Inc()
	app.logger.Info("sent pump command", "trigger", trigger, "duration_ms", durationMS)
	return nil
}

func (app *application) recordWatering(e models.WateringEvent) {
	if _, err := app.watering.Insert(e); err != nil {
		app.logger.Error("failed to log watering event", "trigger", e.Trigger, "error", err)
	}
}
