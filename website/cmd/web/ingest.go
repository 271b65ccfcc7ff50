package main

import (
	"context"
	"time"

	"furitingoasis/irrigation/mqtt"
)

type sensorMessage struct {
	payload  mqtt.SensorPayload
	received time.Time
}

// handleSensorMessage runs on the MQTT client's goroutine. It only parses the
// payload and hands it to ingestLoop.
func (app *application) handleSensorMessage(topic string, payload []byte) {
	p, err := mqtt.ParseSensorPayload(payload)
	if err != nil {
		app.logger.Warn("discarding sensor message", "topic", topic, "payload", string(payload), "error", err)
		app.metrics.readingsRejected.WithLabelValues("malformed").Inc()
		return
	}

	msg := sensorMessage{payload: p, received: time.Now()}
	select {
	case app.incoming <- msg:
	case <-time.After(time.Second):
		app.logger.Warn("ingest channel full, dropping reading", "payload", p.String())
		app.metrics.readingsRejected.WithLabelValues("dropped").Inc()
	}
}

// ingestLoop stores readings until ctx is cancelled.
func (app *application) ingestLoop(ctx context.Context) {
	app.logger.Info("ingest loop started")
	for {
		select {
		case <-ctx.Done():
			app.logger.Info("ingest loop stopped")
			return
		case msg := <-app.incoming:
			app.storeReading(msg)
		}
	}
}

func (app *application) storeReading(msg sensorMessage) {
	p := msg.payload
	id, err := app.readings.Insert(p.Temperature, p.Humidity, p.SoilMoisture, msg.received)
	if err != nil {
		app.logger.Error("failed to store reading", "error", err)
		app.metrics.readingsRejected.WithLabelValues("store").Inc()
		return
	}
	app.metrics.readingsIngested.Inc()
	app.logger.Info("reading stored", "id", id,
		"temperature", p.Temperature, "humidity", p.Humidity, "soil_moisture", p.SoilMoisture)
}
