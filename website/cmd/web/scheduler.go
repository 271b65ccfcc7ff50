package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

// cronSpec turns "HH:MM" into a daily cron expression.
func cronSpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("bad schedule time %q: want HH:MM", hhmm)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// jobName labels a slot the way operators refer to it.
func jobName(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err == nil && t.Hour() < 12 {
		return "Morning Watering"
	}
	return "Evening Watering"
}

// newScheduler registers one watering cycle per configured time of day in
// the configured timezone. A slot is skipped while the previous run of the
// same slot is still going.
func (app *application) newScheduler() (*cron.Cron, error) {
	loc, err := time.LoadLocation(app.config.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", app.config.ScheduleTimezone, err)
	}
	if len(app.config.ScheduleTimes) == 0 {
		return nil, errors.New("no schedule times configured")
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(app.logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	for _, hhmm := range app.config.ScheduleTimes {
		spec, err := cronSpec(hhmm)
		if err != nil {
			return nil, err
		}
		name := jobName(hhmm)
		trigger := triggerSchedulePrefix + hhmm
		if _, err := c.AddFunc(spec, func() { app.scheduledCycle(name, trigger) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", hhmm, err)
		}
		app.logger.Info("scheduled watering", "name", name, "at", hhmm, "timezone", loc.String())
	}
	return c, nil
}

func (app *application) scheduledCycle(name, trigger string) {
	app.logger.Info("running scheduled watering", "name", name)
	res, err := app.runCycle(trigger)
	if err != nil {
		app.logger.Error("scheduled watering failed", "name", name, "error", err)
		return
	}
	app.logger.Info("scheduled watering done", "name", name,
		"duration_ms", res.Decision.DurationMS, "status", res.Decision.Status, "command_sent", res.CommandSent)
}
