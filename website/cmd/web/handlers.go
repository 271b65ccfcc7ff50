package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"furitingoasis/irrigation/fuzzy"
	"furitingoasis/irrigation/website/internal/models"
	"furitingoasis/irrigation/website/internal/validator"

	"github.com/justinas/nosurf"
)

func ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, envelope{
		"service":        "fuzzy irrigation controller",
		"schedule":       app.config.ScheduleTimes,
		"timezone":       app.config.ScheduleTimezone,
		"mqtt_connected": app.publisher.IsConnected(),
		"authenticated":  app.isAuthenticated(r),
	})
}

// latest evaluates the newest reading. It never sends a pump command.
func (app *application) latest(w http.ResponseWriter, r *http.Request) {
	reading, decision, err := app.recommend()
	if err != nil {
		switch {
		case errors.Is(err, errNoSensorData):
			app.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, fuzzy.ErrInvalidInput):
			app.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			app.serverError(w, r, err)
		}
		return
	}

	pump := "OFF"
	if decision.PumpOn() {
		pump = "ON"
	}
	app.writeJSON(w, http.StatusOK, envelope{
		"sensor_data":             reading,
		"watering_recommendation": decision,
		"pump_command":            pump,
	})
}

func (app *application) recentReadings(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10, 500)
	if err != nil {
		app.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := app.readings.Recent(limit)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if readings == nil {
		readings = []models.SensorReading{}
	}
	app.writeJSON(w, http.StatusOK, envelope{"readings": readings})
}

// evaluate runs the engine on caller-supplied inputs and returns the rule
// trace. Nothing is stored or sent.
func (app *application) evaluate(w http.ResponseWriter, r *http.Request) {
	var v validator.Validator
	inputs := make(map[string]float64, 3)
	for _, key := range []string{"soil", "humidity", "temperature"} {
		value, err := queryFloat(r, key)
		if err != nil {
			v.AddFieldError(key, err.Error())
			continue
		}
		inputs[key] = value
	}
	if !v.Valid() {
		app.errorResponse(w, http.StatusBadRequest, v.FieldErrors)
		return
	}

	ev, err := app.engine.Evaluate(inputs["soil"], inputs["humidity"], inputs["temperature"])
	if err != nil {
		if errors.Is(err, fuzzy.ErrInvalidInput) {
			app.metrics.evaluationErrors.Inc()
			app.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, ev)
}

func (app *application) wateringLog(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20, 500)
	if err != nil {
		app.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := app.watering.Recent(limit)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if events == nil {
		events = []models.WateringEvent{}
	}
	app.writeJSON(w, http.StatusOK, envelope{"events": events})
}

func (app *application) waterRun(w http.ResponseWriter, r *http.Request) {
	res, err := app.runCycle(triggerAPI)
	if err != nil {
		switch {
		case errors.Is(err, errNoSensorData):
			app.errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, fuzzy.ErrInvalidInput):
			app.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			app.logger.Error("watering cycle failed", "error", err)
			app.writeJSON(w, http.StatusBadGateway, envelope{"error": err.Error(), "result": res})
		}
		return
	}
	app.writeJSON(w, http.StatusOK, res)
}

type waterActivateForm struct {
	Duration            *int `form:"duration" json:"duration"`
	validator.Validator `form:"-" json:"-"`
}

// waterActivate runs the pump for an operator-chosen duration. The body is
// either a form or JSON, {"duration": 45000} or {"duration": "45000"}. Other
// JSON keys are ignored.
func (app *application) waterActivate(w http.ResponseWriter, r *http.Request) {
	var input waterActivateForm

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Duration any `json:"duration"`
		}
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			app.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("body contains badly-formed JSON: %v", err))
			return
		}
		if body.Duration != nil {
			d, err := parseDurationMS(body.Duration)
			if err != nil {
				input.AddFieldError("duration", err.Error())
				app.errorResponse(w, http.StatusBadRequest, input.FieldErrors)
				return
			}
			input.Duration = &d
		}
	} else if err := app.decodePostForm(r, &input); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	duration := app.config.DefaultManualDurationMS
	if input.Duration != nil {
		duration = *input.Duration
	}

	input.CheckField(duration > 0, "duration", "Duration must be positive")
	input.CheckField(duration <= fuzzy.MaxDurationMS, "duration",
		fmt.Sprintf("Duration must be at most %d ms", fuzzy.MaxDurationMS))
	if !input.Valid() {
		app.errorResponse(w, http.StatusBadRequest, input.FieldErrors)
		return
	}

	event, err := app.activatePump(duration)
	if err != nil {
		app.writeJSON(w, http.StatusBadGateway, envelope{"error": err.Error()})
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{
		"status":  "success",
		"message": fmt.Sprintf("Watering command sent to device for %dms", event.DurationMS),
	})
}

func (app *application) csrfToken(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, envelope{"csrf_token": nosurf.Token(r)})
}

type userLoginForm struct {
	Email               string `form:"email"`
	Password            string `form:"password"`
	validator.Validator `form:"-"`
}

func (app *application) userLoginPost(w http.ResponseWriter, r *http.Request) {
	var form userLoginForm
	err := app.decodePostForm(r, &form)
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.CheckField(validator.NotBlank(form.Email), "email", "This field cannot be blank")
	form.CheckField(validator.Matches(form.Email, validator.EmailRX), "email", "This field must be a valid email address")
	form.CheckField(validator.NotBlank(form.Password), "password", "This field cannot be blank")
	if !form.Valid() {
		app.writeJSON(w, http.StatusUnprocessableEntity, envelope{"error": form.Validator})
		return
	}

	id, err := app.users.Authenticate(form.Email, form.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			form.AddNonFieldError("Email or password is incorrect")
			app.writeJSON(w, http.StatusUnprocessableEntity, envelope{"error": form.Validator})
		} else {
			app.serverError(w, r, err)
		}
		return
	}

	err = app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), "authenticatedUserID", id)
	app.writeJSON(w, http.StatusOK, envelope{"user_id": id})
}

func (app *application) userLogoutPost(w http.ResponseWriter, r *http.Request) {
	err := app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Remove(r.Context(), "authenticatedUserID")
	app.writeJSON(w, http.StatusOK, envelope{"message": "You've been logged out successfully!"})
}
