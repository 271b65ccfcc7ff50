package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
)

type envelope map[string]any

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Error(err.Error(), "method", method, "uri", uri)
	app.writeJSON(w, http.StatusInternalServerError, envelope{"error": http.StatusText(http.StatusInternalServerError)})
}

func (app *application) clientError(w http.ResponseWriter, status int) {
	app.writeJSON(w, status, envelope{"error": http.StatusText(status)})
}

// errorResponse sends a client error with a specific message.
func (app *application) errorResponse(w http.ResponseWriter, status int, message any) {
	app.writeJSON(w, status, envelope{"error": message})
}

func (app *application) writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		app.logger.Error("encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
	w.Write([]byte("\n"))
}

func (app *application) decodePostForm(r *http.Request, dst any) error {
	err := r.ParseForm()
	if err != nil {
		return err
	}

	err = app.formDecoder.Decode(dst, r.PostForm)
	if err != nil {
		var invalidDecoderError *form.InvalidDecoderError
		if errors.As(err, &invalidDecoderError) {
			panic(err)
		}
		return err
	}
	return nil
}

func (app *application) isAuthenticated(r *http.Request) bool {
	isAuthenticated, ok := r.Context().Value(isAuthenticatedContextKey).(bool)
	if !ok {
		return false
	}
	return isAuthenticated
}

// queryInt reads a positive integer query parameter, falling back to def and
// capping at max.
func queryInt(r *http.Request, key string, def, max int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return min(n, max), nil
}

// queryFloat reads a required numeric query parameter.
func queryFloat(r *http.Request, key string) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// parseDurationMS accepts a JSON number or a numeric string. Fractional
// numbers are truncated toward zero.
func parseDurationMS(v any) (int, error) {
	errBad := errors.New("Duration must be a whole number of milliseconds")

	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil || math.Abs(f) > math.MaxInt32 {
			return 0, errBad
		}
		return int(f), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errBad
		}
		return n, nil
	default:
		return 0, errBad
	}
}
