package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"furitingoasis/irrigation/fuzzy"
	"furitingoasis/irrigation/website/internal/models/mocks"
)

func TestPing(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, header, body := ts.get(t, "/ping")
	if code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, code)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body OK, got %q", body)
	}
	if got := header.Get("X-Frame-Options"); got != "deny" {
		t.Errorf("Expected X-Frame-Options deny, got %q", got)
	}
}

func TestLatest(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.get(t, "/api/latest")
	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, code, body)
	}

	var resp struct {
		SensorData struct {
			SoilMoisture int     `json:"soil_moisture"`
			Humidity     float64 `json:"humidity"`
		} `json:"sensor_data"`
		Recommendation fuzzy.Decision `json:"watering_recommendation"`
		PumpCommand    string         `json:"pump_command"`
	}
	decodeJSON(t, body, &resp)

	if resp.SensorData.SoilMoisture != 30 {
		t.Errorf("Expected soil 30, got %d", resp.SensorData.SoilMoisture)
	}
	if d := resp.Recommendation.DurationMS; d < 103110 || d > 103112 {
		t.Errorf("Expected about 103111 ms, got %d", d)
	}
	if resp.Recommendation.Status != fuzzy.StatusLong {
		t.Errorf("Unexpected status %q", resp.Recommendation.Status)
	}
	if resp.PumpCommand != "ON" {
		t.Errorf("Expected pump_command ON, got %q", resp.PumpCommand)
	}

	if sent := app.publisher.(*fakePublisher).Sent(); len(sent) != 0 {
		t.Errorf("GET /api/latest must not command the pump, sent %v", sent)
	}
}

func TestLatestNoData(t *testing.T) {
	app := newTestApplication(t)
	app.readings = &mocks.SensorReadingModel{Empty: true}
	ts := newTestServer(t, app.routes())

	code, _, body := ts.get(t, "/api/latest")
	if code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, code)
	}
	if !strings.Contains(string(body), errNoSensorData.Error()) {
		t.Errorf("Unexpected body %s", body)
	}
}

func TestEvaluate(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantMS   int
	}{
		{"wet soil", "soil=100&humidity=50&temperature=25", http.StatusOK, 0},
		{"short", "soil=55&humidity=50&temperature=20", http.StatusOK, 40000},
		{"out of range", "soil=101&humidity=50&temperature=25", http.StatusUnprocessableEntity, 0},
		{"no rule fires", "soil=35&humidity=50&temperature=20", http.StatusUnprocessableEntity, 0},
		{"missing input", "soil=50&humidity=50", http.StatusBadRequest, 0},
		{"not a number", "soil=wet&humidity=50&temperature=25", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := ts.get(t, "/api/evaluate?"+tt.query)
			if code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantCode, code, body)
			}
			if code != http.StatusOK {
				return
			}
			var ev fuzzy.Evaluation
			decodeJSON(t, body, &ev)
			if d := ev.Decision.DurationMS - tt.wantMS; d < -1 || d > 1 {
				t.Errorf("Expected about %d ms, got %d", tt.wantMS, ev.Decision.DurationMS)
			}
			if len(ev.Rules) != len(fuzzy.DefaultRules()) {
				t.Errorf("Expected %d rule strengths, got %d", len(fuzzy.DefaultRules()), len(ev.Rules))
			}
		})
	}
}

func TestRecentReadingsLimit(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	tests := []struct {
		query    string
		wantCode int
	}{
		{"", http.StatusOK},
		{"?limit=5", http.StatusOK},
		{"?limit=10000", http.StatusOK},
		{"?limit=0", http.StatusBadRequest},
		{"?limit=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		code, _, body := ts.get(t, "/api/readings"+tt.query)
		if code != tt.wantCode {
			t.Errorf("%q: expected status %d, got %d: %s", tt.query, tt.wantCode, code, body)
		}
	}
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := ts.csrfToken(t)

	code, _ := ts.postJSON(t, "/api/water/activate", token, `{"duration": 1000}`)
	if code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, code)
	}
	if sent := app.publisher.(*fakePublisher).Sent(); len(sent) != 0 {
		t.Errorf("Unexpected pump command %v", sent)
	}
}

func TestCSRFRequired(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	ts.login(t)

	code, _ := ts.postJSON(t, "/api/water/activate", "wrongToken", `{"duration": 1000}`)
	if code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, code)
	}
}

func TestUserLoginPost(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	token := ts.csrfToken(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantCode int
	}{
		{"valid", "alice@example.com", "pa$$word", http.StatusOK},
		{"wrong password", "alice@example.com", "nope", http.StatusUnprocessableEntity},
		{"blank email", "", "pa$$word", http.StatusUnprocessableEntity},
		{"bad email", "alice", "pa$$word", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			form.Add("email", tt.email)
			form.Add("password", tt.password)
			form.Add("csrf_token", token)

			code, _, body := ts.postForm(t, "/user/login", form)
			if code != tt.wantCode {
				t.Errorf("Expected status %d, got %d: %s", tt.wantCode, code, body)
			}
		})
	}
}

func TestWaterActivate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantSent string
	}{
		{"explicit duration", `{"duration": 45000}`, http.StatusOK, "esp32/watering_control ON,45000"},
		{"default duration", `{}`, http.StatusOK, "esp32/watering_control ON,30000"},
		{"zero", `{"duration": 0}`, http.StatusBadRequest, ""},
		{"negative", `{"duration": -10}`, http.StatusBadRequest, ""},
		{"too long", `{"duration": 120001}`, http.StatusBadRequest, ""},
		{"numeric string", `{"duration": "45000"}`, http.StatusOK, "esp32/watering_control ON,45000"},
		{"fractional", `{"duration": 1500.9}`, http.StatusOK, "esp32/watering_control ON,1500"},
		{"extra keys", `{"duration": 2000, "note": "bed 3"}`, http.StatusOK, "esp32/watering_control ON,2000"},
		{"null duration", `{"duration": null}`, http.StatusOK, "esp32/watering_control ON,30000"},
		{"bad string", `{"duration": "long"}`, http.StatusBadRequest, ""},
		{"bool", `{"duration": true}`, http.StatusBadRequest, ""},
		{"malformed", `{"duration": `, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t)
			ts := newTestServer(t, app.routes())
			token := ts.login(t)

			code, body := ts.postJSON(t, "/api/water/activate", token, tt.body)
			if code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantCode, code, body)
			}

			sent := app.publisher.(*fakePublisher).Sent()
			if tt.wantSent == "" {
				if len(sent) != 0 {
					t.Errorf("Unexpected pump command %v", sent)
				}
				return
			}
			if len(sent) != 1 || sent[0] != tt.wantSent {
				t.Errorf("Expected %q, got %v", tt.wantSent, sent)
			}
		})
	}
}

func TestWaterActivateForm(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	token := ts.login(t)

	form := url.Values{}
	form.Add("duration", "5000")
	form.Add("csrf_token", token)
	code, _, body := ts.postForm(t, "/api/water/activate", form)
	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, code, body)
	}

	events, _ := app.watering.Recent(1)
	if len(events) != 1 || events[0].Trigger != triggerManual || events[0].Status != fuzzy.StatusVeryShort {
		t.Errorf("Unexpected watering log %+v", events)
	}
}

func TestWaterActivateBrokerDown(t *testing.T) {
	app := newTestApplication(t)
	app.publisher = &fakePublisher{err: errors.New("broker gone")}
	ts := newTestServer(t, app.routes())
	token := ts.login(t)

	code, _ := ts.postJSON(t, "/api/water/activate", token, `{"duration": 1000}`)
	if code != http.StatusBadGateway {
		t.Errorf("Expected status %d, got %d", http.StatusBadGateway, code)
	}

	events, _ := app.watering.Recent(1)
	if len(events) != 1 || events[0].CommandSent || events[0].Error == "" {
		t.Errorf("Expected failed command to be logged, got %+v", events)
	}
}

func TestWaterRun(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	token := ts.login(t)

	code, body := ts.postJSON(t, "/api/water/run", token, "")
	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, code, body)
	}

	var res cycleResult
	decodeJSON(t, body, &res)
	if !res.CommandSent || res.PumpCommand != "ON" || res.Trigger != triggerAPI {
		t.Errorf("Unexpected result %+v", res)
	}

	sent := app.publisher.(*fakePublisher).Sent()
	if len(sent) != 1 || !strings.HasPrefix(sent[0], "esp32/watering_control ON,1031") {
		t.Errorf("Unexpected pump commands %v", sent)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	ts.get(t, "/api/latest")
	code, _, body := ts.get(t, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, code)
	}
	if !strings.Contains(string(body), `irrigation_decisions_total{status="Long watering (very dry soil)"} 1`) {
		t.Errorf("Decision counter missing from metrics output")
	}
}
