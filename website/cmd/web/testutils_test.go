package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"furitingoasis/irrigation/config"
	"furitingoasis/irrigation/fuzzy"
	"furitingoasis/irrigation/mqtt"
	"furitingoasis/irrigation/website/internal/models/mocks"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
)

// fakePublisher records pump commands instead of sending them.
type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	err       error
	sent      []string
}

func (p *fakePublisher) Publish(topic, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if !p.connected {
		return mqtt.ErrNotConnected
	}
	p.sent = append(p.sent, topic+" "+payload)
	return nil
}

func (p *fakePublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakePublisher) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

func newTestConfig() *config.Config {
	return &config.Config{
		CookieSecure:            false,
		MQTTTopicSensor:         "esp32/sensor_data",
		MQTTTopicControl:        "esp32/watering_control",
		ScheduleTimezone:        "Asia/Jakarta",
		ScheduleTimes:           []string{"07:00", "17:00"},
		DefaultManualDurationMS: 30000,
	}
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	sessionManager := scs.New()
	sessionManager.Lifetime = 12 * time.Hour
	sessionManager.Cookie.Secure = false

	return &application{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		config:         newTestConfig(),
		engine:         fuzzy.NewEngine(),
		readings:       &mocks.SensorReadingModel{},
		watering:       &mocks.WateringModel{},
		users:          &mocks.UserModel{},
		formDecoder:    form.NewDecoder(),
		sessionManager: sessionManager,
		publisher:      &fakePublisher{connected: true},
		metrics:        newMetrics(),
		incoming:       make(chan sensorMessage, 4),
	}
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	ts.Client().Jar = jar

	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	t.Cleanup(ts.Close)
	return &testServer{ts}
}

func (ts *testServer) get(t *testing.T, urlPath string) (int, http.Header, []byte) {
	t.Helper()

	rs, err := ts.Client().Get(ts.URL + urlPath)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}
	return rs.StatusCode, rs.Header, bytes.TrimSpace(body)
}

func (ts *testServer) postForm(t *testing.T, urlPath string, form url.Values) (int, http.Header, []byte) {
	t.Helper()

	rs, err := ts.Client().PostForm(ts.URL+urlPath, form)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}
	return rs.StatusCode, rs.Header, bytes.TrimSpace(body)
}

func (ts *testServer) postJSON(t *testing.T, urlPath, csrfToken, body string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+urlPath, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", csrfToken)

	rs, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Body.Close()

	out, err := io.ReadAll(rs.Body)
	if err != nil {
		t.Fatal(err)
	}
	return rs.StatusCode, bytes.TrimSpace(out)
}

func (ts *testServer) csrfToken(t *testing.T) string {
	t.Helper()

	code, _, body := ts.get(t, "/user/csrf")
	if code != http.StatusOK {
		t.Fatalf("GET /user/csrf: status %d", code)
	}
	var resp struct {
		Token string `json:"csrf_token"`
	}
	decodeJSON(t, body, &resp)
	if resp.Token == "" {
		t.Fatal("empty CSRF token")
	}
	return resp.Token
}

// login signs in as the mock operator and returns a fresh CSRF token.
func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	token := ts.csrfToken(t)
	form := url.Values{}
	form.Add("email", "alice@example.com")
	form.Add("password", "pa$$word")
	form.Add("csrf_token", token)

	code, _, body := ts.postForm(t, "/user/login", form)
	if code != http.StatusOK {
		t.Fatalf("login failed: %d %s", code, body)
	}
	return token
}

func decodeJSON(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}
