package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"furitingoasis/irrigation/config"
	"furitingoasis/irrigation/fuzzy"
	"furitingoasis/irrigation/mqtt"
	"furitingoasis/irrigation/website/internal/models"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
)

// commandPublisher sends pump commands to the field device.
type commandPublisher interface {
	Publish(topic string, payload string) error
	IsConnected() bool
}

type application struct {
	logger         *slog.Logger
	config         *config.Config
	engine         *fuzzy.Engine
	readings       models.SensorReadingModelInterface
	watering       models.WateringModelInterface
	users          models.UserModelInterface
	formDecoder    *form.Decoder
	sessionManager *scs.SessionManager
	publisher      commandPublisher
	metrics        *metrics
	incoming       chan sensorMessage

	// cycleMu keeps two cycles from commanding the pump at once.
	cycleMu sync.Mutex
}

// OperatorConfig is the JSON file the first operator account is seeded from.
type OperatorConfig struct {
	AdminUser struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	} `json:"adminUser"`
}

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.HTTPAddr, "HTTP network address")
	dsn := flag.String("dsn", cfg.DSN, "SQLite database file path")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := ensureDir(*dsn); err != nil {
		logger.Error("failed to create instance directory", "error", err)
		os.Exit(1)
	}

	db, err := models.OpenDB(*dsn)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	if err := models.Migrate(db); err != nil {
		logger.Error("failed to create tables", "error", err)
		os.Exit(1)
	}

	users := &models.UserModel{DB: db}
	if err := seedOperator(users, cfg.OperatorConfig, logger); err != nil {
		logger.Error("error seeding operator", "error", err)
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db)
	sessionManager.Lifetime = cfg.SessionTTL
	sessionManager.Cookie.Secure = cfg.CookieSecure

	client, err := mqtt.NewClient(mqtt.MQTTConfig{
		BrokerURL:     cfg.BrokerURL(),
		ClientID:      cfg.MQTTClientID,
		Username:      cfg.MQTTUsername,
		Password:      cfg.MQTTPassword,
		QoS:           1,
		AutoReconnect: true,
		KeepAlive:     cfg.MQTTKeepAlive,
		MaxRetries:    cfg.MQTTMaxRetries,
		RetryInterval: cfg.MQTTRetryInterval,
	}, logger)
	if err != nil {
		logger.Error("mqtt unavailable", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	app := &application{
		logger:         logger,
		config:         cfg,
		engine:         fuzzy.NewEngine(),
		readings:       &models.SensorReadingModel{DB: db},
		watering:       &models.WateringModel{DB: db},
		users:          users,
		formDecoder:    form.NewDecoder(),
		sessionManager: sessionManager,
		publisher:      client,
		metrics:        newMetrics(),
		incoming:       make(chan sensorMessage, 100),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Subscribe(cfg.MQTTTopicSensor, app.handleSensorMessage); err != nil {
		logger.Error("failed to subscribe", "topic", cfg.MQTTTopicSensor, "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.ingestLoop(ctx)
	}()

	scheduler, err := app.newScheduler()
	if err != nil {
		logger.Error("failed to build schedule", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      app.routes(),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err.Error())
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String())

	// Wait for a running watering cycle before tearing down MQTT.
	<-scheduler.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	cancel()
	wg.Wait()
	logger.Info("stopped")
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func seedOperator(users models.UserModelInterface, configPath string, logger *slog.Logger) error {
	exists, err := users.AdminExists()
	if err != nil {
		return fmt.Errorf("error checking for existing admin: %w", err)
	}
	if exists {
		logger.Info("admin user already exists, skipping seeding")
		return nil
	}

	byteValue, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg OperatorConfig
	if err := json.Unmarshal(byteValue, &cfg); err != nil {
		return err
	}
	if cfg.AdminUser.Email == "" || cfg.AdminUser.Password == "" {
		return fmt.Errorf("%s: adminUser needs an email and a password", configPath)
	}
	name := cfg.AdminUser.Username
	if name == "" {
		name = "admin"
	}

	if err := users.Insert(name, cfg.AdminUser.Email, cfg.AdminUser.Password, true); err != nil {
		return fmt.Errorf("error inserting admin user: %w", err)
	}

	logger.Info("admin user created", "email", cfg.AdminUser.Email)
	return nil
}
