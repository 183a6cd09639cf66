// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Schema holds every storefront table.
const Schema = "storefront"

const DefaultNotificationsTopic = "order.notifications"

type Telemetry struct {
	Enabled      bool
	OTLPEndpoint string
}

type Sweep struct {
	PendingUsers   time.Duration
	PasswordResets time.Duration
	RefreshTokens  time.Duration
}

type Orders struct {
	Port               string
	PostgresURL        string
	KafkaBrokers       []string
	NotificationsTopic string
	Sweep              Sweep
	Telemetry          Telemetry
}

type Notifier struct {
	KafkaBrokers       []string
	NotificationsTopic string
	GroupID            string
	EmailServiceURL    string
	Telemetry          Telemetry
}

type Gateway struct {
	Port             string
	OrdersServiceURL string
	Telemetry        Telemetry
}

type Email struct {
	Port string
}

type Migrate struct {
	PostgresURL    string
	MigrationsPath string
}

type env func(string) string

func (e env) get(key, fallback string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

func (e env) require(key string, errs *[]error) string {
	v := strings.TrimSpace(e(key))
	if v == "" {
		*errs = append(*errs, fmt.Errorf("%s environment variable is required", key))
	}
	return v
}

func (e env) duration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive duration, got %q", key, v))
		return fallback
	}
	return d
}

func (e env) boolean(key string, fallback bool, errs *[]error) bool {
	v := strings.TrimSpace(e(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return fallback
	}
	return b
}

func (e env) telemetry(errs *[]error) Telemetry {
	return Telemetry{
		Enabled:      e.boolean("OTEL_ENABLED", true, errs),
		OTLPEndpoint: e.get("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// SplitBrokers parses a comma separated broker list, dropping blanks.
func SplitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func LoadOrders() (Orders, error) {
	return loadOrders(os.Getenv)
}

func loadOrders(e env) (Orders, error) {
	var errs []error
	cfg := Orders{
		Port:               e.get("PORT", "8081"),
		PostgresURL:        e.require("POSTGRES_URL", &errs),
		KafkaBrokers:       SplitBrokers(e("KAFKA_BROKERS")),
		NotificationsTopic: e.get("NOTIFICATIONS_TOPIC", DefaultNotificationsTopic),
		Sweep: Sweep{
			PendingUsers:   e.duration("SWEEP_PENDING_USERS_INTERVAL", time.Hour, &errs),
			PasswordResets: e.duration("SWEEP_PASSWORD_RESETS_INTERVAL", 15*time.Minute, &errs),
			RefreshTokens:  e.duration("SWEEP_REFRESH_TOKENS_INTERVAL", time.Hour, &errs),
		},
		Telemetry: e.telemetry(&errs),
	}
	return cfg, errors.Join(errs...)
}

func LoadNotifier() (Notifier, error) {
	return loadNotifier(os.Getenv)
}

func loadNotifier(e env) (Notifier, error) {
	var errs []error
	cfg := Notifier{
		KafkaBrokers:       SplitBrokers(e.require("KAFKA_BROKERS", &errs)),
		NotificationsTopic: e.get("NOTIFICATIONS_TOPIC", DefaultNotificationsTopic),
		GroupID:            e.get("NOTIFIER_GROUP_ID", "order-notifier"),
		EmailServiceURL:    e.require("EMAIL_SERVICE_URL", &errs),
		Telemetry:          e.telemetry(&errs),
	}
	return cfg, errors.Join(errs...)
}

func LoadGateway() (Gateway, error) {
	return loadGateway(os.Getenv)
}

func loadGateway(e env) (Gateway, error) {
	var errs []error
	cfg := Gateway{
		Port:             e.get("PORT", "8080"),
		OrdersServiceURL: e.require("ORDERS_SERVICE_URL", &errs),
		Telemetry:        e.telemetry(&errs),
	}
	return cfg, errors.Join(errs...)
}

func LoadEmail() Email {
	return Email{Port: env(os.Getenv).get("PORT", "8084")}
}

func LoadMigrate() (Migrate, error) {
	return loadMigrate(os.Getenv)
}

func loadMigrate(e env) (Migrate, error) {
	var errs []error
	cfg := Migrate{
		PostgresURL:    e.require("POSTGRES_URL", &errs),
		MigrationsPath: e.get("MIGRATIONS_PATH", "file://migrations"),
	}
	return cfg, errors.Join(errs...)
}

// WithSearchPath returns dsn with search_path set on every connection it
// opens. Both URL and key=value DSNs are accepted.
func WithSearchPath(dsn, schema string) (string, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse postgres url: %w", err)
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return strings.TrimSpace(dsn + " search_path=" + schema), nil
}
