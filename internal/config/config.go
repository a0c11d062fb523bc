// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envAppEnv            = "APP_ENV"
	envLogLevel          = "LOG_LEVEL"
	envLogFormat         = "LOG_FORMAT"
	envHTTPAddr          = "HTTP_ADDR"
	envRunLocal          = "RUN_LOCAL"
	envStoreURL          = "STORE_URL"
	envMongoURL          = "MONGODB_URL"
	envMaxPageLimit      = "MAX_PAGE_LIMIT"
	envLookupConcurrency = "LOOKUP_CONCURRENCY"
	envRequestTimeout    = "REQUEST_TIMEOUT"
	envShutdownTimeout   = "SHUTDOWN_TIMEOUT"
	envOrdersQueueURL    = "ORDERS_QUEUE_URL"
	envMetricsNamespace  = "METRICS_NAMESPACE"
)

// ErrNoStoreURL is returned when neither STORE_URL nor MONGODB_URL is set.
var ErrNoStoreURL = errors.New("STORE_URL (or MONGODB_URL) must be set")

// Config is the process configuration shared by the api and worker commands.
type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	HTTPAddr        string
	RunLocal        bool
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StoreURL          string
	MaxPageLimit      int
	LookupConcurrency int

	OrdersQueueURL   string
	MetricsNamespace string
}

// Default returns the configuration used when nothing is overridden.
// StoreURL has no default.
func Default() Config {
	return Config{
		AppEnv:            "dev",
		LogLevel:          "info",
		LogFormat:         "json",
		HTTPAddr:          ":8080",
		RequestTimeout:    10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		MaxPageLimit:      100,
		LookupConcurrency: 8,
		MetricsNamespace:  "CatalogOrders",
	}
}

// Lookup matches os.LookupEnv.
type Lookup func(key string) (string, bool)

// Load reads the process environment. See FromEnv.
func Load() (Config, []string, error) {
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup. Malformed optional values keep their
// default and are reported as warnings; a missing store url is an error.
func FromEnv(lookup Lookup) (Config, []string, error) {
	cfg := Default()
	var warnings []string

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, value, err))
	}

	if v, ok := get(envAppEnv); ok {
		cfg.AppEnv = v
	}
	if v, ok := get(envLogLevel); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get(envLogFormat); ok {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := get(envHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := get(envRunLocal); ok {
		b, err := parseBool(v)
		if err != nil {
			warn(envRunLocal, v, err)
		} else {
			cfg.RunLocal = b
		}
	}
	if v, ok := get(envRequestTimeout); ok {
		d, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warn(envRequestTimeout, v, err)
		} else {
			cfg.RequestTimeout = d
		}
	}
	if v, ok := get(envShutdownTimeout); ok {
		d, err := parseDuration(v, func(d time.Duration) bool { return d >= 0 }, "must be >= 0")
		if err != nil {
			warn(envShutdownTimeout, v, err)
		} else {
			cfg.ShutdownTimeout = d
		}
	}
	if v, ok := get(envMaxPageLimit); ok {
		n, err := parseInt(v, func(n int) bool { return n >= 0 }, "must be >= 0")
		if err != nil {
			warn(envMaxPageLimit, v, err)
		} else {
			cfg.MaxPageLimit = n
		}
	}
	if v, ok := get(envLookupConcurrency); ok {
		n, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warn(envLookupConcurrency, v, err)
		} else {
			cfg.LookupConcurrency = n
		}
	}
	if v, ok := get(envOrdersQueueURL); ok {
		cfg.OrdersQueueURL = v
	}
	if v, ok := get(envMetricsNamespace); ok {
		cfg.MetricsNamespace = v
	}

	if v, ok := get(envStoreURL); ok {
		cfg.StoreURL = v
	} else if v, ok := get(envMongoURL); ok {
		cfg.StoreURL = v
	}
	if cfg.StoreURL == "" {
		return cfg, warnings, ErrNoStoreURL
	}
	return cfg, warnings, nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int: %w", err)
	}
	if !valid(n) {
		return 0, errors.New(rule)
	}
	return n, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	if !valid(d) {
		return 0, errors.New(rule)
	}
	return d, nil
}
