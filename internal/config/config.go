// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Configuration Management:
// Go projects typically manage configuration in one of these ways:
//  1. Struct literals with defaults
//  2. Environment variables via os.Getenv()
//  3. Config files (YAML/TOML)
//  4. Command-line flags via the standard "flag" package
//
// This package combines 1 and 2: NewDefaultConfig gives a runnable
// configuration and Load overlays whatever the environment sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config is the top-level configuration container.
//
// Go Learning Note — Struct Composition:
// Go doesn't have classes or inheritance. Instead, you compose structs by
// nesting them. Config "has a" ServerConfig, StoreConfig, etc.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Dispatch DispatchConfig
	Pricing  PricingConfig
	Events   EventsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
//
// Go Learning Note — time.Duration:
// Go uses time.Duration (an int64 of nanoseconds) instead of raw integers for
// timeouts. Environment values are parsed with time.ParseDuration ("10s",
// "500ms").
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	GinMode         string
}

// StoreConfig selects the entity store. PostgresDSN is required when Driver is
// "postgres".
type StoreConfig struct {
	Driver      string
	PostgresDSN string
}

// DispatchConfig controls driver reservation during dispatch. With
// ReserveDrivers off the dispatcher is a best-effort least-load heuristic.
// RedisAddr switches the reservation lock from in-process to Redis.
type DispatchConfig struct {
	ReserveDrivers bool
	ReservationTTL time.Duration
	RedisAddr      string
	RedisPassword  string
}

// PricingConfig defines the surge fare parameters.
// Fare = floor(BaseFare × (1 + active/SurgeDivisor))
type PricingConfig struct {
	BaseFare     int64
	SurgeDivisor int64
}

// EventsConfig enables the Kafka trip event sink when Brokers is non-empty.
type EventsConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

type LogConfig struct {
	Level  string
	Format string
}

// NewDefaultConfig returns a Config populated with defaults that run the whole
// service in one process with no external dependencies.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			GinMode:         "release",
		},
		Store: StoreConfig{
			Driver: StoreMemory,
		},
		Dispatch: DispatchConfig{
			ReserveDrivers: true,
			ReservationTTL: 5 * time.Second,
		},
		Pricing: PricingConfig{
			BaseFare:     1000,
			SurgeDivisor: 10,
		},
		Events: EventsConfig{
			KafkaTopic: "trip-events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load starts from NewDefaultConfig and applies environment overrides. All
// invalid values are reported together in one joined error.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := NewDefaultConfig()
	env := envReader{getenv: getenv}

	env.str(&cfg.Server.Addr, "HTTP_ADDR")
	env.duration(&cfg.Server.ReadTimeout, "HTTP_READ_TIMEOUT")
	env.duration(&cfg.Server.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	env.duration(&cfg.Server.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT")
	env.str(&cfg.Server.GinMode, "GIN_MODE")

	env.str(&cfg.Store.Driver, "STORE_DRIVER")
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	env.str(&cfg.Store.PostgresDSN, "PG_DSN")

	env.boolean(&cfg.Dispatch.ReserveDrivers, "DISPATCH_RESERVE_DRIVERS")
	env.duration(&cfg.Dispatch.ReservationTTL, "DISPATCH_RESERVATION_TTL")
	env.str(&cfg.Dispatch.RedisAddr, "REDIS_ADDR")
	cfg.Dispatch.RedisPassword = getenv("REDIS_PASSWORD")

	env.int64(&cfg.Pricing.BaseFare, "PRICING_BASE_FARE")
	env.int64(&cfg.Pricing.SurgeDivisor, "PRICING_SURGE_DIVISOR")

	if brokers := getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Events.KafkaBrokers = splitAndTrim(brokers)
	}
	env.str(&cfg.Events.KafkaTopic, "KAFKA_TOPIC")

	env.str(&cfg.Log.Level, "LOG_LEVEL")
	env.str(&cfg.Log.Format, "LOG_FORMAT")

	errs := env.errs
	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required when STORE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store.Driver))
	}
	if c.Dispatch.ReservationTTL <= 0 {
		errs = append(errs, errors.New("DISPATCH_RESERVATION_TTL must be > 0"))
	}
	if c.Pricing.BaseFare <= 0 {
		errs = append(errs, errors.New("PRICING_BASE_FARE must be > 0"))
	}
	if c.Pricing.SurgeDivisor <= 0 {
		errs = append(errs, errors.New("PRICING_SURGE_DIVISOR must be > 0"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_SHUTDOWN_TIMEOUT must be > 0"))
	}
	return errs
}

// envReader collects parse failures instead of stopping at the first one.
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) str(target *string, key string) {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		*target = v
	}
}

func (e *envReader) duration(target *time.Duration, key string) {
	if v := e.getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func (e *envReader) int64(target *int64, key string) {
	if v := e.getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func (e *envReader) boolean(target *bool, key string) {
	if v := e.getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
