// Package config loads process configuration from defaults, an optional
// config file and RESERVATIONS_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/facility-reservations/internal/persistence/sqlstore"
	"github.com/example/facility-reservations/internal/policy"
)

// EnvPrefix prefixes every environment override, e.g. RESERVATIONS_HTTP_ADDR.
const EnvPrefix = "RESERVATIONS"

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// SerializeCreates takes a per-room advisory lock before create conflict
	// checks. Only PostgreSQL honours it.
	SerializeCreates bool `mapstructure:"serialize_creates"`
}

type FacilityConfig struct {
	TimeZone    string `mapstructure:"time_zone"`
	Open        string `mapstructure:"open"`
	Close       string `mapstructure:"close"`
	SlotMinutes int    `mapstructure:"slot_minutes"`
}

type RecurrenceConfig struct {
	MaxOccurrences int `mapstructure:"max_occurrences"`
	MaxSpanDays    int `mapstructure:"max_span_days"`
}

type LockoutConfig struct {
	Threshold int           `mapstructure:"threshold"`
	Duration  time.Duration `mapstructure:"duration"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config captures every tunable of the reservation service.
type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Facility   FacilityConfig   `mapstructure:"facility"`
	Recurrence RecurrenceConfig `mapstructure:"recurrence"`
	Lockout    LockoutConfig    `mapstructure:"lockout"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Defaults lists the value used for every key when neither a file nor the
// environment sets it.
func Defaults() map[string]any {
	return map[string]any{
		"http.addr":                  ":8080",
		"log.level":                  "info",
		"log.format":                 "json",
		"storage.driver":             "sqlite",
		"storage.dsn":                "file:reservations.db",
		"storage.serialize_creates":  false,
		"facility.time_zone":         policy.DefaultTimeZone,
		"facility.open":              "09:00",
		"facility.close":             "20:00",
		"facility.slot_minutes":      30,
		"recurrence.max_occurrences": 60,
		"recurrence.max_span_days":   730,
		"lockout.threshold":          3,
		"lockout.duration":           "5m",
		"metrics.enabled":            true,
	}
}

// Load builds the configuration. When files is empty a reservations.{yaml,toml,json}
// in the working directory is read if present; an explicit file must exist.
func Load(files ...string) (Config, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(files) > 0 && strings.TrimSpace(files[0]) != "" {
		v.SetConfigFile(files[0])
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", files[0], err)
		}
	} else {
		v.SetConfigName("reservations")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	invalid := make([]string, 0, 4)

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		invalid = append(invalid, "http.addr")
	}
	if _, err := sqlstore.ParseDialect(c.Storage.Driver); err != nil {
		invalid = append(invalid, "storage.driver")
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		invalid = append(invalid, "storage.dsn")
	}
	if _, err := time.LoadLocation(c.Facility.TimeZone); err != nil || c.Facility.TimeZone == "" {
		invalid = append(invalid, "facility.time_zone")
	}
	if _, err := policy.ParseClock(c.Facility.Open); err != nil {
		invalid = append(invalid, "facility.open")
	}
	if _, err := policy.ParseClock(c.Facility.Close); err != nil {
		invalid = append(invalid, "facility.close")
	}
	if c.Facility.SlotMinutes <= 0 {
		invalid = append(invalid, "facility.slot_minutes")
	}
	if c.Recurrence.MaxOccurrences <= 0 {
		invalid = append(invalid, "recurrence.max_occurrences")
	}
	if c.Recurrence.MaxSpanDays <= 0 {
		invalid = append(invalid, "recurrence.max_span_days")
	}
	if c.Lockout.Threshold <= 0 {
		invalid = append(invalid, "lockout.threshold")
	}
	if c.Lockout.Duration <= 0 {
		invalid = append(invalid, "lockout.duration")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Dialect returns the storage dialect named by storage.driver.
func (c Config) Dialect() (sqlstore.Dialect, error) {
	return sqlstore.ParseDialect(c.Storage.Driver)
}

// Policy assembles the facility policy from the facility, recurrence and
// lockout sections.
func (c Config) Policy() (policy.Policy, error) {
	loc, err := time.LoadLocation(c.Facility.TimeZone)
	if err != nil {
		return policy.Policy{}, fmt.Errorf("%w: time zone %q: %v", policy.ErrInvalidPolicy, c.Facility.TimeZone, err)
	}
	open, err := policy.ParseClock(c.Facility.Open)
	if err != nil {
		return policy.Policy{}, err
	}
	closing, err := policy.ParseClock(c.Facility.Close)
	if err != nil {
		return policy.Policy{}, err
	}

	p := policy.Policy{
		Location:         loc,
		Open:             open,
		Close:            closing,
		Slot:             time.Duration(c.Facility.SlotMinutes) * time.Minute,
		MaxOccurrences:   c.Recurrence.MaxOccurrences,
		MaxSpanDays:      c.Recurrence.MaxSpanDays,
		LockoutThreshold: c.Lockout.Threshold,
		LockoutDuration:  c.Lockout.Duration,
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}
