package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults when nothing is set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTP.Addr != ":8080" {
			t.Fatalf("expected default addr :8080, got %q", cfg.HTTP.Addr)
		}
		if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "file:reservations.db" {
			t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
		}
		if cfg.Lockout.Duration != 5*time.Minute || cfg.Lockout.Threshold != 3 {
			t.Fatalf("unexpected lockout defaults: %+v", cfg.Lockout)
		}
		if !cfg.Metrics.Enabled {
			t.Fatal("expected metrics enabled by default")
		}
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("RESERVATIONS_HTTP_ADDR", "127.0.0.1:9090")
		t.Setenv("RESERVATIONS_STORAGE_DRIVER", "postgres")
		t.Setenv("RESERVATIONS_STORAGE_DSN", "postgres://localhost/reservations")
		t.Setenv("RESERVATIONS_STORAGE_SERIALIZE_CREATES", "true")
		t.Setenv("RESERVATIONS_LOCKOUT_DURATION", "10m")
		t.Setenv("RESERVATIONS_RECURRENCE_MAX_OCCURRENCES", "12")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTP.Addr != "127.0.0.1:9090" {
			t.Fatalf("expected overridden addr, got %q", cfg.HTTP.Addr)
		}
		if !cfg.Storage.SerializeCreates {
			t.Fatal("expected serialize_creates from environment")
		}
		if cfg.Lockout.Duration != 10*time.Minute {
			t.Fatalf("expected 10m lockout, got %s", cfg.Lockout.Duration)
		}
		if cfg.Recurrence.MaxOccurrences != 12 {
			t.Fatalf("expected 12 occurrences, got %d", cfg.Recurrence.MaxOccurrences)
		}
	})

	t.Run("reads an explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reservations.toml")
		content := "[facility]\nopen = \"08:00\"\nclose = \"18:00\"\nslot_minutes = 15\n\n[log]\nformat = \"text\"\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.Facility.Open != "08:00" || cfg.Facility.SlotMinutes != 15 || cfg.Log.Format != "text" {
			t.Fatalf("file values not applied: %+v %+v", cfg.Facility, cfg.Log)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		t.Setenv("RESERVATIONS_STORAGE_DRIVER", "mysql")
		t.Setenv("RESERVATIONS_FACILITY_OPEN", "nine")
		t.Setenv("RESERVATIONS_LOCKOUT_THRESHOLD", "0")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, key := range []string{"storage.driver", "facility.open", "lockout.threshold"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})
}

func TestConfigPolicy(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	p, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy returned error: %v", err)
	}
	if p.Location.String() != "America/Chicago" {
		t.Fatalf("unexpected location %s", p.Location)
	}
	if p.Open != 9*time.Hour || p.Close != 20*time.Hour || p.Slot != 30*time.Minute {
		t.Fatalf("unexpected hours: %+v", p)
	}
	if p.MaxOccurrences != 60 || p.MaxSpanDays != 730 {
		t.Fatalf("unexpected recurrence caps: %+v", p)
	}

	cfg.Facility.SlotMinutes = 7
	if _, err := cfg.Policy(); err == nil {
		t.Fatal("expected error for a slot that does not divide the hours")
	}
}
