package config

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		cfg, err := LoadFrom(envFrom(nil))
		if err != nil {
			t.Fatalf("load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Location != time.UTC {
			t.Fatalf("expected UTC location, got %v", cfg.Location)
		}
		if cfg.ConflictCacheTTL != 30*time.Second {
			t.Fatalf("expected default cache TTL 30s, got %s", cfg.ConflictCacheTTL)
		}
		if cfg.WaitlistSweep != "" || cfg.SeedFile != "" {
			t.Fatalf("expected sweep and seed to be disabled, got %#v", cfg)
		}
		if cfg.LogLevel != "info" {
			t.Fatalf("expected info log level, got %q", cfg.LogLevel)
		}
	})

	t.Run("parses overrides", func(t *testing.T) {
		cfg, err := LoadFrom(envFrom(map[string]string{
			"TEMPLE_HTTP_PORT":          "9090",
			"TEMPLE_TIMEZONE":           "Asia/Tokyo",
			"TEMPLE_SEED_FILE":          " seed.yaml ",
			"TEMPLE_WAITLIST_SWEEP":     "*/5 * * * *",
			"TEMPLE_CONFLICT_CACHE_TTL": "2m",
			"TEMPLE_LOG_LEVEL":          "DEBUG",
		}))
		if err != nil {
			t.Fatalf("load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.Addr() != ":9090" {
			t.Fatalf("unexpected port: %d", cfg.HTTPPort)
		}
		if cfg.Location.String() != "Asia/Tokyo" {
			t.Fatalf("unexpected location: %v", cfg.Location)
		}
		if cfg.SeedFile != "seed.yaml" {
			t.Fatalf("unexpected seed file: %q", cfg.SeedFile)
		}
		if cfg.WaitlistSweep != "*/5 * * * *" {
			t.Fatalf("unexpected sweep spec: %q", cfg.WaitlistSweep)
		}
		if cfg.ConflictCacheTTL != 2*time.Minute {
			t.Fatalf("unexpected TTL: %s", cfg.ConflictCacheTTL)
		}
		if cfg.LogLevel != "debug" {
			t.Fatalf("unexpected level: %q", cfg.LogLevel)
		}
	})

	t.Run("reports every invalid value together", func(t *testing.T) {
		_, err := LoadFrom(envFrom(map[string]string{
			"TEMPLE_HTTP_PORT":          "abc",
			"TEMPLE_TIMEZONE":           "Mars/Olympus",
			"TEMPLE_WAITLIST_SWEEP":     "every now and then",
			"TEMPLE_CONFLICT_CACHE_TTL": "-1s",
			"TEMPLE_LOG_LEVEL":          "loud",
		}))
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "invalid environment variables: TEMPLE_HTTP_PORT, TEMPLE_TIMEZONE, TEMPLE_WAITLIST_SWEEP, TEMPLE_CONFLICT_CACHE_TTL, TEMPLE_LOG_LEVEL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("validate rejects out of range overrides", func(t *testing.T) {
		cfg := Default()
		cfg.HTTPPort = 70000
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected validation error for port 70000")
		}

		cfg = Default()
		cfg.Location = nil
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected validation error for missing location")
		}
	})

	t.Run("Load reads the process environment", func(t *testing.T) {
		t.Setenv("TEMPLE_HTTP_PORT", "8181")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 8181 {
			t.Fatalf("expected port 8181, got %d", cfg.HTTPPort)
		}
	})
}
