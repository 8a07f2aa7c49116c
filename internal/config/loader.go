package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/example/temple-engagements/internal/logging"
)

// Config captures environment driven configuration values for the engagement service.
type Config struct {
	HTTPPort         int            `validate:"min=1,max=65535"`
	Location         *time.Location `validate:"required"`
	SeedFile         string
	WaitlistSweep    string
	ConflictCacheTTL time.Duration `validate:"min=0"`
	LogLevel         string        `validate:"oneof=debug info warn warning error"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		HTTPPort:         8080,
		Location:         time.UTC,
		ConflictCacheTTL: 30 * time.Second,
		LogLevel:         "info",
	}
}

var validate = validator.New()

// Load parses configuration values from the current process environment.
//
// Invalid entries are collected and reported together so an operator can fix
// every variable in one pass.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom parses configuration values using getenv as the variable source.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(getenv("TEMPLE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "TEMPLE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if tz := strings.TrimSpace(getenv("TEMPLE_TIMEZONE")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "TEMPLE_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	cfg.SeedFile = strings.TrimSpace(getenv("TEMPLE_SEED_FILE"))

	if spec := strings.TrimSpace(getenv("TEMPLE_WAITLIST_SWEEP")); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			invalid = append(invalid, "TEMPLE_WAITLIST_SWEEP")
		} else {
			cfg.WaitlistSweep = spec
		}
	}

	if ttlValue := strings.TrimSpace(getenv("TEMPLE_CONFLICT_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "TEMPLE_CONFLICT_CACHE_TTL")
		} else {
			cfg.ConflictCacheTTL = ttl
		}
	}

	if level := strings.TrimSpace(getenv("TEMPLE_LOG_LEVEL")); level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			invalid = append(invalid, "TEMPLE_LOG_LEVEL")
		} else {
			cfg.LogLevel = strings.ToLower(level)
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct constraints after flags or environment overrides.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
