package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/config"
	"github.com/example/temple-engagements/internal/logging"
	"github.com/example/temple-engagements/internal/persistence/memory"
	"github.com/example/temple-engagements/internal/recurrence"
	"github.com/example/temple-engagements/internal/seed"
)

// app carries what every subcommand needs once flags and environment are merged.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

type rootFlags struct {
	port          int
	timezone      string
	seedFile      string
	waitlistSweep string
	logLevel      string
}

func newRootCommand(getenv func(string) string) *cobra.Command {
	var (
		flags rootFlags
		state = &app{}
	)

	root := &cobra.Command{
		Use:           "templeadmin",
		Short:         "Temple engagement scheduling service",
		Long:          "Serves the engagement admin API and offers recurrence and calendar export tools.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, flags, getenv)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			state.cfg = cfg
			state.logger = logging.NewJSONLogger(cmd.ErrOrStderr(), level)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.IntVar(&flags.port, "port", 0, "HTTP port (overrides TEMPLE_HTTP_PORT)")
	pf.StringVar(&flags.timezone, "timezone", "", "IANA timezone for calendar days (overrides TEMPLE_TIMEZONE)")
	pf.StringVar(&flags.seedFile, "seed", "", "YAML seed file (overrides TEMPLE_SEED_FILE)")
	pf.StringVar(&flags.waitlistSweep, "waitlist-sweep", "", "cron spec for the waitlist sweep (overrides TEMPLE_WAITLIST_SWEEP)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides TEMPLE_LOG_LEVEL)")

	root.AddCommand(newServeCommand(state))
	root.AddCommand(newExpandCommand(state))
	root.AddCommand(newExportCommand(state))
	return root
}

// resolveConfig loads the environment and applies any flag the user set.
func resolveConfig(cmd *cobra.Command, flags rootFlags, getenv func(string) string) (config.Config, error) {
	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.HTTPPort = flags.port
	}
	if changed("timezone") {
		loc, err := time.LoadLocation(flags.timezone)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid --timezone: %w", err)
		}
		cfg.Location = loc
	}
	if changed("seed") {
		cfg.SeedFile = flags.seedFile
	}
	if changed("waitlist-sweep") {
		cfg.WaitlistSweep = flags.waitlistSweep
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newService wires the in-memory store, recurrence engine and engagement
// service for cfg.
func newService(cfg config.Config, logger *slog.Logger, opts ...application.EngagementServiceOption) (*application.EngagementService, *memory.Storage) {
	storage := memory.Open()
	engine := recurrence.NewEngine(cfg.Location)
	opts = append([]application.EngagementServiceOption{application.WithConflictCacheTTL(cfg.ConflictCacheTTL)}, opts...)
	service := application.NewEngagementServiceWithLogger(
		application.NewPersistenceRepository(storage),
		engine,
		uuid.NewString,
		time.Now,
		logger,
		opts...,
	)
	return service, storage
}

// seedService applies cfg.SeedFile when one is configured.
func seedService(ctx context.Context, cfg config.Config, service *application.EngagementService, logger *slog.Logger) error {
	if cfg.SeedFile == "" {
		return nil
	}
	file, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return err
	}
	_, err = seed.NewLoader(service, cfg.Location, logger).Apply(ctx, file)
	return err
}
