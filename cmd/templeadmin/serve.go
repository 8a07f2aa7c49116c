package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/config"
	apihttp "github.com/example/temple-engagements/internal/http"
	"github.com/example/temple-engagements/internal/ics"
	"github.com/example/temple-engagements/internal/waitlist"
	"github.com/example/temple-engagements/internal/websocket"
)

const feedName = "Temple engagements"

func newServeCommand(state *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engagement admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), state.cfg, state.logger)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	hub := websocket.NewHub(logger, websocket.WithPayloadEncoder(apihttp.EventPayload))
	go hub.Run(ctx)

	service, storage := newService(cfg, logger, application.WithEventPublisher(hub))
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	if err := seedService(ctx, cfg, service, logger); err != nil {
		return err
	}

	if cfg.WaitlistSweep != "" {
		sweeper, err := waitlist.NewSweeper(service, cfg.WaitlistSweep, cfg.Location, logger)
		if err != nil {
			return err
		}
		if err := sweeper.Start(ctx); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHandler(service, hub, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("engagement API listening", "addr", server.Addr, "timezone", cfg.Location.String())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to shutdown server", "error", err)
		return err
	}
	logger.Info("engagement API stopped")
	return nil
}

// newHandler assembles the API router. events may be nil when no websocket
// hub is running.
func newHandler(service *application.EngagementService, events http.Handler, cfg config.Config, logger *slog.Logger) http.Handler {
	feed := ics.NewExporter(service.Engine(), feedName, time.Now)
	return apihttp.NewRouter(apihttp.RouterConfig{
		Engagements:   apihttp.NewEngagementHandler(service, feed, cfg.Location, logger),
		Slots:         apihttp.NewSlotHandler(service, logger),
		Participation: apihttp.NewParticipationHandler(service, logger),
		Conflicts:     apihttp.NewConflictHandler(service, cfg.Location, logger),
		Events:        events,
		Middleware: []func(http.Handler) http.Handler{
			apihttp.Recoverer(logger),
			apihttp.RequestLogger(logger),
		},
	})
}
