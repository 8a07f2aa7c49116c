package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/temple-engagements/internal/application"
	"github.com/example/temple-engagements/internal/ics"
)

var errNoSeedFile = errors.New("export needs a seed file (--seed or TEMPLE_SEED_FILE)")

func newExportCommand(state *app) *cobra.Command {
	var (
		output string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the seeded engagements as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if state.cfg.SeedFile == "" {
				return errNoSeedFile
			}

			service, storage := newService(state.cfg, state.logger)
			defer storage.Close()
			if err := seedService(cmd.Context(), state.cfg, service, state.logger); err != nil {
				return err
			}

			params := application.ListEngagementsParams{}
			if !all {
				params.Statuses = []string{application.StatusScheduled, application.StatusSending, application.StatusSent}
			}
			engagements, err := service.ListEngagements(cmd.Context(), params)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}

			exporter := ics.NewExporter(service.Engine(), feedName, time.Now)
			if err := exporter.Write(w, engagements); err != nil {
				return fmt.Errorf("write calendar: %w", err)
			}
			state.logger.Info("calendar exported", "engagements", len(engagements), "output", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, or - for stdout")
	cmd.Flags().BoolVar(&all, "all", false, "include draft and failed engagements")
	return cmd
}
