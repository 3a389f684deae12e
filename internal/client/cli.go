// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/delivery-sync/internal/config"
	"github.com/MKhiriev/delivery-sync/internal/logger"
	"github.com/MKhiriev/delivery-sync/internal/service"
	"github.com/MKhiriev/delivery-sync/models"
	"github.com/spf13/cobra"
)

const agentRole = "delivery-sync-agent"

var errUnknownResolution = errors.New(`--keep must be "local" or "authoritative"`)

// rootOptions is shared by all commands. app is opened lazily by the root
// command unless it was provided up front.
type rootOptions struct {
	overrides config.StructuredConfig
	buildInfo models.AppBuildInfo

	app    *App
	opened bool
}

func (o *rootOptions) sync() service.ClientSyncService {
	return o.app.services.SyncService
}

// NewRootCommand builds the device agent command line.
func NewRootCommand(buildInfo models.AppBuildInfo) *cobra.Command {
	return newRootCommand(&rootOptions{buildInfo: buildInfo})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delivery-agent",
		Short:         "Offline-first milk delivery capture and sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.app != nil || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.GetClientConfig(&opts.overrides)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			app, err := NewApp(cmd.Context(), cfg, logger.NewClientLogger(agentRole, cfg.Log.FilePath))
			if err != nil {
				return err
			}
			opts.app, opts.opened = app, true
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if !opts.opened {
				return nil
			}
			return opts.app.Close()
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.overrides.JSONFilePath, "config", "c", "", "JSON config file path")
	f.StringVar(&opts.overrides.Adapter.HTTPAddress, "server", "", "sync server address")
	f.StringVar(&opts.overrides.Adapter.Token, "token", "", "device bearer token")
	f.StringVar(&opts.overrides.App.HashKey, "hash-key", "", "batch integrity hash key")
	f.StringVar(&opts.overrides.Storage.DB.DSN, "db", "", "local queue database file")
	f.StringVar(&opts.overrides.Log.FilePath, "log-file", "", "log file, stderr when empty")

	cmd.AddCommand(
		newRunCommand(opts),
		newCaptureCommand(opts),
		newEditCommand(opts),
		newShowCommand(opts),
		newSyncCommand(opts),
		newStatusCommand(opts),
		newResolveCommand(opts),
		newRetryCommand(opts),
		newPurgeCommand(opts),
		newVersionCommand(opts),
	)

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background sync agent until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.app.Run(cmd.Context())
		},
	}
}

func newCaptureCommand(opts *rootOptions) *cobra.Command {
	var (
		pf      payloadFlags
		syncNow bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record a new delivery in the local queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload := models.DeliveryPayload{
				DeliveryDate: time.Now().Format(time.DateOnly),
				QualityGrade: models.GradeA,
				Source:       models.SourceMobile,
			}
			pf.apply(cmd, &payload)

			rec, err := opts.sync().Capture(cmd.Context(), payload)
			if err != nil {
				return err
			}

			if syncNow {
				if _, err = opts.sync().Trigger(cmd.Context(), service.ReasonCapture); err != nil {
					// The record is safely queued; the next cycle picks it up.
					fmt.Fprintf(cmd.ErrOrStderr(), "sync: %v\n", err)
				}
				if rec, err = opts.sync().Get(cmd.Context(), rec.ClientID); err != nil {
					return err
				}
			}

			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&syncNow, "sync", false, "run a sync cycle right after capture")
	for _, name := range []string{"farmer", "station", "liters"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	var pf payloadFlags

	cmd := &cobra.Command{
		Use:   "edit <client-id>",
		Short: "Change fields of a record that has not been submitted yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := opts.sync().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			payload := current.Payload
			pf.apply(cmd, &payload)

			rec, err := opts.sync().Edit(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	pf.register(cmd)

	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Print a queued record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := opts.sync().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := opts.sync().Trigger(cmd.Context(), service.ReasonManual)
			if printErr := printJSON(cmd.OutOrStdout(), report); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counters and records that need attention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := opts.sync().Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newResolveCommand(opts *rootOptions) *cobra.Command {
	var keep string

	cmd := &cobra.Command{
		Use:   "resolve <client-id>",
		Short: "Settle a record in conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resolution models.Resolution
			switch keep {
			case "local":
				resolution = models.KeepLocal
			case "authoritative":
				resolution = models.KeepAuthoritative
			default:
				return errUnknownResolution
			}

			rec, err := opts.sync().ResolveConflict(cmd.Context(), args[0], resolution)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVar(&keep, "keep", "", `version to keep: "local" or "authoritative"`)
	_ = cmd.MarkFlagRequired("keep")

	return cmd
}

func newRetryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <client-id>",
		Short: "Put a parked record back into the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.sync().Retry(cmd.Context(), args[0])
		},
	}
}

func newPurgeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete synced records past the retention age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := opts.sync().Purge(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int64{"purged": n})
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), opts.buildInfo.String())
		},
	}
}

// payloadFlags are the delivery fields settable from the command line.
// Only flags given explicitly are applied.
type payloadFlags struct {
	farmer, station, officer string
	date, grade, remarks     string
	liters, fat              float64
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.farmer, "farmer", "", "farmer code")
	f.StringVar(&p.station, "station", "", "collection station id")
	f.StringVar(&p.officer, "officer", "", "collection officer id")
	f.StringVar(&p.date, "date", "", "delivery date, YYYY-MM-DD (default today)")
	f.Float64Var(&p.liters, "liters", 0, "delivered quantity in liters")
	f.Float64Var(&p.fat, "fat", 0, "fat content in percent")
	f.StringVar(&p.grade, "grade", "", "quality grade: A, B, C or Rejected (default A)")
	f.StringVar(&p.remarks, "remarks", "", "free text note")
}

func (p *payloadFlags) apply(cmd *cobra.Command, payload *models.DeliveryPayload) {
	changed := cmd.Flags().Changed

	if changed("farmer") {
		payload.FarmerCode = p.farmer
	}
	if changed("station") {
		payload.StationID = p.station
	}
	if changed("officer") {
		payload.OfficerID = p.officer
	}
	if changed("date") {
		payload.DeliveryDate = p.date
	}
	if changed("liters") {
		payload.QuantityLiters = p.liters
	}
	if changed("fat") {
		fat := p.fat
		payload.FatContent = &fat
	}
	if changed("grade") {
		payload.QualityGrade = models.QualityGrade(p.grade)
	}
	if changed("remarks") {
		payload.Remarks = p.remarks
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
