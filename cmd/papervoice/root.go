package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papervoice/papervoice/internal/config"
	"github.com/papervoice/papervoice/internal/joblog"
	"github.com/papervoice/papervoice/internal/logging"
	"github.com/papervoice/papervoice/internal/telemetry"
)

var version = "0.1.0-dev"

var (
	configPath string
	quiet      bool
)

// app holds the wiring shared by subcommands, built once per invocation.
type app struct {
	cfg               config.Config
	logger            *slog.Logger
	runs              *joblog.Store
	telemetryShutdown func(context.Context) error
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "papervoice",
	Short:         "papervoice converts documents into spoken audio.",
	Long:          "papervoice extracts text from documents, synthesizes speech chunk by chunk, and can merge the parts into a single audio track.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Telemetry)

		shutdown, err := telemetry.Setup(cmd.Context(), cfg.Telemetry, version, logger)
		if err != nil {
			logger.Warn("telemetry setup failed", slog.String("error", err.Error()))
			shutdown = func(context.Context) error { return nil }
		}

		runs, err := joblog.Open(cmd.Context(), cfg.JobLog, logger)
		if err != nil {
			logger.Warn("job log unavailable", slog.String("error", err.Error()))
			runs = nil
		}

		current = &app{cfg: cfg, logger: logger, runs: runs, telemetryShutdown: shutdown}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current == nil {
			return
		}
		if current.runs != nil {
			_ = current.runs.Close()
		}
		if current.telemetryShutdown != nil {
			_ = current.telemetryShutdown(cmd.Context())
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "papervoice.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})
	rootCmd.AddCommand(versionCmd)
}

// usageError marks argument and flag mistakes so Execute can exit 2.
type usageError struct{ err error }

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

// exactArgs is cobra.ExactArgs with usage-error classification.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// minimumArgs is cobra.MinimumNArgs with usage-error classification.
func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the papervoice version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

// Execute runs the CLI and returns the process exit code: 0 on success,
// 1 on a handled application error, 2 on a usage error.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var uerr *usageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}
