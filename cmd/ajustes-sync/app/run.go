package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fiscalsync/ajustes-sync/internal/app"
	"github.com/fiscalsync/ajustes-sync/internal/config"
	"github.com/fiscalsync/ajustes-sync/internal/telemetry"
	"github.com/fiscalsync/ajustes-sync/internal/versions"
)

const telemetryShutdownTimeout = 10 * time.Second

// Flag names, also readable from AJUSTES_SYNC_<NAME> environment variables
const (
	flagConfig       = "config"
	flagOutput       = "output"
	flagSyncEndpoint = "sync-endpoint"
	flagNoSync       = "no-sync"
	flagWorkers      = "workers"
	flagReport       = "report"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one fetch, snapshot and sync cycle",
		Long: `Fetch every configured region, merge and normalize the rows, write the CSV
snapshot and deliver the table to the sync endpoint.

Without --config the built-in defaults and the full state catalogue are used.
The run report is printed on stdout. The command exits non-zero when no region
returned data, or when the snapshot or the sync failed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, v)
		},
	}

	cmd.Flags().String(flagOutput, "", "Snapshot CSV path (overrides snapshot.path)")
	cmd.Flags().String(flagSyncEndpoint, "", "Sync endpoint URL (overrides sync.endpoint)")
	cmd.Flags().Bool(flagNoSync, false, "Skip delivery to the sync endpoint")
	cmd.Flags().Int(flagWorkers, 0, "Concurrent region fetches (overrides source.workers)")

	for _, name := range []string{flagOutput, flagSyncEndpoint, flagNoSync, flagWorkers} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
		}
	}

	return cmd
}

// loadConfig loads the configuration file, if any, and applies flag and
// environment overrides on top of it
func loadConfig(v *viper.Viper) (*config.Config, error) {
	var opts []config.Option
	if path := v.GetString(flagConfig); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if output := v.GetString(flagOutput); output != "" {
		cfg.Snapshot.Path = output
	}
	if endpoint := v.GetString(flagSyncEndpoint); endpoint != "" {
		cfg.Sync.Endpoint = endpoint
	}
	if v.GetBool(flagNoSync) {
		cfg.Sync.Enabled = false
	}
	if workers := v.GetInt(flagWorkers); workers > 0 {
		cfg.Source.Workers = workers
	}
	if report := v.GetString(flagReport); report != "" {
		cfg.Report.Path = report
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runSync(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration",
		"config", v.GetString(flagConfig),
		"regions", len(cfg.Regions),
		"workers", cfg.Source.GetWorkers(),
		"snapshot", cfg.Snapshot.GetPath(),
		"sync_enabled", cfg.Sync.Enabled)

	if cfg.Telemetry != nil && cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = versions.GetVersionInfo().Version
	}
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shutdown telemetry", "error", err)
		}
	}()

	syncApp, err := app.NewSyncApp(ctx,
		app.WithConfig(cfg),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync app: %w", err)
	}

	report, runErr := syncApp.Run(ctx)
	if report != nil {
		if err := report.Render(cmd.OutOrStdout()); err != nil {
			slog.Warn("Failed to render run report", "error", err)
		}
	}
	return runErr
}
