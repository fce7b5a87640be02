package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fiscalsync/ajustes-sync/internal/status"
	"github.com/fiscalsync/ajustes-sync/internal/versions"
)

func newReportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the report of the last run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.Report.Path == "" {
				return fmt.Errorf("report persistence is disabled (report.path is empty)")
			}

			report, err := status.NewFileReportPersistence(cfg.Report.Path).Load(cmd.Context())
			if err != nil {
				if errors.Is(err, status.ErrNoReport) {
					return fmt.Errorf("%w at %s", err, cfg.Report.Path)
				}
				return err
			}

			current := versions.GetVersionInfo().Version
			if versions.IsNewerRelease(report.Version, current) {
				slog.Warn("Report was written by a newer release",
					"report_version", report.Version,
					"current_version", current)
			}

			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to read format flag: %w", err)
			}
			if format == "json" {
				output, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format report as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}
			return report.Render(cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("format", "", "Output format (json)")

	return cmd
}
