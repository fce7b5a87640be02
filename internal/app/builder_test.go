package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/fiscalsync/ajustes-sync/internal/config"
	pkgsync "github.com/fiscalsync/ajustes-sync/internal/sync"
	"github.com/fiscalsync/ajustes-sync/internal/writer"
)

func TestNewSyncApp_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []SyncAppOptions
		wantErr string
	}{
		{
			name:    "missing config",
			wantErr: "config cannot be nil",
		},
		{
			name:    "nil clock",
			opts:    []SyncAppOptions{WithConfig(config.Default()), WithClock(nil)},
			wantErr: "clock cannot be nil",
		},
		{
			name:    "nil run id generator",
			opts:    []SyncAppOptions{WithConfig(config.Default()), WithRunIDGenerator(nil)},
			wantErr: "run id generator cannot be nil",
		},
		{
			name: "unknown encoding",
			opts: func() []SyncAppOptions {
				cfg := config.Default()
				cfg.Source.Encoding = "ebcdic"
				return []SyncAppOptions{WithConfig(cfg)}
			}(),
			wantErr: "failed to build coordinator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSyncApp(context.Background(), tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSyncApp_DefaultComponents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Snapshot.Path = filepath.Join(dir, "ajustes.csv")
	cfg.Report.Path = filepath.Join(dir, "report.json")

	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	app, err := NewSyncApp(context.Background(), WithConfig(cfg), WithMeterProvider(mp))
	require.NoError(t, err)

	assert.Same(t, cfg, app.GetConfig())
	assert.NotNil(t, app.components.Coordinator)
	assert.IsType(t, &writer.FileWriter{}, app.components.SnapshotWriter)
	assert.IsType(t, &pkgsync.HTTPSynchronizer{}, app.components.Synchronizer)
	assert.NotNil(t, app.components.ReportPersistence)
}

func TestNewSyncApp_OptionalComponents(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Snapshot.Path = filepath.Join(t.TempDir(), "ajustes.csv")
	cfg.Sync.Enabled = false
	cfg.Report.Path = ""

	app, err := NewSyncApp(context.Background(), WithConfig(cfg))
	require.NoError(t, err)

	result, err := app.components.Synchronizer.Deliver(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, pkgsync.ReasonDisabled, result.Reason)
	assert.Nil(t, app.components.ReportPersistence)
}
