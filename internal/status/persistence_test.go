package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReportPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "run-report.json")
	persistence := NewFileReportPersistence(path)

	report := sampleReport()
	require.NoError(t, persistence.Save(context.Background(), report))

	loaded, err := persistence.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, loaded.RunID)
	assert.Equal(t, report.Phase, loaded.Phase)
	assert.True(t, report.StartedAt.Equal(loaded.StartedAt))
	assert.Equal(t, report.Regions, loaded.Regions)
	assert.Equal(t, report.Snapshot, loaded.Snapshot)
	assert.Equal(t, report.Sync, loaded.Sync)
}

func TestFileReportPersistence_LoadNonExistent(t *testing.T) {
	t.Parallel()

	persistence := NewFileReportPersistence(filepath.Join(t.TempDir(), "missing.json"))
	_, err := persistence.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestFileReportPersistence_AtomicWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "run-report.json")
	persistence := NewFileReportPersistence(path)

	require.NoError(t, persistence.Save(context.Background(), sampleReport()))
	second := sampleReport()
	second.RunID = "second"
	require.NoError(t, persistence.Save(context.Background(), second))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should not remain")

	loaded, err := persistence.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.RunID)
}

func TestFileReportPersistence_SaveNil(t *testing.T) {
	t.Parallel()

	err := NewFileReportPersistence(filepath.Join(t.TempDir(), "r.json")).Save(context.Background(), nil)
	assert.Error(t, err)
}

func TestFileReportPersistence_LoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "r.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileReportPersistence(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoReport)
}
