package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport_Render(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, sampleReport().Render(&buf))

	out := buf.String()
	for _, want := range []string{
		"Acre", "Roraima", "Ceara", "Bahia",
		"network_failure", "503",
		"PartiallyFailed",
		"/tmp/out.csv",
		"success=1",
		"failed:",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRunReport_Render_StepsNotRun(t *testing.T) {
	t.Parallel()

	report := &RunReport{RunID: "r1", Phase: PhaseNoData}

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf))
	assert.Contains(t, buf.String(), "written")
	assert.Contains(t, buf.String(), "attempted")
}

func TestDescribeSync(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "skipped (disabled)", describeSync(&SyncStatus{Skipped: true, Reason: "disabled"}))
	assert.Equal(t, "delivered 7 records", describeSync(&SyncStatus{Delivered: 7}))
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n b\tc", 10))

	long := strings.Repeat("é", 20)
	got := truncate(long, 10)
	assert.Equal(t, 10, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}
