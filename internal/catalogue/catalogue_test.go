package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	regions := Default()
	require.Len(t, regions, 27)

	names := make(map[string]bool)
	unsupported := 0
	for _, r := range regions {
		assert.False(t, names[r.Name], "duplicate region %s", r.Name)
		names[r.Name] = true
		assert.Positive(t, r.PackageID)
		if !r.Supported() {
			unsupported++
			assert.Equal(t, "Roraima", r.Name)
		}
	}
	assert.Equal(t, 1, unsupported)
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	first := Default()
	*first[0].TableID = -1
	first[0].Name = "changed"

	second := Default()
	assert.Equal(t, "Bahia", second[0].Name)
	assert.Equal(t, 190, *second[0].TableID)
}
