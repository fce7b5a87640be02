package sources

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fiscalsync/ajustes-sync/internal/records"
)

func TestOutcomeKind_IsFailure(t *testing.T) {
	t.Parallel()

	assert.False(t, OutcomeSuccess.IsFailure())
	assert.False(t, OutcomeSkipped.IsFailure())
	assert.True(t, OutcomeNetworkFailure.IsFailure())
	assert.True(t, OutcomeEmptyResponse.IsFailure())
	assert.True(t, OutcomeParseFailure.IsFailure())
	assert.Len(t, OutcomeKinds, 5)
}

func TestOutcome_Contributes(t *testing.T) {
	t.Parallel()

	rows := []records.RawRow{{AdjustmentCode: "BA1"}}

	tests := []struct {
		name    string
		outcome *Outcome
		want    bool
	}{
		{name: "nil outcome", outcome: nil, want: false},
		{name: "success with rows", outcome: &Outcome{Kind: OutcomeSuccess, Rows: rows}, want: true},
		{name: "success without rows", outcome: &Outcome{Kind: OutcomeSuccess}, want: false},
		{name: "skipped", outcome: &Outcome{Kind: OutcomeSkipped}, want: false},
		{name: "parse failure with stale rows", outcome: &Outcome{Kind: OutcomeParseFailure, Rows: rows}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.outcome.Contributes())
		})
	}
}

func TestOutcome_Message(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "region has no table id", (&Outcome{Kind: OutcomeSkipped}).Message())
	assert.Equal(t, "boom", (&Outcome{Kind: OutcomeNetworkFailure, Err: errors.New("boom")}).Message())
	assert.Empty(t, (&Outcome{Kind: OutcomeSuccess}).Message())
}
