// Package status describes the outcome of a pipeline run and provides its
// rendering and persistence.
package status

import (
	"time"

	"github.com/fiscalsync/ajustes-sync/internal/sources"
)

// RunPhase is the terminal phase of a run
type RunPhase string

const (
	// PhaseComplete means data was fetched, written and synced (or sync was skipped)
	PhaseComplete RunPhase = "Complete"

	// PhaseNoData means no region contributed rows; nothing was written or synced
	PhaseNoData RunPhase = "NoData"

	// PhasePartiallyFailed means data was fetched but the write or the sync failed
	PhasePartiallyFailed RunPhase = "PartiallyFailed"
)

// RegionStatus is the reported outcome of one region
type RegionStatus struct {
	Region     string              `json:"region"`
	Outcome    sources.OutcomeKind `json:"outcome"`
	Rows       int                 `json:"rows"`
	StatusCode int                 `json:"statusCode,omitempty"`
	Message    string              `json:"message,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// SnapshotStatus is the reported outcome of the snapshot write
type SnapshotStatus struct {
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SyncStatus is the reported outcome of the downstream delivery
type SyncStatus struct {
	Delivered    int    `json:"delivered"`
	Skipped      bool   `json:"skipped"`
	Reason       string `json:"reason,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RunReport summarizes one pipeline run
type RunReport struct {
	RunID       string         `json:"runId"`
	Version     string         `json:"version,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
	Phase       RunPhase       `json:"phase"`
	Regions     []RegionStatus `json:"regions"`
	RecordCount int            `json:"recordCount"`

	// Snapshot and Sync are nil when the step did not run
	Snapshot *SnapshotStatus `json:"snapshot,omitempty"`
	Sync     *SyncStatus     `json:"sync,omitempty"`
}

// NewRegionStatuses converts fetch outcomes into report entries, preserving order
func NewRegionStatuses(outcomes []*sources.Outcome) []RegionStatus {
	regions := make([]RegionStatus, 0, len(outcomes))
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		regions = append(regions, RegionStatus{
			Region:     o.Region,
			Outcome:    o.Kind,
			Rows:       len(o.Rows),
			StatusCode: o.StatusCode,
			Message:    o.Message(),
			Duration:   o.Duration,
		})
	}
	return regions
}

// Counts returns the number of regions per outcome kind. Every kind is present.
func (r *RunReport) Counts() map[sources.OutcomeKind]int {
	counts := make(map[sources.OutcomeKind]int, len(sources.OutcomeKinds))
	for _, kind := range sources.OutcomeKinds {
		counts[kind] = 0
	}
	for _, region := range r.Regions {
		counts[region.Outcome]++
	}
	return counts
}

// FailedRegions returns the regions whose fetch failed
func (r *RunReport) FailedRegions() []RegionStatus {
	var failed []RegionStatus
	for _, region := range r.Regions {
		if region.Outcome.IsFailure() {
			failed = append(failed, region)
		}
	}
	return failed
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
