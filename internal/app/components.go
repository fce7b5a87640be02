package app

import (
	"github.com/fiscalsync/ajustes-sync/internal/coordinator"
	"github.com/fiscalsync/ajustes-sync/internal/status"
	pkgsync "github.com/fiscalsync/ajustes-sync/internal/sync"
	"github.com/fiscalsync/ajustes-sync/internal/writer"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Coordinator fetches every region of the catalogue
	Coordinator *coordinator.Coordinator

	// SnapshotWriter persists the normalized table
	SnapshotWriter writer.SnapshotWriter

	// Synchronizer delivers the normalized table downstream
	Synchronizer pkgsync.Synchronizer

	// ReportPersistence stores the run report (optional)
	ReportPersistence status.ReportPersistence
}
