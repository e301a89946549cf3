package core

import (
	"context"
	"time"
)

// ExportResult describes where a snapshot ended up.
type ExportResult struct {
	// ExportID is the ID of the exported snapshot.
	ExportID string `json:"export_id"`

	// Sink is the name of the exporter that handled the snapshot.
	Sink string `json:"sink"`

	// Location is a sink specific pointer to the exported data,
	// e.g. a file path or a redis key.
	Location string `json:"location,omitempty"`

	// Records is the number of entries written.
	Records int `json:"records"`

	// Fingerprint is the digest of the exported entries.
	Fingerprint string `json:"fingerprint"`

	ExportedAt time.Time `json:"exported_at"`
}

// Exporter persists or transmits snapshots of the audit log.
// Implementations: file, JSON lines, redis, memory, noop.
type Exporter interface {
	// Name returns the identifier of this exporter (as used in config).
	Name() string

	// Export writes the snapshot. It must not modify it.
	Export(ctx context.Context, snapshot Snapshot) (ExportResult, error)

	Close() error
}
