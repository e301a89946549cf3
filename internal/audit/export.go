package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/darmiel/privaudit/internal/core"
)

// SnapshotSource is implemented by Recorder.
type SnapshotSource interface {
	Snapshot() core.Snapshot
}

// ExportError reports a failed export. The audit log itself is not affected
// by a failed export.
type ExportError struct {
	ExportID string
	Sink     string
	Err      error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s via %s failed: %v", e.ExportID, e.Sink, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ExportSnapshot takes a snapshot and hands it to the exporter.
// The snapshot is taken before any I/O starts, so no recorder lock is held
// while the exporter runs.
func ExportSnapshot(ctx context.Context, src SnapshotSource, exporter core.Exporter) (core.ExportResult, error) {
	snapshot := src.Snapshot()
	return Export(ctx, snapshot, exporter)
}

// Export hands an already taken snapshot to the exporter and wraps failures
// into an ExportError.
func Export(ctx context.Context, snapshot core.Snapshot, exporter core.Exporter) (core.ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return core.ExportResult{}, &ExportError{ExportID: snapshot.ExportID, Sink: exporter.Name(), Err: err}
	}
	res, err := exporter.Export(ctx, snapshot)
	if err != nil {
		return core.ExportResult{}, &ExportError{ExportID: snapshot.ExportID, Sink: exporter.Name(), Err: err}
	}
	return res, nil
}

// newResult fills the common parts of an ExportResult.
func newResult(sink string, snapshot core.Snapshot, location string) (core.ExportResult, error) {
	fp, err := Fingerprint(snapshot.Entries)
	if err != nil {
		return core.ExportResult{}, err
	}
	return core.ExportResult{
		ExportID:    snapshot.ExportID,
		Sink:        sink,
		Location:    location,
		Records:     len(snapshot.Entries),
		Fingerprint: fp,
		ExportedAt:  time.Now(),
	}, nil
}
