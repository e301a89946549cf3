package audit

import (
	"context"

	"github.com/darmiel/privaudit/internal/core"
)

const NoopExporterType = "none"

// NoopExporter accepts every snapshot and writes nothing.
type NoopExporter struct{}

func NewNoopExporter() *NoopExporter {
	return &NoopExporter{}
}

func (n *NoopExporter) Name() string {
	return NoopExporterType
}

func (n *NoopExporter) Export(_ context.Context, snapshot core.Snapshot) (core.ExportResult, error) {
	// noop
	return newResult(n.Name(), snapshot, "")
}

func (n *NoopExporter) Close() error {
	// nothing to close
	return nil
}
