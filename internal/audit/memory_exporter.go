package audit

import (
	"context"
	"sync"

	"github.com/darmiel/privaudit/internal/core"
)

const MemoryExporterType = "memory"

var _ core.Exporter = (*MemoryExporter)(nil)

// MemoryExporter keeps exported snapshots in memory.
type MemoryExporter struct {
	mu        sync.Mutex
	snapshots []core.Snapshot
}

func NewMemoryExporter() *MemoryExporter {
	return &MemoryExporter{
		snapshots: make([]core.Snapshot, 0),
	}
}

func (m *MemoryExporter) Name() string {
	return MemoryExporterType
}

func (m *MemoryExporter) Export(_ context.Context, snapshot core.Snapshot) (core.ExportResult, error) {
	res, err := newResult(m.Name(), snapshot, "memory")
	if err != nil {
		return core.ExportResult{}, err
	}

	snapshot.Entries = copyEntries(snapshot.Entries)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snapshot)
	return res, nil
}

// Snapshots returns a copy of all exported snapshots.
func (m *MemoryExporter) Snapshots() []core.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	cpy := make([]core.Snapshot, len(m.snapshots))
	copy(cpy, m.snapshots)
	return cpy
}

func (m *MemoryExporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

func (m *MemoryExporter) Close() error {
	return nil // nothing to close :)
}
