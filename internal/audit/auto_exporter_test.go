package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darmiel/privaudit/internal/core"
)

// blockingExporter blocks every export until release is closed.
type blockingExporter struct {
	*MemoryExporter
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingExporter) Export(ctx context.Context, snapshot core.Snapshot) (core.ExportResult, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return core.ExportResult{}, ctx.Err()
	}
	return b.MemoryExporter.Export(ctx, snapshot)
}

type failingExporter struct{}

func (failingExporter) Name() string { return "failing" }
func (failingExporter) Export(context.Context, core.Snapshot) (core.ExportResult, error) {
	return core.ExportResult{}, errors.New("disk full")
}
func (failingExporter) Close() error { return nil }

func flush(t *testing.T, a *AutoExporter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestAutoExporter_EveryN(t *testing.T) {
	mem := NewMemoryExporter()
	r := New(Config{MaxEntries: 100, SkipBootstrap: true})
	auto := NewAutoExporter(r, mem, 3, nil)
	r.AddObserver(auto)

	for i := 0; i < 7; i++ {
		mustAppend(t, r, core.CategoryInference, "tick", nil)
		flush(t, auto)
	}

	if mem.Count() != 2 {
		t.Fatalf("exported %d snapshots, want 2", mem.Count())
	}
	snaps := mem.Snapshots()
	if snaps[0].TotalRecords != 3 || snaps[1].TotalRecords != 6 {
		t.Errorf("snapshot sizes = %d, %d, want 3, 6", snaps[0].TotalRecords, snaps[1].TotalRecords)
	}
	if auto.Exported() != 2 || auto.Failed() != 0 {
		t.Errorf("Exported/Failed = %d/%d", auto.Exported(), auto.Failed())
	}
}

func TestAutoExporter_CoalescesWhileInFlight(t *testing.T) {
	blocking := &blockingExporter{
		MemoryExporter: NewMemoryExporter(),
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	r := New(Config{MaxEntries: 100, SkipBootstrap: true})
	auto := NewAutoExporter(r, blocking, 1, nil)
	r.AddObserver(auto)

	mustAppend(t, r, core.CategoryProof, "first", nil)
	<-blocking.started

	// these appends must not block on the running export
	for i := 0; i < 5; i++ {
		mustAppend(t, r, core.CategoryProof, "more", nil)
	}
	close(blocking.release)
	flush(t, auto)

	if got := blocking.Count(); got != 2 {
		t.Errorf("exported %d snapshots, want 2 (one running, one coalesced)", got)
	}
	snaps := blocking.Snapshots()
	if last := snaps[len(snaps)-1]; last.TotalRecords != 6 {
		t.Errorf("follow-up snapshot holds %d entries, want 6", last.TotalRecords)
	}
}

func TestAutoExporter_FailureKeepsLog(t *testing.T) {
	var mu sync.Mutex
	var results []error

	r := New(Config{MaxEntries: 100, SkipBootstrap: true})
	auto := NewAutoExporter(r, failingExporter{}, 2, func(_ core.ExportResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, err)
	})
	r.AddObserver(auto)

	for i := 0; i < 4; i++ {
		mustAppend(t, r, core.CategorySystem, "entry", nil)
		flush(t, auto)
	}

	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
	if auto.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", auto.Failed())
	}

	mu.Lock()
	defer mu.Unlock()
	for _, err := range results {
		var exportErr *ExportError
		if !errors.As(err, &exportErr) {
			t.Errorf("result error = %v, want *ExportError", err)
		}
	}
}

func TestAutoExporter_Close(t *testing.T) {
	blocking := &blockingExporter{
		MemoryExporter: NewMemoryExporter(),
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	r := New(Config{MaxEntries: 100, SkipBootstrap: true})
	auto := NewAutoExporter(r, blocking, 1, nil)
	r.AddObserver(auto)

	mustAppend(t, r, core.CategoryProof, "first", nil)
	<-blocking.started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := auto.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if auto.Failed() != 1 {
		t.Errorf("canceled export should count as failed, Failed() = %d", auto.Failed())
	}

	mustAppend(t, r, core.CategoryProof, "after close", nil)
	flush(t, auto)
	if blocking.Count() != 0 {
		t.Errorf("exports after Close: %d", blocking.Count())
	}
}
