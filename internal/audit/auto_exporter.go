package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/privaudit/internal/core"
)

var _ core.Observer = (*AutoExporter)(nil)

// ResultFunc is notified about the outcome of every automatic export.
type ResultFunc func(res core.ExportResult, err error)

// AutoExporter exports a snapshot of the trail every N appended entries.
//
// Exports run on a background goroutine. While an export is in flight further
// triggers are coalesced into a single follow-up export, so a slow sink never
// queues up more than one pending snapshot.
type AutoExporter struct {
	source   SnapshotSource
	exporter core.Exporter
	every    int64
	onResult ResultFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	appended atomic.Int64
	exported atomic.Int64
	failed   atomic.Int64

	mu       sync.Mutex
	inFlight bool
	pending  bool
	closed   bool
}

func NewAutoExporter(source SnapshotSource, exporter core.Exporter, every int, onResult ResultFunc) *AutoExporter {
	if every < 1 {
		every = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AutoExporter{
		source:   source,
		exporter: exporter,
		every:    int64(every),
		onResult: onResult,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (a *AutoExporter) OnAppend(_ core.AuditEntry) {
	if a.appended.Add(1)%a.every != 0 {
		return
	}
	a.trigger()
}

func (a *AutoExporter) trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if a.inFlight {
		a.pending = true
		return
	}
	a.inFlight = true
	a.wg.Add(1)
	go a.run()
}

func (a *AutoExporter) run() {
	defer a.wg.Done()
	for {
		a.exportOnce()

		a.mu.Lock()
		if !a.pending || a.closed {
			a.inFlight = false
			a.mu.Unlock()
			return
		}
		a.pending = false
		a.mu.Unlock()
	}
}

func (a *AutoExporter) exportOnce() {
	res, err := ExportSnapshot(a.ctx, a.source, a.exporter)
	if err != nil {
		a.failed.Add(1)
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("sink", a.exporter.Name()).Msg("automatic export failed")
		}
	} else {
		a.exported.Add(1)
		log.Debug().
			Str("export_id", res.ExportID).
			Str("sink", res.Sink).
			Int("records", res.Records).
			Msg("automatic export completed")
	}
	if a.onResult != nil {
		a.onResult(res, err)
	}
}

// Exported returns the number of successful automatic exports.
func (a *AutoExporter) Exported() int64 {
	return a.exported.Load()
}

// Failed returns the number of failed automatic exports.
func (a *AutoExporter) Failed() int64 {
	return a.failed.Load()
}

// Flush blocks until no export is in flight, or ctx is done.
func (a *AutoExporter) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting triggers, cancels a running export and waits for it.
func (a *AutoExporter) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	return a.Flush(ctx)
}
