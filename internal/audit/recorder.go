package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/darmiel/privaudit/internal/core"
)

const DefaultMaxEntries = 10000

// Config controls a single Recorder.
type Config struct {
	// MaxEntries bounds the log. Oldest entries are evicted first.
	// Zero means DefaultMaxEntries.
	MaxEntries int

	// RecordQueries makes QueryAll and QueryLast append a system entry
	// for each read of the trail.
	RecordQueries bool

	// SkipBootstrap suppresses the "audit session started" entry.
	SkipBootstrap bool
}

// AppendOptions carries the optional, caller supplied parts of an entry.
type AppendOptions struct {
	Metadata core.Metadata

	// Status defaults to core.StatusRecorded.
	Status core.Status

	DurationMs *int64
}

type Option func(r *Recorder)

// WithObserver registers an observer which is notified after every append.
func WithObserver(o core.Observer) Option {
	return func(r *Recorder) {
		r.observers = append(r.observers, o)
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(r *Recorder) {
		r.sessionID = id
	}
}

// Recorder is a bounded, ordered, in-memory audit trail.
// It is safe for concurrent use.
type Recorder struct {
	cfg       Config
	sessionID string
	now       func() time.Time

	mu        sync.RWMutex
	entries   []core.AuditEntry
	lastTime  time.Time
	observers []core.Observer
}

// New creates a recorder for a new session and records the bootstrap entry
// unless cfg.SkipBootstrap is set.
func New(cfg Config, opts ...Option) *Recorder {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	r := &Recorder{
		cfg:       cfg,
		sessionID: xid.New().String(),
		now:       time.Now,
		entries:   make([]core.AuditEntry, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.SkipBootstrap {
		return r
	}

	if _, err := r.Append(core.CategorySystem, "audit session started", AppendOptions{
		Metadata: core.Metadata{
			"max_entries": fmt.Sprintf("%d", cfg.MaxEntries),
		},
	}); err != nil {
		// the bootstrap entry is built from constants
		panic(fmt.Sprintf("recording bootstrap entry: %v", err))
	}
	return r
}

func (r *Recorder) SessionID() string {
	return r.sessionID
}

func (r *Recorder) MaxEntries() int {
	return r.cfg.MaxEntries
}

// AddObserver registers an observer after construction.
func (r *Recorder) AddObserver(o core.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Append validates and records a new entry, evicting the oldest entries if the
// log grows beyond MaxEntries. Nothing is recorded if an error is returned.
func (r *Recorder) Append(category core.Category, message string, opts AppendOptions) (core.AuditEntry, error) {
	if !category.Valid() {
		return core.AuditEntry{}, core.NewValidationError("category", string(category), "unknown category")
	}
	status := opts.Status
	if status == "" {
		status = core.StatusRecorded
	}
	if !status.Valid() {
		return core.AuditEntry{}, core.NewValidationError("status", string(status), "unknown status")
	}
	if err := ValidateMetadata(opts.Metadata); err != nil {
		return core.AuditEntry{}, err
	}
	if opts.DurationMs != nil && *opts.DurationMs < 0 {
		return core.AuditEntry{}, core.NewValidationError("duration_ms",
			fmt.Sprintf("%d", *opts.DurationMs), "must not be negative")
	}

	entry := core.AuditEntry{
		ID:        xid.New().String(),
		Category:  category,
		Message:   message,
		Metadata:  opts.Metadata.Clone(),
		Status:    status,
		RiskLevel: DeriveRiskLevel(category, opts.Metadata),
		SessionID: r.sessionID,
	}
	if opts.DurationMs != nil {
		d := *opts.DurationMs
		entry.DurationMs = &d
	}

	r.mu.Lock()
	ts := r.now()
	if ts.Before(r.lastTime) {
		ts = r.lastTime
	}
	r.lastTime = ts
	entry.Timestamp = ts

	r.entries = append(r.entries, entry)
	r.evict()

	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.OnAppend(entry.Clone())
	}
	return entry.Clone(), nil
}

// evict drops entries from the front until the log fits. Caller holds mu.
func (r *Recorder) evict() {
	if over := len(r.entries) - r.cfg.MaxEntries; over > 0 {
		clear(r.entries[:over])
		r.entries = r.entries[over:]
	}
	if len(r.entries) > r.cfg.MaxEntries {
		panic(fmt.Sprintf("audit log holds %d entries, limit is %d", len(r.entries), r.cfg.MaxEntries))
	}
}

// Len returns the current number of entries.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// QueryAll returns every entry in insertion order, oldest first.
func (r *Recorder) QueryAll() []core.AuditEntry {
	r.mu.RLock()
	entries := copyEntries(r.entries)
	r.mu.RUnlock()

	r.recordQuery(-1, len(entries))
	return entries
}

// QueryLast returns the last k entries, oldest first.
func (r *Recorder) QueryLast(k int) ([]core.AuditEntry, error) {
	if k < 0 {
		return nil, core.NewValidationError("limit", fmt.Sprintf("%d", k), "must not be negative")
	}

	r.mu.RLock()
	if k > len(r.entries) {
		k = len(r.entries)
	}
	entries := copyEntries(r.entries[len(r.entries)-k:])
	r.mu.RUnlock()

	r.recordQuery(k, len(entries))
	return entries, nil
}

func (r *Recorder) recordQuery(limit, returned int) {
	if !r.cfg.RecordQueries {
		return
	}
	meta := core.Metadata{
		"returned": fmt.Sprintf("%d", returned),
	}
	if limit >= 0 {
		meta["limit"] = fmt.Sprintf("%d", limit)
	}
	_, _ = r.Append(core.CategorySystem, "audit trail queried", AppendOptions{Metadata: meta})
}

// Get returns the entry with the given ID if it is still retained.
func (r *Recorder) Get(id string) (core.AuditEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ID == id {
			return r.entries[i].Clone(), true
		}
	}
	return core.AuditEntry{}, false
}

// Find returns the most recent entries matching filter, oldest first.
// A nil limit returns all matches, otherwise at most *limit of them.
func (r *Recorder) Find(filter Filter, limit *int) ([]core.AuditEntry, error) {
	if limit != nil && *limit < 0 {
		return nil, core.NewValidationError("limit", fmt.Sprintf("%d", *limit), "must not be negative")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]core.AuditEntry, 0)
	for _, entry := range r.entries {
		if filter(entry) {
			matches = append(matches, entry.Clone())
		}
	}

	if limit != nil && len(matches) > *limit {
		matches = matches[len(matches)-*limit:]
	}
	return matches, nil
}

// Stats computes aggregate counts from the current log.
func (r *Recorder) Stats() core.AuditStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := core.AuditStats{
		TotalRecords: len(r.entries),
		ByCategory:   make(map[core.Category]int),
		ByStatus:     make(map[core.Status]int),
		ByRiskLevel:  make(map[core.RiskLevel]int),
	}
	for _, e := range r.entries {
		stats.ByCategory[e.Category]++
		stats.ByStatus[e.Status]++
		stats.ByRiskLevel[e.RiskLevel]++
	}
	if len(r.entries) > 0 {
		first := r.entries[0].Timestamp
		last := r.entries[len(r.entries)-1].Timestamp
		stats.FirstRecord = &first
		stats.LastRecord = &last
	}
	return stats
}

// Snapshot returns a consistent copy of the log for exporters.
func (r *Recorder) Snapshot() core.Snapshot {
	r.mu.RLock()
	entries := copyEntries(r.entries)
	r.mu.RUnlock()

	return core.Snapshot{
		ExportID:     uuid.NewString(),
		Timestamp:    r.now(),
		SessionID:    r.sessionID,
		TotalRecords: len(entries),
		Entries:      entries,
	}
}

func copyEntries(src []core.AuditEntry) []core.AuditEntry {
	entries := make([]core.AuditEntry, len(src))
	for i, e := range src {
		entries[i] = e.Clone()
	}
	return entries
}
