package core

import "time"

// Category classifies what kind of pipeline stage produced an audit entry.
type Category string

const (
	CategoryProof        Category = "proof"
	CategoryInference    Category = "inference"
	CategoryVerification Category = "verification"
	CategorySystem       Category = "system"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryProof,
	CategoryInference,
	CategoryVerification,
	CategorySystem,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryProof, CategoryInference, CategoryVerification, CategorySystem:
		return true
	}
	return false
}

// Status is informational only. It is supplied by the caller and never derived
// from a real check.
type Status string

const (
	StatusVerified Status = "verified"
	StatusRecorded Status = "recorded"
	StatusExported Status = "exported"
	StatusPending  Status = "pending"
	StatusFailed   Status = "failed"
)

var Statuses = []Status{
	StatusVerified,
	StatusRecorded,
	StatusExported,
	StatusPending,
	StatusFailed,
}

func (s Status) Valid() bool {
	switch s {
	case StatusVerified, StatusRecorded, StatusExported, StatusPending, StatusFailed:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var RiskLevels = []RiskLevel{
	RiskLow,
	RiskMedium,
	RiskHigh,
	RiskCritical,
}

// Metadata is an opaque string mapping attached to an entry.
type Metadata map[string]string

// Clone returns a copy of m, or nil if m is empty.
func (m Metadata) Clone() Metadata {
	if len(m) == 0 {
		return nil
	}
	cpy := make(Metadata, len(m))
	for k, v := range m {
		cpy[k] = v
	}
	return cpy
}

// AuditEntry is a single immutable audit record.
type AuditEntry struct {
	// ID is the unique identifier assigned by the recorder.
	ID string `json:"id"`

	// Timestamp is the creation time. It never decreases in append order.
	Timestamp time.Time `json:"timestamp"`

	Category Category `json:"category"`
	Message  string   `json:"message"`

	// Metadata is opaque to the recorder, except for the keys used
	// to derive the RiskLevel ("sensitivity", "complexity").
	Metadata Metadata `json:"metadata,omitempty"`

	Status    Status    `json:"status"`
	RiskLevel RiskLevel `json:"risk_level"`

	// SessionID identifies the recorder which produced this entry.
	SessionID string `json:"session_id"`

	// DurationMs is an optional processing time annotation.
	DurationMs *int64 `json:"duration_ms,omitempty"`
}

// Clone returns a deep copy so that recorded entries can be handed out
// without exposing the recorder's own metadata maps.
func (e AuditEntry) Clone() AuditEntry {
	cpy := e
	cpy.Metadata = e.Metadata.Clone()
	if e.DurationMs != nil {
		d := *e.DurationMs
		cpy.DurationMs = &d
	}
	return cpy
}

// AuditStats are aggregate counts over the entries currently in the log.
type AuditStats struct {
	TotalRecords int `json:"total_records"`

	ByCategory  map[Category]int  `json:"by_category"`
	ByStatus    map[Status]int    `json:"by_status"`
	ByRiskLevel map[RiskLevel]int `json:"by_risk_level"`

	// FirstRecord and LastRecord are nil if the log is empty.
	FirstRecord *time.Time `json:"first_record,omitempty"`
	LastRecord  *time.Time `json:"last_record,omitempty"`
}

// Snapshot is a consistent, point-in-time copy of the log.
type Snapshot struct {
	ExportID     string       `json:"export_id"`
	Timestamp    time.Time    `json:"timestamp"`
	SessionID    string       `json:"session_id"`
	TotalRecords int          `json:"total_records"`
	Entries      []AuditEntry `json:"entries"`
}

// Observer receives every entry after it was appended.
// Observers must not block; they are called outside the recorder lock.
type Observer interface {
	OnAppend(entry AuditEntry)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(entry AuditEntry)

func (f ObserverFunc) OnAppend(entry AuditEntry) {
	f(entry)
}
