package service

import "github.com/darmiel/privaudit/internal/core"

type ListRequest struct {
	// Limit returns at most the newest *Limit entries. Nil returns all of
	// them, zero returns none.
	Limit *int

	// Filter is an optional expression evaluated against every entry,
	// e.g. `category == "proof" && risk == "high"`.
	Filter string

	// Category, Status and Risk are exact matches. Empty matches everything.
	Category core.Category
	Status   core.Status
	Risk     core.RiskLevel
}

func (r ListRequest) filtered() bool {
	return r.Filter != "" || r.Category != "" || r.Status != "" || r.Risk != ""
}

// AppendRequest is a caller supplied entry. Metadata is untyped because it is
// decoded from JSON and must be checked to only contain strings.
type AppendRequest struct {
	Category   core.Category  `json:"category"`
	Message    string         `json:"message"`
	Status     core.Status    `json:"status,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
