package audit

import (
	"errors"
	"testing"

	"github.com/darmiel/privaudit/internal/core"
)

func TestCompileFilter(t *testing.T) {
	dur := int64(300)
	entry := core.AuditEntry{
		ID:         "abc",
		Category:   core.CategoryProof,
		Message:    "proof generated",
		Metadata:   core.Metadata{"complexity": "high"},
		Status:     core.StatusVerified,
		RiskLevel:  core.RiskHigh,
		SessionID:  "s1",
		DurationMs: &dur,
	}
	bare := core.AuditEntry{
		Category:  core.CategorySystem,
		Status:    core.StatusRecorded,
		RiskLevel: core.RiskLow,
	}

	tests := []struct {
		name     string
		code     string
		wantFull bool
		wantBare bool
	}{
		{name: "Category", code: `category == "proof"`, wantFull: true},
		{name: "Metadata", code: `metadata["complexity"] == "high"`, wantFull: true},
		{name: "Missing Metadata Key", code: `metadata["sensitivity"] == "high"`},
		{name: "Risk In", code: `risk in ["high", "critical"]`, wantFull: true},
		{name: "Duration", code: `duration_ms > 200`, wantFull: true},
		{name: "Status Or", code: `status == "recorded" || id == "abc"`, wantFull: true, wantBare: true},
		{name: "Message Contains", code: `message contains "proof"`, wantFull: true},
		{name: "Not System", code: `category != "system"`, wantFull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.code)
			if err != nil {
				t.Fatalf("CompileFilter(%q) error = %v", tt.code, err)
			}
			if got := f(entry); got != tt.wantFull {
				t.Errorf("filter(entry) = %v, want %v", got, tt.wantFull)
			}
			if got := f(bare); got != tt.wantBare {
				t.Errorf("filter(bare) = %v, want %v", got, tt.wantBare)
			}
		})
	}
}

func TestCompileFilter_Invalid(t *testing.T) {
	for _, code := range []string{
		`category ==`,
		`unknown_field == 1`,
		`category`, // not a bool
	} {
		t.Run(code, func(t *testing.T) {
			_, err := CompileFilter(code)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("CompileFilter(%q) error = %v, want validation error", code, err)
			}
		})
	}
}
