package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/syncengine"
)

func testEntry() core.AuditEntry {
	d := int64(420)
	return core.AuditEntry{
		ID:         "entry-1",
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Category:   core.CategoryProof,
		Message:    "zk-SNARK proof generated",
		Metadata:   core.Metadata{"complexity": "high", "proof_system": "groth16"},
		Status:     core.StatusVerified,
		RiskLevel:  core.RiskHigh,
		SessionID:  "session-1",
		DurationMs: &d,
	}
}

func TestPrinter_OnAppend(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.OnAppend(testEntry())

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected a single line, got %q", out)
	}
	for _, want := range []string{"proof", "zk-SNARK proof generated", "verified", "risk high", "420ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output contains escape codes with colors disabled: %q", out)
	}
}

func TestPrinter_PrintEntry(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.PrintEntry(testEntry())

	out := buf.String()
	for _, want := range []string{"entry-1", "session-1", "complexity:", "groth16", "420ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}

	buf.Reset()
	e := testEntry()
	e.Metadata = nil
	e.DurationMs = nil
	p.PrintEntry(e)
	if !strings.Contains(buf.String(), "(none)") || !strings.Contains(buf.String(), "(not reported)") {
		t.Errorf("expected placeholders for missing fields:\n%s", buf.String())
	}
}

func TestPrinter_PrintStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.PrintStats(core.AuditStats{
		TotalRecords: 3,
		ByCategory:   map[core.Category]int{core.CategoryProof: 2, core.CategorySystem: 1},
		ByStatus:     map[core.Status]int{core.StatusRecorded: 3},
		ByRiskLevel:  map[core.RiskLevel]int{core.RiskHigh: 1, core.RiskMedium: 1, core.RiskLow: 1},
		FirstRecord:  &first,
		LastRecord:   &first,
	})

	out := buf.String()
	for _, want := range []string{"Total records", "category", "proof", "status", "recorded", "risk", "medium"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	// zero counts are omitted
	if strings.Contains(out, "critical") {
		t.Errorf("output lists an empty risk level:\n%s", out)
	}
}

func TestPrinter_PrintStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true).PrintStats(core.AuditStats{})
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("expected (none) for missing timestamps:\n%s", buf.String())
	}
}

func TestPrinter_PrintSyncReport(t *testing.T) {
	start := time.Now()
	tests := []struct {
		name   string
		report syncengine.CycleReport
		want   string
	}{
		{
			name: "ok",
			report: syncengine.CycleReport{
				Cycle: "proof-generation", Started: start, Finished: start.Add(time.Second),
				Recorded: 3, ByRisk: map[core.RiskLevel]int{core.RiskHigh: 1},
			},
			want: "proof-generation ok: 3 recorded, 0 rejected, 0 failed",
		},
		{
			name: "degraded",
			report: syncengine.CycleReport{
				Cycle: "cipher-key-rotation", Started: start, Finished: start,
				Recorded: 3, Failed: 1,
			},
			want: "cipher-key-rotation degraded: 3 recorded, 0 rejected, 1 failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf, true).PrintSyncReport(tt.report)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}
