package syncengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/logging"
	"github.com/darmiel/privaudit/internal/tasks"
)

// Recorder is the part of audit.Recorder the engine needs.
type Recorder interface {
	Append(category core.Category, message string, opts audit.AppendOptions) (core.AuditEntry, error)
}

// CycleReport summarizes one recorded sync cycle.
type CycleReport struct {
	Cycle    string    `json:"cycle"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Recorded is the number of steps appended to the trail.
	Recorded int `json:"recorded"`
	// Rejected is the number of steps the recorder refused.
	Rejected int `json:"rejected"`
	// Failed is the number of recorded steps with status "failed".
	Failed int `json:"failed"`

	// ReportedMs is the sum of the durations reported by the steps.
	ReportedMs int64 `json:"reported_ms"`

	ByRisk map[core.RiskLevel]int `json:"by_risk"`
}

// Elapsed is the wall clock time spent recording the cycle.
func (r CycleReport) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

type Option func(e *Engine)

// WithPace waits between steps, so that a console observer can follow along.
func WithPace(d time.Duration) Option {
	return func(e *Engine) {
		e.pace = d
	}
}

// WithReportFunc is called with every finished cycle report.
func WithReportFunc(fn func(CycleReport)) Option {
	return func(e *Engine) {
		e.onReport = fn
	}
}

// Engine replays scenario cycles into the audit trail.
type Engine struct {
	recorder Recorder
	scenario *Scenario
	pace     time.Duration
	onReport func(CycleReport)

	mu   sync.Mutex
	next int
}

// New creates an engine for scenario. A nil scenario, or one without cycles,
// is replaced by DefaultScenario.
func New(recorder Recorder, scenario *Scenario, opts ...Option) *Engine {
	if scenario == nil || len(scenario.Cycles) == 0 {
		scenario = DefaultScenario()
	}
	e := &Engine{
		recorder: recorder,
		scenario: scenario,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Scenario() *Scenario {
	return e.scenario
}

// NextCycle returns the cycles of the scenario round robin.
func (e *Engine) NextCycle() Cycle {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.scenario.Cycles[e.next%len(e.scenario.Cycles)]
	e.next++
	return c
}

// RunCycle appends every step of the cycle, framed by a start and a completion
// system entry. It stops early if ctx is canceled.
func (e *Engine) RunCycle(ctx context.Context, cycle Cycle, logger logging.InternalLogger) (CycleReport, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	report := CycleReport{
		Cycle:   cycle.Name,
		Started: time.Now(),
		ByRisk:  make(map[core.RiskLevel]int),
	}

	if _, err := e.recorder.Append(core.CategorySystem, fmt.Sprintf("sync cycle '%s' started", cycle.Name), audit.AppendOptions{
		Status:   core.StatusPending,
		Metadata: core.Metadata{"cycle": cycle.Name, "steps": fmt.Sprintf("%d", len(cycle.Steps))},
	}); err != nil {
		return report, fmt.Errorf("recording cycle start: %w", err)
	}
	logger.Info("sync cycle '%s' started with %d steps", cycle.Name, len(cycle.Steps))

	for i, step := range cycle.Steps {
		if i > 0 && e.pace > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.pace):
			}
		}
		if err := ctx.Err(); err != nil {
			report.Finished = time.Now()
			logger.Warn("sync cycle '%s' interrupted after %d steps", cycle.Name, i)
			return report, fmt.Errorf("sync cycle '%s' interrupted: %w", cycle.Name, err)
		}

		entry, err := e.recorder.Append(step.Category, step.Message, audit.AppendOptions{
			Metadata:   withCycle(step.Metadata, cycle.Name),
			Status:     step.Status,
			DurationMs: step.DurationMs,
		})
		if err != nil {
			report.Rejected++
			logger.Warn("step #%d of cycle '%s' rejected: %v", i, cycle.Name, err)
			continue
		}

		report.Recorded++
		report.ByRisk[entry.RiskLevel]++
		if entry.Status == core.StatusFailed {
			report.Failed++
		}
		if entry.DurationMs != nil {
			report.ReportedMs += *entry.DurationMs
		}
	}

	status := core.StatusVerified
	if report.Failed > 0 || report.Rejected > 0 {
		status = core.StatusFailed
	}
	report.Finished = time.Now()
	elapsed := report.Elapsed().Milliseconds()
	if _, err := e.recorder.Append(core.CategorySystem, fmt.Sprintf("sync cycle '%s' completed", cycle.Name), audit.AppendOptions{
		Status:     status,
		DurationMs: &elapsed,
		Metadata: core.Metadata{
			"cycle":    cycle.Name,
			"recorded": fmt.Sprintf("%d", report.Recorded),
			"rejected": fmt.Sprintf("%d", report.Rejected),
			"failed":   fmt.Sprintf("%d", report.Failed),
		},
	}); err != nil {
		return report, fmt.Errorf("recording cycle completion: %w", err)
	}

	logger.Info("sync cycle '%s' completed: %d recorded, %d rejected, %d failed",
		cycle.Name, report.Recorded, report.Rejected, report.Failed)
	if e.onReport != nil {
		e.onReport(report)
	}
	return report, nil
}

// RunAll runs every cycle of the scenario once, in order.
func (e *Engine) RunAll(ctx context.Context, logger logging.InternalLogger) ([]CycleReport, error) {
	reports := make([]CycleReport, 0, len(e.scenario.Cycles))
	for _, cycle := range e.scenario.Cycles {
		report, err := e.RunCycle(ctx, cycle, logger)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Task adapts the engine to the task manager: every run records the next cycle.
func (e *Engine) Task() tasks.TaskFunc {
	return func(ctx context.Context, logger logging.InternalLogger) error {
		_, err := e.RunCycle(ctx, e.NextCycle(), logger)
		return err
	}
}

func withCycle(meta core.Metadata, cycle string) core.Metadata {
	out := meta.Clone()
	if out == nil {
		out = core.Metadata{}
	}
	if _, ok := out["cycle"]; !ok {
		out["cycle"] = cycle
	}
	return out
}
