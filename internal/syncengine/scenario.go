package syncengine

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/privaudit/internal/audit"
	"github.com/darmiel/privaudit/internal/core"
)

// Step is one caller supplied event of a sync cycle.
type Step struct {
	Category   core.Category
	Message    string
	Status     core.Status
	DurationMs *int64
	Metadata   core.Metadata
}

// Cycle is a named group of steps which is recorded as one sync cycle.
type Cycle struct {
	Name  string
	Steps []Step
}

type Scenario struct {
	Name   string
	Cycles []Cycle
}

type rawScenario struct {
	Name   string     `yaml:"name"`
	Cycles []rawCycle `yaml:"cycles"`
}

type rawCycle struct {
	Name  string    `yaml:"name"`
	Steps []rawStep `yaml:"steps"`
}

type rawStep struct {
	Category   string         `yaml:"category"`
	Message    string         `yaml:"message"`
	Status     string         `yaml:"status"`
	DurationMs *int64         `yaml:"duration_ms"`
	Metadata   map[string]any `yaml:"metadata"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a YAML scenario. Every step is checked
// up front so that a cycle never fails half way because of a typo.
func ParseScenario(data []byte) (*Scenario, error) {
	var raw rawScenario
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if len(raw.Cycles) == 0 {
		return nil, fmt.Errorf("scenario '%s' has no cycles", raw.Name)
	}

	scenario := &Scenario{Name: raw.Name}
	seen := make(map[string]struct{})
	for ci, rc := range raw.Cycles {
		if rc.Name == "" {
			return nil, fmt.Errorf("cycle #%d missing name", ci)
		}
		if _, dup := seen[rc.Name]; dup {
			return nil, fmt.Errorf("cycle name '%s' is not unique", rc.Name)
		}
		seen[rc.Name] = struct{}{}
		if len(rc.Steps) == 0 {
			return nil, fmt.Errorf("cycle '%s' has no steps", rc.Name)
		}

		cycle := Cycle{Name: rc.Name}
		for si, rs := range rc.Steps {
			step, err := rs.toStep()
			if err != nil {
				return nil, fmt.Errorf("cycle '%s' step #%d: %w", rc.Name, si, err)
			}
			cycle.Steps = append(cycle.Steps, step)
		}
		scenario.Cycles = append(scenario.Cycles, cycle)
	}
	return scenario, nil
}

func (rs rawStep) toStep() (Step, error) {
	category := core.Category(rs.Category)
	if !category.Valid() {
		return Step{}, core.NewValidationError("category", rs.Category, "unknown category")
	}
	status := core.Status(rs.Status)
	if status == "" {
		status = core.StatusRecorded
	}
	if !status.Valid() {
		return Step{}, core.NewValidationError("status", rs.Status, "unknown status")
	}
	if rs.Message == "" {
		return Step{}, fmt.Errorf("message is required")
	}
	if rs.DurationMs != nil && *rs.DurationMs < 0 {
		return Step{}, core.NewValidationError("duration_ms", fmt.Sprintf("%d", *rs.DurationMs), "must not be negative")
	}
	meta, err := audit.ParseMetadata(rs.Metadata)
	if err != nil {
		return Step{}, err
	}
	return Step{
		Category:   category,
		Message:    rs.Message,
		Status:     status,
		DurationMs: rs.DurationMs,
		Metadata:   meta,
	}, nil
}

func ms(v int64) *int64 {
	return &v
}

// DefaultScenario is the built-in privacy pipeline walk-through: a proof is
// generated, a private inference runs, the result is verified and the sync
// keys are rotated.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name: "privacy-pipeline",
		Cycles: []Cycle{
			{
				Name: "proof-generation",
				Steps: []Step{
					{Category: core.CategorySystem, Message: "circuit parameters loaded", Status: core.StatusRecorded, DurationMs: ms(35),
						Metadata: core.Metadata{"circuit": "ml_inference_v2"}},
					{Category: core.CategoryProof, Message: "witness computed for inference batch", Status: core.StatusRecorded, DurationMs: ms(420),
						Metadata: core.Metadata{"complexity": "medium", "constraints": "2^18"}},
					{Category: core.CategoryProof, Message: "zk-SNARK proof generated", Status: core.StatusVerified, DurationMs: ms(1840),
						Metadata: core.Metadata{"complexity": "high", "proof_system": "groth16"}},
				},
			},
			{
				Name: "private-inference",
				Steps: []Step{
					{Category: core.CategoryInference, Message: "encrypted input batch received", Status: core.StatusRecorded, DurationMs: ms(12),
						Metadata: core.Metadata{"sensitivity": "high", "batch": "32"}},
					{Category: core.CategoryInference, Message: "model evaluated on encrypted features", Status: core.StatusVerified, DurationMs: ms(268),
						Metadata: core.Metadata{"sensitivity": "high", "model": "risk-scorer"}},
					{Category: core.CategoryInference, Message: "aggregate metrics published", Status: core.StatusRecorded, DurationMs: ms(9),
						Metadata: core.Metadata{"sensitivity": "low"}},
				},
			},
			{
				Name: "on-chain-verification",
				Steps: []Step{
					{Category: core.CategoryVerification, Message: "proof submitted to verifier", Status: core.StatusPending, DurationMs: ms(95),
						Metadata: core.Metadata{"network": "testnet"}},
					{Category: core.CategoryVerification, Message: "verifier accepted proof", Status: core.StatusVerified, DurationMs: ms(2210),
						Metadata: core.Metadata{"network": "testnet", "confirmations": "3"}},
				},
			},
			{
				Name: "cipher-key-rotation",
				Steps: []Step{
					{Category: core.CategorySystem, Message: "cipher sync keys rotated", Status: core.StatusRecorded, DurationMs: ms(54),
						Metadata: core.Metadata{"key_epoch": "next"}},
					{Category: core.CategoryVerification, Message: "replica checksum mismatch", Status: core.StatusFailed, DurationMs: ms(31),
						Metadata: core.Metadata{"replica": "eu-2"}},
					{Category: core.CategorySystem, Message: "replica resynchronized", Status: core.StatusRecorded, DurationMs: ms(410),
						Metadata: core.Metadata{"replica": "eu-2"}},
				},
			},
		},
	}
}
