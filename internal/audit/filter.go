package audit

import (
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/darmiel/privaudit/internal/core"
)

// Filter selects entries in Find.
type Filter func(entry core.AuditEntry) bool

// filterEnv is what filter expressions see, e.g.
//
//	category == "proof" && metadata["complexity"] == "high"
//	risk in ["high", "critical"] && duration_ms > 200
type filterEnv struct {
	ID         string            `expr:"id"`
	Category   string            `expr:"category"`
	Message    string            `expr:"message"`
	Status     string            `expr:"status"`
	Risk       string            `expr:"risk"`
	Session    string            `expr:"session"`
	Metadata   map[string]string `expr:"metadata"`
	DurationMs int64             `expr:"duration_ms"`
	Time       time.Time         `expr:"time"`
}

func newFilterEnv(e core.AuditEntry) filterEnv {
	env := filterEnv{
		ID:       e.ID,
		Category: string(e.Category),
		Message:  e.Message,
		Status:   string(e.Status),
		Risk:     string(e.RiskLevel),
		Session:  e.SessionID,
		Metadata: e.Metadata,
		Time:     e.Timestamp,
	}
	if env.Metadata == nil {
		env.Metadata = map[string]string{}
	}
	if e.DurationMs != nil {
		env.DurationMs = *e.DurationMs
	}
	return env
}

// CompileFilter compiles a boolean expression into a Filter.
// Entries for which the expression fails at runtime do not match.
func CompileFilter(code string) (Filter, error) {
	program, err := expr.Compile(code, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, core.NewValidationError("filter", code, err.Error())
	}
	return programFilter(program), nil
}

func programFilter(program *vm.Program) Filter {
	return func(entry core.AuditEntry) bool {
		out, err := expr.Run(program, newFilterEnv(entry))
		if err != nil {
			return false
		}
		matched, _ := out.(bool)
		return matched
	}
}

// MatchAll is a filter which accepts every entry.
func MatchAll(core.AuditEntry) bool {
	return true
}
