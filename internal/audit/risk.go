package audit

import "github.com/darmiel/privaudit/internal/core"

const (
	SensitivityKey = "sensitivity"
	ComplexityKey  = "complexity"
)

// DeriveRiskLevel classifies an entry from its category and metadata.
// It is pure: the same inputs always produce the same level.
func DeriveRiskLevel(category core.Category, meta core.Metadata) core.RiskLevel {
	switch category {
	case core.CategorySystem:
		return core.RiskLow
	case core.CategoryVerification:
		return core.RiskMedium
	case core.CategoryInference:
		if meta[SensitivityKey] == "high" {
			return core.RiskHigh
		}
		return core.RiskMedium
	case core.CategoryProof:
		if meta[ComplexityKey] == "high" {
			return core.RiskHigh
		}
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}
