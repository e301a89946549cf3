package audit

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/privaudit/internal/core"
)

// ValidateMetadata rejects metadata with empty keys.
func ValidateMetadata(meta core.Metadata) error {
	for k := range meta {
		if k == "" {
			return core.NewValidationError("metadata", "", "keys must not be empty")
		}
	}
	return nil
}

// ParseMetadata converts untyped metadata (as decoded from JSON or YAML) into
// core.Metadata. Every value must already be a string; numbers, booleans and
// nested structures are rejected instead of coerced.
func ParseMetadata(raw map[string]any) (core.Metadata, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var meta core.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &meta,
		WeaklyTypedInput: false,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating metadata decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, core.NewValidationError("metadata", "", err.Error())
	}

	for k, v := range raw {
		if v == nil {
			return nil, core.NewValidationError("metadata", k, "value must be a string, got null")
		}
	}
	if err := ValidateMetadata(meta); err != nil {
		return nil, err
	}
	return meta, nil
}
