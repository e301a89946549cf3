package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/darmiel/privaudit/internal/core"
)

// Fingerprint returns the base64 encoded SHA-256 digest of the entries'
// JSON encoding. Identical entry sequences always yield the same fingerprint.
func Fingerprint(entries []core.AuditEntry) (string, error) {
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encoding entries for fingerprint: %w", err)
	}
	hash := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}
