package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FingerprintLength is the hex length of a display fingerprint. Long enough
// for log correlation, deliberately too short for integrity verification.
const FingerprintLength = 16

// Fingerprint produces a one-way digest of an already-sanitized payload.
// Serialization is canonical (encoding/json orders mapping keys), so the same
// payload always yields the same digest. Callers must only ever pass data
// that has been through the masker; the gateway enforces that ordering.
func Fingerprint(sanitized any) (string, error) {
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return "", fmt.Errorf("serialize payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:FingerprintLength], nil
}
