// utils/fingerprint.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Positions in the fingerprint field list that are blanked before hashing.
const (
	StatusPosition         = 8  // free-text status message
	ExplorationPDFPosition = 10 // stored protocol file path
)

var excludedPositions = []int{StatusPosition, ExplorationPDFPosition}

// FingerprintFields hashes a positional list of record values with the
// status message and file path positions blanked out, so two lists that
// only differ there produce the same digest. Lists shorter than an
// excluded position are hashed as-is.
func FingerprintFields(values []string) string {
	working := make([]string, len(values))
	copy(working, values)
	for _, pos := range excludedPositions {
		if pos < len(working) {
			working[pos] = ""
		}
	}

	// A []string always marshals.
	payload, _ := json.Marshal(working)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
