// Package idhash derives stable identifiers for published records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeEventID returns hex(SHA256(cycle_id|data_type|country_code_3)).
// Republishing a cycle yields the same IDs, which lets consumers drop
// duplicates.
func ComputeEventID(cycleID, dataType, countryCode3 string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{cycleID, dataType, countryCode3}, "|")))
	return hex.EncodeToString(sum[:])
}
