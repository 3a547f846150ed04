package store

import (
	"strings"

	"github.com/google/uuid"
)

// generatePrefixedID creates a globally unique ID in the format:
//
//	{prefix}_{32_hex_chars}
//
// The hex part is a random (v4) UUID with the dashes removed.
func generatePrefixedID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
