// Package ids generates and resolves opaque record identifiers.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a generated ID.
const Length = 32

// New returns a fresh random identifier: the 32 lowercase hex digits of a
// version 4 UUID.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
