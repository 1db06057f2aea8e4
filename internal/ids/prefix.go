package ids

import (
	"errors"
	"strings"
)

var (
	// ErrNoMatch indicates no ID starts with the given prefix.
	ErrNoMatch = errors.New("no id matches prefix")

	// ErrAmbiguous indicates more than one ID starts with the given prefix.
	ErrAmbiguous = errors.New("ambiguous id prefix")
)

// UniquePrefixLengths returns the shortest unique prefix length for each ID,
// keyed by the lowercased ID.
func UniquePrefixLengths(ids []string) map[string]int {
	uniqueIDs := make([]string, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == "" || seen[idLower] {
			continue
		}
		seen[idLower] = true
		uniqueIDs = append(uniqueIDs, idLower)
	}

	lengths := make(map[string]int, len(uniqueIDs))
	for _, id := range uniqueIDs {
		lengths[id] = uniquePrefixLength(id, uniqueIDs)
	}

	return lengths
}

func uniquePrefixLength(id string, ids []string) int {
	for length := 1; length <= len(id); length++ {
		prefix := id[:length]
		shared := false
		for _, other := range ids {
			if other != id && strings.HasPrefix(other, prefix) {
				shared = true
				break
			}
		}
		if !shared {
			return length
		}
	}

	return len(id)
}

// Resolve returns the single ID that equals or starts with prefix.
// Matching is case-insensitive; an exact match always wins.
func Resolve(ids []string, prefix string) (string, error) {
	needle := strings.ToLower(strings.TrimSpace(prefix))
	if needle == "" {
		return "", ErrNoMatch
	}

	var match string
	count := 0
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == needle {
			return id, nil
		}
		if strings.HasPrefix(idLower, needle) {
			match = id
			count++
		}
	}

	switch count {
	case 0:
		return "", ErrNoMatch
	case 1:
		return match, nil
	default:
		return "", ErrAmbiguous
	}
}
