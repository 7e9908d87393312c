package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash returns the hex SHA-256 of a unit's source bytes.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// RulesHash computes a deterministic hash over named rule sources. Order of
// the map does not matter; an empty set hashes to "".
func RulesHash(rules map[string]string) string {
	if len(rules) == 0 {
		return ""
	}
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "rule:%s\n%s\n", name, rules[name])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
