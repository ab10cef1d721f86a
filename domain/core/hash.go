package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// CohortHash fingerprints the set of samples a run was computed from.
type CohortHash Hash

func (h CohortHash) String() string { return Hash(h).String() }

// ComputeCohortHash hashes the sample keys independently of their order.
func ComputeCohortHash(keys []string) CohortHash {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	return CohortHash(NewHash([]byte(strings.Join(sorted, "\n"))))
}
