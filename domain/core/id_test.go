package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseRunID checks that only non-empty UUIDs are accepted
func TestParseRunID(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID(id.String())
	if err != nil {
		t.Fatalf("ParseRunID(%q) error = %v", id, err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	for _, bad := range []string{"", "   ", "not-a-uuid"} {
		if _, err := ParseRunID(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

// TestComputeCohortHashOrderIndependent tests that key order does not matter
func TestComputeCohortHashOrderIndependent(t *testing.T) {
	a := ComputeCohortHash([]string{"p1", "p2", "p3"})
	b := ComputeCohortHash([]string{"p3", "p1", "p2"})
	if a != b {
		t.Errorf("Expected equal hashes, got %s and %s", a, b)
	}
	c := ComputeCohortHash([]string{"p1", "p2"})
	if a == c {
		t.Error("Expected different cohorts to hash differently")
	}
}
