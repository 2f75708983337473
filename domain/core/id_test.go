package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 1000

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
}

func TestParseRunID(t *testing.T) {
	id := NewRunID()
	parsed, err := ParseRunID(" " + id.String() + " ")
	if err != nil {
		t.Fatalf("ParseRunID(%q) failed: %v", id, err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	if _, err := ParseRunID(""); err == nil {
		t.Error("Expected error for empty run ID")
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("Expected error for non-UUID run ID")
	}
}

func TestComputeFingerprint_OrderIndependent(t *testing.T) {
	a := map[string]float64{"z": 1.5, "p": 0.25, "chi2": 3}
	b := map[string]float64{"chi2": 3, "z": 1.5, "p": 0.25}

	if ComputeFingerprint(a) != ComputeFingerprint(b) {
		t.Error("Expected fingerprint to ignore map order")
	}

	b["p"] = 0.2500000001
	if ComputeFingerprint(a) == ComputeFingerprint(b) {
		t.Error("Expected fingerprint to change when a value changes")
	}
}

func TestErrorClassification(t *testing.T) {
	cellErr := NewCellError(3, "age", "abc", nil)
	if !IsInputError(cellErr) {
		t.Errorf("Expected %v to be an input error", cellErr)
	}
	if IsDomainError(cellErr) {
		t.Errorf("Did not expect %v to be a domain error", cellErr)
	}

	degErr := NewDegenerateError("z-test", "zero totals")
	if !IsDomainError(degErr) {
		t.Errorf("Expected %v to be a domain error", degErr)
	}
}
