// Package sha256 includes tests for the SHA-256 hasher adapter.
package sha256

import "testing"

// TestHasherHashDeterministic ensures repeated hashing yields the same digest.
func TestHasherHashDeterministic(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	again, err := h.Hash([]byte("hello world"))
	if err != nil {
		t.Fatalf("Hash() repeat error = %v", err)
	}
	if again != got {
		t.Fatalf("expected deterministic hash, got %s vs %s", got, again)
	}
}

// TestHasherElementID checks length, stability, and part separation.
func TestHasherElementID(t *testing.T) {
	t.Parallel()

	h := New()
	id := h.ElementID("Title", "Quarterly Report", "a.pdf", 1, 0)
	if len(id) != ElementIDLength {
		t.Fatalf("expected %d chars, got %d", ElementIDLength, len(id))
	}
	if again := h.ElementID("Title", "Quarterly Report", "a.pdf", 1, 0); again != id {
		t.Fatalf("expected stable id, got %s vs %s", id, again)
	}
	if other := h.ElementID("Title", "Quarterly Report", "a.pdf", 1, 1); other == id {
		t.Fatalf("expected index to change id")
	}
	if h.ElementID("ab", "c", "", 0, 0) == h.ElementID("a", "bc", "", 0, 0) {
		t.Fatalf("expected length-prefixed parts to differ")
	}
}
