package allocator

import (
	"testing"

	"github.com/orizon-lang/heapalloc/internal/heapprovider"
)

// newTestHeap builds a Heap with the consistency checker enabled, over
// a fresh in-memory provider, failing the test immediately on error.
func newTestHeap(t *testing.T) *Heap {
	t.Helper()

	h, err := New(heapprovider.NewMemProvider(0), WithDebug(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return h
}

// newTestHeapNoDebug is like newTestHeap but leaves the consistency
// checker off, for tests that want to construct a deliberately broken
// heap state and assert Check() reports it.
func newTestHeapNoDebug(t *testing.T) *Heap {
	t.Helper()

	h, err := New(heapprovider.NewMemProvider(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return h
}
