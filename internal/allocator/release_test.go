package allocator

import "testing"

// TestFreeBothNeighborsAllocatedJustMarksFree covers the simplest
// coalescing case: no physical neighbor is free, so the block is
// simply flipped to free and inserted into its list.
func TestFreeBothNeighborsAllocatedJustMarksFree(t *testing.T) {
	h := newTestHeap(t)

	a, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc a: %v", err)
	}

	if _, err := h.Malloc(32); err != nil { // keep a away from the epilogue
		t.Fatalf("Malloc b: %v", err)
	}

	h.Free(a)

	class := getIndex(normalize(32))
	if h.heads[class] != int(a) {
		t.Fatalf("expected a's node at the head of its class list, got %d want %d", h.heads[class], int(a))
	}
}

// TestFreeCoalescesWithFreePredecessor covers merging left: the
// preceding block is free, so freeing this one must remove the
// predecessor from its list and reinsert a single merged block.
func TestFreeCoalescesWithFreePredecessor(t *testing.T) {
	h := newTestHeap(t)

	a, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc a: %v", err)
	}

	b, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc b: %v", err)
	}

	if _, err := h.Malloc(32); err != nil { // sentinel so b isn't epilogue-adjacent
		t.Fatalf("Malloc sentinel: %v", err)
	}

	aHeader := headerOffOfPayload(int(a))
	aSize := decodeSize(h.readWord(aHeader))
	bHeader := headerOffOfPayload(int(b))
	bSize := decodeSize(h.readWord(bHeader))

	h.Free(a)
	h.Free(b)

	merged := h.readWord(aHeader)
	if decodeAlloc(merged) {
		t.Fatal("merged block should be free")
	}

	if got := decodeSize(merged); got != aSize+bSize {
		t.Errorf("merged size = %d, want %d", got, aSize+bSize)
	}

	class := getIndex(aSize + bSize)
	if h.heads[class] != int(a) {
		t.Errorf("merged block should be registered at a's payload offset, head=%d want %d", h.heads[class], int(a))
	}

	if err := h.Check(); err != nil {
		t.Fatalf("heap inconsistent after merge: %v", err)
	}
}

// TestFreeCoalescesWithFreeSuccessor covers merging right: the
// following block is free, so freeing this one must remove the
// successor from its list and reinsert a single merged block rooted
// at the original header.
func TestFreeCoalescesWithFreeSuccessor(t *testing.T) {
	h := newTestHeap(t)

	a, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc a: %v", err)
	}

	b, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc b: %v", err)
	}

	if _, err := h.Malloc(32); err != nil {
		t.Fatalf("Malloc sentinel: %v", err)
	}

	aHeader := headerOffOfPayload(int(a))
	aSizeBefore := decodeSize(h.readWord(aHeader))
	bHeader := headerOffOfPayload(int(b))
	bSizeBefore := decodeSize(h.readWord(bHeader))

	h.Free(b)
	h.Free(a)

	merged := h.readWord(aHeader)
	if decodeAlloc(merged) {
		t.Fatal("merged block should be free")
	}

	if got := decodeSize(merged); got != aSizeBefore+bSizeBefore {
		t.Errorf("merged size = %d, want %d", got, aSizeBefore+bSizeBefore)
	}

	if err := h.Check(); err != nil {
		t.Fatalf("heap inconsistent after merge: %v", err)
	}
}

// TestFreeCoalescesBothNeighbors covers the full three-way merge: both
// the predecessor and successor are free when the middle block is
// released, collapsing all three into one.
func TestFreeCoalescesBothNeighbors(t *testing.T) {
	h := newTestHeap(t)

	a, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc a: %v", err)
	}

	b, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc b: %v", err)
	}

	c, err := h.Malloc(32)
	if err != nil {
		t.Fatalf("Malloc c: %v", err)
	}

	if _, err := h.Malloc(32); err != nil { // sentinel past c
		t.Fatalf("Malloc sentinel: %v", err)
	}

	aHeader := headerOffOfPayload(int(a))
	aSize := decodeSize(h.readWord(aHeader))
	bHeader := headerOffOfPayload(int(b))
	bSize := decodeSize(h.readWord(bHeader))
	cHeader := headerOffOfPayload(int(c))
	cSize := decodeSize(h.readWord(cHeader))

	h.Free(a)
	h.Free(c)
	h.Free(b) // merges a+b+c into a single block rooted at aHeader

	merged := h.readWord(aHeader)
	if decodeAlloc(merged) {
		t.Fatal("triple-merged block should be free")
	}

	if got := decodeSize(merged); got != aSize+bSize+cSize {
		t.Errorf("merged size = %d, want %d", got, aSize+bSize+cSize)
	}

	class := getIndex(aSize + bSize + cSize)
	if h.heads[class] != int(a) {
		t.Errorf("merged block should be registered at a's payload offset, head=%d want %d", h.heads[class], int(a))
	}

	if err := h.Check(); err != nil {
		t.Fatalf("heap inconsistent after triple merge: %v", err)
	}
}
