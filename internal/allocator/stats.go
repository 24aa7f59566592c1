package allocator

// Stats reports cumulative allocator activity. Bytes counted here are
// block sizes (payload + header), not raw request sizes.
type Stats struct {
	AllocationCount uint64
	FreeCount       uint64
	ExtendCount     uint64
	TotalAllocated  uint64
	TotalFreed      uint64
	BytesInUse      uint64
	HeapBytes       uint64
}

// Stats returns a snapshot of this heap's cumulative activity.
func (h *Heap) Stats() Stats {
	heapBytes := 0
	if h.HeapHi() >= h.HeapLo() {
		heapBytes = h.HeapHi() - h.HeapLo() + 1
	}

	return Stats{
		AllocationCount: h.allocCount,
		FreeCount:       h.freeCount,
		ExtendCount:     h.extendCount,
		TotalAllocated:  h.totalAllocated,
		TotalFreed:      h.totalFreed,
		BytesInUse:      h.totalAllocated - h.totalFreed,
		HeapBytes:       uint64(heapBytes),
	}
}
