package allocator

import (
	"github.com/orizon-lang/heapalloc/internal/errors"
)

// Ptr is an offset into the heap's backing storage, identifying a
// payload the same way a pointer would in a real address space. It
// stays valid across Provider growth because it's relative, not an
// absolute machine address.
type Ptr int

// NullPtr is the zero value returned on a miss or for a zero-size
// request, analogous to a C NULL.
const NullPtr Ptr = -1

// Malloc allocates at least n bytes and returns an Align-aligned Ptr,
// or NullPtr if the heap provider could not be extended to satisfy
// the request. n may be 0, in which case the call still returns a
// valid, minimum-sized block.
func (h *Heap) Malloc(n uintptr) (Ptr, error) {
	h.assertConsistent()
	defer h.assertConsistent()

	payload, ok := h.allocate(uint64(n))
	if !ok {
		return NullPtr, errors.OutOfHeap(uint64(normalize(uint64(n))))
	}

	h.allocCount++
	h.totalAllocated += decodeSize(h.readWord(headerOffOfPayload(payload)))

	return Ptr(payload), nil
}

// Free releases p, coalescing with free neighbors. Freeing NullPtr is
// a no-op.
func (h *Heap) Free(p Ptr) {
	if p == NullPtr {
		return
	}

	h.assertConsistent()
	defer h.assertConsistent()

	headerOff := headerOffOfPayload(int(p))
	h.totalFreed += decodeSize(h.readWord(headerOff))
	h.freeBlock(headerOff)
	h.freeCount++
}

// Realloc resizes the allocation at p to n bytes, preserving the
// min(old, new) leading bytes, and returns the (possibly relocated)
// new Ptr. A nil old pointer behaves like Malloc; a zero new size
// behaves like Free and returns NullPtr unambiguously.
func (h *Heap) Realloc(p Ptr, n uintptr) (Ptr, error) {
	if p == NullPtr {
		return h.Malloc(n)
	}

	if n == 0 {
		h.Free(p)

		return NullPtr, nil
	}

	oldHeader := headerOffOfPayload(int(p))
	oldSize := decodeSize(h.readWord(oldHeader))
	oldPayloadSize := oldSize - Word

	newPtr, err := h.Malloc(n)
	if err != nil {
		return NullPtr, err
	}

	copyLen := oldPayloadSize
	if uint64(n) < copyLen {
		copyLen = uint64(n)
	}

	copy(h.Slice(newPtr, int(copyLen)), h.Slice(p, int(copyLen)))
	h.Free(p)

	return newPtr, nil
}

// Calloc allocates space for nmemb elements of size bytes each,
// zeroed, failing with an overflow error (rather than silently
// wrapping) if the product of nmemb and size cannot be represented.
func (h *Heap) Calloc(nmemb, size uintptr) (Ptr, error) {
	total, overflowed := checkedMul(uint64(nmemb), uint64(size))
	if overflowed {
		return NullPtr, errors.IntegerOverflow("calloc", nmemb, size)
	}

	p, err := h.Malloc(uintptr(total))
	if err != nil {
		return NullPtr, err
	}

	b := h.Slice(p, int(total))
	for i := range b {
		b[i] = 0
	}

	return p, nil
}

// Slice returns a view of n bytes of p's payload, backed directly by
// the heap's storage. The returned slice is only valid until the next
// call that might grow the provider (Malloc/Realloc/Calloc); callers
// that need to retain data across one must copy it out first.
func (h *Heap) Slice(p Ptr, n int) []byte {
	off := int(p)

	return h.provider.Bytes()[off : off+n]
}

// UsableSize reports the number of payload bytes available at p,
// which may exceed what was originally requested (the block may have
// been rounded up or not split).
func (h *Heap) UsableSize(p Ptr) uintptr {
	if p == NullPtr {
		return 0
	}

	header := headerOffOfPayload(int(p))

	return uintptr(decodeSize(h.readWord(header)) - Word)
}

// checkedMul multiplies a and b, reporting overflow instead of
// wrapping.
func checkedMul(a, b uint64) (result uint64, overflowed bool) {
	if a == 0 || b == 0 {
		return 0, false
	}

	product := a * b
	if product/a != b {
		return 0, true
	}

	return product, false
}
