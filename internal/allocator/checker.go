package allocator

import (
	"fmt"

	"github.com/orizon-lang/heapalloc/internal/errors"
)

// Check walks the heap from the first real block (just past the
// prologue) to the epilogue, verifying every heap invariant:
// alignment and minimum size, exact tiling, prev_alloc coherence, no
// two adjacent free blocks, footer/header agreement on free blocks,
// and free-list membership consistency. It is read-only and safe to
// call at any time, debug mode or not.
func (h *Heap) Check() error {
	seen := map[int]int{} // free block header offset -> expected class

	cur := nextHeaderOff(h.prologueHeader, PrologueSize)
	prevAllocActual := true // the prologue is allocated

	for {
		word := h.readWord(cur)
		size := decodeSize(word)
		alloc := decodeAlloc(word)
		prevAlloc := decodePrevAlloc(word)

		if size == 0 {
			if cur != h.epilogue {
				return errors.InvariantViolation("tiling", fmt.Sprintf("unexpected zero-size block at %d before recorded epilogue %d", cur, h.epilogue))
			}

			if !alloc {
				return errors.InvariantViolation("epilogue-alloc", "epilogue must be marked allocated")
			}

			break
		}

		if size%Align != 0 || size < MinBlockSize {
			return errors.InvariantViolation("alignment", fmt.Sprintf("block at %d has invalid size %d", cur, size))
		}

		if cur > h.HeapHi() || cur < h.HeapLo() {
			return errors.InvariantViolation("bounds", fmt.Sprintf("block header at %d outside heap [%d,%d]", cur, h.HeapLo(), h.HeapHi()))
		}

		if prevAlloc != prevAllocActual {
			return errors.InvariantViolation("prev-alloc", fmt.Sprintf("block at %d has prev_alloc=%v but preceding block alloc=%v", cur, prevAlloc, prevAllocActual))
		}

		if !alloc {
			if !prevAllocActual {
				return errors.InvariantViolation("coalescing", fmt.Sprintf("two adjacent free blocks ending at %d", cur))
			}

			footer := h.readWord(footerOff(cur, size))
			if decodeSize(footer) != size {
				return errors.InvariantViolation("footer-size", fmt.Sprintf("block at %d: header size %d != footer size %d", cur, size, decodeSize(footer)))
			}

			if decodeAlloc(footer) {
				return errors.InvariantViolation("footer-alloc", fmt.Sprintf("free block at %d has footer alloc bit set", cur))
			}

			node := payloadOff(cur)
			if node < h.HeapLo() || node+2*Word-1 > h.HeapHi() {
				return errors.InvariantViolation("node-bounds", fmt.Sprintf("free node at %d outside heap", node))
			}

			if node%Align != 0 {
				return errors.InvariantViolation("node-alignment", fmt.Sprintf("free node at %d is not %d-byte aligned", node, Align))
			}

			seen[cur] = getIndex(size)
		}

		prevAllocActual = alloc
		cur = nextHeaderOff(cur, size)
	}

	return h.checkListMembership(seen)
}

// checkListMembership verifies every free block found by the forward
// walk appears in exactly the list its size maps to, and that every
// list contains only free blocks of the matching class.
func (h *Heap) checkListMembership(seen map[int]int) error {
	remaining := make(map[int]int, len(seen))
	for k, v := range seen {
		remaining[k] = v
	}

	for class := 0; class < numClasses; class++ {
		head := h.heads[class]
		if head == noNode {
			continue
		}

		node := head
		count := 0

		for {
			header := headerOffOfPayload(node)

			expectedClass, ok := remaining[header]
			if !ok {
				return errors.InvariantViolation("list-membership", fmt.Sprintf("node %d in class %d list not found as a free block in the forward walk", node, class))
			}

			if expectedClass != class {
				return errors.InvariantViolation("list-membership", fmt.Sprintf("node %d has size class %d but lives in list %d", node, expectedClass, class))
			}

			delete(remaining, header)

			node = h.nodeNext(node)
			count++

			if node == head {
				break
			}

			if count > len(seen)+1 {
				return errors.InvariantViolation("list-cycle", fmt.Sprintf("class %d list does not terminate back at its head", class))
			}
		}
	}

	if len(remaining) != 0 {
		return errors.InvariantViolation("list-membership", fmt.Sprintf("%d free block(s) found by the forward walk are absent from every list", len(remaining)))
	}

	return nil
}

// assertConsistent panics on an invariant violation. Invariant
// violations detected by the debug checker are not a recoverable
// condition.
func (h *Heap) assertConsistent() {
	if !h.debug {
		return
	}

	if err := h.Check(); err != nil {
		panic(err)
	}
}
