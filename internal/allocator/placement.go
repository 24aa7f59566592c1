package allocator

// normalize turns a requested payload size into the actual block size
// to carve: room for the header, rounded up to Align, floored at
// MinBlockSize.
func normalize(n uint64) uint64 {
	need := alignUp(n+Word, Align)
	if need < MinBlockSize {
		need = MinBlockSize
	}

	return need
}

// findFit searches classes starting at getIndex(need) upward, and
// within each nonempty class walks its circular list for the first
// node whose block is big enough. On a hit, the node is removed from
// its list before being returned. Callers receive it already
// detached. Returns ok=false on a miss across every class.
func (h *Heap) findFit(need uint64) (headerOff int, ok bool) {
	for class := getIndex(need); class < numClasses; class++ {
		head := h.heads[class]
		if head == noNode {
			continue
		}

		node := head
		for {
			hdr := headerOffOfPayload(node)
			size := decodeSize(h.readWord(hdr))

			if size >= need {
				h.removeFree(node, class)

				return hdr, true
			}

			node = h.nodeNext(node)
			if node == head {
				break
			}
		}
	}

	return 0, false
}

// place carves a block of exactly need bytes out of the free block at
// headerOff (of size >= need), splitting off the remainder when it's
// big enough to be its own block, and returns the payload offset of
// the newly allocated block.
func (h *Heap) place(headerOff int, need uint64) int {
	size := decodeSize(h.readWord(headerOff))
	prevAlloc := decodePrevAlloc(h.readWord(headerOff))

	remainder := size - need
	if remainder >= MinBlockSize {
		h.writeWord(headerOff, encodeHeader(need, prevAlloc, true))

		freeOff := nextHeaderOff(headerOff, need)
		h.writeWord(freeOff, encodeHeader(remainder, true, false))
		h.writeFooter(freeOff, remainder, false)
		h.addFree(freeOff)

		h.clearPrevAlloc(nextHeaderOff(freeOff, remainder))
	} else {
		h.writeWord(headerOff, encodeHeader(size, prevAlloc, true))
		h.setPrevAlloc(nextHeaderOff(headerOff, size))
	}

	return payloadOff(headerOff)
}

// allocate is the placement engine entry point: find a fit, split it,
// or extend the heap on a miss.
func (h *Heap) allocate(n uint64) (int, bool) {
	need := normalize(n)

	if headerOff, ok := h.findFit(need); ok {
		return h.place(headerOff, need), true
	}

	headerOff, ok := h.extendHeap(need)
	if !ok {
		return 0, false
	}

	return payloadOff(headerOff), true
}
