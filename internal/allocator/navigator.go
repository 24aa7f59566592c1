package allocator

// footerOff returns the offset of the footer word of a block with the
// given header offset and size. Only meaningful when the block is
// free; allocated blocks carry no footer.
func footerOff(headerOff int, size uint64) int {
	return headerOff + int(size) - Word
}

// nextHeaderOff returns the header offset of the block physically
// following the one at headerOff with the given size.
func nextHeaderOff(headerOff int, size uint64) int {
	return headerOff + int(size)
}

// prevFooterOff returns the offset of the previous block's footer.
// Valid only when decodePrevAlloc(header) is false; the prologue
// guarantees a dereferenceable word here even for the first real
// block, so this read is always safe to perform once prev_alloc has
// been checked, never before.
func prevFooterOff(headerOff int) int {
	return headerOff - Word
}

// prevHeaderOff returns the previous block's header offset, derived
// from its footer.
func (h *Heap) prevHeaderOff(headerOff int) int {
	pf := prevFooterOff(headerOff)
	prevSize := decodeSize(h.readWord(pf))

	return pf - int(prevSize) + Word
}

// payloadOff returns the payload offset of a block given its header
// offset.
func payloadOff(headerOff int) int {
	return headerOff + Word
}

// headerOffOfPayload returns a block's header offset given its
// payload offset. The free-list node address is identified with the
// payload address, so this also maps a list node back to its header.
func headerOffOfPayload(payload int) int {
	return payload - Word
}
