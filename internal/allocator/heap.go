package allocator

import (
	"github.com/orizon-lang/heapalloc/internal/errors"
	"github.com/orizon-lang/heapalloc/internal/heapprovider"
)

// Heap is a single allocator instance bound to one Provider. Its zero
// value is not usable; construct one with New.
//
// Concurrency: a Heap is single-threaded and cooperative. Every
// exported method runs to completion with exclusive
// access to the heads array and the backing region; a Heap has no
// internal locking and callers invoking it from multiple goroutines
// must provide their own mutual exclusion.
type Heap struct {
	provider heapprovider.Provider
	config   *Config

	heads          [numClasses]int
	prologueHeader int
	epilogue       int

	debug bool

	allocCount     uint64
	freeCount      uint64
	extendCount    uint64
	totalAllocated uint64
	totalFreed     uint64
}

// New creates a Heap over provider, laying down the prologue and
// epilogue sentinels. provider must be freshly constructed: New
// performs the heap's one-time initialization Sbrk itself.
func New(provider heapprovider.Provider, opts ...Option) (*Heap, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	h := &Heap{provider: provider, config: cfg, debug: cfg.EnableDebug}
	for i := range h.heads {
		h.heads[i] = noNode
	}

	if err := h.init(); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Heap) init() error {
	base, ok := h.provider.Sbrk(4 * Word)
	if !ok {
		return errors.OutOfHeap(4 * Word)
	}

	prologueHeaderOff := base + Word // first Word is unused alignment padding
	h.writeWord(prologueHeaderOff, encodeHeader(PrologueSize, true, true))
	h.writeWord(prologueHeaderOff+Word, encodeHeader(PrologueSize, false, true))

	epilogueOff := prologueHeaderOff + PrologueSize
	h.writeWord(epilogueOff, encodeHeader(0, true, true))

	h.prologueHeader = prologueHeaderOff
	h.epilogue = epilogueOff

	return nil
}

// extendHeap grows the region by exactly n bytes (n must already be
// normalized) and returns the header offset of a fully allocated
// block of that size. The returned block is never split and never
// inserted into a free list: callers must pass the exact size they
// intend to use.
func (h *Heap) extendHeap(n uint64) (int, bool) {
	prevAlloc := decodePrevAlloc(h.readWord(h.epilogue))

	base, ok := h.provider.Sbrk(int(n))
	if !ok {
		return 0, false
	}

	headerOff := base - Word
	h.writeWord(headerOff, encodeHeader(n, prevAlloc, true))

	newEpilogue := base + int(n) - Word
	h.writeWord(newEpilogue, encodeHeader(0, true, true))
	h.epilogue = newEpilogue
	h.extendCount++

	return headerOff, true
}

// HeapLo and HeapHi expose the provider's current bounds.
func (h *Heap) HeapLo() int { return h.provider.Lo() }
func (h *Heap) HeapHi() int { return h.provider.Hi() }

// SetDebug toggles the consistency checker. Intended for
// internal/debugwatch to flip live without reconstructing the Heap.
func (h *Heap) SetDebug(enabled bool) { h.debug = enabled }

// Debug reports whether the consistency checker currently runs on
// every public call.
func (h *Heap) Debug() bool { return h.debug }
