package allocator

import (
	"encoding/gob"
	"io"

	"github.com/orizon-lang/heapalloc/internal/errors"
	"github.com/orizon-lang/heapalloc/internal/heapprovider"
)

// dumpState is the on-wire shape of a debug snapshot: enough to
// reconstruct a Heap's block layout and free lists without replaying
// any allocation history. Activity counters (Stats) and Config are not
// captured.
type dumpState struct {
	Bytes          []byte
	Heads          [numClasses]int
	PrologueHeader int
	Epilogue       int
	Debug          bool
}

// DumpState writes a snapshot of the heap's full backing storage and
// bookkeeping to w, suitable for offline inspection with LoadState and
// Check. It captures only a point-in-time copy; it does not stream
// live updates.
func (h *Heap) DumpState(w io.Writer) error {
	ds := dumpState{
		Bytes:          h.provider.Bytes(),
		Heads:          h.heads,
		PrologueHeader: h.prologueHeader,
		Epilogue:       h.epilogue,
		Debug:          h.debug,
	}

	return gob.NewEncoder(w).Encode(ds)
}

// LoadState reconstructs a Heap from a snapshot written by DumpState.
// The returned Heap is backed by a MemProvider containing the dumped
// bytes; further allocations will extend that provider independently
// of wherever the snapshot was originally taken. Its activity counters
// start at zero and its Config is the default one.
func LoadState(r io.Reader) (*Heap, error) {
	var ds dumpState
	if err := gob.NewDecoder(r).Decode(&ds); err != nil {
		return nil, err
	}

	provider := heapprovider.NewMemProvider(len(ds.Bytes))
	if _, ok := provider.Sbrk(len(ds.Bytes)); !ok {
		return nil, errors.OutOfHeap(uint64(len(ds.Bytes)))
	}

	copy(provider.Bytes(), ds.Bytes)

	h := &Heap{
		provider:       provider,
		config:         defaultConfig(),
		heads:          ds.Heads,
		prologueHeader: ds.PrologueHeader,
		epilogue:       ds.Epilogue,
		debug:          ds.Debug,
	}

	return h, nil
}
