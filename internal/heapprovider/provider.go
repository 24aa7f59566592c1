// Package heapprovider implements the "sbrk-like" heap providers that
// the allocator package consumes. The allocator never touches these
// concrete types directly; it only ever sees the Provider interface,
// and addresses every byte of the region as an offset into it rather
// than as a raw pointer, so a provider is free to relocate its backing
// storage on growth.
package heapprovider

// Provider is the external memory provider contract named in the
// allocator's design: a region that can only grow, plus its current
// bounds.
type Provider interface {
	// Sbrk extends the region by exactly delta bytes (delta must be
	// positive) and returns the offset at which the new segment
	// begins. ok is false if the provider cannot satisfy the request;
	// on failure the region is left unchanged.
	Sbrk(delta int) (base int, ok bool)

	// Lo is the inclusive low offset of the region. It is always 0 for
	// every Provider implementation in this package, but callers
	// should use Lo() rather than assume that.
	Lo() int

	// Hi is the inclusive high offset of the region: len(Bytes())-1,
	// or -1 before the first Sbrk.
	Hi() int

	// Bytes exposes the current backing storage. The returned slice
	// is only valid until the next call to Sbrk, which may grow the
	// region into a new backing array; callers must re-fetch Bytes()
	// after every Sbrk and must never retain a reference across one.
	Bytes() []byte
}
