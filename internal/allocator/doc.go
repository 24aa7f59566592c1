// Package allocator implements a general-purpose dynamic memory
// allocator over a single, contiguous, monotonically-growable heap
// region. It services malloc/free/realloc/calloc against blocks
// carried by boundary-tag headers (and footers, for free blocks),
// recycled through a segregated free-list index threaded directly
// through the payload area of free blocks.
//
// The heap region itself is never owned by this package: callers
// supply a heapprovider.Provider and this package only ever addresses
// memory as byte offsets into it (see internal/heapprovider). A Heap
// value is single-threaded and cooperative. See the package-level
// concurrency note on Heap for the exclusion contract.
package allocator
