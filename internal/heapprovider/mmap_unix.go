//go:build darwin || dragonfly || freebsd || linux || openbsd || netbsd || solaris

package heapprovider

import (
	"golang.org/x/sys/unix"
)

// MmapProvider is an OS-backed Provider over an anonymous, private
// mapping. Growth re-maps a larger region, copies the old contents
// forward, and unmaps the old one. There is no in-kernel growth
// primitive this package depends on, so every Sbrk beyond the current
// mapping's capacity is a full relocation, same as MemProvider's slice
// growth but against real pages instead of the Go heap.
type MmapProvider struct {
	mem []byte
}

// NewMmapProvider reserves an initial anonymous mapping of at least
// initial bytes (rounded up by the kernel to a page multiple). The
// region starts at length 0.
func NewMmapProvider(initial int) (*MmapProvider, error) {
	if initial < 1 {
		initial = 1
	}

	mem, err := unix.Mmap(-1, 0, initial, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}

	return &MmapProvider{mem: mem[:0]}, nil
}

func (p *MmapProvider) Sbrk(delta int) (int, bool) {
	if delta <= 0 {
		return 0, false
	}

	base := len(p.mem)

	newLen := base + delta
	if newLen < base {
		return 0, false
	}

	if newLen <= cap(p.mem) {
		p.mem = p.mem[:newLen]

		return base, true
	}

	next, err := unix.Mmap(-1, 0, growCap(cap(p.mem), newLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, false
	}

	copy(next, p.mem[:base])

	old := p.mem[:cap(p.mem)]
	if err := unix.Munmap(old); err != nil {
		_ = unix.Munmap(next)

		return 0, false
	}

	p.mem = next[:newLen]

	return base, true
}

func (p *MmapProvider) Lo() int { return 0 }

func (p *MmapProvider) Hi() int { return len(p.mem) - 1 }

func (p *MmapProvider) Bytes() []byte { return p.mem }

// Close releases the mapping. Not part of the Provider interface:
// the allocator never tears a heap down on its own, this exists only
// for callers of MmapProvider directly, e.g. tests.
func (p *MmapProvider) Close() error {
	if cap(p.mem) == 0 {
		return nil
	}

	err := unix.Munmap(p.mem[:cap(p.mem)])
	p.mem = nil

	return err
}
